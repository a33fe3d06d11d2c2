package archive

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jacentio/synarchive/document"
)

// Associative layers upstream association handling over a Relational view.
// Association records carry two identities: the structural key supplied by
// the caller, and a generated link that accumulates the link of every
// matching upstream association record, giving upstream traceability without
// key coupling. Expansion, filtering and cascade deletion run against the
// link; creation and lookup run against the key.
type Associative struct {
	relational *Relational
}

// NewAssociative creates a view bound to the given subject configuration.
func NewAssociative(docs document.Store, subject Subject) *Associative {
	return &Associative{relational: NewRelational(docs, subject)}
}

// Subject returns the view's subject configuration.
func (v *Associative) Subject() Subject {
	return v.subject()
}

func (v *Associative) subject() Subject {
	return v.relational.subject
}

// Create generates a fresh opaque link token for the record, accumulates the
// link of the single matching record (if any) in each configured upstream
// association subject, and stores the record under its key. Finding more
// than one upstream match is an integrity violation, reported as
// ErrCardinality before any store mutation.
func (v *Associative) Create(ctx context.Context, rec Record) (Record, error) {
	subject := v.subject()
	link := Key{subject.Identifier: newLinkToken()}

	// Trace the key upstream and accumulate each chain link found.
	for _, upstream := range subject.Associations {
		pred := document.Predicate{Field: FieldKey, Equals: rec.Key}
		docs, err := v.relational.generic.docs.Query(ctx, upstream, pred)
		if err != nil {
			return Record{}, fmt.Errorf("trace %s: %w", upstream, err)
		}
		if len(docs) > 1 {
			return Record{}, fmt.Errorf("%w: %d %s records match key", ErrCardinality, len(docs), upstream)
		}
		if len(docs) == 1 {
			upstreamLink, ok := document.Composite(docs[0], FieldLink)
			if !ok {
				return Record{}, fmt.Errorf("%w: %s record carries no link", ErrIntegrity, upstream)
			}
			for field, value := range upstreamLink {
				link[field] = value
			}
		}
	}

	// The two identity systems must stay distinguishable.
	if rec.Key.Contains(link) {
		return Record{}, fmt.Errorf("%w: link indistinguishable from key", ErrIntegrity)
	}

	rec.Link = link
	return v.relational.Create(ctx, rec)
}

// ReadAll returns every record surviving the filter, expanded by link.
func (v *Associative) ReadAll(ctx context.Context, filter Filter) ([]Record, error) {
	return v.relational.readAll(ctx, filter, FieldLink)
}

// Read fetches the record under id, expanded by link.
func (v *Associative) Read(ctx context.Context, id Key) (Record, error) {
	return v.relational.read(ctx, id, FieldLink)
}

// Update patches the record under id. The link is immutable post-creation: a
// patch naming it is rejected before any store mutation.
func (v *Associative) Update(ctx context.Context, id Key, patch Details) (Record, error) {
	if _, present := patch[FieldLink]; present {
		return Record{}, ErrLinkImmutable
	}
	return v.relational.Update(ctx, id, patch)
}

// Delete resolves the record's link from its key, then cascades by link:
// downstream relation subjects are matched against the link's identifier
// sub-field rather than the structural key, so the whole association chain
// below this record is removed with it.
func (v *Associative) Delete(ctx context.Context, id Key) (Record, error) {
	rec, err := v.relational.generic.Read(ctx, v.subject().Name, FieldKey, id)
	if err != nil {
		return Record{}, err
	}
	return v.relational.delete(ctx, rec.Link, FieldLink)
}

// newLinkToken returns a collision-resistant opaque identifier. No ordering
// semantics are attached to the token itself.
func newLinkToken() string {
	return uuid.NewString()
}
