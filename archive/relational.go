package archive

import (
	"context"
	"fmt"

	"github.com/jacentio/synarchive/document"
)

// Relational is a hierarchy-aware view over one subject table. Reads expand
// each record with its downstream relation records, and deletes cascade
// through every configured relation subject before removing the record
// itself.
type Relational struct {
	generic *Generic
	subject Subject
}

// NewRelational creates a view bound to the given subject configuration.
func NewRelational(docs document.Store, subject Subject) *Relational {
	return &Relational{generic: NewGeneric(docs), subject: subject}
}

// Subject returns the view's subject configuration.
func (v *Relational) Subject() Subject {
	return v.subject
}

// Filter holds optional field→value pairs for bulk reads. A record survives
// when the pairs are contained in its key, in its identity field, or in its
// payload: three independent predicates combined by OR.
type Filter map[string]string

// Create stores rec under its key.
func (v *Relational) Create(ctx context.Context, rec Record) (Record, error) {
	return v.generic.Create(ctx, v.subject.Name, FieldKey, rec)
}

// ReadAll returns every record surviving the filter, each expanded with its
// downstream relations.
func (v *Relational) ReadAll(ctx context.Context, filter Filter) ([]Record, error) {
	return v.readAll(ctx, filter, FieldKey)
}

func (v *Relational) readAll(ctx context.Context, filter Filter, expandField string) ([]Record, error) {
	records, err := v.generic.ReadAll(ctx, v.subject.Name)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if !matchesFilter(rec, filter, expandField) {
			continue
		}
		expanded, err := v.expand(ctx, rec, expandField)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return out, nil
}

// Read fetches the record under id, expanded with its downstream relations.
func (v *Relational) Read(ctx context.Context, id Key) (Record, error) {
	return v.read(ctx, id, FieldKey)
}

func (v *Relational) read(ctx context.Context, id Key, expandField string) (Record, error) {
	rec, err := v.generic.Read(ctx, v.subject.Name, FieldKey, id)
	if err != nil {
		return Record{}, err
	}
	return v.expand(ctx, rec, expandField)
}

// Update patches the record under id. The key is immutable post-creation:
// a patch naming it is rejected before any store mutation.
func (v *Relational) Update(ctx context.Context, id Key, patch Details) (Record, error) {
	if _, present := patch[FieldKey]; present {
		return Record{}, ErrKeyImmutable
	}
	return v.generic.Update(ctx, v.subject.Name, FieldKey, id, patch)
}

// Delete removes the record under id after cascading through every
// configured downstream relation subject: all records whose identifier
// sub-field matches this record's identifier value are removed first. The
// returned snapshot includes the relations removed by the cascade.
//
// Each relation table commits independently; there is no cross-table
// transaction. A cascade that leaves matching records behind is surfaced as
// ErrIntegrity rather than retried (re-driving a partial cascade is the
// surrounding system's call).
func (v *Relational) Delete(ctx context.Context, id Key) (Record, error) {
	return v.delete(ctx, id, FieldKey)
}

func (v *Relational) delete(ctx context.Context, id Key, idField string) (Record, error) {
	rec, err := v.generic.Read(ctx, v.subject.Name, idField, id)
	if err != nil {
		return Record{}, err
	}

	// Archive the record with the relations about to be removed, for the
	// caller's audit trail.
	rec, err = v.expand(ctx, rec, idField)
	if err != nil {
		return Record{}, err
	}

	ident := id[v.subject.Identifier]
	if ident == "" {
		return Record{}, fmt.Errorf("delete %s: identity missing %s", v.subject.Name, v.subject.Identifier)
	}

	related := document.Predicate{Field: idField, SubField: v.subject.Identifier, Value: ident}
	for _, relation := range v.subject.Relations {
		err := v.generic.docs.Apply(ctx, relation, []document.Op{{
			Kind:  document.OpRemove,
			Where: &related,
		}})
		if err != nil {
			return Record{}, fmt.Errorf("cascade %s: %w", relation, err)
		}

		// Post-condition: every matching record is gone, and the archived
		// snapshot only names records within the cascade's scope.
		left, err := v.generic.docs.Query(ctx, relation, related)
		if err != nil {
			return Record{}, fmt.Errorf("verify cascade %s: %w", relation, err)
		}
		if len(left) > 0 {
			return Record{}, fmt.Errorf("%w: %d %s records survived cascade", ErrIntegrity, len(left), relation)
		}
		for _, snapshot := range rec.Relations[relation] {
			if snapshot.identity(idField)[v.subject.Identifier] != ident {
				return Record{}, fmt.Errorf("%w: %s record outside cascade scope", ErrIntegrity, relation)
			}
		}
	}

	// Finally, remove the record itself.
	main := document.Predicate{Field: idField, Equals: id}
	err = v.generic.docs.Apply(ctx, v.subject.Name, []document.Op{{
		Kind:  document.OpRemove,
		Where: &main,
	}})
	if err != nil {
		return Record{}, fmt.Errorf("delete %s: %w", v.subject.Name, err)
	}
	left, err := v.generic.docs.Query(ctx, v.subject.Name, main)
	if err != nil {
		return Record{}, fmt.Errorf("verify delete %s: %w", v.subject.Name, err)
	}
	if len(left) > 0 {
		return Record{}, fmt.Errorf("%w: %s record survived removal", ErrIntegrity, v.subject.Name)
	}

	return rec, nil
}

// expand augments rec with the matching records of every configured relation
// subject: a one-hop fan-out per subject, never a recursive traversal. The
// configuration is trusted to list the transitively flattened relation set.
// The result is attached to the returned record only, never persisted.
func (v *Relational) expand(ctx context.Context, rec Record, field string) (Record, error) {
	ident := rec.identity(field)[v.subject.Identifier]

	relations := make(map[string][]Record, len(v.subject.Relations))
	for _, relation := range v.subject.Relations {
		pred := document.Predicate{Field: field, SubField: v.subject.Identifier, Value: ident}
		docs, err := v.generic.docs.Query(ctx, relation, pred)
		if err != nil {
			return Record{}, fmt.Errorf("expand %s: %w", relation, err)
		}
		records := make([]Record, 0, len(docs))
		for _, doc := range docs {
			records = append(records, recordFromDocument(doc))
		}
		relations[relation] = records
	}

	rec.Relations = relations
	return rec, nil
}

func matchesFilter(rec Record, filter Filter, idField string) bool {
	if len(filter) == 0 {
		return true
	}
	if rec.Key.Contains(Key(filter)) {
		return true
	}
	if rec.identity(idField).Contains(Key(filter)) {
		return true
	}
	return detailsContain(rec.Details, filter)
}

func detailsContain(details Details, filter Filter) bool {
	for field, want := range filter {
		got, ok := details[field].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}
