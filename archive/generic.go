package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jacentio/synarchive/document"
)

// Generic owns the atomic CRUD primitives against single subject tables:
// creation-time stamping, upsert-by-identity and predicate lookup. It is the
// leaf of the view stack; Relational and Associative build on it.
type Generic struct {
	docs document.Store
}

// NewGeneric creates a Generic over the given document store.
func NewGeneric(docs document.Store) *Generic {
	return &Generic{docs: docs}
}

// Create stores rec in subject under its idField identity, stamping
// created_at with the current wall clock truncated to whole seconds. If a
// record with the same identity already exists its contents are replaced in
// place: create is an upsert, never a conflict. Returns the stored
// record.
func (g *Generic) Create(ctx context.Context, subject, idField string, rec Record) (Record, error) {
	id := rec.identity(idField)
	if len(id) == 0 {
		return Record{}, fmt.Errorf("create %s: empty %s identity", subject, idField)
	}

	rec.CreatedAt = time.Now().UTC().Truncate(time.Second)

	pred := document.Predicate{Field: idField, Equals: id}
	err := g.docs.Apply(ctx, subject, []document.Op{{
		Kind:  document.OpInsert,
		Where: &pred,
		Doc:   rec.asDocument(),
	}})
	if err != nil {
		return Record{}, fmt.Errorf("create %s: %w", subject, err)
	}

	return g.Read(ctx, subject, idField, id)
}

// ReadAll returns every record in subject, in storage order.
func (g *Generic) ReadAll(ctx context.Context, subject string) ([]Record, error) {
	docs, err := g.docs.All(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("read all %s: %w", subject, err)
	}
	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, recordFromDocument(doc))
	}
	return records, nil
}

// Read fetches the record whose idField identity equals id, or ErrNotFound.
func (g *Generic) Read(ctx context.Context, subject, idField string, id Key) (Record, error) {
	docs, err := g.docs.Query(ctx, subject, document.Predicate{Field: idField, Equals: id})
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", subject, err)
	}
	if len(docs) == 0 {
		return Record{}, ErrNotFound
	}
	return recordFromDocument(docs[0]), nil
}

// Update applies the patch fields atomically to the matching record and
// returns the post-update record. Fails with ErrNotFound if no record
// matches.
func (g *Generic) Update(ctx context.Context, subject, idField string, id Key, patch Details) (Record, error) {
	if _, err := g.Read(ctx, subject, idField, id); err != nil {
		return Record{}, err
	}

	pred := document.Predicate{Field: idField, Equals: id}
	err := g.docs.Apply(ctx, subject, []document.Op{{
		Kind:  document.OpUpdate,
		Where: &pred,
		Doc:   document.Document(patch),
	}})
	if err != nil {
		return Record{}, fmt.Errorf("update %s: %w", subject, err)
	}

	return g.Read(ctx, subject, idField, id)
}

// Delete atomically removes the matching record and returns its pre-removal
// snapshot for caller auditing. Fails with ErrNotFound if no record matches.
func (g *Generic) Delete(ctx context.Context, subject, idField string, id Key) (Record, error) {
	rec, err := g.Read(ctx, subject, idField, id)
	if err != nil {
		return Record{}, err
	}

	pred := document.Predicate{Field: idField, Equals: id}
	err = g.docs.Apply(ctx, subject, []document.Op{{
		Kind:  document.OpRemove,
		Where: &pred,
	}})
	if err != nil {
		return Record{}, fmt.Errorf("delete %s: %w", subject, err)
	}

	return rec, nil
}
