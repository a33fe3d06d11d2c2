// Package document defines the contract the archive core requires from its
// persistent document store: per-table atomic application of a batch of
// write operations, predicate lookup by composite identifier, and full-table
// iteration. Implementations live in the memory, sqlite and dynamo
// subpackages.
package document

import "context"

// Document is a schemaless record payload. Values are limited to
// JSON-compatible types: string, bool, float64, nil, []any, map[string]any,
// plus map[string]string for composite identifier fields.
type Document map[string]any

// Predicate selects documents by composite-identifier equality. Exactly one
// of Equals or SubField is set.
type Predicate struct {
	// Field names the top-level attribute holding the composite identifier,
	// typically "key" or "link".
	Field string

	// Equals matches documents whose Field carries exactly these pairs.
	Equals map[string]string

	// SubField matches documents whose Field contains SubField=Value,
	// regardless of the other pairs present.
	SubField string

	// Value is the required value of SubField.
	Value string
}

// Matches reports whether doc satisfies the predicate.
func (p Predicate) Matches(doc Document) bool {
	id, ok := Composite(doc, p.Field)
	if !ok {
		return false
	}
	if p.Equals != nil {
		if len(id) != len(p.Equals) {
			return false
		}
		for field, want := range p.Equals {
			if id[field] != want {
				return false
			}
		}
		return true
	}
	got, present := id[p.SubField]
	return present && got == p.Value
}

// OpKind enumerates the write operations a store must support.
type OpKind int

const (
	// OpInsert stores Doc, replacing any existing document matched by Where.
	// This is the upsert primitive: with a Where predicate on the document's
	// own identity it never produces duplicates.
	OpInsert OpKind = iota

	// OpUpdate merges the fields of Doc into every document matched by Where.
	OpUpdate

	// OpRemove deletes every document matched by Where.
	OpRemove
)

// Op is a single write operation within an atomic batch.
type Op struct {
	Kind OpKind

	// Where selects the affected documents. Required for OpUpdate and
	// OpRemove; optional for OpInsert (nil means unconditional append).
	Where *Predicate

	// Doc is the full document for OpInsert, or the patch for OpUpdate.
	Doc Document
}

// Store is the persistent document store collaborator.
//
// Apply commits a batch of operations against one table as a single atomic
// unit: either every operation takes effect or none does. Implementations
// must serialize concurrent calls touching the same table. No atomicity is
// promised across tables.
type Store interface {
	Apply(ctx context.Context, table string, ops []Op) error

	// Query returns every document in table matched by pred.
	Query(ctx context.Context, table string, pred Predicate) ([]Document, error)

	// All returns every document in table, in storage order. Callers must not
	// rely on the order for correctness.
	All(ctx context.Context, table string) ([]Document, error)
}

// Composite extracts a composite identifier field from a document, coercing
// the map[string]any shape produced by JSON or DynamoDB round-trips.
func Composite(doc Document, field string) (map[string]string, bool) {
	switch v := doc[field].(type) {
	case map[string]string:
		return v, true
	case map[string]any:
		id := make(map[string]string, len(v))
		for f, raw := range v {
			s, ok := raw.(string)
			if !ok {
				return nil, false
			}
			id[f] = s
		}
		return id, true
	default:
		return nil, false
	}
}

// Clone deep-copies a document so callers cannot alias stored state.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, inner := range val {
			out[k] = inner
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return val
	}
}
