package archive

import (
	"time"

	"github.com/jacentio/synarchive/document"
)

// Reserved document fields managed by the archive.
const (
	// FieldKey holds the composite identifier tying a record to its position
	// in the containment hierarchy.
	FieldKey = "key"

	// FieldLink holds the generated composite identifier tying an association
	// record to its upstream association chain.
	FieldLink = "link"

	fieldCreatedAt = "created_at"
)

// Key is a composite identifier: an unordered set of field→value pairs.
type Key map[string]string

// Clone returns an independent copy of the key.
func (k Key) Clone() Key {
	if k == nil {
		return nil
	}
	out := make(Key, len(k))
	for field, value := range k {
		out[field] = value
	}
	return out
}

// Equal reports whether both keys carry exactly the same pairs.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for field, value := range other {
		if k[field] != value {
			return false
		}
	}
	return true
}

// Contains reports whether every pair of other is present in k.
func (k Key) Contains(other Key) bool {
	for field, value := range other {
		if k[field] != value {
			return false
		}
	}
	return true
}

// Details is the opaque domain payload of a record. The archive never
// interprets its contents.
type Details map[string]any

// Record is a document belonging to exactly one subject table.
type Record struct {
	// Key uniquely identifies the record within its subject.
	Key Key

	// Link is the accumulated association-chain identifier. Empty for
	// records of purely relational subjects.
	Link Key

	// CreatedAt is stamped by the store at creation/upsert time, truncated
	// to whole seconds.
	CreatedAt time.Time

	// Details is the domain payload.
	Details Details

	// Relations maps each configured downstream relation subject to the
	// matching records found at read time. Computed fresh on every read and
	// never persisted.
	Relations map[string][]Record
}

// identity returns the record's composite identifier under the named field.
func (r Record) identity(field string) Key {
	if field == FieldLink {
		return r.Link
	}
	return r.Key
}

// asDocument encodes the record for storage. Relations are deliberately
// dropped.
func (r Record) asDocument() document.Document {
	doc := make(document.Document, len(r.Details)+3)
	for field, value := range r.Details {
		switch field {
		case FieldKey, FieldLink, fieldCreatedAt:
			continue
		}
		doc[field] = value
	}
	doc[FieldKey] = map[string]string(r.Key.Clone())
	if len(r.Link) > 0 {
		doc[FieldLink] = map[string]string(r.Link.Clone())
	}
	if !r.CreatedAt.IsZero() {
		doc[fieldCreatedAt] = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return doc
}

// recordFromDocument decodes a stored document back into a Record.
func recordFromDocument(doc document.Document) Record {
	rec := Record{Details: make(Details)}

	if key, ok := document.Composite(doc, FieldKey); ok {
		rec.Key = Key(key)
	}
	if link, ok := document.Composite(doc, FieldLink); ok {
		rec.Link = Key(link)
	}
	if stamp, ok := doc[fieldCreatedAt].(string); ok {
		if at, err := time.Parse(time.RFC3339, stamp); err == nil {
			rec.CreatedAt = at
		}
	}

	for field, value := range doc {
		switch field {
		case FieldKey, FieldLink, fieldCreatedAt:
			continue
		}
		rec.Details[field] = value
	}
	return rec
}
