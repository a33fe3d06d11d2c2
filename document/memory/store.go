// Package memory provides an in-process document store used for tests and
// ephemeral environments. Each table is guarded by its own lock, so writes
// against one table serialize while distinct tables proceed independently.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jacentio/synarchive/document"
)

// Compile-time contract assertion.
var _ document.Store = (*Store)(nil)

var errMissingPredicate = errors.New("memory: operation requires a predicate")

type table struct {
	mu   sync.Mutex
	docs []document.Document
}

// Store holds all tables in process memory.
type Store struct {
	mu     sync.Mutex
	tables map[string]*table
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

func (s *Store) table(name string) *table {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[name]
	if !ok {
		t = &table{}
		s.tables[name] = t
	}
	return t
}

// Apply commits the batch against one table under its lock. The batch is
// staged against a copy of the table and swapped in only if every operation
// succeeds, so a failed batch leaves no trace.
func (s *Store) Apply(ctx context.Context, name string, ops []document.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := s.table(name)
	t.mu.Lock()
	defer t.mu.Unlock()

	staged := make([]document.Document, len(t.docs))
	copy(staged, t.docs)

	for _, op := range ops {
		var err error
		staged, err = applyOp(staged, op)
		if err != nil {
			return err
		}
	}

	t.docs = staged
	return nil
}

func applyOp(docs []document.Document, op document.Op) ([]document.Document, error) {
	switch op.Kind {
	case document.OpInsert:
		if op.Where != nil {
			docs = removeMatching(docs, *op.Where)
		}
		return append(docs, document.Clone(op.Doc)), nil

	case document.OpUpdate:
		if op.Where == nil {
			return nil, errMissingPredicate
		}
		for i, doc := range docs {
			if !op.Where.Matches(doc) {
				continue
			}
			patched := document.Clone(doc)
			for field, value := range document.Clone(op.Doc) {
				patched[field] = value
			}
			docs[i] = patched
		}
		return docs, nil

	case document.OpRemove:
		if op.Where == nil {
			return nil, errMissingPredicate
		}
		return removeMatching(docs, *op.Where), nil

	default:
		return nil, fmt.Errorf("memory: unknown op kind %d", op.Kind)
	}
}

func removeMatching(docs []document.Document, pred document.Predicate) []document.Document {
	kept := docs[:0:0]
	for _, doc := range docs {
		if !pred.Matches(doc) {
			kept = append(kept, doc)
		}
	}
	return kept
}

// Query returns clones of every document matched by pred, in storage order.
func (s *Store) Query(ctx context.Context, name string, pred document.Predicate) ([]document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := s.table(name)
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []document.Document
	for _, doc := range t.docs {
		if pred.Matches(doc) {
			out = append(out, document.Clone(doc))
		}
	}
	return out, nil
}

// All returns clones of every document in the table, in storage order.
func (s *Store) All(ctx context.Context, name string) ([]document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := s.table(name)
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]document.Document, 0, len(t.docs))
	for _, doc := range t.docs {
		out = append(out, document.Clone(doc))
	}
	return out, nil
}
