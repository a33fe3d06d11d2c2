// Package sqlite provides an embedded document store backed by
// modernc.org/sqlite. Each subject table maps to one SQL table holding JSON
// payloads keyed by the composite-key digest, and every Apply batch runs in
// one SQL transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/jacentio/synarchive/document"
	"github.com/jacentio/synarchive/internal/compkey"
)

// Compile-time contract assertion.
var _ document.Store = (*Store)(nil)

var tableNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Store persists documents in a single SQLite file.
type Store struct {
	db *sql.DB

	// mu serializes writers. SQLite admits one writer at a time anyway;
	// taking the lock here avoids SQLITE_BUSY churn under concurrent Apply.
	mu sync.Mutex

	ensured map[string]bool
}

// New opens (creating if necessary) the SQLite file at path.
func New(path string) (*Store, error) {
	if path == "" {
		path = "synarchive.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &Store{db: db, ensured: make(map[string]bool)}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureTable(ctx context.Context, name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("sqlite: invalid table name %q", name)
	}
	if s.ensured[name] {
		return nil
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %q (pk TEXT PRIMARY KEY, payload BLOB NOT NULL)`, name))
	if err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	s.ensured[name] = true
	return nil
}

// Apply runs the batch inside one SQL transaction.
func (s *Store) Apply(ctx context.Context, name string, ops []document.Op) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureTable(ctx, name); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, op := range ops {
		if err := s.applyOp(ctx, tx, name, op); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) applyOp(ctx context.Context, tx *sql.Tx, name string, op document.Op) error {
	switch op.Kind {
	case document.OpInsert:
		return s.insert(ctx, tx, name, op)
	case document.OpUpdate:
		return s.update(ctx, tx, name, op)
	case document.OpRemove:
		return s.remove(ctx, tx, name, op)
	default:
		return fmt.Errorf("sqlite: unknown op kind %d", op.Kind)
	}
}

func (s *Store) insert(ctx context.Context, tx *sql.Tx, name string, op document.Op) error {
	key, ok := document.Composite(op.Doc, "key")
	if !ok {
		return errors.New("sqlite: document has no composite key")
	}
	payload, err := json.Marshal(op.Doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	// ON CONFLICT keeps the original rowid, preserving storage order across
	// upserts.
	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %q (pk, payload) VALUES (?, ?)
		 ON CONFLICT(pk) DO UPDATE SET payload = excluded.payload`, name),
		compkey.Digest(key), payload)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (s *Store) update(ctx context.Context, tx *sql.Tx, name string, op document.Op) error {
	if op.Where == nil {
		return errors.New("sqlite: update requires a predicate")
	}
	matches, err := s.matchRows(ctx, tx, name, *op.Where)
	if err != nil {
		return err
	}
	for _, m := range matches {
		patched := m.doc
		for field, value := range op.Doc {
			patched[field] = value
		}
		payload, err := json.Marshal(patched)
		if err != nil {
			return fmt.Errorf("encode patched document: %w", err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			`UPDATE %q SET payload = ? WHERE pk = ?`, name), payload, m.pk); err != nil {
			return fmt.Errorf("update: %w", err)
		}
	}
	return nil
}

func (s *Store) remove(ctx context.Context, tx *sql.Tx, name string, op document.Op) error {
	if op.Where == nil {
		return errors.New("sqlite: remove requires a predicate")
	}
	matches, err := s.matchRows(ctx, tx, name, *op.Where)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			`DELETE FROM %q WHERE pk = ?`, name), m.pk); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
	}
	return nil
}

type row struct {
	pk  string
	doc document.Document
}

func (s *Store) matchRows(ctx context.Context, tx *sql.Tx, name string, pred document.Predicate) ([]row, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(
		`SELECT pk, payload FROM %q ORDER BY rowid`, name))
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []row
	for rows.Next() {
		var r row
		var payload []byte
		if err := rows.Scan(&r.pk, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if err := json.Unmarshal(payload, &r.doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		if pred.Matches(r.doc) {
			out = append(out, r)
		}
	}
	return out, rows.Err()
}

// Query returns every document matched by pred, in storage order.
func (s *Store) Query(ctx context.Context, name string, pred document.Predicate) ([]document.Document, error) {
	docs, err := s.scan(ctx, name)
	if err != nil {
		return nil, err
	}
	var out []document.Document
	for _, doc := range docs {
		if pred.Matches(doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// All returns every document in the table, in storage order.
func (s *Store) All(ctx context.Context, name string) ([]document.Document, error) {
	return s.scan(ctx, name)
}

func (s *Store) scan(ctx context.Context, name string) ([]document.Document, error) {
	s.mu.Lock()
	if err := s.ensureTable(ctx, name); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT payload FROM %q ORDER BY rowid`, name))
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []document.Document
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var doc document.Document
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}
