package document

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeStore records calls and returns canned results.
type fakeStore struct {
	docs []Document
	err  error

	applied int
}

func (f *fakeStore) Apply(ctx context.Context, table string, ops []Op) error {
	f.applied++
	return f.err
}

func (f *fakeStore) Query(ctx context.Context, table string, pred Predicate) ([]Document, error) {
	return f.docs, f.err
}

func (f *fakeStore) All(ctx context.Context, table string) ([]Document, error) {
	return f.docs, f.err
}

func TestInstrument_Delegates(t *testing.T) {
	fake := &fakeStore{docs: []Document{{"field": "value"}}}
	store := Instrument(fake)
	ctx := context.Background()

	if err := store.Apply(ctx, "projects", nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if fake.applied != 1 {
		t.Errorf("expected apply to reach the wrapped store, got %d calls", fake.applied)
	}

	docs, err := store.Query(ctx, "projects", Predicate{Field: "key"})
	if err != nil || len(docs) != 1 {
		t.Errorf("expected wrapped result, got %v, %v", docs, err)
	}
	docs, err = store.All(ctx, "projects")
	if err != nil || len(docs) != 1 {
		t.Errorf("expected wrapped result, got %v, %v", docs, err)
	}
}

func TestInstrument_CountsOutcomes(t *testing.T) {
	fake := &fakeStore{}
	store := Instrument(fake)
	ctx := context.Background()

	before := testutil.ToFloat64(operationsTotal.WithLabelValues("metrics_probe", "apply", "ok"))
	if err := store.Apply(ctx, "metrics_probe", nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	after := testutil.ToFloat64(operationsTotal.WithLabelValues("metrics_probe", "apply", "ok"))
	if after != before+1 {
		t.Errorf("expected ok counter to advance by 1, got %v -> %v", before, after)
	}

	fake.err = errors.New("backend down")
	beforeErr := testutil.ToFloat64(operationsTotal.WithLabelValues("metrics_probe", "apply", "error"))
	if err := store.Apply(ctx, "metrics_probe", nil); err == nil {
		t.Fatal("expected wrapped error to surface")
	}
	afterErr := testutil.ToFloat64(operationsTotal.WithLabelValues("metrics_probe", "apply", "error"))
	if afterErr != beforeErr+1 {
		t.Errorf("expected error counter to advance by 1, got %v -> %v", beforeErr, afterErr)
	}
}
