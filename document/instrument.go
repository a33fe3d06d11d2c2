package document

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store metrics
var (
	// operationsTotal counts store round-trips per table, operation and outcome.
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synarchive_store_operations_total",
			Help: "Total document store operations issued by the archive",
		},
		[]string{"table", "op", "status"},
	)

	// operationDuration tracks store round-trip latency.
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "synarchive_store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table", "op"},
	)
)

// Instrument wraps a Store with prometheus counters and latency histograms.
// The wrapped store is otherwise transparent.
func Instrument(next Store) Store {
	return &instrumented{next: next}
}

type instrumented struct {
	next Store
}

func (s *instrumented) Apply(ctx context.Context, table string, ops []Op) error {
	start := time.Now()
	err := s.next.Apply(ctx, table, ops)
	observe(table, "apply", start, err)
	return err
}

func (s *instrumented) Query(ctx context.Context, table string, pred Predicate) ([]Document, error) {
	start := time.Now()
	docs, err := s.next.Query(ctx, table, pred)
	observe(table, "query", start, err)
	return docs, err
}

func (s *instrumented) All(ctx context.Context, table string) ([]Document, error) {
	start := time.Now()
	docs, err := s.next.All(ctx, table)
	observe(table, "all", start, err)
	return docs, err
}

func observe(table, op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	operationsTotal.WithLabelValues(table, op, status).Inc()
	operationDuration.WithLabelValues(table, op).Observe(time.Since(start).Seconds())
}
