package stream_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/synarchive/document"
	"github.com/jacentio/synarchive/document/memory"
	"github.com/jacentio/synarchive/platform"
	"github.com/jacentio/synarchive/stream"
)

func newTestHandler(docs document.Store) *stream.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return stream.NewHandler(docs, platform.Registry(), stream.Config{}, logger)
}

func removeEvent(table string, oldImage map[string]events.DynamoDBAttributeValue) events.DynamoDBEvent {
	return events.DynamoDBEvent{Records: []events.DynamoDBEventRecord{{
		EventID:        "evt-1",
		EventName:      "REMOVE",
		EventSourceArn: "arn:aws:dynamodb:us-east-1:123456789012:table/synarchive_" + table + "/stream/2026-01-01T00:00:00.000",
		Change:         events.DynamoDBStreamRecord{OldImage: oldImage},
	}}}
}

func compositeImage(fields map[string]string) events.DynamoDBAttributeValue {
	attrs := make(map[string]events.DynamoDBAttributeValue, len(fields))
	for field, value := range fields {
		attrs[field] = events.NewStringAttribute(value)
	}
	return events.NewMapAttribute(attrs)
}

func insertDoc(t *testing.T, docs document.Store, table string, doc document.Document) {
	t.Helper()
	err := docs.Apply(context.Background(), table, []document.Op{{
		Kind: document.OpInsert,
		Doc:  doc,
	}})
	if err != nil {
		t.Fatalf("insert into %s: %v", table, err)
	}
}

func count(t *testing.T, docs document.Store, table string) int {
	t.Helper()
	all, err := docs.All(context.Background(), table)
	if err != nil {
		t.Fatalf("all %s: %v", table, err)
	}
	return len(all)
}

func TestHandleCascadeRepair_RemovesStrandedRelations(t *testing.T) {
	docs := memory.New()
	h := newTestHandler(docs)

	// A project removal whose cascade died before reaching experiments and
	// runs: the project row is gone, its children linger.
	insertDoc(t, docs, "experiments", document.Document{
		"key": map[string]string{"collab_id": "C1", "project_id": "P1", "expt_id": "E1"},
	})
	insertDoc(t, docs, "runs", document.Document{
		"key": map[string]string{"collab_id": "C1", "project_id": "P1", "expt_id": "E1", "run_id": "R1"},
	})
	insertDoc(t, docs, "runs", document.Document{
		"key": map[string]string{"collab_id": "C1", "project_id": "P2", "expt_id": "E1", "run_id": "R1"},
	})

	event := removeEvent("projects", map[string]events.DynamoDBAttributeValue{
		"key": compositeImage(map[string]string{"collab_id": "C1", "project_id": "P1"}),
	})
	if err := h.HandleCascadeRepair(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if got := count(t, docs, "experiments"); got != 0 {
		t.Errorf("expected stranded experiment removed, %d left", got)
	}
	// Only P1's run is in scope.
	if got := count(t, docs, "runs"); got != 1 {
		t.Errorf("expected P2's run to survive, %d runs left", got)
	}
}

func TestHandleCascadeRepair_AssociationSubjectCascadesByLink(t *testing.T) {
	docs := memory.New()
	h := newTestHandler(docs)

	insertDoc(t, docs, "tags", document.Document{
		"key":  map[string]string{"collab_id": "C1", "project_id": "P1", "participant_id": "X"},
		"link": map[string]string{"tag_id": "T1", "registration_id": "L1"},
	})
	insertDoc(t, docs, "tags", document.Document{
		"key":  map[string]string{"collab_id": "C1", "project_id": "P1", "participant_id": "Y"},
		"link": map[string]string{"tag_id": "T2", "registration_id": "L2"},
	})

	// The removed registration carries both identities; the chain below it is
	// tied by link, not key.
	event := removeEvent("registrations", map[string]events.DynamoDBAttributeValue{
		"key":  compositeImage(map[string]string{"collab_id": "C1", "project_id": "P1", "participant_id": "X"}),
		"link": compositeImage(map[string]string{"registration_id": "L1"}),
	})
	if err := h.HandleCascadeRepair(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	left, err := docs.All(context.Background(), "tags")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(left) != 1 {
		t.Fatalf("expected 1 tag left, got %d", len(left))
	}
	link, _ := document.Composite(left[0], "link")
	if link["registration_id"] != "L2" {
		t.Errorf("wrong tag survived: %v", left[0])
	}
}

func TestHandleCascadeRepair_CompleteCascadeIsNoop(t *testing.T) {
	docs := memory.New()
	h := newTestHandler(docs)

	event := removeEvent("projects", map[string]events.DynamoDBAttributeValue{
		"key": compositeImage(map[string]string{"collab_id": "C1", "project_id": "P1"}),
	})

	// Replaying the same removal against clean tables must stay a no-op.
	for i := 0; i < 2; i++ {
		if err := h.HandleCascadeRepair(context.Background(), event); err != nil {
			t.Fatalf("replay %d: %v", i, err)
		}
	}
}

func TestHandleCascadeRepair_IgnoresIrrelevantEvents(t *testing.T) {
	docs := memory.New()
	h := newTestHandler(docs)

	insertDoc(t, docs, "runs", document.Document{
		"key": map[string]string{"collab_id": "C1", "project_id": "P1", "expt_id": "E1", "run_id": "R1"},
	})

	irrelevant := []events.DynamoDBEvent{
		// Not a removal.
		{Records: []events.DynamoDBEventRecord{{
			EventName:      "MODIFY",
			EventSourceArn: "arn:aws:dynamodb:us-east-1:123456789012:table/synarchive_projects/stream/x",
		}}},
		// Foreign table.
		removeEvent("orders", nil),
		// Removed record without an identifier value.
		removeEvent("projects", map[string]events.DynamoDBAttributeValue{
			"key": compositeImage(map[string]string{"collab_id": "C1"}),
		}),
	}

	for _, event := range irrelevant {
		if err := h.HandleCascadeRepair(context.Background(), event); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}

	if got := count(t, docs, "runs"); got != 1 {
		t.Errorf("expected run untouched, %d left", got)
	}
}
