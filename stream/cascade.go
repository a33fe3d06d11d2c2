// Package stream provides DynamoDB Streams handlers that re-drive cascading
// deletion. Cascades commit per table with no cross-table transaction, so a
// crash between tables can strand downstream records; replaying removal
// events repairs those stragglers.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/synarchive/archive"
	"github.com/jacentio/synarchive/document"
)

// Config holds configuration for the Handler.
type Config struct {
	// TablePrefix is the prefix stripped from stream source table names to
	// recover subject names. Default: "synarchive_"
	TablePrefix string
}

func (c *Config) validate() {
	if c.TablePrefix == "" {
		c.TablePrefix = "synarchive_"
	}
}

// Handler processes DynamoDB stream events for cascade repair.
type Handler struct {
	docs     document.Store
	registry *archive.Registry
	config   Config
	logger   *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(docs document.Store, registry *archive.Registry, config Config, logger *slog.Logger) *Handler {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		docs:     docs,
		registry: registry,
		config:   config,
		logger:   logger,
	}
}

// HandleCascadeRepair processes DynamoDB stream events, removing downstream
// records that an interrupted cascade left behind. Removal is idempotent: a
// complete cascade replays as a no-op. This function is designed to be used
// as an AWS Lambda handler.
func (h *Handler) HandleCascadeRepair(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord re-drives the cascade of a single removal event.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != "REMOVE" {
		return nil
	}

	name, ok := h.subjectFromSource(record.EventSourceArn)
	if !ok {
		return nil
	}
	subject, ok := h.registry.Subject(name)
	if !ok {
		h.logger.Warn("removal from unregistered table", "table", name)
		return nil
	}
	if len(subject.Relations) == 0 {
		return nil
	}

	// Association records cascade by link, everything else by key.
	field := archive.FieldKey
	identity := compositeAttr(record.Change.OldImage, archive.FieldLink)
	if len(identity) == 0 {
		identity = compositeAttr(record.Change.OldImage, archive.FieldKey)
	} else {
		field = archive.FieldLink
	}

	ident := identity[subject.Identifier]
	if ident == "" {
		h.logger.Warn("removed record carries no identifier",
			"subject", name,
			"field", subject.Identifier,
		)
		return nil
	}

	h.logger.Info("re-driving cascade",
		"subject", name,
		"identifier", ident,
		"field", field,
	)

	related := document.Predicate{Field: field, SubField: subject.Identifier, Value: ident}
	repaired := 0
	for _, relation := range subject.Relations {
		stranded, err := h.docs.Query(ctx, relation, related)
		if err != nil {
			return fmt.Errorf("query %s: %w", relation, err)
		}
		if len(stranded) == 0 {
			continue
		}

		err = h.docs.Apply(ctx, relation, []document.Op{{
			Kind:  document.OpRemove,
			Where: &related,
		}})
		if err != nil {
			return fmt.Errorf("cascade %s: %w", relation, err)
		}
		repaired += len(stranded)
	}

	h.logger.Info("cascade repair completed",
		"subject", name,
		"identifier", ident,
		"repaired", repaired,
	)

	return nil
}

// subjectFromSource recovers the subject name from a stream source ARN of
// the form arn:aws:dynamodb:...:table/<prefix><subject>/stream/<timestamp>.
func (h *Handler) subjectFromSource(arn string) (string, bool) {
	_, rest, found := strings.Cut(arn, "table/")
	if !found {
		return "", false
	}
	table, _, _ := strings.Cut(rest, "/")
	return strings.CutPrefix(table, h.config.TablePrefix)
}

// compositeAttr extracts a composite identity attribute from a DynamoDB
// stream image.
func compositeAttr(image map[string]events.DynamoDBAttributeValue, key string) map[string]string {
	v, ok := image[key]
	if !ok || v.DataType() != events.DataTypeMap {
		return nil
	}
	result := make(map[string]string)
	for field, item := range v.Map() {
		if item.DataType() == events.DataTypeString {
			result[field] = item.String()
		}
	}
	return result
}
