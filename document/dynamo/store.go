// Package dynamo provides a DynamoDB-backed document store. Documents are
// marshalled with the attributevalue codec; the partition key is the digest
// of the document's composite key, and Apply batches execute as
// TransactWriteItems calls, which keeps the per-table atomicity contract up
// to the API's per-call item cap.
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/synarchive/document"
	"github.com/jacentio/synarchive/internal/compkey"
)

// Compile-time contract assertion.
var _ document.Store = (*Store)(nil)

// partitionAttr is the table's partition key attribute. It is managed by the
// store and stripped from documents on the way out.
const partitionAttr = "pk"

// Config holds configuration for the Store.
type Config struct {
	// TablePrefix is prepended to subject names to form DynamoDB table names.
	// Default: "synarchive_"
	TablePrefix string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{TablePrefix: "synarchive_"}
}

func (c *Config) validate() {
	if c.TablePrefix == "" {
		c.TablePrefix = "synarchive_"
	}
}

// Store issues document operations against DynamoDB tables.
type Store struct {
	client *dynamodb.Client
	config Config
}

// New creates a new Store instance.
func New(client *dynamodb.Client, config Config) *Store {
	config.validate()
	return &Store{client: client, config: config}
}

func (s *Store) tableName(table string) string {
	return s.config.TablePrefix + table
}

// Apply translates the batch into TransactWriteItems calls, chunked at the
// API's item cap; a batch resolving to more items than one call admits
// commits per chunk rather than as a whole. Predicates that are not full-key
// lookups are resolved to partition keys with a scan first; the store's
// single-writer-per-table assumption makes the two-step read-then-transact
// safe.
func (s *Store) Apply(ctx context.Context, table string, ops []document.Op) error {
	var items []types.TransactWriteItem

	for _, op := range ops {
		switch op.Kind {
		case document.OpInsert:
			item, err := s.insertItem(table, op)
			if err != nil {
				return err
			}
			items = append(items, item)

		case document.OpUpdate:
			if op.Where == nil {
				return errors.New("dynamo: update requires a predicate")
			}
			pks, err := s.matchPartitionKeys(ctx, table, *op.Where)
			if err != nil {
				return err
			}
			for _, pk := range pks {
				item, err := updateItem(s.tableName(table), pk, op.Doc)
				if err != nil {
					return err
				}
				items = append(items, item)
			}

		case document.OpRemove:
			if op.Where == nil {
				return errors.New("dynamo: remove requires a predicate")
			}
			pks, err := s.matchPartitionKeys(ctx, table, *op.Where)
			if err != nil {
				return err
			}
			for _, pk := range pks {
				items = append(items, types.TransactWriteItem{
					Delete: &types.Delete{
						TableName: aws.String(s.tableName(table)),
						Key: map[string]types.AttributeValue{
							partitionAttr: &types.AttributeValueMemberS{Value: pk},
						},
					},
				})
			}

		default:
			return fmt.Errorf("dynamo: unknown op kind %d", op.Kind)
		}
	}

	for _, chunk := range chunkItems(items, maxTransactItems) {
		_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: chunk,
		})
		if err != nil {
			return fmt.Errorf("transact write: %w", err)
		}
	}
	return nil
}

// maxTransactItems is the TransactWriteItems per-call item cap.
const maxTransactItems = 100

// chunkItems splits a batch into API-sized transactions. Batches beyond the
// cap commit chunk by chunk: each chunk is atomic, the whole batch is not.
func chunkItems(items []types.TransactWriteItem, size int) [][]types.TransactWriteItem {
	var chunks [][]types.TransactWriteItem
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

func (s *Store) insertItem(table string, op document.Op) (types.TransactWriteItem, error) {
	key, ok := document.Composite(op.Doc, "key")
	if !ok {
		return types.TransactWriteItem{}, errors.New("dynamo: document has no composite key")
	}
	item, err := attributevalue.MarshalMap(map[string]any(op.Doc))
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("marshal document: %w", err)
	}
	item[partitionAttr] = &types.AttributeValueMemberS{Value: compkey.Digest(key)}
	// Put replaces any existing item under the same partition key, which is
	// exactly the insert-or-replace contract of OpInsert.
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.tableName(table)),
			Item:      item,
		},
	}, nil
}

// updateItem builds a SET-expression update for one partition key.
func updateItem(tableName, pk string, patch document.Document) (types.TransactWriteItem, error) {
	var setClauses []string
	exprNames := map[string]string{}
	exprValues := map[string]types.AttributeValue{}

	i := 0
	for field, value := range patch {
		if field == partitionAttr {
			continue
		}
		attr, err := attributevalue.Marshal(value)
		if err != nil {
			return types.TransactWriteItem{}, fmt.Errorf("marshal patch field %s: %w", field, err)
		}
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		exprNames[nameKey] = field
		exprValues[valueKey] = attr
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}

	if len(setClauses) == 0 {
		return types.TransactWriteItem{}, errors.New("dynamo: empty patch")
	}

	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:                 aws.String(tableName),
			Key:                       map[string]types.AttributeValue{partitionAttr: &types.AttributeValueMemberS{Value: pk}},
			UpdateExpression:          aws.String("SET " + joinStrings(setClauses, ", ")),
			ExpressionAttributeNames:  exprNames,
			ExpressionAttributeValues: exprValues,
		},
	}, nil
}

// matchPartitionKeys resolves a predicate to the partition keys of the
// documents it matches. Full-key predicates are computed directly; sub-field
// predicates scan the table.
func (s *Store) matchPartitionKeys(ctx context.Context, table string, pred document.Predicate) ([]string, error) {
	if pred.Field == "key" && pred.Equals != nil {
		return []string{compkey.Digest(pred.Equals)}, nil
	}

	var pks []string
	err := s.scanTable(ctx, table, func(pk string, doc document.Document) {
		if pred.Matches(doc) {
			pks = append(pks, pk)
		}
	})
	if err != nil {
		return nil, err
	}
	return pks, nil
}

// Query returns every document in table matched by pred.
func (s *Store) Query(ctx context.Context, table string, pred document.Predicate) ([]document.Document, error) {
	var out []document.Document
	err := s.scanTable(ctx, table, func(_ string, doc document.Document) {
		if pred.Matches(doc) {
			out = append(out, doc)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// All returns every document in table, in scan order.
func (s *Store) All(ctx context.Context, table string) ([]document.Document, error) {
	var out []document.Document
	err := s.scanTable(ctx, table, func(_ string, doc document.Document) {
		out = append(out, doc)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) scanTable(ctx context.Context, table string, visit func(pk string, doc document.Document)) error {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.tableName(table)),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		for _, raw := range page.Items {
			pk, doc, err := unmarshalItem(raw)
			if err != nil {
				return err
			}
			visit(pk, doc)
		}
	}
	return nil
}

// unmarshalItem converts a raw DynamoDB item back into a document, splitting
// off the managed partition key attribute.
func unmarshalItem(raw map[string]types.AttributeValue) (string, document.Document, error) {
	var pk string
	if v, ok := raw[partitionAttr].(*types.AttributeValueMemberS); ok {
		pk = v.Value
	}

	var doc map[string]any
	if err := attributevalue.UnmarshalMap(raw, &doc); err != nil {
		return "", nil, fmt.Errorf("unmarshal item: %w", err)
	}
	delete(doc, partitionAttr)
	return pk, document.Document(doc), nil
}

// joinStrings joins strings with a separator (avoiding strings package import).
func joinStrings(strs []string, sep string) string {
	if len(strs) == 0 {
		return ""
	}
	result := strs[0]
	for _, s := range strs[1:] {
		result += sep + s
	}
	return result
}
