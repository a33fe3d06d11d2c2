package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/synarchive/document"
)

// --- Config Tests ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.TablePrefix != "synarchive_" {
		t.Errorf("expected TablePrefix 'synarchive_', got %q", cfg.TablePrefix)
	}
}

func TestConfigValidate_FillsDefault(t *testing.T) {
	cfg := Config{}
	cfg.validate()
	if cfg.TablePrefix != "synarchive_" {
		t.Errorf("expected defaulted TablePrefix, got %q", cfg.TablePrefix)
	}
}

// --- updateItem Tests ---

func TestUpdateItem_BuildsSetExpression(t *testing.T) {
	item, err := updateItem("synarchive_projects", "abc", document.Document{"action": "regress"})
	if err != nil {
		t.Fatalf("updateItem: %v", err)
	}
	if item.Update == nil {
		t.Fatal("expected an Update item")
	}
	if *item.Update.TableName != "synarchive_projects" {
		t.Errorf("wrong table name: %q", *item.Update.TableName)
	}
	if *item.Update.UpdateExpression != "SET #attr0 = :val0" {
		t.Errorf("unexpected expression: %q", *item.Update.UpdateExpression)
	}
	if item.Update.ExpressionAttributeNames["#attr0"] != "action" {
		t.Errorf("unexpected attribute name mapping: %v", item.Update.ExpressionAttributeNames)
	}
}

func TestUpdateItem_SkipsPartitionAttr(t *testing.T) {
	_, err := updateItem("t", "abc", document.Document{partitionAttr: "x"})
	if err == nil {
		t.Fatal("expected error for patch reduced to nothing")
	}
}

func TestUpdateItem_EmptyPatch(t *testing.T) {
	_, err := updateItem("t", "abc", document.Document{})
	if err == nil {
		t.Fatal("expected error for empty patch")
	}
}

// --- unmarshalItem Tests ---

func TestUnmarshalItem_StripsPartitionKey(t *testing.T) {
	raw := map[string]types.AttributeValue{
		partitionAttr: &types.AttributeValueMemberS{Value: "abc123"},
		"key": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"project_id": &types.AttributeValueMemberS{Value: "P1"},
		}},
		"rounds": &types.AttributeValueMemberN{Value: "3"},
	}

	pk, doc, err := unmarshalItem(raw)
	if err != nil {
		t.Fatalf("unmarshalItem: %v", err)
	}
	if pk != "abc123" {
		t.Errorf("expected pk 'abc123', got %q", pk)
	}
	if _, present := doc[partitionAttr]; present {
		t.Error("partition attribute leaked into the document")
	}
	key, ok := document.Composite(doc, "key")
	if !ok || key["project_id"] != "P1" {
		t.Errorf("composite key did not survive the round-trip: %v", doc["key"])
	}
}

// --- chunkItems Tests ---

func TestChunkItems(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		wantSizes []int
	}{
		{"empty", 0, nil},
		{"under cap", 3, []int{3}},
		{"exactly cap", maxTransactItems, []int{maxTransactItems}},
		{"over cap", 250, []int{100, 100, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]types.TransactWriteItem, tt.count)
			chunks := chunkItems(items, maxTransactItems)
			if len(chunks) != len(tt.wantSizes) {
				t.Fatalf("expected %d chunks, got %d", len(tt.wantSizes), len(chunks))
			}
			total := 0
			for i, chunk := range chunks {
				if len(chunk) != tt.wantSizes[i] {
					t.Errorf("chunk %d: expected %d items, got %d", i, tt.wantSizes[i], len(chunk))
				}
				total += len(chunk)
			}
			if total != tt.count {
				t.Errorf("chunks cover %d items, expected %d", total, tt.count)
			}
		})
	}
}

// --- joinStrings Tests ---

func TestJoinStrings(t *testing.T) {
	tests := []struct {
		name     string
		strs     []string
		sep      string
		expected string
	}{
		{"empty", nil, ", ", ""},
		{"single", []string{"a"}, ", ", "a"},
		{"multiple", []string{"a", "b", "c"}, ", ", "a, b, c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinStrings(tt.strs, tt.sep); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
