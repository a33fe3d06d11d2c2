package document

import "testing"

// --- Predicate.Matches Tests ---

func TestPredicateMatches_FullEquality(t *testing.T) {
	doc := Document{
		"key":    map[string]string{"project_id": "P1", "expt_id": "E1"},
		"rounds": float64(3),
	}

	tests := []struct {
		name     string
		pred     Predicate
		expected bool
	}{
		{
			"exact match",
			Predicate{Field: "key", Equals: map[string]string{"project_id": "P1", "expt_id": "E1"}},
			true,
		},
		{
			"value mismatch",
			Predicate{Field: "key", Equals: map[string]string{"project_id": "P2", "expt_id": "E1"}},
			false,
		},
		{
			"subset is not equality",
			Predicate{Field: "key", Equals: map[string]string{"project_id": "P1"}},
			false,
		},
		{
			"superset is not equality",
			Predicate{Field: "key", Equals: map[string]string{"project_id": "P1", "expt_id": "E1", "run_id": "R1"}},
			false,
		},
		{
			"missing field",
			Predicate{Field: "link", Equals: map[string]string{"project_id": "P1"}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred.Matches(doc); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestPredicateMatches_SubField(t *testing.T) {
	doc := Document{
		"key": map[string]string{"project_id": "P1", "expt_id": "E1"},
	}

	pred := Predicate{Field: "key", SubField: "project_id", Value: "P1"}
	if !pred.Matches(doc) {
		t.Error("expected sub-field match")
	}

	pred = Predicate{Field: "key", SubField: "project_id", Value: "P2"}
	if pred.Matches(doc) {
		t.Error("expected sub-field mismatch")
	}

	pred = Predicate{Field: "key", SubField: "run_id", Value: "R1"}
	if pred.Matches(doc) {
		t.Error("expected no match for absent sub-field")
	}
}

func TestPredicateMatches_JSONRoundTripShape(t *testing.T) {
	// After a JSON round-trip the identifier arrives as map[string]any.
	doc := Document{
		"key": map[string]any{"project_id": "P1"},
	}

	pred := Predicate{Field: "key", Equals: map[string]string{"project_id": "P1"}}
	if !pred.Matches(doc) {
		t.Error("expected match on map[string]any identifier")
	}
}

// --- Composite Tests ---

func TestComposite_MissingField(t *testing.T) {
	_, ok := Composite(Document{}, "key")
	if ok {
		t.Error("expected no composite for missing field")
	}
}

func TestComposite_NonStringValue(t *testing.T) {
	doc := Document{"key": map[string]any{"project_id": float64(1)}}
	_, ok := Composite(doc, "key")
	if ok {
		t.Error("expected no composite when a value is not a string")
	}
}

// --- Clone Tests ---

func TestClone_Independence(t *testing.T) {
	original := Document{
		"key":  map[string]string{"project_id": "P1"},
		"tags": []any{"alpha", "beta"},
		"meta": map[string]any{"nested": "value"},
	}

	copied := Clone(original)
	copied["key"].(map[string]string)["project_id"] = "P2"
	copied["tags"].([]any)[0] = "gamma"
	copied["meta"].(map[string]any)["nested"] = "changed"

	if original["key"].(map[string]string)["project_id"] != "P1" {
		t.Error("clone aliased the identifier map")
	}
	if original["tags"].([]any)[0] != "alpha" {
		t.Error("clone aliased the slice")
	}
	if original["meta"].(map[string]any)["nested"] != "value" {
		t.Error("clone aliased the nested map")
	}
}

func TestClone_Nil(t *testing.T) {
	if Clone(nil) != nil {
		t.Error("expected nil clone of nil document")
	}
}
