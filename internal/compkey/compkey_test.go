package compkey

import "testing"

// --- Canonical Tests ---

func TestCanonical_Empty(t *testing.T) {
	result := Canonical(map[string]string{})
	if result != "" {
		t.Errorf("expected empty string for empty identifier, got %q", result)
	}
}

func TestCanonical_Single(t *testing.T) {
	result := Canonical(map[string]string{"project_id": "P1"})
	if result != "project_id=P1" {
		t.Errorf("expected 'project_id=P1', got %q", result)
	}
}

func TestCanonical_OrderIndependent(t *testing.T) {
	a := Canonical(map[string]string{"project_id": "P1", "expt_id": "E1"})
	b := Canonical(map[string]string{"expt_id": "E1", "project_id": "P1"})
	if a != b {
		t.Errorf("expected identical encodings, got %q and %q", a, b)
	}
}

func TestCanonical_FieldsSorted(t *testing.T) {
	result := Canonical(map[string]string{"b": "2", "a": "1"})
	expected := "a=1\x1fb=2"
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

// --- Digest Tests ---

func TestDigest_Deterministic(t *testing.T) {
	id := map[string]string{"project_id": "P1", "participant_id": "X"}
	a := Digest(id)
	b := Digest(map[string]string{"participant_id": "X", "project_id": "P1"})
	if a != b {
		t.Errorf("expected identical digests, got %q and %q", a, b)
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
}

func TestDigest_DistinctIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		a, b map[string]string
	}{
		{
			"different values",
			map[string]string{"project_id": "P1"},
			map[string]string{"project_id": "P2"},
		},
		{
			"different fields",
			map[string]string{"project_id": "P1"},
			map[string]string{"expt_id": "P1"},
		},
		{
			"subset",
			map[string]string{"project_id": "P1"},
			map[string]string{"project_id": "P1", "expt_id": "E1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if Digest(tt.a) == Digest(tt.b) {
				t.Errorf("expected distinct digests for %v and %v", tt.a, tt.b)
			}
		})
	}
}
