package environment

import (
	"testing"
)

func TestJaccardIndex_RanksByOverlap(t *testing.T) {
	stored := [][]string{
		{"a"},
		{"a", "b"},
		{"a", "b", "c"},
		{"z"},
	}

	index := NewJaccardIndex()
	indices, err := index.TopIndices(stored, []string{"a", "b"})
	if err != nil {
		t.Fatalf("TopIndices returned error: %v", err)
	}

	if len(indices) == 0 {
		t.Fatal("expected at least one result")
	}
	// {a,b} is an exact match (score 1.0) and must rank first.
	if indices[0] != 1 {
		t.Errorf("expected stored set 1 first, got %v", indices)
	}
	// {z} has no overlap and must never appear.
	for _, idx := range indices {
		if idx == 3 {
			t.Errorf("disjoint set returned: %v", indices)
		}
	}
}

func TestJaccardIndex_Deterministic(t *testing.T) {
	stored := [][]string{
		{"a", "b"},
		{"b", "c"},
		{"c", "d"},
		{"a", "d"},
	}
	target := []string{"a", "b", "c", "d"}

	index := NewJaccardIndex()
	first, err := index.TopIndices(stored, target)
	if err != nil {
		t.Fatalf("TopIndices returned error: %v", err)
	}

	for i := 0; i < 10; i++ {
		again, err := index.TopIndices(stored, target)
		if err != nil {
			t.Fatalf("TopIndices returned error: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d: result length changed: %v vs %v", i, again, first)
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d: result changed: %v vs %v", i, again, first)
			}
		}
	}

	// All four sets tie at score 0.5; ties resolve to lower stored index.
	for j := 0; j+1 < len(first); j++ {
		if first[j] >= first[j+1] {
			t.Errorf("tie-break order not ascending: %v", first)
		}
	}
}

func TestJaccardIndex_RespectsMaxResults(t *testing.T) {
	stored := [][]string{{"a"}, {"a", "x"}, {"a", "y"}, {"a", "z"}}

	index := &JaccardIndex{MaxResults: 2}
	indices, err := index.TopIndices(stored, []string{"a"})
	if err != nil {
		t.Fatalf("TopIndices returned error: %v", err)
	}
	if len(indices) != 2 {
		t.Errorf("expected 2 results, got %d", len(indices))
	}
}

func TestJaccard(t *testing.T) {
	target := map[string]bool{"a": true, "b": true}

	tests := []struct {
		name string
		tags []string
		want float64
	}{
		{"exact", []string{"a", "b"}, 1.0},
		{"half", []string{"a", "c"}, 1.0 / 3.0},
		{"disjoint", []string{"x"}, 0},
		{"empty", nil, 0},
		{"duplicates counted once", []string{"a", "a", "b"}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jaccard(tt.tags, target); got != tt.want {
				t.Errorf("jaccard(%v) = %v, want %v", tt.tags, got, tt.want)
			}
		})
	}
}
