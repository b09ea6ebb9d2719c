package roles

import (
	"context"
	"testing"
)

func buildSet(pairs ...string) *Set {
	set := NewSet()
	for i := 0; i+1 < len(pairs); i += 2 {
		set.Add(pairs[i], pairs[i+1])
	}
	return set
}

func TestSelect_HighestScoresWin(t *testing.T) {
	set := buildSet("A", "does a", "B", "does b")
	scores := map[string]Compatibility{
		"A": {Assistant: 0.9, User: 0.1},
		"B": {Assistant: 0.2, User: 0.8},
	}

	assistant, user, err := Select(set, scores)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if assistant != "A" {
		t.Errorf("expected assistant A, got %s", assistant)
	}
	if user != "B" {
		t.Errorf("expected user B, got %s", user)
	}
}

func TestSelect_TieBreakFirstInOrder(t *testing.T) {
	set := buildSet("First", "f", "Second", "s")
	scores := map[string]Compatibility{
		"First":  {Assistant: 0.5, User: 0.5},
		"Second": {Assistant: 0.5, User: 0.5},
	}

	for i := 0; i < 20; i++ {
		assistant, user, err := Select(set, scores)
		if err != nil {
			t.Fatalf("Select returned error: %v", err)
		}
		if assistant != "First" || user != "First" {
			t.Fatalf("run %d: tie must resolve to first role in order, got assistant=%s user=%s", i, assistant, user)
		}
	}
}

func TestSelect_SameRoleBothPositions(t *testing.T) {
	set := buildSet("Solo", "does everything")
	scores := map[string]Compatibility{"Solo": {Assistant: 1, User: 1}}

	assistant, user, err := Select(set, scores)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if assistant != user {
		t.Errorf("expected identical selection to be legal, got %s / %s", assistant, user)
	}
}

func TestSelect_MissingScoresCountAsZero(t *testing.T) {
	set := buildSet("A", "a", "B", "b")
	scores := map[string]Compatibility{"B": {Assistant: 0.1, User: 0.1}}

	assistant, user, err := Select(set, scores)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if assistant != "B" || user != "B" {
		t.Errorf("expected B for both positions, got %s / %s", assistant, user)
	}
}

func TestSelect_EmptySet(t *testing.T) {
	if _, _, err := Select(NewSet(), nil); err == nil {
		t.Error("expected error for empty role set")
	}
}

type staticScorer struct {
	scores map[string]Compatibility
}

func (s staticScorer) ScoreCompatibility(ctx context.Context, subtaskDescription string, set *Set) (map[string]Compatibility, error) {
	return s.scores, nil
}

func TestMatcher_Match(t *testing.T) {
	set := buildSet("Analyst", "analyzes data", "Engineer", "builds systems")
	matcher := NewMatcher(staticScorer{scores: map[string]Compatibility{
		"Analyst":  {Assistant: 0.3, User: 0.9},
		"Engineer": {Assistant: 0.8, User: 0.2},
	}})

	pair, err := matcher.Match(context.Background(), "implement the pipeline", set)
	if err != nil {
		t.Fatalf("Match returned error: %v", err)
	}
	if pair.AssistantRole != "Engineer" || pair.UserRole != "Analyst" {
		t.Errorf("unexpected pair: %+v", pair)
	}
	if pair.AssistantDescription != "builds systems" {
		t.Errorf("expected assistant description carried over, got %q", pair.AssistantDescription)
	}
}

func TestSet_AddPreservesOrderOnUpdate(t *testing.T) {
	set := buildSet("A", "first", "B", "second")
	set.Add("A", "updated")

	names := set.Names()
	if names[0] != "A" || names[1] != "B" {
		t.Errorf("update changed insertion order: %v", names)
	}
	if desc, _ := set.Description("A"); desc != "updated" {
		t.Errorf("expected updated description, got %q", desc)
	}
}
