package roles

import (
	"context"
	"errors"
	"fmt"
)

// Compatibility carries one role's fitness scores for the two dialogue
// positions of a subtask.
type Compatibility struct {
	Assistant float64 `json:"score_assistant" yaml:"score_assistant"`
	User      float64 `json:"score_user" yaml:"score_user"`
}

// Scorer evaluates how well each role in a set fits a subtask. The exact
// scoring model is a collaborator concern; the matcher only consumes the
// resulting score map.
type Scorer interface {
	ScoreCompatibility(ctx context.Context, subtaskDescription string, set *Set) (map[string]Compatibility, error)
}

// Pair is the selected assistant/user role assignment for one subtask.
// The two roles may be identical; that is legal.
type Pair struct {
	AssistantRole        string
	AssistantDescription string
	UserRole             string
	UserDescription      string
}

// Matcher selects role pairs for subtasks using an external scorer.
type Matcher struct {
	scorer Scorer
}

// NewMatcher creates a Matcher backed by the given scorer.
func NewMatcher(scorer Scorer) *Matcher {
	return &Matcher{scorer: scorer}
}

// Match scores every role against the subtask description and selects the
// highest-scoring role for each position.
func (m *Matcher) Match(ctx context.Context, subtaskDescription string, set *Set) (Pair, error) {
	scores, err := m.scorer.ScoreCompatibility(ctx, subtaskDescription, set)
	if err != nil {
		return Pair{}, fmt.Errorf("compatibility scoring failed: %w", err)
	}

	assistant, user, err := Select(set, scores)
	if err != nil {
		return Pair{}, err
	}

	assistantDesc, _ := set.Description(assistant)
	userDesc, _ := set.Description(user)

	return Pair{
		AssistantRole:        assistant,
		AssistantDescription: assistantDesc,
		UserRole:             user,
		UserDescription:      userDesc,
	}, nil
}

// Select picks assistant = argmax(score_assistant) and
// user = argmax(score_user) over the set's insertion order. A later role
// replaces the current best only on a strictly greater score, so the
// first role encountered wins ties, deterministically across runs. Roles
// missing from the score map count as zero.
func Select(set *Set, scores map[string]Compatibility) (assistant, user string, err error) {
	if set == nil || set.Len() == 0 {
		return "", "", errors.New("role set is empty")
	}

	names := set.Names()
	assistant, user = names[0], names[0]
	bestAssistant := scores[names[0]].Assistant
	bestUser := scores[names[0]].User

	for _, name := range names[1:] {
		score := scores[name]
		if score.Assistant > bestAssistant {
			bestAssistant = score.Assistant
			assistant = name
		}
		if score.User > bestUser {
			bestUser = score.User
			user = name
		}
	}

	return assistant, user, nil
}
