package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/roundtable/internal/agent"
	"github.com/harrison/roundtable/internal/environment"
	"github.com/harrison/roundtable/internal/models"
	"github.com/harrison/roundtable/internal/report"
	"github.com/harrison/roundtable/internal/roles"
	"github.com/harrison/roundtable/internal/scheduler"
)

const e2ePlaybook = `
roles:
  - name: Modeler
    description: designs models
  - name: Trader
    description: knows the market
subtasks:
  - id: subtask 1
    description: choose the market
    output_standard: market chosen
  - id: subtask 2
    description: design the strategy
    depends_on: ["subtask 1"]
    input_tags: [market]
  - id: subtask 3
    description: backtest the strategy
    depends_on: ["subtask 1", "subtask 2"]
scores:
  subtask 1:
    Modeler: {score_assistant: 0.4, score_user: 0.9}
    Trader: {score_assistant: 0.9, score_user: 0.2}
labels:
  subtask 2: [market]
insights:
  subtask 1:
    - topic: market
      entity_recognition: [market]
      extract_details: the US equity market was chosen
dialogues:
  subtask 1:
    - user:
        content: Pick a market.
      assistant:
        content: "US equities. CAMEL_TASK_DONE"
`

func loadCollaborators(t *testing.T, playbook string) Collaborators {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(playbook), 0644))
	pb, err := agent.LoadPlaybook(path)
	require.NoError(t, err)
	return Collaborators{
		Roles:     pb,
		Decompose: pb,
		Scorer:    pb,
		Deducer:   pb,
		Extractor: pb,
		Steppers:  pb,
	}
}

func TestRun_EndToEnd(t *testing.T) {
	var buf bytes.Buffer
	collab := loadCollaborators(t, e2ePlaybook)

	orch, err := New(collab, Options{Sink: report.NewConsoleSink(&buf)})
	require.NoError(t, err)

	task := models.Task{Prompt: "build a trading model", NumRoles: 2}
	summary, err := orch.Run(context.Background(), task)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalSubtasks)
	assert.Equal(t, 3, summary.Completed)
	assert.Zero(t, summary.Terminated)
	assert.Zero(t, summary.LimitReached)
	assert.NotEmpty(t, summary.RunID)

	out := buf.String()
	assert.Contains(t, out, "Built 2 AI agents:")
	// Scripted scores for subtask 1 pick Trader as assistant, Modeler as user.
	assert.Contains(t, out, "Trader")
	assert.Contains(t, out, "US equities.")
	assert.Contains(t, out, "subtask 3 finished: completed")
}

func TestRun_CyclicDependenciesAbortBeforeDialogue(t *testing.T) {
	cyclic := `
roles:
  - name: Modeler
    description: designs models
subtasks:
  - id: subtask 1
    description: first
    depends_on: ["subtask 2"]
  - id: subtask 2
    description: second
    depends_on: ["subtask 1"]
`
	var buf bytes.Buffer
	collab := loadCollaborators(t, cyclic)

	orch, err := New(collab, Options{Sink: report.NewConsoleSink(&buf)})
	require.NoError(t, err)

	_, err = orch.Run(context.Background(), models.Task{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, scheduler.ErrCyclicDependency))
	assert.NotContains(t, buf.String(), "AI assistant:", "no dialogue output after a scheduling failure")
}

func TestRun_ContextSeedsEnvironment(t *testing.T) {
	seeded := `
roles:
  - name: Modeler
    description: designs models
subtasks:
  - id: subtask 1
    description: use the prior findings
    input_tags: [findings]
insights:
  subtask 1:
    - topic: findings
      entity_recognition: [findings]
      extract_details: volatility is elevated
dialogues:
  subtask 1:
    - user:
        content: Apply the findings.
      assistant:
        content: "Applied. CAMEL_TASK_DONE"
`
	path := filepath.Join(t.TempDir(), "playbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seeded), 0644))
	pb, err := agent.LoadPlaybook(path)
	require.NoError(t, err)

	// The seeding extraction sees the raw context, not a dialogue record,
	// so it resolves through the same extractor entry point.
	seedSpy := &extractorSpy{inner: pb}
	collab := Collaborators{
		Roles: pb, Decompose: pb, Scorer: pb, Deducer: pb,
		Extractor: seedSpy, Steppers: pb,
	}

	orch, err := New(collab, Options{})
	require.NoError(t, err)

	task := models.Task{Prompt: "continue the analysis", Context: "use the prior findings from last quarter"}
	_, err = orch.Run(context.Background(), task)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(seedSpy.texts), 2)
	assert.Contains(t, seedSpy.texts[0], "last quarter", "first extraction must be the context seed")
}

// extractorSpy records extraction inputs while delegating to the real
// implementation.
type extractorSpy struct {
	inner InsightExtractor
	texts []string
}

func (s *extractorSpy) ExtractInsights(ctx context.Context, contextText, instruction string) ([]models.Insight, error) {
	s.texts = append(s.texts, contextText)
	return s.inner.ExtractInsights(ctx, contextText, instruction)
}

func TestRun_TerminatedDialogueCounted(t *testing.T) {
	terminating := `
roles:
  - name: Modeler
    description: designs models
subtasks:
  - id: subtask 1
    description: doomed work
dialogues:
  subtask 1:
    - user:
        content: irrelevant
      assistant:
        content: ""
        terminated: true
        termination_reasons: [max tokens]
`
	collab := loadCollaborators(t, terminating)

	orch, err := New(collab, Options{})
	require.NoError(t, err)

	summary, err := orch.Run(context.Background(), models.Task{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Terminated)
	assert.Zero(t, summary.Completed)
}

func TestRun_ArchivePersistsInsights(t *testing.T) {
	collab := loadCollaborators(t, e2ePlaybook)

	archive, err := environment.NewArchive(filepath.Join(t.TempDir(), "archive", "insights.db"))
	require.NoError(t, err)
	defer archive.Close()

	orch, err := New(collab, Options{Archive: archive})
	require.NoError(t, err)

	summary, err := orch.Run(context.Background(), models.Task{Prompt: "build a trading model"})
	require.NoError(t, err)

	count, err := archive.CountForRun(summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only the tagged scripted insight is archived")
}

func TestRun_InvalidTaskRejected(t *testing.T) {
	collab := loadCollaborators(t, e2ePlaybook)
	orch, err := New(collab, Options{})
	require.NoError(t, err)

	_, err = orch.Run(context.Background(), models.Task{Prompt: "   "})
	require.Error(t, err)
}

func TestNew_MissingCollaboratorRejected(t *testing.T) {
	_, err := New(Collaborators{}, Options{})
	require.Error(t, err)
}

func TestFormatInsightContext(t *testing.T) {
	out := formatInsightContext([]models.Insight{
		{Topic: "market", ExtractDetails: "US equities chosen", ContextualUnderstanding: "decided in subtask 1"},
	})
	assert.Contains(t, out, "====== CURRENT STATE =====")
	assert.Contains(t, out, "market: US equities chosen (decided in subtask 1)")
	assert.Empty(t, formatInsightContext(nil))
}

// Compile-time checks that the CLI-backed collaborator satisfies every
// orchestrator interface.
var (
	_ RoleGenerator    = (*agent.Claude)(nil)
	_ TaskDecomposer   = (*agent.Claude)(nil)
	_ roles.Scorer     = (*agent.Claude)(nil)
	_ ConditionDeducer = (*agent.Claude)(nil)
	_ InsightExtractor = (*agent.Claude)(nil)
	_ StepperFactory   = (*agent.Claude)(nil)
)
