// Package orchestrator sequences a full run: role generation, task
// decomposition, stage scheduling, per-subtask dialogues, and the
// accumulation of extracted insights into the shared environment.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/roundtable/internal/dialogue"
	"github.com/harrison/roundtable/internal/environment"
	"github.com/harrison/roundtable/internal/logger"
	"github.com/harrison/roundtable/internal/models"
	"github.com/harrison/roundtable/internal/report"
	"github.com/harrison/roundtable/internal/roles"
	"github.com/harrison/roundtable/internal/scheduler"
)

// startingStateNone marks a label deduction with no prior state.
const startingStateNone = "None"

// insightInstruction asks the extractor to mine a dialogue record for
// reusable, entity-tagged facts.
const insightInstruction = "Extract the reusable insights from the solutions in the context text. " +
	"Tag each insight with the entities it is about."

// seedInstruction asks the extractor to mine the initial task context.
const seedInstruction = "Extract the insights present in the context text. " +
	"Tag each insight with the entities it is about."

// RoleGenerator produces the run's role set from the task.
type RoleGenerator interface {
	GenerateRoles(ctx context.Context, task models.Task, numRoles int) (*roles.Set, error)
}

// TaskDecomposer splits the task into dependency-annotated subtasks.
type TaskDecomposer interface {
	Decompose(ctx context.Context, task models.Task, set *roles.Set) ([]models.Subtask, error)
}

// ConditionDeducer derives condition and quality labels for the
// transition from a starting state to a target state.
type ConditionDeducer interface {
	DeduceLabels(ctx context.Context, startingState, targetState string) ([]string, error)
}

// InsightExtractor mines context text for entity-tagged insights.
type InsightExtractor interface {
	ExtractInsights(ctx context.Context, contextText, instruction string) ([]models.Insight, error)
}

// StepperFactory builds the dialogue stepper for one subtask and its
// selected role pair.
type StepperFactory interface {
	StepperFor(task models.Task, sub models.Subtask, pair roles.Pair) (dialogue.Stepper, error)
}

// Collaborators bundles the external agents a run depends on. One value
// typically implements all of them.
type Collaborators struct {
	Roles     RoleGenerator
	Decompose TaskDecomposer
	Scorer    roles.Scorer
	Deducer   ConditionDeducer
	Extractor InsightExtractor
	Steppers  StepperFactory
}

func (c Collaborators) validate() error {
	if c.Roles == nil || c.Decompose == nil || c.Scorer == nil || c.Deducer == nil || c.Extractor == nil || c.Steppers == nil {
		return fmt.Errorf("all collaborators are required")
	}
	return nil
}

// Options tunes a run. Zero values fall back to defaults.
type Options struct {
	TurnLimit      int                          // Per-dialogue successful turn cap (0 = default 50)
	MaxRetries     int                          // Consecutive step failure bound (0 = unbounded)
	MaxConcurrency int                          // Subtasks running concurrently per stage (0 = 1)
	Index          environment.RetrievalIndex   // Retrieval index (nil = default Jaccard)
	Sink           report.Sink                  // Output sink (nil = discard)
	Logger         logger.Logger                // Diagnostic logger (nil = discard)
	Archive        *environment.Archive         // Durable insight archive (nil = disabled)
}

// Orchestrator runs decomposed tasks end to end.
type Orchestrator struct {
	collab  Collaborators
	opts    Options
	matcher *roles.Matcher
}

// New creates an Orchestrator. Collaborators must be fully populated.
func New(collab Collaborators, opts Options) (*Orchestrator, error) {
	if err := collab.validate(); err != nil {
		return nil, err
	}
	if opts.Index == nil {
		opts.Index = environment.NewJaccardIndex()
	}
	if opts.Sink == nil {
		opts.Sink = report.NewNoOpSink()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	return &Orchestrator{
		collab:  collab,
		opts:    opts,
		matcher: roles.NewMatcher(collab.Scorer),
	}, nil
}

// Run executes the task and returns the aggregated outcome. A cyclic
// dependency graph aborts the run before any dialogue starts.
func (o *Orchestrator) Run(ctx context.Context, task models.Task) (models.RunSummary, error) {
	start := time.Now()
	runID := uuid.NewString()
	summary := models.RunSummary{RunID: runID}

	if err := task.Validate(); err != nil {
		return summary, fmt.Errorf("invalid task: %w", err)
	}

	o.opts.Logger.LogInfo(fmt.Sprintf("Run %s started", runID))

	set, err := o.collab.Roles.GenerateRoles(ctx, task, task.NumRoles)
	if err != nil {
		return summary, fmt.Errorf("role generation failed: %w", err)
	}
	if err := o.opts.Sink.RoleDescriptions(set); err != nil {
		return summary, err
	}

	subtasks, err := o.collab.Decompose.Decompose(ctx, task, set)
	if err != nil {
		return summary, fmt.Errorf("task decomposition failed: %w", err)
	}
	if err := o.opts.Sink.Subtasks(subtasks); err != nil {
		return summary, err
	}

	plan, err := scheduler.BuildPlan(subtasks, o.opts.MaxConcurrency)
	if err != nil {
		return summary, fmt.Errorf("scheduling failed: %w", err)
	}
	summary.TotalSubtasks = len(subtasks)

	if o.opts.Archive != nil {
		if err := o.opts.Archive.RecordRun(runID, task.Prompt); err != nil {
			o.opts.Logger.LogWarn(fmt.Sprintf("archive: %v", err))
		}
	}

	store := environment.NewStore()
	if err := o.seedStore(ctx, runID, task, store); err != nil {
		return summary, err
	}

	var (
		mu       sync.Mutex
		runErrs  []error
		outcomes = make(map[dialogue.State]int)
	)

	for _, stage := range plan.Stages {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("run %s interrupted: %w", runID, err)
		}

		stageStart := time.Now()
		o.opts.Logger.LogStageStart(stage)

		sem := make(chan struct{}, stage.MaxConcurrency)
		var wg sync.WaitGroup

		for _, id := range stage.SubtaskIDs {
			sub := plan.Subtask(id)
			if sub == nil {
				return summary, fmt.Errorf("plan references unknown subtask %s", id)
			}

			wg.Add(1)
			sem <- struct{}{}
			go func(sub models.Subtask) {
				defer wg.Done()
				defer func() { <-sem }()

				state, err := o.runSubtask(ctx, runID, task, sub, set, store)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					runErrs = append(runErrs, fmt.Errorf("%s: %w", sub.ID, err))
					return
				}
				outcomes[state]++
			}(*sub)
		}
		wg.Wait()

		o.opts.Logger.LogStageComplete(stage, time.Since(stageStart))

		if len(runErrs) > 0 {
			return summary, fmt.Errorf("run %s: %d subtask(s) failed, first: %w", runID, len(runErrs), runErrs[0])
		}
	}

	summary.Completed = outcomes[dialogue.StateCompleted]
	summary.Terminated = outcomes[dialogue.StateTerminatedAssistant] + outcomes[dialogue.StateTerminatedUser]
	summary.LimitReached = outcomes[dialogue.StateTurnLimitReached]
	summary.Duration = time.Since(start)

	o.opts.Logger.LogRunSummary(summary)
	return summary, nil
}

// seedStore extracts insights from the task's initial context, when
// present, and inserts them before the first subtask runs.
func (o *Orchestrator) seedStore(ctx context.Context, runID string, task models.Task, store *environment.Store) error {
	if strings.TrimSpace(task.Context) == "" {
		return nil
	}

	insights, err := o.collab.Extractor.ExtractInsights(ctx, task.Context, seedInstruction)
	if err != nil {
		return fmt.Errorf("seeding environment from context: %w", err)
	}
	store.InsertAll(insights)
	o.archiveInsights(runID, "context", insights)
	o.opts.Logger.LogDebug(fmt.Sprintf("Seeded %d tag sets from initial context", store.Len()))
	return nil
}

// runSubtask executes one subtask: retrieval, role matching, the dialogue
// loop, and insight extraction back into the store.
func (o *Orchestrator) runSubtask(ctx context.Context, runID string, task models.Task, sub models.Subtask, set *roles.Set, store *environment.Store) (dialogue.State, error) {
	labels, err := o.collab.Deducer.DeduceLabels(ctx, startingStateNone, sub.Description)
	if err != nil {
		return dialogue.StateInit, fmt.Errorf("label deduction failed: %w", err)
	}
	target := append(labels, sub.InputTags...)

	retrieved, err := store.Retrieve(target, o.opts.Index)
	if err != nil {
		return dialogue.StateInit, fmt.Errorf("insight retrieval failed: %w", err)
	}
	insightContext := formatInsightContext(retrieved)

	pair, err := o.matcher.Match(ctx, sub.Description, set)
	if err != nil {
		return dialogue.StateInit, err
	}
	if err := o.opts.Sink.RolePair(sub.ID, pair); err != nil {
		return dialogue.StateInit, err
	}

	stepper, err := o.collab.Steppers.StepperFor(task, sub, pair)
	if err != nil {
		return dialogue.StateInit, fmt.Errorf("building stepper failed: %w", err)
	}

	ctrl := dialogue.NewController(stepper, o.opts.Sink).
		WithTurnLimit(o.opts.TurnLimit).
		WithMaxRetries(o.opts.MaxRetries)

	initial := dialogue.InitialMessage(sub, pair, insightContext)
	outcome, err := ctrl.Run(ctx, sub, pair, initial)
	if err != nil {
		return dialogue.StateInit, err
	}

	insights, err := o.collab.Extractor.ExtractInsights(ctx, outcome.AssistantRecord, insightInstruction)
	if err != nil {
		return outcome.State, fmt.Errorf("insight extraction failed: %w", err)
	}
	store.InsertAll(insights)
	o.archiveInsights(runID, sub.ID, insights)

	summaryText := fmt.Sprintf("%s finished: %s\n\n%s", sub.ID, outcome.State, outcome.Transcript)
	if err := o.opts.Sink.Summary(sub.ID, summaryText); err != nil {
		return outcome.State, err
	}

	return outcome.State, nil
}

// archiveInsights persists insights when the archive is configured.
// Archive failures degrade to warnings; the in-memory store already holds
// the insights the rest of the run needs.
func (o *Orchestrator) archiveInsights(runID, subtaskID string, insights []models.Insight) {
	if o.opts.Archive == nil {
		return
	}
	for _, insight := range insights {
		if err := o.opts.Archive.RecordInsight(runID, subtaskID, insight); err != nil {
			o.opts.Logger.LogWarn(fmt.Sprintf("archive: %v", err))
		}
	}
}

// formatInsightContext renders retrieved insights into the context block
// appended to the dialogue's opening message.
func formatInsightContext(insights []models.Insight) string {
	if len(insights) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("====== CURRENT STATE =====\n")
	sb.WriteString("The snapshot and the context of the TASK are presented in the following insights, closely related to the instruction and the input:\n")
	for _, insight := range insights {
		fmt.Fprintf(&sb, "- %s", insight.Topic)
		if insight.ExtractDetails != "" {
			fmt.Fprintf(&sb, ": %s", insight.ExtractDetails)
		}
		if insight.ContextualUnderstanding != "" {
			fmt.Fprintf(&sb, " (%s)", insight.ContextualUnderstanding)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
