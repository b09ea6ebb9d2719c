// Package dialogue drives the bounded-turn, two-participant exchange that
// resolves one subtask. A controller owns the transcript for the duration
// of the subtask and reduces it to an assistant-side record plus a
// human-readable transcript when the loop ends.
package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/harrison/roundtable/internal/models"
	"github.com/harrison/roundtable/internal/report"
	"github.com/harrison/roundtable/internal/roles"
)

// TaskDoneSentinel is the textual completion marker participants embed in
// a message to declare the subtask solved. The literal substring match is
// part of the compatibility contract.
const TaskDoneSentinel = "CAMEL_TASK_DONE"

// DefaultTurnLimit is the hard cap on successful dialogue turns.
const DefaultTurnLimit = 50

// State is the dialogue loop's lifecycle state.
type State int

const (
	// StateInit is the state before the initial message is constructed.
	StateInit State = iota
	// StateRunning is the active exchange state.
	StateRunning
	// StateCompleted means a participant embedded the completion sentinel.
	StateCompleted
	// StateTerminatedAssistant means the assistant declared termination.
	StateTerminatedAssistant
	// StateTerminatedUser means the user declared termination.
	StateTerminatedUser
	// StateTurnLimitReached means the turn cap expired without completion
	// or termination.
	StateTurnLimitReached
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateTerminatedAssistant:
		return "terminated_assistant"
	case StateTerminatedUser:
		return "terminated_user"
	case StateTurnLimitReached:
		return "turn_limit_reached"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the loop.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateTerminatedAssistant, StateTerminatedUser, StateTurnLimitReached:
		return true
	default:
		return false
	}
}

// Stepper produces one exchange: given the current input message it
// returns the assistant response and the user response. Calls block until
// both responses are available.
type Stepper interface {
	Step(ctx context.Context, input models.ChatMessage) (assistant, user models.StepResponse, err error)
}

// Outcome is the result of one dialogue loop run.
type Outcome struct {
	State              State
	Turns              []Turn   // Successful turns, in order
	AssistantRecord    string   // Assistant-side record fed to insight extraction
	Transcript         string   // Human-readable transcript for summaries
	TerminationReasons []string // Set for participant-terminated outcomes
}

// Controller runs dialogue loops. A single controller can be reused
// across subtasks; each Run owns its own transcript.
type Controller struct {
	stepper   Stepper
	sink      report.Sink
	turnLimit int
	// maxRetries bounds consecutive failed step attempts. Zero means
	// retry until the context is cancelled, which matches the reference
	// behavior but can spin on a persistently failing stepper.
	maxRetries int
}

// NewController creates a Controller with the default turn limit and
// unbounded retries. A nil sink discards output.
func NewController(stepper Stepper, sink report.Sink) *Controller {
	if sink == nil {
		sink = report.NewNoOpSink()
	}
	return &Controller{
		stepper:   stepper,
		sink:      sink,
		turnLimit: DefaultTurnLimit,
	}
}

// WithTurnLimit overrides the successful-turn cap. Values below 1 keep
// the default.
func (c *Controller) WithTurnLimit(limit int) *Controller {
	if limit >= 1 {
		c.turnLimit = limit
	}
	return c
}

// WithMaxRetries bounds consecutive failed step attempts before the run
// aborts with an error. Zero restores unbounded retries.
func (c *Controller) WithMaxRetries(retries int) *Controller {
	c.maxRetries = retries
	return c
}

// InitialMessage constructs the opening message of a subtask dialogue from
// the subtask content, the selected role pair, and any retrieved insight
// context for the assistant side.
func InitialMessage(sub models.Subtask, pair roles.Pair, insightContext string) models.ChatMessage {
	var sb strings.Builder
	sb.WriteString("Never forget you are ")
	sb.WriteString(pair.AssistantRole)
	sb.WriteString(" and I am ")
	sb.WriteString(pair.UserRole)
	sb.WriteString(". We share a common interest in collaborating to successfully complete the TASK.\n\n")
	sb.WriteString(sub.ContentBlock())
	if insightContext != "" {
		sb.WriteString("\n\n")
		sb.WriteString(insightContext)
	}
	sb.WriteString("\n\nWhen the TASK is completed, reply with ")
	sb.WriteString(TaskDoneSentinel)
	sb.WriteString(".")

	return models.ChatMessage{
		Role:     models.RoleUser,
		RoleName: pair.UserRole,
		Content:  sb.String(),
	}
}

// Run drives the dialogue for one subtask until completion, termination,
// or the turn limit. Failed step calls are reported as warnings and
// retried without consuming a turn slot.
func (c *Controller) Run(ctx context.Context, sub models.Subtask, pair roles.Pair, initial models.ChatMessage) (Outcome, error) {
	outcome := Outcome{State: StateRunning}

	transcript := newTranscript(sub, pair)

	input := initial
	n := 0
	retries := 0

	for n < c.turnLimit {
		if err := ctx.Err(); err != nil {
			return outcome, fmt.Errorf("dialogue for %s interrupted: %w", sub.ID, err)
		}

		assistant, user, err := c.stepper.Step(ctx, input)
		if err != nil {
			c.sink.Warning(fmt.Sprintf("step failed for %s: %v", sub.ID, err))
			retries++
			if c.maxRetries > 0 && retries >= c.maxRetries {
				return outcome, fmt.Errorf("dialogue for %s: %d consecutive step failures: %w", sub.ID, retries, err)
			}
			continue
		}
		retries = 0

		if assistant.Terminated {
			outcome.State = StateTerminatedAssistant
			outcome.TerminationReasons = assistant.TerminationReasons
			c.sink.Warning(fmt.Sprintf("%s terminated. Reason: %s.", pair.AssistantRole, strings.Join(assistant.TerminationReasons, "; ")))
			break
		}
		if user.Terminated {
			outcome.State = StateTerminatedUser
			outcome.TerminationReasons = user.TerminationReasons
			c.sink.Warning(fmt.Sprintf("%s terminated. Reason: %s.", pair.UserRole, strings.Join(user.TerminationReasons, "; ")))
			break
		}

		n++
		transcript.record(n, assistant.Msg, user.Msg)

		// The assistant's message drives the next turn.
		input = assistant.Msg

		c.sink.Message(models.RoleUser, pair.UserRole, user.Msg.Content)
		c.sink.Message(models.RoleAssistant, pair.AssistantRole, assistant.Msg.Content)

		if strings.Contains(user.Msg.Content, TaskDoneSentinel) ||
			strings.Contains(assistant.Msg.Content, TaskDoneSentinel) {
			outcome.State = StateCompleted
			break
		}
	}

	if outcome.State == StateRunning {
		outcome.State = StateTurnLimitReached
	}

	outcome.Turns = transcript.turns
	outcome.AssistantRecord = transcript.assistantRecord()
	outcome.Transcript = transcript.readable()

	return outcome, nil
}
