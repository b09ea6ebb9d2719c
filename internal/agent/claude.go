package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harrison/roundtable/internal/dialogue"
	"github.com/harrison/roundtable/internal/models"
	"github.com/harrison/roundtable/internal/roles"
)

// Claude implements every collaborator interface against the claude CLI.
// One value serves a whole run; each call is a fresh CLI invocation.
type Claude struct {
	invoker *Invoker
	search  bool
}

// NewClaude creates a Claude collaborator using the given invoker. A nil
// invoker gets the defaults.
func NewClaude(invoker *Invoker) *Claude {
	if invoker == nil {
		invoker = NewInvoker()
	}
	return &Claude{invoker: invoker}
}

// WithSearch toggles the web-search capability hint in dialogue prompts.
func (c *Claude) WithSearch(enabled bool) *Claude {
	c.search = enabled
	return c
}

// GenerateRoles asks for numRoles specialist roles for the task. The
// reply is a JSON object whose key order is the priority order, so it is
// decoded token by token rather than into a map.
func (c *Claude) GenerateRoles(ctx context.Context, task models.Task, numRoles int) (*roles.Set, error) {
	prompt := fmt.Sprintf(
		"You are a team builder. Propose %d distinct expert roles best suited to complete the following task, most important first.\n\nTASK:\n%s",
		numRoles, task.Prompt)

	result, err := c.invoker.Invoke(ctx, prompt, roleGenerationSchema)
	if err != nil {
		return nil, fmt.Errorf("generating roles: %w", err)
	}
	parsed, err := ParseClaudeOutput(result.Output)
	if err != nil {
		return nil, fmt.Errorf("generating roles: %w", err)
	}
	payload, err := ExtractJSON(parsed.Result)
	if err != nil {
		return nil, fmt.Errorf("generating roles: %w", err)
	}

	set, err := decodeOrderedRoles(payload)
	if err != nil {
		return nil, fmt.Errorf("generating roles: %w", err)
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("role generation produced no roles")
	}
	return set, nil
}

// decodeOrderedRoles decodes a JSON object of role name to description,
// preserving the object's key order in the resulting set.
func decodeOrderedRoles(payload string) (*roles.Set, error) {
	dec := json.NewDecoder(strings.NewReader(payload))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	set := roles.NewSet()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected role name string, got %v", keyTok)
		}
		var description string
		if err := dec.Decode(&description); err != nil {
			return nil, fmt.Errorf("role %q: %w", name, err)
		}
		set.Add(name, description)
	}
	return set, nil
}

// subtaskWire is the serialized form of a subtask in collaborator replies
// and playbooks.
type subtaskWire struct {
	ID             string   `json:"id" yaml:"id"`
	Description    string   `json:"description" yaml:"description"`
	InputTags      []string `json:"input_tags" yaml:"input_tags"`
	InputContent   string   `json:"input_content" yaml:"input_content"`
	OutputStandard string   `json:"output_standard" yaml:"output_standard"`
	DependsOn      []string `json:"depends_on" yaml:"depends_on"`
}

func (w subtaskWire) toModel() models.Subtask {
	return models.Subtask{
		ID:             w.ID,
		Description:    w.Description,
		InputTags:      w.InputTags,
		InputContent:   w.InputContent,
		OutputStandard: w.OutputStandard,
		DependsOn:      w.DependsOn,
	}
}

// Decompose splits the task into dependency-annotated subtasks.
func (c *Claude) Decompose(ctx context.Context, task models.Task, set *roles.Set) ([]models.Subtask, error) {
	var sb strings.Builder
	sb.WriteString("Split the following task into subtasks the listed roles can complete in pairs. ")
	sb.WriteString("Give each subtask an id of the form \"subtask N\", numbered from 1, and list the ids it depends on.\n\nTASK:\n")
	sb.WriteString(task.Prompt)
	if task.Context != "" {
		sb.WriteString("\n\nCONTEXT:\n")
		sb.WriteString(task.Context)
	}
	sb.WriteString("\n\nROLES:\n")
	for _, name := range set.Names() {
		desc, _ := set.Description(name)
		fmt.Fprintf(&sb, "- %s: %s\n", name, desc)
	}

	var reply struct {
		Subtasks []subtaskWire `json:"subtasks"`
	}
	if err := c.invoker.invokeStructured(ctx, sb.String(), decompositionSchema, &reply); err != nil {
		return nil, fmt.Errorf("decomposing task: %w", err)
	}
	if len(reply.Subtasks) == 0 {
		return nil, fmt.Errorf("decomposition produced no subtasks")
	}

	subtasks := make([]models.Subtask, 0, len(reply.Subtasks))
	for _, wire := range reply.Subtasks {
		subtasks = append(subtasks, wire.toModel())
	}
	return subtasks, nil
}

// ScoreCompatibility rates each role's fitness for the two dialogue
// positions of one subtask.
func (c *Claude) ScoreCompatibility(ctx context.Context, subtaskDescription string, set *roles.Set) (map[string]roles.Compatibility, error) {
	var sb strings.Builder
	sb.WriteString("Rate each role's suitability, from 0 to 1, for acting as the assistant (executes the work) and as the user (directs the work) on this subtask.\n\nSUBTASK:\n")
	sb.WriteString(subtaskDescription)
	sb.WriteString("\n\nROLES:\n")
	for _, name := range set.Names() {
		desc, _ := set.Description(name)
		fmt.Fprintf(&sb, "- %s: %s\n", name, desc)
	}

	var reply struct {
		Scores map[string]roles.Compatibility `json:"scores"`
	}
	if err := c.invoker.invokeStructured(ctx, sb.String(), compatibilitySchema, &reply); err != nil {
		return nil, fmt.Errorf("scoring compatibility: %w", err)
	}
	return reply.Scores, nil
}

// DeduceLabels derives condition and quality labels for the transition
// from a starting state to a target state. The orchestrator unions these
// with the subtask's input tags before retrieval.
func (c *Claude) DeduceLabels(ctx context.Context, startingState, targetState string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Given the starting state and the target state of a task, list the condition and quality labels that characterize the transition.\n\nSTARTING STATE:\n%s\n\nTARGET STATE:\n%s",
		startingState, targetState)

	var reply struct {
		Labels []string `json:"labels"`
	}
	if err := c.invoker.invokeStructured(ctx, prompt, labelDeductionSchema, &reply); err != nil {
		return nil, fmt.Errorf("deducing labels: %w", err)
	}
	return reply.Labels, nil
}

// ExtractInsights mines the context text for tagged insights.
func (c *Claude) ExtractInsights(ctx context.Context, contextText, instruction string) ([]models.Insight, error) {
	var sb strings.Builder
	if instruction != "" {
		sb.WriteString(instruction)
		sb.WriteString("\n\n")
	}
	sb.WriteString("CONTEXT TEXT:\n")
	sb.WriteString(contextText)

	var reply struct {
		Insights []models.Insight `json:"insights"`
	}
	if err := c.invoker.invokeStructured(ctx, sb.String(), insightExtractionSchema, &reply); err != nil {
		return nil, fmt.Errorf("extracting insights: %w", err)
	}
	return reply.Insights, nil
}

// StepperFor returns a dialogue stepper that simulates both participants
// of the subtask's role pair in a single CLI call per turn.
func (c *Claude) StepperFor(task models.Task, sub models.Subtask, pair roles.Pair) (dialogue.Stepper, error) {
	return &claudeStepper{
		invoker: c.invoker,
		search:  c.search || task.SearchEnabled,
		sub:     sub,
		pair:    pair,
	}, nil
}

// claudeStepper holds the running exchange for one subtask dialogue.
// Not safe for concurrent use; each subtask gets its own stepper.
type claudeStepper struct {
	invoker *Invoker
	search  bool
	sub     models.Subtask
	pair    roles.Pair
	history []models.ChatMessage
}

type stepParticipant struct {
	Content            string   `json:"content"`
	Terminated         bool     `json:"terminated"`
	TerminationReasons []string `json:"termination_reasons"`
}

// Step sends the exchange so far plus the incoming message and asks for
// the next user instruction and assistant solution.
func (s *claudeStepper) Step(ctx context.Context, input models.ChatMessage) (models.StepResponse, models.StepResponse, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You simulate a two-participant work session on one subtask. The user is %s (%s), the assistant is %s (%s).\n",
		s.pair.UserRole, s.pair.UserDescription, s.pair.AssistantRole, s.pair.AssistantDescription)
	if s.search {
		sb.WriteString("The assistant may use web search results when they help.\n")
	}
	sb.WriteString("Produce the next instruction from the user and the assistant's solution to it. ")
	fmt.Fprintf(&sb, "When the subtask is fully solved, include %s in a message. Set terminated only when a participant must abandon the exchange, with reasons.\n\n", dialogue.TaskDoneSentinel)

	if len(s.history) > 0 {
		sb.WriteString("EXCHANGE SO FAR:\n")
		for _, msg := range s.history {
			fmt.Fprintf(&sb, "[%s %s]\n%s\n\n", msg.Role, msg.RoleName, msg.Content)
		}
	}
	fmt.Fprintf(&sb, "LATEST MESSAGE:\n[%s %s]\n%s\n", input.Role, input.RoleName, input.Content)

	var reply struct {
		User      stepParticipant `json:"user"`
		Assistant stepParticipant `json:"assistant"`
	}
	if err := s.invoker.invokeStructured(ctx, sb.String(), stepSchema, &reply); err != nil {
		return models.StepResponse{}, models.StepResponse{}, fmt.Errorf("step for %s: %w", s.sub.ID, err)
	}

	user := models.StepResponse{
		Msg:                models.ChatMessage{Role: models.RoleUser, RoleName: s.pair.UserRole, Content: reply.User.Content},
		Terminated:         reply.User.Terminated,
		TerminationReasons: reply.User.TerminationReasons,
	}
	assistant := models.StepResponse{
		Msg:                models.ChatMessage{Role: models.RoleAssistant, RoleName: s.pair.AssistantRole, Content: reply.Assistant.Content},
		Terminated:         reply.Assistant.Terminated,
		TerminationReasons: reply.Assistant.TerminationReasons,
	}

	if !user.Terminated && !assistant.Terminated {
		s.history = append(s.history, input, user.Msg, assistant.Msg)
	}

	return assistant, user, nil
}
