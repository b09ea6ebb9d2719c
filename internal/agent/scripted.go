package agent

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/harrison/roundtable/internal/dialogue"
	"github.com/harrison/roundtable/internal/models"
	"github.com/harrison/roundtable/internal/roles"
)

// playbookRole pairs a role name with its description. A YAML list keeps
// the priority order a plain mapping would lose.
type playbookRole struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// playbookParticipant is one side of a scripted exchange turn.
type playbookParticipant struct {
	Content            string   `yaml:"content"`
	Terminated         bool     `yaml:"terminated"`
	TerminationReasons []string `yaml:"termination_reasons"`
}

// playbookTurn is one scripted exchange: the user instruction and the
// assistant solution for that turn.
type playbookTurn struct {
	User      playbookParticipant `yaml:"user"`
	Assistant playbookParticipant `yaml:"assistant"`
}

// Playbook is a scripted stand-in for every collaborator, loaded from a
// YAML file. Scores, labels, insights, and dialogues are keyed by subtask
// ID; lookups by description resolve through the subtask list.
type Playbook struct {
	Roles     []playbookRole                            `yaml:"roles"`
	Subtasks  []subtaskWire                             `yaml:"subtasks"`
	Scores    map[string]map[string]roles.Compatibility `yaml:"scores"`
	Labels    map[string][]string                       `yaml:"labels"`
	Insights  map[string][]models.Insight               `yaml:"insights"`
	Dialogues map[string][]playbookTurn                 `yaml:"dialogues"`

	mu        sync.Mutex
	idByDesc  map[string]string
	idsByDesc []string // descriptions in subtask order, for substring lookup
}

// LoadPlaybook reads and validates a playbook YAML file.
func LoadPlaybook(path string) (*Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading playbook: %w", err)
	}

	var pb Playbook
	if err := yaml.Unmarshal(data, &pb); err != nil {
		return nil, fmt.Errorf("parsing playbook %s: %w", path, err)
	}
	if err := pb.init(); err != nil {
		return nil, fmt.Errorf("playbook %s: %w", path, err)
	}
	return &pb, nil
}

func (pb *Playbook) init() error {
	if len(pb.Roles) == 0 {
		return fmt.Errorf("no roles defined")
	}
	if len(pb.Subtasks) == 0 {
		return fmt.Errorf("no subtasks defined")
	}
	pb.idByDesc = make(map[string]string, len(pb.Subtasks))
	for _, sub := range pb.Subtasks {
		if sub.ID == "" || sub.Description == "" {
			return fmt.Errorf("every subtask needs an id and a description")
		}
		pb.idByDesc[sub.Description] = sub.ID
		pb.idsByDesc = append(pb.idsByDesc, sub.Description)
	}
	return nil
}

// subtaskIDFor resolves a subtask description, exact first then by
// substring, to the playbook's subtask ID.
func (pb *Playbook) subtaskIDFor(description string) string {
	if id, ok := pb.idByDesc[description]; ok {
		return id
	}
	for _, desc := range pb.idsByDesc {
		if strings.Contains(description, desc) {
			return pb.idByDesc[desc]
		}
	}
	return ""
}

// GenerateRoles returns the scripted roles, capped at numRoles when the
// playbook defines more.
func (pb *Playbook) GenerateRoles(ctx context.Context, task models.Task, numRoles int) (*roles.Set, error) {
	set := roles.NewSet()
	for i, role := range pb.Roles {
		if numRoles > 0 && i >= numRoles {
			break
		}
		set.Add(role.Name, role.Description)
	}
	return set, nil
}

// Decompose returns the scripted subtask list.
func (pb *Playbook) Decompose(ctx context.Context, task models.Task, set *roles.Set) ([]models.Subtask, error) {
	subtasks := make([]models.Subtask, 0, len(pb.Subtasks))
	for _, wire := range pb.Subtasks {
		subtasks = append(subtasks, wire.toModel())
	}
	return subtasks, nil
}

// ScoreCompatibility returns the scripted score map for the subtask.
// Subtasks without a scripted entry get an empty map, which the matcher
// resolves to the first role for both positions.
func (pb *Playbook) ScoreCompatibility(ctx context.Context, subtaskDescription string, set *roles.Set) (map[string]roles.Compatibility, error) {
	id := pb.subtaskIDFor(subtaskDescription)
	if scores, ok := pb.Scores[id]; ok {
		return scores, nil
	}
	return map[string]roles.Compatibility{}, nil
}

// DeduceLabels returns the scripted labels for the target state's subtask.
func (pb *Playbook) DeduceLabels(ctx context.Context, startingState, targetState string) ([]string, error) {
	return pb.Labels[pb.subtaskIDFor(targetState)], nil
}

// ExtractInsights returns the scripted insights for the subtask whose
// description appears in the context text.
func (pb *Playbook) ExtractInsights(ctx context.Context, contextText, instruction string) ([]models.Insight, error) {
	return pb.Insights[pb.subtaskIDFor(contextText)], nil
}

// StepperFor returns a stepper replaying the subtask's scripted dialogue.
func (pb *Playbook) StepperFor(task models.Task, sub models.Subtask, pair roles.Pair) (dialogue.Stepper, error) {
	pb.mu.Lock()
	turns := pb.Dialogues[sub.ID]
	pb.mu.Unlock()
	return &scriptedStepper{pair: pair, turns: turns}, nil
}

// scriptedStepper replays a fixed turn list. Once the script runs out it
// emits a completion turn so unscripted subtasks still finish.
type scriptedStepper struct {
	pair  roles.Pair
	turns []playbookTurn
	next  int
}

func (s *scriptedStepper) Step(ctx context.Context, input models.ChatMessage) (models.StepResponse, models.StepResponse, error) {
	if s.next >= len(s.turns) {
		done := models.StepResponse{Msg: models.ChatMessage{
			Role:     models.RoleAssistant,
			RoleName: s.pair.AssistantRole,
			Content:  "All requested work is complete. " + dialogue.TaskDoneSentinel,
		}}
		ack := models.StepResponse{Msg: models.ChatMessage{
			Role:     models.RoleUser,
			RoleName: s.pair.UserRole,
			Content:  "Confirmed complete.",
		}}
		return done, ack, nil
	}

	turn := s.turns[s.next]
	s.next++

	assistant := models.StepResponse{
		Msg:                models.ChatMessage{Role: models.RoleAssistant, RoleName: s.pair.AssistantRole, Content: turn.Assistant.Content},
		Terminated:         turn.Assistant.Terminated,
		TerminationReasons: turn.Assistant.TerminationReasons,
	}
	user := models.StepResponse{
		Msg:                models.ChatMessage{Role: models.RoleUser, RoleName: s.pair.UserRole, Content: turn.User.Content},
		Terminated:         turn.User.Terminated,
		TerminationReasons: turn.User.TerminationReasons,
	}
	return assistant, user, nil
}
