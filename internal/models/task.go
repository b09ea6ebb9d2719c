package models

import (
	"errors"
	"fmt"
	"strings"
)

// Task is the top-level request submitted to the orchestrator.
// It is immutable once submitted; decomposition produces Subtasks from it.
type Task struct {
	Prompt        string // Natural-language description of the overall goal
	Context       string // Optional context text used to seed the environment
	NumRoles      int    // Desired number of generated roles (0 = collaborator default)
	SearchEnabled bool   // Whether step agents may use search capabilities
}

// Validate checks if the task has all required fields.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Prompt) == "" {
		return errors.New("task prompt is required")
	}
	if t.NumRoles < 0 {
		return fmt.Errorf("number of roles must not be negative, got %d", t.NumRoles)
	}
	return nil
}

// Subtask is one decomposed unit of the original task with declared
// dependencies. Subtasks are created by task decomposition and immutable
// thereafter.
type Subtask struct {
	ID             string   // Opaque key identifying the subtask
	Description    string   // What the subtask asks for
	InputTags      []string // Entity labels declared as inputs
	InputContent   string   // Concrete input text handed to the dialogue
	OutputStandard string   // Free-text completion criteria
	DependsOn      []string // Subtask IDs this subtask depends on
}

// Validate checks if the subtask has all required fields.
func (s *Subtask) Validate() error {
	if s.ID == "" {
		return errors.New("subtask id is required")
	}
	if s.Description == "" {
		return fmt.Errorf("subtask %s: description is required", s.ID)
	}
	return nil
}

// ContentBlock renders the framing block handed to the dialogue
// participants: description, input, and output standard of the subtask.
func (s *Subtask) ContentBlock() string {
	var sb strings.Builder
	sb.WriteString("- Description of TASK:\n")
	sb.WriteString(s.Description)
	sb.WriteString("\n- Input of TASK:\n")
	sb.WriteString(s.InputContent)
	sb.WriteString("\n- Output Standard for the completion of TASK:\n")
	sb.WriteString(s.OutputStandard)
	return sb.String()
}
