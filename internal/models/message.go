package models

import "fmt"

// Role identifies which side of the dialogue a message belongs to.
type Role string

const (
	// RoleAssistant is the solution-producing participant.
	RoleAssistant Role = "assistant"
	// RoleUser is the instruction-producing participant.
	RoleUser Role = "user"
)

// Validate returns an error if the role is not one of the two dialogue
// participants. Display calls must reject invalid roles before producing
// any side effect.
func (r Role) Validate() error {
	switch r {
	case RoleAssistant, RoleUser:
		return nil
	default:
		return fmt.Errorf("invalid role %q: must be one of %q or %q", string(r), RoleUser, RoleAssistant)
	}
}

// ChatMessage is a single message exchanged during a dialogue.
type ChatMessage struct {
	Role     Role   // Which participant side produced the message
	RoleName string // The generated role name speaking (e.g., "Data Analyst")
	Content  string // Message text
}

// StepResponse is one participant's output from a conversational step.
type StepResponse struct {
	Msg                ChatMessage // The produced message
	Terminated         bool        // Participant-declared early stop
	TerminationReasons []string    // Reasons recorded when Terminated is true
}
