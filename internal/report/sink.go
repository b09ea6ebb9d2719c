// Package report defines the reporting surface the orchestrator and the
// dialogue loop emit to: role descriptions, subtask lists, role-labeled
// messages, and per-subtask summaries, for both display and durable log
// append.
package report

import (
	"strings"

	"github.com/harrison/roundtable/internal/models"
	"github.com/harrison/roundtable/internal/roles"
)

// nextRequestMarker is boilerplate the user-side agent appends to keep the
// exchange going; it is stripped from displayed and recorded output.
const nextRequestMarker = "Next request."

// Sink receives everything worth showing or persisting during a run.
// Message must validate the role label and reject invalid labels before
// producing any side effect.
type Sink interface {
	RoleDescriptions(set *roles.Set) error
	Subtasks(subtasks []models.Subtask) error
	RolePair(subtaskID string, pair roles.Pair) error
	Message(role models.Role, roleName, content string) error
	Summary(subtaskID, text string) error
	Warning(message string) error
}

// cleanContent removes the next-request boilerplate from message text.
func cleanContent(content string) string {
	return strings.TrimSpace(strings.ReplaceAll(content, nextRequestMarker, ""))
}
