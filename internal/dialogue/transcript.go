package dialogue

import (
	"fmt"
	"strings"

	"github.com/harrison/roundtable/internal/models"
	"github.com/harrison/roundtable/internal/roles"
)

// Turn is one numbered exchange: the assistant's and the user's message
// for that turn.
type Turn struct {
	Index     int
	Assistant models.ChatMessage
	User      models.ChatMessage
}

// transcript accumulates the turns of one dialogue. It exists only for
// the duration of a subtask run and is reduced to the outcome's record
// strings when the loop ends.
type transcript struct {
	subtask models.Subtask
	pair    roles.Pair
	turns   []Turn
}

func newTranscript(sub models.Subtask, pair roles.Pair) *transcript {
	return &transcript{subtask: sub, pair: pair}
}

func (t *transcript) record(index int, assistant, user models.ChatMessage) {
	t.turns = append(t.turns, Turn{Index: index, Assistant: assistant, User: user})
}

// stripBoilerplate removes the next-request marker and surrounding
// whitespace from assistant content before it enters the record.
func stripBoilerplate(content string) string {
	return strings.Trim(strings.ReplaceAll(content, "Next request.", ""), "\n ")
}

// assistantRecord renders the assistant-side solution record used as
// insight-extraction input.
func (t *transcript) assistantRecord() string {
	var sb strings.Builder
	sb.WriteString("The TASK of the context text is:\n")
	sb.WriteString(t.subtask.Description)
	sb.WriteString("\nThe solutions and the actions to the TASK:\n")
	for _, turn := range t.turns {
		fmt.Fprintf(&sb, "--- [%d] ---\n%s\n", turn.Index, stripBoilerplate(turn.Assistant.Content))
	}
	return sb.String()
}

// readable renders the human-facing transcript used for summaries.
func (t *transcript) readable() string {
	var sb strings.Builder
	for _, turn := range t.turns {
		fmt.Fprintf(&sb, "[%d] AI user (%s):\n%s\n\n", turn.Index, t.pair.UserRole, stripBoilerplate(turn.User.Content))
		fmt.Fprintf(&sb, "[%d] AI assistant (%s):\n%s\n\n", turn.Index, t.pair.AssistantRole, stripBoilerplate(turn.Assistant.Content))
	}
	return sb.String()
}
