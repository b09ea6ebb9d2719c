package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/roundtable/internal/models"
	"github.com/harrison/roundtable/internal/roles"
)

// ConsoleSink writes run output to a writer, with color when the writer
// is a terminal. It is safe for concurrent use by stage workers.
type ConsoleSink struct {
	writer      io.Writer
	colorOutput bool
	mu          sync.Mutex
}

// NewConsoleSink creates a ConsoleSink writing to the provided writer.
// If writer is nil, output is silently discarded.
func NewConsoleSink(writer io.Writer) *ConsoleSink {
	return &ConsoleSink{
		writer:      writer,
		colorOutput: writerIsTerminal(writer),
	}
}

// writerIsTerminal reports whether the writer is a TTY that supports
// color output. NO_COLOR (via the color package) still disables it.
func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// RoleDescriptions prints the generated role set.
func (cs *ConsoleSink) RoleDescriptions(set *roles.Set) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.writer == nil {
		return nil
	}

	header := fmt.Sprintf("Built %d AI agents:", set.Len())
	if cs.colorOutput {
		header = color.New(color.Bold).Sprint(header)
	}
	fmt.Fprintf(cs.writer, "%s\n", header)

	for _, name := range set.Names() {
		desc, _ := set.Description(name)
		if cs.colorOutput {
			name = color.New(color.FgCyan).Sprint(name)
		}
		fmt.Fprintf(cs.writer, "%s:\n%s\n\n", name, desc)
	}
	return nil
}

// Subtasks prints the decomposed subtask list.
func (cs *ConsoleSink) Subtasks(subtasks []models.Subtask) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.writer == nil {
		return nil
	}

	header := "Subtasks:"
	if cs.colorOutput {
		header = color.New(color.Bold).Sprint(header)
	}
	fmt.Fprintf(cs.writer, "%s\n", header)

	for i, sub := range subtasks {
		fmt.Fprintf(cs.writer, "Subtask %d (%s):\n%s\n\n", i+1, sub.ID, sub.Description)
	}
	return nil
}

// RolePair prints the selected assistant/user assignment for a subtask.
func (cs *ConsoleSink) RolePair(subtaskID string, pair roles.Pair) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.writer == nil {
		return nil
	}

	fmt.Fprintf(cs.writer, "[%s] assistant: %s\n%s\n", subtaskID, pair.AssistantRole, pair.AssistantDescription)
	fmt.Fprintf(cs.writer, "[%s] user: %s\n%s\n\n", subtaskID, pair.UserRole, pair.UserDescription)
	return nil
}

// Message prints one role-labeled dialogue message. Invalid role labels
// are rejected before anything is written.
func (cs *ConsoleSink) Message(role models.Role, roleName, content string) error {
	if err := role.Validate(); err != nil {
		return err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.writer == nil {
		return nil
	}

	label := fmt.Sprintf("AI %s: %s", role, roleName)
	if cs.colorOutput {
		switch role {
		case models.RoleAssistant:
			label = color.New(color.FgGreen).Sprint(label)
		case models.RoleUser:
			label = color.New(color.FgBlue).Sprint(label)
		}
	}

	fmt.Fprintf(cs.writer, "%s\n%s\n\n", label, cleanContent(content))
	return nil
}

// Summary prints a subtask's final summary text.
func (cs *ConsoleSink) Summary(subtaskID, text string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.writer == nil {
		return nil
	}

	header := fmt.Sprintf("=== %s: summary ===", subtaskID)
	if cs.colorOutput {
		header = color.New(color.Bold).Sprint(header)
	}
	fmt.Fprintf(cs.writer, "%s\n%s\n\n", header, text)
	return nil
}

// Warning prints a warning message.
func (cs *ConsoleSink) Warning(message string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.writer == nil {
		return nil
	}

	prefix := "Warning:"
	if cs.colorOutput {
		prefix = color.New(color.FgYellow).Sprint(prefix)
	}
	fmt.Fprintf(cs.writer, "%s %s\n", prefix, message)
	return nil
}
