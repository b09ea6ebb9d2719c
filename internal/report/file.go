package report

import (
	"fmt"
	"strings"

	"github.com/harrison/roundtable/internal/filelock"
	"github.com/harrison/roundtable/internal/models"
	"github.com/harrison/roundtable/internal/roles"
)

// FileSink appends run output as markdown to a single durable file.
// Appends go through a file lock, so concurrent stage workers and
// concurrent runs never interleave blocks.
type FileSink struct {
	path string
	lock *filelock.FileLock
}

// NewFileSink creates a FileSink appending to the given path.
func NewFileSink(path string) *FileSink {
	return &FileSink{
		path: path,
		lock: filelock.New(path),
	}
}

// Path returns the output file path.
func (fs *FileSink) Path() string {
	return fs.path
}

func (fs *FileSink) append(block string) error {
	return fs.lock.Append([]byte(block))
}

// RoleDescriptions appends the generated role set.
func (fs *FileSink) RoleDescriptions(set *roles.Set) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Built %d AI agents\n\n", set.Len())
	for _, name := range set.Names() {
		desc, _ := set.Description(name)
		fmt.Fprintf(&sb, "**%s**:\n%s\n\n", name, desc)
	}
	return fs.append(sb.String())
}

// Subtasks appends the decomposed subtask list.
func (fs *FileSink) Subtasks(subtasks []models.Subtask) error {
	var sb strings.Builder
	sb.WriteString("## Subtasks\n\n")
	for i, sub := range subtasks {
		fmt.Fprintf(&sb, "%d. **%s**: %s\n", i+1, sub.ID, sub.Description)
	}
	sb.WriteString("\n")
	return fs.append(sb.String())
}

// RolePair appends the selected assistant/user assignment for a subtask.
func (fs *FileSink) RolePair(subtaskID string, pair roles.Pair) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", subtaskID)
	fmt.Fprintf(&sb, "**%s** (assistant):\n%s\n\n", pair.AssistantRole, pair.AssistantDescription)
	fmt.Fprintf(&sb, "**%s** (user):\n%s\n\n", pair.UserRole, pair.UserDescription)
	return fs.append(sb.String())
}

// Message appends one role-labeled dialogue message. Invalid role labels
// are rejected before anything is written.
func (fs *FileSink) Message(role models.Role, roleName, content string) error {
	if err := role.Validate(); err != nil {
		return err
	}
	block := fmt.Sprintf("AI %s: %s\n\n%s\n\n", role, roleName, cleanContent(content))
	return fs.append(block)
}

// Summary appends a subtask's final summary text.
func (fs *FileSink) Summary(subtaskID, text string) error {
	block := fmt.Sprintf("## %s: summary\n\n%s\n\n", subtaskID, text)
	return fs.append(block)
}

// Warning appends a warning line.
func (fs *FileSink) Warning(message string) error {
	return fs.append(fmt.Sprintf("> Warning: %s\n\n", message))
}
