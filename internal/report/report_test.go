package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/roundtable/internal/models"
	"github.com/harrison/roundtable/internal/roles"
)

func TestConsoleSink_Message(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	if err := sink.Message(models.RoleUser, "Analyst", "Please analyze. Next request."); err != nil {
		t.Fatalf("Message returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "AI user: Analyst") {
		t.Errorf("expected role label in output, got %q", out)
	}
	if strings.Contains(out, "Next request.") {
		t.Errorf("expected next-request boilerplate stripped, got %q", out)
	}
}

func TestConsoleSink_InvalidRoleRejectedBeforeWrite(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	err := sink.Message(models.Role("moderator"), "X", "hello")
	if err == nil {
		t.Fatal("expected error for invalid role")
	}
	if buf.Len() != 0 {
		t.Errorf("invalid role must produce no side effect, wrote %q", buf.String())
	}
}

func TestConsoleSink_NilWriter(t *testing.T) {
	sink := NewConsoleSink(nil)
	if err := sink.Message(models.RoleAssistant, "X", "hello"); err != nil {
		t.Errorf("nil writer should discard silently, got %v", err)
	}
	if err := sink.Warning("something"); err != nil {
		t.Errorf("nil writer should discard silently, got %v", err)
	}
}

func TestConsoleSink_RoleDescriptionsAndSubtasks(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	set := roles.NewSet()
	set.Add("Analyst", "analyzes things")
	set.Add("Engineer", "builds things")
	if err := sink.RoleDescriptions(set); err != nil {
		t.Fatalf("RoleDescriptions returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "Built 2 AI agents:") {
		t.Errorf("expected agent count header, got %q", buf.String())
	}

	buf.Reset()
	if err := sink.Subtasks([]models.Subtask{{ID: "subtask 1", Description: "do the thing"}}); err != nil {
		t.Fatalf("Subtasks returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "Subtask 1 (subtask 1)") {
		t.Errorf("expected subtask listing, got %q", buf.String())
	}
}

func TestFileSink_AppendsMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "transcripts.md")
	sink := NewFileSink(path)

	if err := sink.Summary("subtask 1", "all done"); err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if err := sink.Message(models.RoleAssistant, "Engineer", "built it. Next request."); err != nil {
		t.Fatalf("Message returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "## subtask 1: summary") {
		t.Errorf("expected summary heading, got %q", out)
	}
	if !strings.Contains(out, "AI assistant: Engineer") {
		t.Errorf("expected message label, got %q", out)
	}
	if strings.Contains(out, "Next request.") {
		t.Errorf("expected boilerplate stripped, got %q", out)
	}
}

func TestFileSink_InvalidRoleWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcripts.md")
	sink := NewFileSink(path)

	if err := sink.Message(models.Role("narrator"), "X", "hello"); err == nil {
		t.Fatal("expected error for invalid role")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("invalid role must not create the output file")
	}
}

func TestMultiSink_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiSink(NewConsoleSink(&a), NewConsoleSink(&b), nil)

	if err := multi.Warning("careful"); err != nil {
		t.Fatalf("Warning returned error: %v", err)
	}
	if !strings.Contains(a.String(), "careful") || !strings.Contains(b.String(), "careful") {
		t.Errorf("expected warning in both sinks, got %q / %q", a.String(), b.String())
	}
}

func TestMultiSink_InvalidRoleStopsFanOut(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiSink(NewConsoleSink(&buf))

	if err := multi.Message(models.Role("judge"), "X", "hi"); err == nil {
		t.Fatal("expected error for invalid role")
	}
	if buf.Len() != 0 {
		t.Errorf("no sink may see a side effect for an invalid role, wrote %q", buf.String())
	}
}
