package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateCommand_BriefOnly(t *testing.T) {
	brief, _, _, _ := writeRunFixtures(t)

	var buf bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"validate", brief})

	if err := root.Execute(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "is valid") {
		t.Errorf("expected validity confirmation, got %q", out)
	}
	if !strings.Contains(out, "Roles: 2") {
		t.Errorf("expected frontmatter roles, got %q", out)
	}
}

func TestValidateCommand_WithPlaybookPrintsStages(t *testing.T) {
	brief, playbook, _, _ := writeRunFixtures(t)

	var buf bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"validate", "--playbook", playbook, brief})

	if err := root.Execute(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "2 stage(s)") {
		t.Errorf("expected stage layout, got %q", out)
	}
	if !strings.Contains(out, "subtask 2: finish the job") {
		t.Errorf("expected subtask listing, got %q", out)
	}
}

func TestValidateCommand_CyclicPlaybookRejected(t *testing.T) {
	brief, _, _, dir := writeRunFixtures(t)

	cyclic := `
roles:
  - name: Planner
    description: plans
subtasks:
  - id: subtask 1
    description: first
    depends_on: ["subtask 2"]
  - id: subtask 2
    description: second
    depends_on: ["subtask 1"]
`
	playbook := filepath.Join(dir, "cyclic.yaml")
	if err := os.WriteFile(playbook, []byte(cyclic), 0644); err != nil {
		t.Fatal(err)
	}

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"validate", "--playbook", playbook, brief})

	err := root.Execute()
	if err == nil {
		t.Fatal("expected error for cyclic playbook")
	}
	if !strings.Contains(err.Error(), "cyclic") {
		t.Errorf("expected cyclic dependency error, got %v", err)
	}
}

func TestValidateCommand_InvalidBrief(t *testing.T) {
	dir := t.TempDir()
	brief := filepath.Join(dir, "empty.md")
	if err := os.WriteFile(brief, []byte("---\nroles: 2\n---\n\n"), 0644); err != nil {
		t.Fatal(err)
	}

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"validate", brief})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error for brief without a prompt")
	}
}
