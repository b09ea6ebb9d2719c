package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const cmdPlaybook = `
roles:
  - name: Planner
    description: plans the work
  - name: Builder
    description: does the work
subtasks:
  - id: subtask 1
    description: lay the groundwork
  - id: subtask 2
    description: finish the job
    depends_on: ["subtask 1"]
dialogues:
  subtask 1:
    - user:
        content: Start.
      assistant:
        content: "Groundwork laid. CAMEL_TASK_DONE"
`

const cmdBrief = `---
roles: 2
---
Ship the feature.

## Context

The groundwork matters.
`

// writeRunFixtures lays out a brief, playbook, and config in a temp dir.
func writeRunFixtures(t *testing.T) (brief, playbook, cfgPath, dir string) {
	t.Helper()
	dir = t.TempDir()

	brief = filepath.Join(dir, "brief.md")
	if err := os.WriteFile(brief, []byte(cmdBrief), 0644); err != nil {
		t.Fatal(err)
	}
	playbook = filepath.Join(dir, "playbook.yaml")
	if err := os.WriteFile(playbook, []byte(cmdPlaybook), 0644); err != nil {
		t.Fatal(err)
	}

	cfgPath = filepath.Join(dir, "config.yaml")
	cfg := "log_dir: " + filepath.Join(dir, "logs") + "\n" +
		"archive:\n  enabled: false\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return brief, playbook, cfgPath, dir
}

func TestRunCommand_PlaybookEndToEnd(t *testing.T) {
	brief, playbook, cfgPath, dir := writeRunFixtures(t)
	output := filepath.Join(dir, "transcripts.md")

	var buf bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"run", "--config", cfgPath, "--playbook", playbook, "--output", output, brief})

	if err := root.Execute(); err != nil {
		t.Fatalf("run command failed: %v\noutput: %s", err, buf.String())
	}

	out := buf.String()
	if !strings.Contains(out, "Run complete: 2/2 subtasks completed") {
		t.Errorf("expected completion line, got %q", out)
	}
	if !strings.Contains(out, "Built 2 AI agents:") {
		t.Errorf("expected role listing, got %q", out)
	}
	if !strings.Contains(out, "Transcript written to: "+output) {
		t.Errorf("expected transcript path line, got %q", out)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("transcript file missing: %v", err)
	}
	if !strings.Contains(string(data), "Groundwork laid.") {
		t.Errorf("transcript missing dialogue content: %q", string(data))
	}

	if _, err := os.Stat(filepath.Join(dir, "logs", "latest.log")); err != nil {
		t.Errorf("run log missing: %v", err)
	}
}

func TestRunCommand_DryRun(t *testing.T) {
	brief, playbook, cfgPath, _ := writeRunFixtures(t)

	var buf bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"run", "--config", cfgPath, "--playbook", playbook, "--dry-run", brief})

	if err := root.Execute(); err != nil {
		t.Fatalf("dry-run failed: %v\noutput: %s", err, buf.String())
	}

	out := buf.String()
	if !strings.Contains(out, "Stages: 2") {
		t.Errorf("expected stage count, got %q", out)
	}
	if !strings.Contains(out, "Dry-run mode") {
		t.Errorf("expected dry-run notice, got %q", out)
	}
	if strings.Contains(out, "AI assistant:") {
		t.Errorf("dry-run must not run dialogues, got %q", out)
	}
}

func TestRunCommand_MissingBrief(t *testing.T) {
	_, playbook, cfgPath, dir := writeRunFixtures(t)

	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--config", cfgPath, "--playbook", playbook, filepath.Join(dir, "nope.md")})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error for missing brief file")
	}
}

func TestRunCommand_BadFlagCombination(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run"})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error when no brief argument is given")
	}
}
