package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := NewRootCommand()

	names := map[string]bool{}
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"run", "validate"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
}

func TestRootCommand_Help(t *testing.T) {
	var buf bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"--help"})

	if err := root.Execute(); err != nil {
		t.Fatalf("help failed: %v", err)
	}
	if !strings.Contains(buf.String(), "roundtable") {
		t.Errorf("help output missing command name: %q", buf.String())
	}
}
