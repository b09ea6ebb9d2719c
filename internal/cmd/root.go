// Package cmd wires the roundtable CLI: run and validate commands over
// markdown task briefs.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for roundtable
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roundtable",
		Short: "Multi-agent role-playing task orchestration",
		Long: `Roundtable coordinates AI role-playing agents to work through a task.

It generates a set of expert roles for the task, decomposes it into
dependent subtasks, schedules them in parallel-eligible stages, and runs
a bounded two-participant dialogue per subtask. Insights extracted from
each dialogue accumulate in a shared environment that later subtasks
retrieve as context.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewValidateCommand())

	return cmd
}
