package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/roundtable/internal/agent"
	"github.com/harrison/roundtable/internal/models"
	"github.com/harrison/roundtable/internal/parser"
	"github.com/harrison/roundtable/internal/scheduler"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <brief-file>",
		Short: "Validate a task brief without executing it",
		Long: `Validate a markdown task brief: frontmatter, prompt, and context
section. With --playbook, also validates the scripted subtasks and prints
the stage layout they would schedule into.

Examples:
  roundtable validate brief.md
  roundtable validate --playbook scripted.yaml brief.md`,
		Args: cobra.ExactArgs(1),
		RunE: validateCommand,
	}

	cmd.Flags().String("playbook", "", "Scripted collaborator playbook (YAML) to validate with")

	return cmd
}

// validateCommand implements the validate command logic
func validateCommand(cmd *cobra.Command, args []string) error {
	briefFile := args[0]

	f, err := os.Open(briefFile)
	if err != nil {
		return fmt.Errorf("failed to open brief file: %w", err)
	}
	task, err := parser.NewMarkdownParser().Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("invalid brief: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Brief %s is valid.\n", briefFile)
	fmt.Fprintf(out, "  Prompt: %d characters\n", len(task.Prompt))
	if task.Context != "" {
		fmt.Fprintf(out, "  Context: %d characters\n", len(task.Context))
	}
	if task.NumRoles > 0 {
		fmt.Fprintf(out, "  Roles: %d\n", task.NumRoles)
	}
	if task.SearchEnabled {
		fmt.Fprintf(out, "  Search: enabled\n")
	}

	playbookPath, _ := cmd.Flags().GetString("playbook")
	if playbookPath == "" {
		return nil
	}

	pb, err := agent.LoadPlaybook(playbookPath)
	if err != nil {
		return err
	}

	subtasks, err := pb.Decompose(cmd.Context(), *task, nil)
	if err != nil {
		return err
	}
	for i := range subtasks {
		if err := subtasks[i].Validate(); err != nil {
			return fmt.Errorf("invalid playbook subtask: %w", err)
		}
	}

	plan, err := scheduler.BuildPlan(subtasks, 1)
	if err != nil {
		return fmt.Errorf("playbook subtasks do not schedule: %w", err)
	}

	fmt.Fprintf(out, "\nPlaybook %s schedules into %d stage(s):\n", playbookPath, len(plan.Stages))
	printStages(out, plan)
	return nil
}

// printStages writes the stage layout of a plan.
func printStages(out io.Writer, plan *models.Plan) {
	for _, stage := range plan.Stages {
		fmt.Fprintf(out, "  %s:\n", stage.Name)
		for _, id := range stage.SubtaskIDs {
			sub := plan.Subtask(id)
			fmt.Fprintf(out, "    - %s: %s\n", id, sub.Description)
		}
	}
}
