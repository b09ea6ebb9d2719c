package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/roundtable/internal/agent"
	"github.com/harrison/roundtable/internal/config"
	"github.com/harrison/roundtable/internal/environment"
	"github.com/harrison/roundtable/internal/logger"
	"github.com/harrison/roundtable/internal/models"
	"github.com/harrison/roundtable/internal/orchestrator"
	"github.com/harrison/roundtable/internal/parser"
	"github.com/harrison/roundtable/internal/report"
	"github.com/harrison/roundtable/internal/scheduler"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <brief-file>",
		Short: "Execute a task brief",
		Long: `Execute a markdown task brief end to end.

The brief body is the task prompt; optional YAML frontmatter sets the
role count and search toggle, and an optional "## Context" section seeds
the shared environment before the first subtask.

Configuration is loaded from .roundtable/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  roundtable run brief.md
  roundtable run --roles 6 --search brief.md
  roundtable run --playbook scripted.yaml brief.md   # offline, no claude
  roundtable run --dry-run brief.md --playbook scripted.yaml
  roundtable run --output transcripts.md brief.md`,
		Args: cobra.ExactArgs(1),
		RunE: runCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .roundtable/config.yaml)")
	cmd.Flags().Int("roles", 0, "Number of roles to generate (overrides brief and config)")
	cmd.Flags().Bool("search", false, "Allow step agents to use search capabilities")
	cmd.Flags().String("playbook", "", "Scripted collaborator playbook (YAML); skips the claude CLI")
	cmd.Flags().Int("turn-limit", 0, "Maximum successful turns per subtask dialogue")
	cmd.Flags().Int("max-concurrency", 0, "Maximum concurrent subtasks per stage")
	cmd.Flags().String("output", "", "Markdown transcript output file")
	cmd.Flags().String("log-dir", "", "Directory for log files")
	cmd.Flags().Bool("dry-run", false, "Plan the run (roles, subtasks, stages) without dialogues")
	cmd.Flags().Bool("verbose", false, "Show detailed execution information")

	return cmd
}

// loadRunConfig loads the config file and applies flag overrides.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	var rolesPtr, turnLimitPtr, concurrencyPtr *int
	var outputPtr, logDirPtr *string

	if cmd.Flags().Changed("roles") {
		v, _ := cmd.Flags().GetInt("roles")
		rolesPtr = &v
	}
	if cmd.Flags().Changed("turn-limit") {
		v, _ := cmd.Flags().GetInt("turn-limit")
		turnLimitPtr = &v
	}
	if cmd.Flags().Changed("max-concurrency") {
		v, _ := cmd.Flags().GetInt("max-concurrency")
		concurrencyPtr = &v
	}
	if cmd.Flags().Changed("output") {
		v, _ := cmd.Flags().GetString("output")
		outputPtr = &v
	}
	if cmd.Flags().Changed("log-dir") {
		v, _ := cmd.Flags().GetString("log-dir")
		logDirPtr = &v
	}

	cfg.MergeWithFlags(rolesPtr, turnLimitPtr, concurrencyPtr, outputPtr, logDirPtr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildCollaborators picks scripted or claude-backed collaborators.
func buildCollaborators(cmd *cobra.Command, cfg *config.Config, search bool) (orchestrator.Collaborators, error) {
	playbookPath, _ := cmd.Flags().GetString("playbook")
	if playbookPath != "" {
		pb, err := agent.LoadPlaybook(playbookPath)
		if err != nil {
			return orchestrator.Collaborators{}, err
		}
		return orchestrator.Collaborators{
			Roles: pb, Decompose: pb, Scorer: pb,
			Deducer: pb, Extractor: pb, Steppers: pb,
		}, nil
	}

	invoker := agent.NewInvoker()
	invoker.ClaudePath = cfg.ClaudePath
	invoker.Timeout = cfg.StepTimeout
	claude := agent.NewClaude(invoker).WithSearch(search)
	return orchestrator.Collaborators{
		Roles: claude, Decompose: claude, Scorer: claude,
		Deducer: claude, Extractor: claude, Steppers: claude,
	}, nil
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	briefFile := args[0]
	fmt.Fprintf(cmd.OutOrStdout(), "Loading brief from %s...\n", briefFile)

	f, err := os.Open(briefFile)
	if err != nil {
		return fmt.Errorf("failed to open brief file: %w", err)
	}
	task, err := parser.NewMarkdownParser().Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to parse brief: %w", err)
	}

	if task.NumRoles == 0 {
		task.NumRoles = cfg.NumRoles
	}
	if search, _ := cmd.Flags().GetBool("search"); search {
		task.SearchEnabled = true
	}

	collab, err := buildCollaborators(cmd, cfg, task.SearchEnabled)
	if err != nil {
		return err
	}

	// Ctrl-C cancels the run between steps.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		return dryRunPlan(cmd, ctx, *task, collab, cfg)
	}

	// Determine log level: verbose flag overrides config
	logLevel := cfg.LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logLevel = "debug"
	}

	consoleLog := logger.NewConsoleLogger(cmd.ErrOrStderr(), logLevel)
	fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, logLevel)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()
	multiLog := &multiLogger{loggers: []logger.Logger{consoleLog, fileLog}}

	sinks := []report.Sink{report.NewConsoleSink(cmd.OutOrStdout())}
	var fileSink *report.FileSink
	if cfg.OutputPath != "" {
		fileSink = report.NewFileSink(cfg.OutputPath)
		sinks = append(sinks, fileSink)
	}

	var archive *environment.Archive
	if cfg.Archive.Enabled {
		archive, err = environment.NewArchive(filepath.Join(cfg.Archive.DBPath, "insights.db"))
		if err != nil {
			return fmt.Errorf("failed to open insight archive: %w", err)
		}
		defer archive.Close()
	}

	orch, err := orchestrator.New(collab, orchestrator.Options{
		TurnLimit:      cfg.TurnLimit,
		MaxRetries:     cfg.MaxRetries,
		MaxConcurrency: cfg.MaxConcurrency,
		Sink:           report.NewMultiSink(sinks...),
		Logger:         multiLog,
		Archive:        archive,
	})
	if err != nil {
		return err
	}

	summary, err := orch.Run(ctx, *task)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nRun complete: %d/%d subtasks completed", summary.Completed, summary.TotalSubtasks)
	if summary.Terminated > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), ", %d terminated", summary.Terminated)
	}
	if summary.LimitReached > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), ", %d hit the turn limit", summary.LimitReached)
	}
	fmt.Fprintf(cmd.OutOrStdout(), " in %s.\n", summary.Duration.Round(time.Second))
	if fileSink != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Transcript written to: %s\n", fileSink.Path())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logs written to: %s\n", cfg.LogDir)

	return nil
}

// dryRunPlan generates roles and subtasks, prints the stage layout, and
// stops before any dialogue starts.
func dryRunPlan(cmd *cobra.Command, ctx context.Context, task models.Task, collab orchestrator.Collaborators, cfg *config.Config) error {
	set, err := collab.Roles.GenerateRoles(ctx, task, task.NumRoles)
	if err != nil {
		return fmt.Errorf("role generation failed: %w", err)
	}

	subtasks, err := collab.Decompose.Decompose(ctx, task, set)
	if err != nil {
		return fmt.Errorf("task decomposition failed: %w", err)
	}

	plan, err := scheduler.BuildPlan(subtasks, cfg.MaxConcurrency)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nPlan Summary:\n")
	fmt.Fprintf(out, "  Roles: %d\n", set.Len())
	fmt.Fprintf(out, "  Subtasks: %d\n", len(plan.Subtasks))
	fmt.Fprintf(out, "  Stages: %d\n\n", len(plan.Stages))
	printStages(out, plan)
	fmt.Fprintf(out, "\nDry-run mode: plan is valid and ready for execution.\n")
	return nil
}

// multiLogger implements logger.Logger by delegating to multiple loggers
type multiLogger struct {
	loggers []logger.Logger
}

func (ml *multiLogger) LogDebug(message string) {
	for _, l := range ml.loggers {
		l.LogDebug(message)
	}
}

func (ml *multiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

func (ml *multiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

func (ml *multiLogger) LogError(message string) {
	for _, l := range ml.loggers {
		l.LogError(message)
	}
}

func (ml *multiLogger) LogStageStart(stage models.Stage) {
	for _, l := range ml.loggers {
		l.LogStageStart(stage)
	}
}

func (ml *multiLogger) LogStageComplete(stage models.Stage, duration time.Duration) {
	for _, l := range ml.loggers {
		l.LogStageComplete(stage, duration)
	}
}

func (ml *multiLogger) LogRunSummary(summary models.RunSummary) {
	for _, l := range ml.loggers {
		l.LogRunSummary(summary)
	}
}
