// Package agent provides the collaborator implementations behind the
// orchestrator's interfaces: one family backed by the claude CLI, one
// backed by scripted YAML playbooks for offline runs and tests.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultStepTimeout bounds a single claude CLI invocation.
const DefaultStepTimeout = 5 * time.Minute

// Invoker manages execution of claude CLI commands
type Invoker struct {
	ClaudePath string
	Timeout    time.Duration
}

// InvocationResult captures the result of invoking the claude CLI
type InvocationResult struct {
	Output   string
	ExitCode int
	Duration time.Duration
}

// ClaudeOutput represents the JSON output structure from claude CLI
type ClaudeOutput struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// NewInvoker creates a new Invoker with default settings
func NewInvoker() *Invoker {
	return &Invoker{
		ClaudePath: "claude",
		Timeout:    DefaultStepTimeout,
	}
}

// BuildCommandArgs constructs the command-line arguments for one prompt.
// The schema, when non-empty, is appended to the prompt as an output
// contract since structured replies are parsed back into Go types.
func (inv *Invoker) BuildCommandArgs(prompt, schema string) []string {
	if schema != "" {
		prompt = fmt.Sprintf("%s\n\nRespond with a single JSON object matching this schema, and nothing else:\n%s", prompt, schema)
	}

	args := []string{"-p", prompt}

	// Disable hooks for automation
	args = append(args, "--settings", `{"disableAllHooks": true}`)

	// JSON output for easier parsing
	args = append(args, "--output-format", "json")

	return args
}

// Invoke executes the claude CLI command with the given context
func (inv *Invoker) Invoke(ctx context.Context, prompt, schema string) (*InvocationResult, error) {
	startTime := time.Now()

	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	args := inv.BuildCommandArgs(prompt, schema)
	cmd := exec.CommandContext(ctx, inv.ClaudePath, args...)

	output, err := cmd.CombinedOutput()

	result := &InvocationResult{
		Output:   string(output),
		Duration: time.Since(startTime),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, fmt.Errorf("claude exited with code %d: %s", result.ExitCode, truncate(result.Output, 500))
		}
		return result, fmt.Errorf("invoking claude: %w", err)
	}

	return result, nil
}

// ParseClaudeOutput parses the JSON envelope from claude CLI. If the
// output is not valid JSON, the raw output is returned as the result.
func ParseClaudeOutput(output string) (*ClaudeOutput, error) {
	var co ClaudeOutput
	if err := json.Unmarshal([]byte(output), &co); err != nil {
		return &ClaudeOutput{Result: output}, nil
	}
	if co.Error != "" {
		return &co, fmt.Errorf("claude reported error: %s", co.Error)
	}
	return &co, nil
}

// ExtractJSON finds the outermost JSON object embedded in free text.
// Models sometimes wrap structured replies in prose or code fences.
func ExtractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object found in output")
	}
	return trimmed[start : end+1], nil
}

// invokeStructured runs one prompt and decodes the structured reply into v.
func (inv *Invoker) invokeStructured(ctx context.Context, prompt, schema string, v interface{}) error {
	result, err := inv.Invoke(ctx, prompt, schema)
	if err != nil {
		return err
	}

	parsed, err := ParseClaudeOutput(result.Output)
	if err != nil {
		return err
	}

	payload, err := ExtractJSON(parsed.Result)
	if err != nil {
		return fmt.Errorf("parsing claude reply: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("decoding claude reply: %w", err)
	}
	return nil
}

// truncate shortens a string for error messages.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
