package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/harrison/roundtable/internal/models"
)

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, "warn")

	logger.LogDebug("debug message")
	logger.LogInfo("info message")
	logger.LogWarn("warn message")
	logger.LogError("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below warn must be filtered, got %q", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("warn and error must pass the filter, got %q", out)
	}
}

func TestConsoleLogger_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, "verbose")

	logger.LogDebug("hidden")
	logger.LogInfo("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug must be filtered at default level, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info must pass at default level, got %q", out)
	}
}

func TestConsoleLogger_NilWriter(t *testing.T) {
	logger := NewConsoleLogger(nil, "debug")

	// Must not panic.
	logger.LogInfo("into the void")
	logger.LogStageStart(models.Stage{Name: "Stage 1"})
	logger.LogRunSummary(models.RunSummary{})
}

func TestConsoleLogger_StageLifecycle(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, "info")

	stage := models.Stage{Name: "Stage 2", SubtaskIDs: []string{"subtask 2", "subtask 3"}}
	logger.LogStageStart(stage)
	logger.LogStageComplete(stage, 90*time.Second)

	out := buf.String()
	if !strings.Contains(out, "Starting Stage 2: 2 subtasks") {
		t.Errorf("expected stage start line, got %q", out)
	}
	if !strings.Contains(out, "Stage 2 complete (1m30s)") {
		t.Errorf("expected stage completion line, got %q", out)
	}
}

func TestConsoleLogger_RunSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger(&buf, "info")

	logger.LogRunSummary(models.RunSummary{
		RunID:         "run-1",
		TotalSubtasks: 4,
		Completed:     3,
		Terminated:    1,
		Duration:      5 * time.Second,
	})

	out := buf.String()
	for _, want := range []string{"Run: run-1", "Total subtasks: 4", "Completed: 3", "Terminated: 1", "Duration: 5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q in %q", want, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Minute, "2m"},
		{time.Hour + 15*time.Minute, "1h15m"},
		{2 * time.Hour, "2h"},
		{time.Hour + time.Second, "1h0m1s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}
