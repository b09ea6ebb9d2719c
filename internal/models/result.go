package models

import "time"

// RunSummary aggregates the outcome of one orchestrator run.
type RunSummary struct {
	RunID         string        // Unique identifier for this run
	TotalSubtasks int           // Number of subtasks executed
	Completed     int           // Subtasks that reached normal completion
	Terminated    int           // Subtasks ended by participant termination
	LimitReached  int           // Subtasks that hit the turn limit
	Duration      time.Duration // Wall-clock duration of the run
}
