package models

// Plan represents the scheduled execution of a decomposed task.
type Plan struct {
	Subtasks []Subtask // All subtasks, as produced by decomposition
	Stages   []Stage   // Execution stages (dependency-ordered groups)
}

// Stage represents a group of subtasks with no mutual dependency that can
// be executed in parallel. Stages are ordered so that every dependency of
// a subtask in stage i lives in stages 0..i-1.
type Stage struct {
	Name           string   // Stage name (e.g., "Stage 1")
	SubtaskIDs     []string // Subtask IDs in this stage
	MaxConcurrency int      // Maximum concurrent subtasks in this stage
}

// Flatten returns the subtask IDs in one sequential execution order:
// stage-major, preserving the within-stage order chosen by the scheduler.
func (p *Plan) Flatten() []string {
	var order []string
	for _, stage := range p.Stages {
		order = append(order, stage.SubtaskIDs...)
	}
	return order
}

// Subtask returns the subtask with the given ID, or nil if not found.
func (p *Plan) Subtask(id string) *Subtask {
	for i := range p.Subtasks {
		if p.Subtasks[i].ID == id {
			return &p.Subtasks[i]
		}
	}
	return nil
}
