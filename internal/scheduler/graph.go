// Package scheduler builds dependency-ordered execution plans for
// decomposed subtasks. Subtasks are grouped into stages via a layered
// topological sort; subtasks within a stage have no dependency relation
// to each other and are candidates for parallel execution.
package scheduler

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/harrison/roundtable/internal/models"
)

const (
	// DefaultMaxConcurrency is the default maximum number of concurrent
	// subtasks per stage.
	DefaultMaxConcurrency = 1
)

// ErrCyclicDependency indicates the dependency graph has no valid
// topological order. The run must abort before any dialogue starts.
var ErrCyclicDependency = errors.New("cyclic dependency detected")

// parseSubtaskNumber extracts the numeric portion from subtask ID strings.
// Handles formats like "3", "subtask 3", "Subtask 10".
// Returns a large number (999999) for unparseable strings so they sort last.
func parseSubtaskNumber(id string) int {
	if num, err := strconv.Atoi(id); err == nil {
		return num
	}

	fields := strings.Fields(id)
	for _, field := range fields {
		if num, err := strconv.Atoi(field); err == nil {
			return num
		}
	}

	return 999999
}

// DependencyGraph represents a directed graph of subtask dependencies.
type DependencyGraph struct {
	Subtasks map[string]*models.Subtask
	Edges    map[string][]string // prerequisite -> dependents (adjacency list)
	InDegree map[string]int      // subtask -> number of unmet dependencies
}

// ValidateSubtasks checks that subtask IDs are unique and non-empty and
// that every declared dependency references an existing subtask.
func ValidateSubtasks(subtasks []models.Subtask) error {
	seen := make(map[string]bool)
	for _, sub := range subtasks {
		if sub.ID == "" {
			return fmt.Errorf("subtask has empty id")
		}
		if seen[sub.ID] {
			return fmt.Errorf("subtask %s: duplicate id", sub.ID)
		}
		seen[sub.ID] = true
	}

	for _, sub := range subtasks {
		for _, dep := range sub.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("subtask %s: depends on non-existent subtask %s", sub.ID, dep)
			}
		}
	}

	return nil
}

// BuildDependencyGraph constructs a dependency graph from a list of subtasks.
func BuildDependencyGraph(subtasks []models.Subtask) *DependencyGraph {
	g := &DependencyGraph{
		Subtasks: make(map[string]*models.Subtask),
		Edges:    make(map[string][]string),
		InDegree: make(map[string]int),
	}

	for i := range subtasks {
		g.Subtasks[subtasks[i].ID] = &subtasks[i]
		g.InDegree[subtasks[i].ID] = 0
	}

	// Build edges and in-degrees. Invalid dependencies are skipped here;
	// ValidateSubtasks reports them.
	for _, sub := range subtasks {
		for _, dep := range sub.DependsOn {
			if _, exists := g.Subtasks[dep]; !exists {
				continue
			}
			// dep -> sub (dep must complete before sub)
			g.Edges[dep] = append(g.Edges[dep], sub.ID)
			g.InDegree[sub.ID]++
		}
	}

	return g
}

// HasCycle detects if the graph contains a cycle using DFS with color marking.
func (g *DependencyGraph) HasCycle() bool {
	const (
		white = 0 // not visited
		gray  = 1 // visiting
		black = 2 // visited
	)

	colors := make(map[string]int)
	for id := range g.Subtasks {
		colors[id] = white
	}

	var dfs func(string) bool
	dfs = func(node string) bool {
		colors[node] = gray

		for _, neighbor := range g.Edges[node] {
			if colors[neighbor] == gray {
				return true // back edge = cycle
			}
			if colors[neighbor] == white && dfs(neighbor) {
				return true
			}
		}

		colors[node] = black
		return false
	}

	// Check for self-referencing first
	for id, sub := range g.Subtasks {
		for _, dep := range sub.DependsOn {
			if dep == id {
				return true
			}
		}
	}

	for id := range g.Subtasks {
		if colors[id] == white {
			if dfs(id) {
				return true
			}
		}
	}

	return false
}

// CalculateStages computes execution stages using Kahn's algorithm by
// levels. Subtasks with no dependencies go in Stage 1, subtasks depending
// only on Stage 1 go in Stage 2, and so on. Within a stage, IDs are
// sorted numerically for reproducible flattened order; members of a stage
// have no defined execution order between them.
// Returns ErrCyclicDependency (and no partial result) if the graph has no
// valid topological order.
func CalculateStages(subtasks []models.Subtask, maxConcurrency int) ([]models.Stage, error) {
	if err := ValidateSubtasks(subtasks); err != nil {
		return nil, err
	}

	if len(subtasks) == 0 {
		return []models.Stage{}, nil
	}

	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	graph := BuildDependencyGraph(subtasks)

	if graph.HasCycle() {
		return nil, ErrCyclicDependency
	}

	var stages []models.Stage
	inDegree := make(map[string]int)
	for k, v := range graph.InDegree {
		inDegree[k] = v
	}

	for len(inDegree) > 0 {
		// Collect all subtasks whose dependencies are fully satisfied.
		var current []string
		for id, degree := range inDegree {
			if degree == 0 {
				current = append(current, id)
			}
		}

		if len(current) == 0 {
			// Unreachable after the cycle check above, kept as a guard
			// against a malformed graph.
			return nil, ErrCyclicDependency
		}

		sort.Slice(current, func(i, j int) bool {
			ni, nj := parseSubtaskNumber(current[i]), parseSubtaskNumber(current[j])
			if ni != nj {
				return ni < nj
			}
			return current[i] < current[j]
		})

		stages = append(stages, models.Stage{
			Name:           fmt.Sprintf("Stage %d", len(stages)+1),
			SubtaskIDs:     current,
			MaxConcurrency: maxConcurrency,
		})

		// Remove placed subtasks and update in-degrees of dependents.
		for _, id := range current {
			delete(inDegree, id)

			for _, dependent := range graph.Edges[id] {
				if _, exists := inDegree[dependent]; exists {
					inDegree[dependent]--
				}
			}
		}
	}

	return stages, nil
}

// BuildPlan validates the subtasks, computes stages, and assembles the
// execution plan.
func BuildPlan(subtasks []models.Subtask, maxConcurrency int) (*models.Plan, error) {
	stages, err := CalculateStages(subtasks, maxConcurrency)
	if err != nil {
		return nil, err
	}

	return &models.Plan{
		Subtasks: subtasks,
		Stages:   stages,
	}, nil
}
