// Package optimization holds the shared data model and contracts of the
// cargo placement engine: items, bins, vessels, placements, candidate
// solutions, segregation rules, and the solver interface the genetic and
// constraint-programming back ends implement.
package optimization

import (
	"context"
)

// Status is the terminal state of an optimization run.
type Status string

const (
	// StatusCompleted means the search ran to its natural end. Unplaced
	// items and soft violations are reported, not errors.
	StatusCompleted Status = "completed"
	// StatusTruncated means a time or iteration budget cut the search
	// short; the result is the best found so far.
	StatusTruncated Status = "truncated"
	// StatusFailed means no result was produced, for example on malformed
	// input.
	StatusFailed Status = "failed"
)

// Solver is the contract shared by the search back ends. Implementations
// must honor context cancellation cooperatively and must return the best
// candidate found rather than an error when the search is merely cut short
// or the problem is infeasible.
type Solver interface {
	Solve(ctx context.Context, problem *Problem) (*Outcome, error)
}

// Outcome is the raw product of a single search run, before the
// orchestrator wraps it into a Result.
type Outcome struct {
	Solution *Solution
	// Fitness of the returned solution in [0,1].
	Fitness float64
	// Iterations counts generations for the genetic solver and search
	// nodes for the constraint solver.
	Iterations int
	// Truncated is set when a budget expired before the search finished.
	Truncated bool
}

// Result is the envelope returned to callers.
type Result struct {
	Status    Status    `json:"status"`
	Algorithm Algorithm `json:"algorithm"`
	// UtilizationPct is placed volume over bin volume, in percent.
	UtilizationPct float64     `json:"utilization_percentage"`
	ItemsPacked    int         `json:"items_packed"`
	ItemsUnpacked  int         `json:"items_unpacked"`
	Placements     []Placement `json:"placements"`
	Unpacked       []string    `json:"unpacked,omitempty"`
	Violations     []Violation `json:"violations,omitempty"`
	FitnessScore   float64     `json:"fitness_score"`
	Iterations     int         `json:"iterations_run"`
	// ComputationSeconds is the wall-clock time the run took.
	ComputationSeconds float64 `json:"computation_time_seconds"`
	// Error describes the failure when Status is failed.
	Error string `json:"error,omitempty"`
}
