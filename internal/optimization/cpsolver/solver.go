package cpsolver

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/constraint"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/fitness"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/stability"
)

// Config tunes the backtracking search. Zero values fall back to the
// problem parameters and package defaults.
type Config struct {
	// MaxNodes caps the explored decision nodes when the problem
	// parameters leave max_nodes unset.
	MaxNodes int
	// Constraint and Stability configure the evaluation engines built for
	// each run.
	Constraint constraint.Config
	Stability  stability.Config
	// Logger receives search diagnostics; nil means silent.
	Logger *zap.Logger
}

// Solver is a depth-first constraint solver with chronological
// backtracking over an explicit decision-frame stack. Items are assigned
// in a fixed variable order (priority ascending, then volume descending,
// then weight descending); each decision takes one feasible
// (position, orientation) pair, and an item with no feasible pair takes a
// single explicit skip decision instead. An item is therefore unpacked
// only when nothing could hold it, never because leaving it out scored
// better. Two runs over the same problem visit the same nodes in the
// same order.
type Solver struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a solver, filling config defaults.
func New(cfg Config) *Solver {
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = optimization.DefaultMaxNodes
	}
	if cfg.Constraint == (constraint.Config{}) {
		cfg.Constraint = constraint.DefaultConfig()
	}
	if cfg.Stability == (stability.Config{}) {
		cfg.Stability = stability.DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{cfg: cfg, logger: logger.Named("cp_solver")}
}

// frame is one decision level: which item is being decided, its feasible
// candidates under the partial assignment in force when the frame was
// pushed, and which branch is currently active.
type frame struct {
	pos        int // index into the variable order
	candidates []candidate
	next       int  // next candidate branch to try
	placed     bool // active branch placed the item
	skipped    bool // skip branch has been tried
	skipActive bool // active branch is the skip
}

// Solve runs the search and returns the highest-scoring complete
// assignment found within the node budget. Spending the whole budget is
// normal termination once at least one complete assignment has been
// recorded; a context deadline, or a cap hit before the first complete
// assignment, returns the best effort so far with the truncated flag
// set. Never an error. The problem must be normalized.
func (s *Solver) Solve(ctx context.Context, problem *optimization.Problem) (*optimization.Outcome, error) {
	const op = "Solver.Solve"

	weights, err := problem.Params.ResolveWeights()
	if err != nil {
		return nil, optimization.WrapError(err, "cp_solver: "+op)
	}
	engine := constraint.NewEngine(problem, s.cfg.Constraint)
	eval := fitness.New(problem, engine, weights, s.cfg.Stability)
	placer := NewPlacer(problem, engine)

	maxNodes := problem.Params.MaxNodes
	if maxNodes <= 0 {
		maxNodes = s.cfg.MaxNodes
	}
	order := variableOrder(problem.Items)

	start := time.Now()
	best, bestScore, nodes, truncated := s.search(ctx, problem.Items, order, placer, eval, maxNodes)
	s.logger.Debug("Backtracking search finished",
		zap.Int("nodes", nodes),
		zap.Bool("truncated", truncated),
		zap.Float64("fitness", bestScore),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &optimization.Outcome{
		Solution:   best,
		Fitness:    bestScore,
		Iterations: nodes,
		Truncated:  truncated,
	}, nil
}

// variableOrder fixes the assignment order: priority ascending, then
// volume descending, then weight descending. The sort is stable, so ties
// keep input order.
func variableOrder(items []optimization.Item) []int {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := &items[order[a]], &items[order[b]]
		if pa, pb := ia.EffectivePriority(), ib.EffectivePriority(); pa != pb {
			return pa < pb
		}
		if va, vb := ia.Volume(), ib.Volume(); va != vb {
			return va > vb
		}
		return ia.Weight > ib.Weight
	})
	return order
}

func (s *Solver) search(ctx context.Context, items []optimization.Item, order []int, placer *Placer, eval *fitness.Evaluator, maxNodes int) (*optimization.Solution, float64, int, bool) {
	accepted := make([]optimization.Placement, 0, len(order))
	skipped := make([]string, 0)
	var best *optimization.Solution
	bestScore := math.Inf(-1)
	nodes := 0
	truncated := false

	if len(order) == 0 {
		sol := buildSolution(accepted, skipped, nil)
		return sol, eval.Score(sol), 0, false
	}

	record := func() {
		sol := buildSolution(accepted, skipped, nil)
		if score := eval.Score(sol); score > bestScore {
			bestScore = score
			best = sol
		}
	}

	stack := make([]*frame, 0, len(order))
	push := func(pos int) {
		stack = append(stack, &frame{
			pos:        pos,
			candidates: placer.candidates(&items[order[pos]], accepted),
		})
	}
	push(0)

	for len(stack) > 0 {
		nodes++
		if nodes > maxNodes {
			// Spending the node budget is normal termination once a
			// leaf has been recorded; before that the result is a
			// cut-off partial assignment.
			truncated = best == nil
			break
		}
		if nodes&0xff == 0 && ctxDone(ctx) {
			truncated = true
			break
		}

		f := stack[len(stack)-1]

		// Undo the branch this frame last took before selecting another.
		if f.placed {
			accepted = accepted[:len(accepted)-1]
			f.placed = false
		} else if f.skipActive {
			skipped = skipped[:len(skipped)-1]
			f.skipActive = false
		}

		item := &items[order[f.pos]]
		switch {
		case f.next < len(f.candidates):
			c := &f.candidates[f.next]
			f.next++
			accepted = append(accepted, c.placement(item))
			f.placed = true
		case len(f.candidates) == 0 && !f.skipped:
			// No feasible placement: the only branch is to leave the item out.
			f.skipped = true
			f.skipActive = true
			skipped = append(skipped, item.ID)
		default:
			stack = stack[:len(stack)-1]
			continue
		}

		if f.pos+1 == len(order) {
			// Leaf: every item is decided. The frame keeps its branch
			// applied until the next pass undoes it.
			record()
		} else {
			push(f.pos + 1)
		}
	}

	if best == nil {
		// Truncated before any complete assignment: score the partial one,
		// counting undecided items as unpacked.
		sol := buildSolution(accepted, skipped, undecidedIDs(items, order, accepted, skipped))
		bestScore = eval.Score(sol)
		best = sol
	}
	return best, bestScore, nodes, truncated
}

// buildSolution snapshots the current assignment. The slices are copied;
// the search keeps mutating its own.
func buildSolution(accepted []optimization.Placement, skipped, undecided []string) *optimization.Solution {
	sol := &optimization.Solution{
		Placements: append([]optimization.Placement(nil), accepted...),
	}
	if n := len(skipped) + len(undecided); n > 0 {
		unpacked := make([]string, 0, n)
		unpacked = append(unpacked, skipped...)
		unpacked = append(unpacked, undecided...)
		sol.Unpacked = unpacked
	}
	return sol
}

func undecidedIDs(items []optimization.Item, order []int, accepted []optimization.Placement, skipped []string) []string {
	decided := make(map[string]bool, len(accepted)+len(skipped))
	for i := range accepted {
		decided[accepted[i].ItemID] = true
	}
	for _, id := range skipped {
		decided[id] = true
	}
	var out []string
	for _, idx := range order {
		if id := items[idx].ID; !decided[id] {
			out = append(out, id)
		}
	}
	return out
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
