// Package orchestrator dispatches normalized problems to the right search
// back end, enforces the shared wall-clock budget, re-validates whatever
// the solvers return, and assembles the result envelope.
package orchestrator

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/constraint"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/cpsolver"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/genetic"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/stability"
)

const (
	// smallProblemItems is the item count below which the deterministic
	// constraint solver is the automatic choice.
	smallProblemItems = 20
	// defaultHybridNodes caps the constraint pass that seeds the genetic
	// population in hybrid mode.
	defaultHybridNodes = 5000
)

// Config wires the orchestrator and the solvers it builds per run. The
// struct is immutable once handed to New.
type Config struct {
	Constraint constraint.Config
	Stability  stability.Config
	// HybridNodes caps the seeding constraint pass in hybrid mode.
	HybridNodes int
	Logger      *zap.Logger
}

// Orchestrator runs exactly one optimization attempt per request: pick an
// algorithm, run it under the request's time budget, re-validate the
// returned plan, and wrap it for the caller. There is no retry.
type Orchestrator struct {
	cfg    Config
	logger *zap.Logger
}

// New builds an orchestrator, filling config defaults.
func New(cfg Config) *Orchestrator {
	if cfg.Constraint == (constraint.Config{}) {
		cfg.Constraint = constraint.DefaultConfig()
	}
	if cfg.Stability == (stability.Config{}) {
		cfg.Stability = stability.DefaultConfig()
	}
	if cfg.HybridNodes <= 0 {
		cfg.HybridNodes = defaultHybridNodes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{cfg: cfg, logger: logger.Named("orchestrator")}
}

// Run validates and normalizes the problem, dispatches it, and returns
// the result envelope. Infeasibility and budget exhaustion are result
// states, not errors; Run errors only on invalid input or an internal
// failure.
func (o *Orchestrator) Run(ctx context.Context, problem *optimization.Problem) (*optimization.Result, error) {
	const op = "Orchestrator.Run"

	if err := problem.Validate(); err != nil {
		return nil, optimization.WrapError(err, "orchestrator: "+op)
	}
	p := problem.Normalized()
	alg := o.selectAlgorithm(p)

	budget := p.Params.TimeLimit()
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	o.logger.Info("Starting optimization",
		zap.String("algorithm", string(alg)),
		zap.String("mode", string(p.Mode())),
		zap.Int("items", len(p.Items)),
		zap.Duration("budget", budget),
	)

	start := time.Now()
	outcome, err := o.dispatch(ctx, alg, p)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	if err := o.reValidate(p, outcome.Solution); err != nil {
		return nil, err
	}

	result := assemble(p, alg, outcome, elapsed)
	o.logger.Info("Optimization finished",
		zap.String("status", string(result.Status)),
		zap.Float64("fitness", result.FitnessScore),
		zap.Int("items_packed", result.ItemsPacked),
		zap.Int("items_unpacked", result.ItemsUnpacked),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

// selectAlgorithm honors an explicit choice and otherwise infers one from
// item count and constraint density.
func (o *Orchestrator) selectAlgorithm(p *optimization.Problem) optimization.Algorithm {
	switch p.Params.Algorithm {
	case optimization.AlgorithmGenetic, optimization.AlgorithmConstraint, optimization.AlgorithmHybrid:
		return p.Params.Algorithm
	}
	if len(p.Items) < smallProblemItems {
		return optimization.AlgorithmConstraint
	}
	if denseConstraints(p) {
		return optimization.AlgorithmHybrid
	}
	return optimization.AlgorithmGenetic
}

// denseConstraints reports whether hazardous cargo or widespread stacking
// restrictions narrow the feasible region enough that the genetic search
// benefits from constraint-solver seeding.
func denseConstraints(p *optimization.Problem) bool {
	restricted := 0
	for i := range p.Items {
		if p.Items[i].IsHazardous() {
			return true
		}
		if !p.Items[i].Stackable || p.Items[i].Fragile {
			restricted++
		}
	}
	return len(p.Items) > 0 && restricted*4 >= len(p.Items)
}

func (o *Orchestrator) dispatch(ctx context.Context, alg optimization.Algorithm, p *optimization.Problem) (*optimization.Outcome, error) {
	var solver optimization.Solver
	switch alg {
	case optimization.AlgorithmConstraint:
		solver = cpsolver.New(cpsolver.Config{
			Constraint: o.cfg.Constraint,
			Stability:  o.cfg.Stability,
			Logger:     o.cfg.Logger,
		})
	case optimization.AlgorithmGenetic:
		solver = genetic.New(genetic.Config{
			Constraint: o.cfg.Constraint,
			Stability:  o.cfg.Stability,
			Logger:     o.cfg.Logger,
		})
	case optimization.AlgorithmHybrid:
		return o.hybrid(ctx, p)
	default:
		return nil, optimization.NewErrorf("unknown algorithm %q", alg).WithComponent("orchestrator")
	}
	return solver.Solve(ctx, p)
}

// hybrid runs a node-capped constraint pass, plants its plan in the
// genetic population, and lets the genetic search spend the rest of the
// shared budget.
func (o *Orchestrator) hybrid(ctx context.Context, p *optimization.Problem) (*optimization.Outcome, error) {
	capped := *p
	capped.Params.MaxNodes = o.cfg.HybridNodes
	cpOut, err := cpsolver.New(cpsolver.Config{
		Constraint: o.cfg.Constraint,
		Stability:  o.cfg.Stability,
		Logger:     o.cfg.Logger,
	}).Solve(ctx, &capped)
	if err != nil {
		return nil, err
	}

	popSize := p.Params.PopulationSize
	if popSize <= 0 {
		popSize = optimization.DefaultPopulationSize
	}
	count := int(math.Round(p.Params.SeedFraction * float64(popSize)))
	if count < 1 {
		count = 1
	}
	if count > popSize {
		count = popSize
	}
	seed := genetic.SeedFromSolution(p, cpOut.Solution)
	seeds := make([]genetic.Seed, count)
	for i := range seeds {
		seeds[i] = seed
	}
	o.logger.Debug("Seeding population from constraint pass",
		zap.Int("seeds", count),
		zap.Float64("seed_fitness", cpOut.Fitness),
	)

	return genetic.New(genetic.Config{
		Constraint: o.cfg.Constraint,
		Stability:  o.cfg.Stability,
		Seeds:      seeds,
		Logger:     o.cfg.Logger,
	}).Solve(ctx, p)
}

// reValidate sweeps the returned plan with a fresh engine and replaces
// the solver's annotations with the authoritative ones. A plan the solver
// marked valid that fails the sweep is an internal error, never a result.
func (o *Orchestrator) reValidate(p *optimization.Problem, sol *optimization.Solution) error {
	const op = "Orchestrator.reValidate"

	if sol == nil {
		return optimization.NewErrorf("solver returned no solution").
			WithComponent("orchestrator").WithOperation(op)
	}
	claimedValid := sol.Valid

	engine := constraint.NewEngine(p, o.cfg.Constraint)
	sol.Violations = engine.Evaluate(sol)
	hard := 0
	for i := range sol.Violations {
		if sol.Violations[i].Severity == optimization.SeverityHard {
			hard++
		}
	}
	sol.Valid = hard == 0

	if claimedValid && hard > 0 {
		return optimization.NewErrorf("solution marked valid has %d hard violations", hard).
			WithComponent("orchestrator").WithOperation(op)
	}
	return nil
}

func assemble(p *optimization.Problem, alg optimization.Algorithm, out *optimization.Outcome, elapsed time.Duration) *optimization.Result {
	sol := out.Solution
	status := optimization.StatusCompleted
	if out.Truncated {
		status = optimization.StatusTruncated
	}
	return &optimization.Result{
		Status:             status,
		Algorithm:          alg,
		UtilizationPct:     utilizationPct(p, sol),
		ItemsPacked:        len(sol.Placements),
		ItemsUnpacked:      len(sol.Unpacked),
		Placements:         sol.Placements,
		Unpacked:           sol.Unpacked,
		Violations:         sol.Violations,
		FitnessScore:       out.Fitness,
		Iterations:         out.Iterations,
		ComputationSeconds: elapsed.Seconds(),
	}
}

func utilizationPct(p *optimization.Problem, sol *optimization.Solution) float64 {
	var capacity float64
	if p.Mode() == optimization.ModeVessel {
		capacity = p.Vessel.CellDims.Volume() * float64(len(p.Vessel.Compartments))
	} else {
		capacity = p.Container.Dims.Volume()
	}
	if capacity <= 0 {
		return 0
	}
	return sol.PlacedVolume() / capacity * 100
}
