// Package genetic implements the population-based stowage search:
// order-plus-orientation chromosomes decoded by the greedy placer,
// evaluated in parallel on a worker pool, and evolved with order
// crossover, swap and orientation mutation, tournament selection and
// elitism.
package genetic

import (
	"context"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/alitto/pond"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/constraint"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/cpsolver"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/fitness"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/stability"
)

const (
	tournamentSize   = 3
	stallGenerations = 10
	minImprovement   = 0.001
)

// Seed is a starting individual, typically distilled from a
// constraint-solver pass in hybrid mode.
type Seed struct {
	Sequence     []int
	Orientations []int
}

// SeedFromSolution turns a solved plan into a seed: placed items in
// placement order followed by the unpacked ones, carrying each
// placement's orientation gene.
func SeedFromSolution(problem *optimization.Problem, sol *optimization.Solution) Seed {
	index := make(map[string]int, len(problem.Items))
	for i := range problem.Items {
		index[problem.Items[i].ID] = i
	}
	s := Seed{
		Sequence:     make([]int, 0, len(problem.Items)),
		Orientations: make([]int, len(problem.Items)),
	}
	for i := range sol.Placements {
		p := &sol.Placements[i]
		idx, ok := index[p.ItemID]
		if !ok {
			continue
		}
		s.Sequence = append(s.Sequence, idx)
		s.Orientations[idx] = p.Orientation
	}
	for _, id := range sol.Unpacked {
		if idx, ok := index[id]; ok {
			s.Sequence = append(s.Sequence, idx)
		}
	}
	return s
}

// Config wires the optimizer's collaborators. Zero values get package
// defaults.
type Config struct {
	Constraint constraint.Config
	Stability  stability.Config
	// Seeds join the initial population ahead of the random individuals.
	Seeds []Seed
	// Logger receives per-generation statistics; nil means silent.
	Logger *zap.Logger
}

// Optimizer is the genetic engine. It holds no run state; everything
// run-scoped lives inside Solve, so one optimizer can serve concurrent
// requests.
type Optimizer struct {
	cfg    Config
	logger *zap.Logger
}

// New builds an optimizer, filling config defaults.
func New(cfg Config) *Optimizer {
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
	return &Optimizer{cfg: cfg, logger: logger.Named("genetic")}
}

// Solve evolves the population and returns the best individual found,
// whether or not it satisfies every constraint. The problem must be
// normalized. A context deadline stops evolution at the next generation
// boundary and sets the truncated flag.
func (o *Optimizer) Solve(ctx context.Context, problem *optimization.Problem) (*optimization.Outcome, error) {
	const op = "Optimizer.Solve"

	weights, err := problem.Params.ResolveWeights()
	if err != nil {
		return nil, optimization.WrapError(err, "genetic: "+op)
	}
	engine := constraint.NewEngine(problem, o.cfg.Constraint)
	eval := fitness.New(problem, engine, weights, o.cfg.Stability)
	placer := cpsolver.NewPlacer(problem, engine)

	params := &problem.Params
	popSize := params.PopulationSize
	if popSize <= 0 {
		popSize = optimization.DefaultPopulationSize
	}
	maxGens := params.Generations
	if maxGens <= 0 {
		maxGens = optimization.DefaultGenerations
	}
	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool := pond.New(workers, popSize*2)
	defer pool.StopAndWait()

	// Fork-join evaluation: decode and score every fresh individual on
	// the pool, then rejoin. Each task touches only its own chromosome;
	// the engine and evaluator are read-only.
	evaluate := func(pop []*chromosome) {
		group := pool.Group()
		for _, c := range pop {
			if c.evaluated {
				continue
			}
			c := c
			group.Submit(func() {
				sol := placer.Decode(c.sequence, c.orientations)
				c.fitness = eval.Score(sol)
				c.solution = sol
				c.evaluated = true
			})
		}
		group.Wait()
	}

	o.logger.Debug("Starting evolution",
		zap.Int("items", len(problem.Items)),
		zap.Int("population", popSize),
		zap.Int("max_generations", maxGens),
		zap.Int("workers", workers),
		zap.Int64("seed", seed),
	)

	pop := o.initialPopulation(problem.Items, rng, popSize)
	evaluate(pop)
	sortByFitness(pop)

	best := pop[0].clone()
	windowBase := best.fitness
	stall := 0
	truncated := false
	generations := 0

	for gen := 1; gen <= maxGens; gen++ {
		if ctxDone(ctx) {
			truncated = true
			break
		}

		pop = o.breed(pop, problem.Items, params, rng)
		evaluate(pop)
		sortByFitness(pop)
		generations = gen

		if pop[0].fitness > best.fitness {
			best = pop[0].clone()
		}

		fits := make([]float64, len(pop))
		for i, c := range pop {
			fits[i] = c.fitness
		}
		o.logger.Debug("Generation complete",
			zap.Int("generation", gen),
			zap.Float64("best", floats.Max(fits)),
			zap.Float64("mean", stat.Mean(fits, nil)),
			zap.Float64("stddev", stat.StdDev(fits, nil)),
		)

		if best.fitness-windowBase > minImprovement {
			windowBase = best.fitness
			stall = 0
		} else if stall++; stall >= stallGenerations {
			o.logger.Debug("Search converged",
				zap.Int("generation", gen),
				zap.Float64("fitness", best.fitness),
			)
			break
		}
	}

	return &optimization.Outcome{
		Solution:   best.solution,
		Fitness:    best.fitness,
		Iterations: generations,
		Truncated:  truncated,
	}, nil
}

func (o *Optimizer) initialPopulation(items []optimization.Item, rng *rand.Rand, size int) []*chromosome {
	pop := make([]*chromosome, 0, size)
	for _, s := range o.cfg.Seeds {
		if len(pop) == size {
			break
		}
		pop = append(pop, seedChromosome(items, s))
	}
	for len(pop) < size {
		pop = append(pop, randomChromosome(items, rng))
	}
	return pop
}

// breed produces the next generation from a fitness-sorted population:
// elite clones first, then tournament-selected offspring.
func (o *Optimizer) breed(pop []*chromosome, items []optimization.Item, params *optimization.Parameters, rng *rand.Rand) []*chromosome {
	next := make([]*chromosome, 0, len(pop))
	elite := params.EliteSize
	if elite > len(pop) {
		elite = len(pop)
	}
	for i := 0; i < elite; i++ {
		next = append(next, pop[i].clone())
	}
	for len(next) < len(pop) {
		p1 := tournament(pop, tournamentSize, rng)
		p2 := tournament(pop, tournamentSize, rng)
		var child *chromosome
		if rng.Float64() < params.CrossoverRate {
			child = orderCrossover(p1, p2, rng)
		} else {
			child = p1.clone()
		}
		if rng.Float64() < params.MutationRate {
			mutate(child, items, rng)
		}
		next = append(next, child)
	}
	return next
}

func sortByFitness(pop []*chromosome) {
	sort.SliceStable(pop, func(i, j int) bool {
		return pop[i].fitness > pop[j].fitness
	})
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
