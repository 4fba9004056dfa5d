package optimization

import (
	"sort"
	"time"
)

// Algorithm selects the search strategy for a run.
type Algorithm string

const (
	// AlgorithmAuto picks a strategy from problem size and constraint
	// density.
	AlgorithmAuto Algorithm = "auto"
	// AlgorithmGenetic runs the population-based search.
	AlgorithmGenetic Algorithm = "genetic"
	// AlgorithmConstraint runs the deterministic backtracking solver.
	AlgorithmConstraint Algorithm = "constraint"
	// AlgorithmHybrid seeds part of the genetic population from a bounded
	// constraint-solver pass.
	AlgorithmHybrid Algorithm = "hybrid"
)

// Mode distinguishes single-container packing from vessel stowage.
type Mode string

const (
	ModeContainer Mode = "container"
	ModeVessel    Mode = "vessel"
)

// Weights are the objective term weights for the fitness evaluator. The
// engine clamps each term to [0,1] but does not renormalize the weights;
// custom weights that do not sum to one are the caller's responsibility.
type Weights struct {
	Utilization   float64 `json:"utilization"`
	Stability     float64 `json:"stability"`
	Constraints   float64 `json:"constraints"`
	Accessibility float64 `json:"accessibility"`
}

// Objective presets.
const (
	PresetBalanced         = "balanced"
	PresetUtilizationMax   = "utilization-max"
	PresetStabilityMax     = "stability-max"
	PresetAccessibilityMax = "accessibility-max"
)

var presetWeights = map[string]Weights{
	PresetBalanced:         {Utilization: 0.40, Stability: 0.25, Constraints: 0.25, Accessibility: 0.10},
	PresetUtilizationMax:   {Utilization: 0.70, Stability: 0.10, Constraints: 0.15, Accessibility: 0.05},
	PresetStabilityMax:     {Utilization: 0.20, Stability: 0.55, Constraints: 0.20, Accessibility: 0.05},
	PresetAccessibilityMax: {Utilization: 0.20, Stability: 0.10, Constraints: 0.20, Accessibility: 0.50},
}

// DefaultWeights returns the balanced preset.
func DefaultWeights() Weights {
	return presetWeights[PresetBalanced]
}

// PresetWeights looks up a named objective preset.
func PresetWeights(name string) (Weights, bool) {
	w, ok := presetWeights[name]
	return w, ok
}

// Parameter bounds and defaults.
const (
	MinPopulationSize = 10
	MaxPopulationSize = 500
	MinGenerations    = 5
	MaxGenerations    = 500
	MinTimeLimitSec   = 10
	MaxTimeLimitSec   = 600

	DefaultPopulationSize = 100
	DefaultGenerations    = 100
	DefaultMutationRate   = 0.15
	DefaultCrossoverRate  = 0.85
	DefaultEliteSize      = 5
	DefaultTimeLimitSec   = 300
	DefaultMaxNodes       = 50000
	DefaultSeedFraction   = 0.2
)

// Parameters tune a single optimization run. The zero value of any numeric
// field means "use the default"; explicit values outside the documented
// bounds are input errors.
type Parameters struct {
	Algorithm Algorithm `json:"algorithm,omitempty"`
	// Objective names a weight preset; Weights overrides it when set.
	Objective      string   `json:"objective,omitempty"`
	Weights        *Weights `json:"weights,omitempty"`
	PopulationSize int      `json:"population_size,omitempty"`
	Generations    int      `json:"generations,omitempty"`
	MutationRate   float64  `json:"mutation_rate,omitempty"`
	CrossoverRate  float64  `json:"crossover_rate,omitempty"`
	EliteSize      int      `json:"elite_size,omitempty"`
	TimeLimitSec   int      `json:"time_limit_seconds,omitempty"`
	// Seed fixes the pseudo-random stream for reproducible runs; zero
	// draws a seed from the clock.
	Seed int64 `json:"seed,omitempty"`
	// Workers bounds the evaluation pool; zero uses the runtime default.
	Workers int `json:"workers,omitempty"`
	// MaxNodes caps the constraint solver's search nodes.
	MaxNodes int `json:"max_nodes,omitempty"`
	// SeedFraction is the share of the genetic population seeded from the
	// constraint pass in hybrid mode.
	SeedFraction float64 `json:"seed_fraction,omitempty"`
}

// DefaultParameters returns a fully populated parameter set.
func DefaultParameters() Parameters {
	return Parameters{
		Algorithm:      AlgorithmAuto,
		Objective:      PresetBalanced,
		PopulationSize: DefaultPopulationSize,
		Generations:    DefaultGenerations,
		MutationRate:   DefaultMutationRate,
		CrossoverRate:  DefaultCrossoverRate,
		EliteSize:      DefaultEliteSize,
		TimeLimitSec:   DefaultTimeLimitSec,
		MaxNodes:       DefaultMaxNodes,
		SeedFraction:   DefaultSeedFraction,
	}
}

// withDefaults fills zero-valued fields from the defaults.
func (p Parameters) withDefaults() Parameters {
	d := DefaultParameters()
	if p.Algorithm == "" {
		p.Algorithm = d.Algorithm
	}
	if p.Objective == "" && p.Weights == nil {
		p.Objective = d.Objective
	}
	if p.PopulationSize == 0 {
		p.PopulationSize = d.PopulationSize
	}
	if p.Generations == 0 {
		p.Generations = d.Generations
	}
	if p.MutationRate == 0 {
		p.MutationRate = d.MutationRate
	}
	if p.CrossoverRate == 0 {
		p.CrossoverRate = d.CrossoverRate
	}
	if p.EliteSize == 0 {
		p.EliteSize = d.EliteSize
	}
	if p.TimeLimitSec == 0 {
		p.TimeLimitSec = d.TimeLimitSec
	}
	if p.MaxNodes == 0 {
		p.MaxNodes = d.MaxNodes
	}
	if p.SeedFraction == 0 {
		p.SeedFraction = d.SeedFraction
	}
	return p
}

// TimeLimit returns the wall-clock budget as a duration.
func (p *Parameters) TimeLimit() time.Duration {
	return time.Duration(p.TimeLimitSec) * time.Second
}

// ResolveWeights returns the effective objective weights: explicit weights
// win over the named preset, which wins over the balanced default.
func (p *Parameters) ResolveWeights() (Weights, error) {
	if p.Weights != nil {
		return *p.Weights, nil
	}
	if p.Objective != "" {
		w, ok := PresetWeights(p.Objective)
		if !ok {
			return Weights{}, InvalidInputf("unknown objective preset %q", p.Objective)
		}
		return w, nil
	}
	return DefaultWeights(), nil
}

// Validate checks the parameters against their documented bounds. Zero
// values are allowed; they stand for defaults.
func (p *Parameters) Validate() error {
	switch p.Algorithm {
	case "", AlgorithmAuto, AlgorithmGenetic, AlgorithmConstraint, AlgorithmHybrid:
	default:
		return InvalidInputf("unknown algorithm %q", p.Algorithm)
	}
	if p.Objective != "" {
		if _, ok := PresetWeights(p.Objective); !ok {
			return InvalidInputf("unknown objective preset %q", p.Objective)
		}
	}
	if p.Weights != nil {
		w := p.Weights
		if w.Utilization < 0 || w.Stability < 0 || w.Constraints < 0 || w.Accessibility < 0 {
			return InvalidInputf("objective weights must not be negative, got %+v", *w)
		}
	}
	if p.PopulationSize != 0 && (p.PopulationSize < MinPopulationSize || p.PopulationSize > MaxPopulationSize) {
		return InvalidInputf("population_size must be in [%d,%d], got %d",
			MinPopulationSize, MaxPopulationSize, p.PopulationSize)
	}
	if p.Generations != 0 && (p.Generations < MinGenerations || p.Generations > MaxGenerations) {
		return InvalidInputf("generations must be in [%d,%d], got %d",
			MinGenerations, MaxGenerations, p.Generations)
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return InvalidInputf("mutation_rate must be in [0,1], got %v", p.MutationRate)
	}
	if p.CrossoverRate < 0 || p.CrossoverRate > 1 {
		return InvalidInputf("crossover_rate must be in [0,1], got %v", p.CrossoverRate)
	}
	if p.EliteSize < 0 {
		return InvalidInputf("elite_size must not be negative, got %d", p.EliteSize)
	}
	if p.TimeLimitSec != 0 && (p.TimeLimitSec < MinTimeLimitSec || p.TimeLimitSec > MaxTimeLimitSec) {
		return InvalidInputf("time_limit_seconds must be in [%d,%d], got %d",
			MinTimeLimitSec, MaxTimeLimitSec, p.TimeLimitSec)
	}
	if p.Workers < 0 {
		return InvalidInputf("workers must not be negative, got %d", p.Workers)
	}
	if p.MaxNodes < 0 {
		return InvalidInputf("max_nodes must not be negative, got %d", p.MaxNodes)
	}
	if p.SeedFraction < 0 || p.SeedFraction > 1 {
		return InvalidInputf("seed_fraction must be in [0,1], got %v", p.SeedFraction)
	}
	return nil
}

// Problem is one complete optimization request: a destination (container or
// vessel), the cargo, the segregation rules, and the run parameters.
type Problem struct {
	Container   *Container       `json:"container,omitempty"`
	Vessel      *Vessel          `json:"vessel,omitempty"`
	Items       []Item           `json:"items"`
	Segregation SegregationTable `json:"segregation,omitempty"`
	Params      Parameters       `json:"parameters"`
}

// Mode reports whether the problem targets a container or a vessel.
func (p *Problem) Mode() Mode {
	if p.Vessel != nil {
		return ModeVessel
	}
	return ModeContainer
}

// Bins returns the destination bins. Container mode has exactly one;
// vessel mode has one per compartment, ordered by (tier, bay, row)
// ascending so lower tiers fill first.
func (p *Problem) Bins() []Bin {
	if p.Container != nil {
		return []Bin{{
			ID:        p.Container.ID,
			Dims:      p.Container.Dims,
			MaxWeight: p.Container.MaxWeight,
		}}
	}
	if p.Vessel == nil {
		return nil
	}
	bins := make([]Bin, 0, len(p.Vessel.Compartments))
	for i := range p.Vessel.Compartments {
		c := &p.Vessel.Compartments[i]
		bins = append(bins, Bin{
			ID:          c.ID,
			Dims:        p.Vessel.CellDims,
			MaxWeight:   c.MaxWeight,
			Compartment: c,
		})
	}
	sort.SliceStable(bins, func(a, b int) bool {
		ca, cb := bins[a].Compartment, bins[b].Compartment
		if ca.Tier != cb.Tier {
			return ca.Tier < cb.Tier
		}
		if ca.Bay != cb.Bay {
			return ca.Bay < cb.Bay
		}
		return ca.Row < cb.Row
	})
	return bins
}

// Validate checks the whole problem for structural errors, naming the
// offending field and bound.
func (p *Problem) Validate() error {
	if p.Container == nil && p.Vessel == nil {
		return InvalidInputf("a container or a vessel is required")
	}
	if p.Container != nil && p.Vessel != nil {
		return InvalidInputf("container and vessel are mutually exclusive")
	}
	if p.Container != nil {
		if err := p.Container.Validate(); err != nil {
			return err
		}
	}
	if p.Vessel != nil {
		if err := p.Vessel.Validate(); err != nil {
			return err
		}
	}
	if len(p.Items) == 0 {
		return InvalidInputf("item list must not be empty")
	}
	seen := make(map[string]struct{}, len(p.Items))
	for i := range p.Items {
		it := &p.Items[i]
		if err := it.Validate(); err != nil {
			return err
		}
		if _, dup := seen[it.ID]; dup {
			return InvalidInputf("duplicate item id %q", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	if p.Segregation != nil {
		if err := p.Segregation.Validate(); err != nil {
			return err
		}
	}
	return p.Params.Validate()
}

// Normalized returns a copy of the problem ready for the solvers: items
// expanded by quantity, parameters filled with defaults, and the default
// segregation table applied when hazardous items are present without one.
// The input problem is not modified.
func (p *Problem) Normalized() *Problem {
	n := *p
	n.Items = ExpandItems(p.Items)
	n.Params = p.Params.withDefaults()
	if n.Segregation == nil {
		for i := range n.Items {
			if n.Items[i].IsHazardous() {
				n.Segregation = DefaultSegregationTable()
				break
			}
		}
	}
	return &n
}
