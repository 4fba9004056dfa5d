// Package fitness folds a candidate solution into the weighted scalar
// objective the search algorithms rank by: volume utilization, stability,
// constraint satisfaction, and accessibility.
package fitness

import (
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/constraint"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/geometry"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/stability"
)

const aboveEpsilon = 1e-6

// Breakdown is the per-term decomposition of one fitness evaluation. Each
// term is clamped to [0,1]; Total is their weighted sum and stays in [0,1]
// whenever the weights sum to one.
type Breakdown struct {
	Utilization   float64
	Stability     float64
	Constraints   float64
	Accessibility float64
	Total         float64
}

// Evaluator scores candidate solutions for one problem. It is immutable
// after construction and safe for concurrent use across solver workers.
type Evaluator struct {
	weights   optimization.Weights
	engine    *constraint.Engine
	mode      optimization.Mode
	vessel    *optimization.Vessel
	stability stability.Config
	binVolume float64
	binHeight float64
	numItems  int
}

// New builds an evaluator for a normalized problem. The engine must have
// been built from the same problem.
func New(problem *optimization.Problem, engine *constraint.Engine, weights optimization.Weights, scfg stability.Config) *Evaluator {
	e := &Evaluator{
		weights:   weights,
		engine:    engine,
		mode:      problem.Mode(),
		vessel:    problem.Vessel,
		stability: scfg,
		numItems:  len(problem.Items),
	}
	if problem.Container != nil {
		e.binVolume = problem.Container.Volume()
		e.binHeight = problem.Container.Dims.Height
	} else if problem.Vessel != nil {
		e.binVolume = problem.Vessel.CellDims.Volume() * float64(len(problem.Vessel.Compartments))
	}
	return e
}

// Score annotates the solution with the full violation list and validity
// flag, and returns its weighted fitness.
func (e *Evaluator) Score(sol *optimization.Solution) float64 {
	return e.Evaluate(sol).Total
}

// Evaluate runs the constraint sweep, annotates the solution with the
// violations and hard-validity flag, and returns the term breakdown.
func (e *Evaluator) Evaluate(sol *optimization.Solution) Breakdown {
	violations := e.engine.Evaluate(sol)
	sol.Violations = violations
	sol.Valid = true
	for i := range violations {
		if violations[i].Severity == optimization.SeverityHard {
			sol.Valid = false
			break
		}
	}

	b := Breakdown{
		Utilization:   clamp01(e.utilization(sol)),
		Stability:     clamp01(e.stabilityScore(sol)),
		Constraints:   clamp01(constraint.Score(violations)),
		Accessibility: clamp01(e.accessibility(sol)),
	}
	b.Total = e.weights.Utilization*b.Utilization +
		e.weights.Stability*b.Stability +
		e.weights.Constraints*b.Constraints +
		e.weights.Accessibility*b.Accessibility
	return b
}

// utilization is placed volume over total destination volume.
func (e *Evaluator) utilization(sol *optimization.Solution) float64 {
	if e.binVolume <= 0 {
		return 0
	}
	return sol.PlacedVolume() / e.binVolume
}

func (e *Evaluator) stabilityScore(sol *optimization.Solution) float64 {
	if len(sol.Placements) == 0 {
		return 0
	}
	if e.mode == optimization.ModeVessel {
		att := stability.VesselAttitude(e.vessel, sol.Placements)
		return stability.VesselScore(e.vessel, att)
	}
	return stability.ContainerScore(sol.Placements, e.binHeight, e.stability)
}

// accessibility is the share of all items that are placed with nothing
// directly above them. Unpacked items count against the denominator, so an
// empty plan scores zero rather than perfectly accessible.
func (e *Evaluator) accessibility(sol *optimization.Solution) float64 {
	if e.numItems == 0 {
		return 0
	}
	ps := sol.Placements
	free := 0
	for i := range ps {
		if !e.blocked(&ps[i], ps) {
			free++
		}
	}
	return float64(free) / float64(e.numItems)
}

// blocked reports whether any other placement sits directly above p.
func (e *Evaluator) blocked(p *optimization.Placement, all []optimization.Placement) bool {
	if e.mode == optimization.ModeVessel {
		comp := e.compartmentOf(p.BinID)
		if comp == nil {
			return false
		}
		for i := range all {
			q := &all[i]
			if q == p {
				continue
			}
			oc := e.compartmentOf(q.BinID)
			if oc == nil {
				continue
			}
			if oc.Bay == comp.Bay && oc.Row == comp.Row && oc.Tier > comp.Tier {
				return true
			}
		}
		return false
	}

	top := p.Box().MaxZ()
	for i := range all {
		q := &all[i]
		if q == p || q.BinID != p.BinID {
			continue
		}
		if q.Position.Z >= top-aboveEpsilon && geometry.PlanOverlapArea(p.Box(), q.Box()) > 0 {
			return true
		}
	}
	return false
}

func (e *Evaluator) compartmentOf(binID string) *optimization.Compartment {
	if e.vessel == nil {
		return nil
	}
	return e.vessel.CompartmentByID(binID)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
