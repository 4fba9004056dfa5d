// Package constraint evaluates candidate placements and complete stowage
// plans against the hard and soft constraint set: bounds, overlap, weight
// capacity, support, stack load, hazardous-material segregation, and the
// vessel stability limits.
package constraint

import (
	"fmt"
	"math"
	"sort"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/geometry"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/stability"
)

// Config tunes the soft-constraint thresholds. Stowage rules vary by
// vessel class and regulatory regime, so the documented defaults are
// starting points, not law.
type Config struct {
	// MinSupportRatio is the fraction of an elevated item's base area
	// that must rest on material below it.
	MinSupportRatio float64
	// SupportTolerance is the vertical slack in millimeters when deciding
	// whether one box rests on another.
	SupportTolerance float64
}

// DefaultConfig returns the standard thresholds: 60% support, 0.5mm
// contact tolerance.
func DefaultConfig() Config {
	return Config{
		MinSupportRatio:  0.6,
		SupportTolerance: 0.5,
	}
}

const dimEpsilon = 1e-6

// Engine evaluates placements against a problem's constraint set. Engines
// are immutable after construction and safe for concurrent use across
// solver workers.
type Engine struct {
	cfg    Config
	mode   optimization.Mode
	bins   map[string]optimization.Bin
	order  []optimization.Bin
	items  map[string]*optimization.Item
	table  optimization.SegregationTable
	vessel *optimization.Vessel
}

// NewEngine builds an engine for a normalized problem. The problem's item
// and bin data must not be mutated for the engine's lifetime.
func NewEngine(problem *optimization.Problem, cfg Config) *Engine {
	e := &Engine{
		cfg:    cfg,
		mode:   problem.Mode(),
		bins:   make(map[string]optimization.Bin),
		items:  make(map[string]*optimization.Item, len(problem.Items)),
		table:  problem.Segregation,
		vessel: problem.Vessel,
	}
	e.order = problem.Bins()
	for _, b := range e.order {
		e.bins[b.ID] = b
	}
	for i := range problem.Items {
		it := &problem.Items[i]
		e.items[it.ID] = it
	}
	return e
}

// Mode reports the problem mode the engine was built for.
func (e *Engine) Mode() optimization.Mode { return e.mode }

// Bins returns the destination bins in deterministic order: the single
// container, or the compartments by (tier, bay, row) ascending.
func (e *Engine) Bins() []optimization.Bin { return e.order }

// Item returns the item for an id, or nil.
func (e *Engine) Item(id string) *optimization.Item { return e.items[id] }

// Feasible reports whether placing p on top of the accepted placements
// satisfies every hard constraint. It short-circuits on the first failure;
// Evaluate is the exhaustive sweep.
func (e *Engine) Feasible(p optimization.Placement, accepted []optimization.Placement) bool {
	if vs := e.placementChecks(&p); len(vs) > 0 {
		return false
	}
	bin := e.bins[p.BinID]
	item := e.items[p.ItemID]

	if e.mode == optimization.ModeContainer {
		total := p.Weight
		for i := range accepted {
			q := &accepted[i]
			if q.BinID != p.BinID {
				continue
			}
			total += q.Weight
			if geometry.Overlaps(p.Box(), q.Box()) {
				return false
			}
		}
		if total > bin.MaxWeight {
			return false
		}
	} else {
		for i := range accepted {
			if accepted[i].BinID == p.BinID {
				return false
			}
		}
	}

	if item != nil && item.IsHazardous() {
		for i := range accepted {
			other := e.items[accepted[i].ItemID]
			if other == nil || !other.IsHazardous() {
				continue
			}
			if r, ok := e.table.Rule(item.HazardClass, other.HazardClass); ok && r.Prohibited {
				return false
			}
		}
	}
	return true
}

// Evaluate runs every hard and soft check over a complete candidate and
// returns the full violation list. It never stops at the first failure;
// the fitness evaluator needs the complete count.
func (e *Engine) Evaluate(sol *optimization.Solution) []optimization.Violation {
	var out []optimization.Violation
	out = append(out, e.hardSweep(sol)...)
	out = append(out, e.softSweep(sol)...)
	return out
}

// Valid reports whether the solution passes every hard constraint.
func (e *Engine) Valid(sol *optimization.Solution) bool {
	for _, v := range e.Evaluate(sol) {
		if v.Severity == optimization.SeverityHard {
			return false
		}
	}
	return true
}

// Score maps a violation list to the constraints fitness term: 1 with an
// empty list, otherwise 0.5 less 0.05 per violation, floored at zero.
func Score(violations []optimization.Violation) float64 {
	if len(violations) == 0 {
		return 1.0
	}
	s := 0.5 - 0.05*float64(len(violations))
	if s < 0 {
		return 0
	}
	return s
}

// placementChecks runs the hard checks that depend only on the placement
// itself: reference integrity, bounds, and in vessel mode the slot
// capability flags and per-slot weight.
func (e *Engine) placementChecks(p *optimization.Placement) []optimization.Violation {
	var out []optimization.Violation

	bin, ok := e.bins[p.BinID]
	if !ok {
		return append(out, optimization.Violation{
			Rule:     optimization.RuleBounds,
			Detail:   fmt.Sprintf("placement of %q names unknown bin %q", p.ItemID, p.BinID),
			ItemID:   p.ItemID,
			Severity: optimization.SeverityHard,
		})
	}
	item, ok := e.items[p.ItemID]
	if !ok {
		return append(out, optimization.Violation{
			Rule:     optimization.RuleBounds,
			Detail:   fmt.Sprintf("placement names unknown item %q", p.ItemID),
			ItemID:   p.ItemID,
			Severity: optimization.SeverityHard,
		})
	}

	if e.mode == optimization.ModeContainer {
		if !geometry.FitsWithin(p.Box(), bin.Dims) {
			out = append(out, optimization.Violation{
				Rule: optimization.RuleBounds,
				Detail: fmt.Sprintf("item %q at (%.0f,%.0f,%.0f) with dims %.0fx%.0fx%.0f exceeds bin %q",
					p.ItemID, p.Position.X, p.Position.Y, p.Position.Z,
					p.Dims.Length, p.Dims.Width, p.Dims.Height, p.BinID),
				ItemID:   p.ItemID,
				Severity: optimization.SeverityHard,
			})
		}
		return out
	}

	comp := bin.Compartment
	origin := e.vessel.SlotOrigin(comp)
	if math.Abs(p.Position.X-origin.X) > dimEpsilon ||
		math.Abs(p.Position.Y-origin.Y) > dimEpsilon ||
		math.Abs(p.Position.Z-origin.Z) > dimEpsilon {
		out = append(out, optimization.Violation{
			Rule:     optimization.RuleBounds,
			Detail:   fmt.Sprintf("item %q is not anchored at slot %q origin", p.ItemID, comp.ID),
			ItemID:   p.ItemID,
			Severity: optimization.SeverityHard,
		})
	}

	if item.NeedsReefer() && !comp.Reefer {
		out = append(out, optimization.Violation{
			Rule:     optimization.RuleSlotCapability,
			Detail:   fmt.Sprintf("item %q needs a reefer slot, %q is not reefer-capable", p.ItemID, comp.ID),
			ItemID:   p.ItemID,
			Severity: optimization.SeverityHard,
		})
	}
	if item.IsHazardous() && !comp.Hazardous {
		out = append(out, optimization.Violation{
			Rule:     optimization.RuleSlotCapability,
			Detail:   fmt.Sprintf("item %q carries IMDG class %s, slot %q is not certified for hazardous cargo", p.ItemID, item.HazardClass, comp.ID),
			ItemID:   p.ItemID,
			Severity: optimization.SeverityHard,
		})
	}

	oversized := e.needsOversized(item)
	switch {
	case oversized && !comp.Oversized:
		out = append(out, optimization.Violation{
			Rule:     optimization.RuleSlotCapability,
			Detail:   fmt.Sprintf("item %q exceeds the cell dimensions and slot %q takes no oversized cargo", p.ItemID, comp.ID),
			ItemID:   p.ItemID,
			Severity: optimization.SeverityHard,
		})
	case !oversized:
		cell := bin.Dims
		if p.Dims.Length > cell.Length+dimEpsilon ||
			p.Dims.Width > cell.Width+dimEpsilon ||
			p.Dims.Height > cell.Height+dimEpsilon {
			out = append(out, optimization.Violation{
				Rule: optimization.RuleBounds,
				Detail: fmt.Sprintf("item %q dims %.0fx%.0fx%.0f exceed cell %.0fx%.0fx%.0f in slot %q",
					p.ItemID, p.Dims.Length, p.Dims.Width, p.Dims.Height,
					cell.Length, cell.Width, cell.Height, comp.ID),
				ItemID:   p.ItemID,
				Severity: optimization.SeverityHard,
			})
		}
	}

	if p.Weight > bin.MaxWeight {
		out = append(out, optimization.Violation{
			Rule: optimization.RuleBinWeight,
			Detail: fmt.Sprintf("item %q weighs %.1fkg, slot %q takes %.1fkg",
				p.ItemID, p.Weight, comp.ID, bin.MaxWeight),
			ItemID:   p.ItemID,
			Severity: optimization.SeverityHard,
		})
	}
	return out
}

// needsOversized reports whether no allowed orientation of the item fits
// the vessel's cell dimensions.
func (e *Engine) needsOversized(item *optimization.Item) bool {
	cell := e.vessel.CellDims
	for _, idx := range item.Orientations() {
		d := geometry.Oriented(item.Dims, idx)
		if d.Length <= cell.Length+dimEpsilon &&
			d.Width <= cell.Width+dimEpsilon &&
			d.Height <= cell.Height+dimEpsilon {
			return false
		}
	}
	return true
}

func (e *Engine) hardSweep(sol *optimization.Solution) []optimization.Violation {
	var out []optimization.Violation
	ps := sol.Placements

	for i := range ps {
		out = append(out, e.placementChecks(&ps[i])...)
	}

	// Pairwise: geometric overlap per container, slot occupancy per vessel.
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			p, q := &ps[i], &ps[j]
			if p.BinID != q.BinID {
				continue
			}
			if e.mode == optimization.ModeContainer {
				if geometry.Overlaps(p.Box(), q.Box()) {
					out = append(out, optimization.Violation{
						Rule:     optimization.RuleOverlap,
						Detail:   fmt.Sprintf("items %q and %q overlap in bin %q", p.ItemID, q.ItemID, p.BinID),
						ItemID:   p.ItemID,
						Severity: optimization.SeverityHard,
					})
				}
			} else {
				out = append(out, optimization.Violation{
					Rule:     optimization.RuleSlotOccupied,
					Detail:   fmt.Sprintf("items %q and %q share slot %q", p.ItemID, q.ItemID, p.BinID),
					ItemID:   p.ItemID,
					Severity: optimization.SeverityHard,
				})
			}
		}
	}

	// Per-bin weight capacity. Per-slot weight is a placement check in
	// vessel mode; this covers the container aggregate.
	if e.mode == optimization.ModeContainer {
		weights := make(map[string]float64)
		for i := range ps {
			weights[ps[i].BinID] += ps[i].Weight
		}
		binIDs := make([]string, 0, len(weights))
		for id := range weights {
			binIDs = append(binIDs, id)
		}
		sort.Strings(binIDs)
		for _, id := range binIDs {
			bin, ok := e.bins[id]
			if !ok {
				continue
			}
			if weights[id] > bin.MaxWeight {
				out = append(out, optimization.Violation{
					Rule: optimization.RuleBinWeight,
					Detail: fmt.Sprintf("bin %q carries %.1fkg of %.1fkg allowed",
						id, weights[id], bin.MaxWeight),
					Severity: optimization.SeverityHard,
				})
			}
		}
	}

	// Prohibited co-stowage, anywhere in the solution.
	for i := range ps {
		a := e.items[ps[i].ItemID]
		if a == nil || !a.IsHazardous() {
			continue
		}
		for j := i + 1; j < len(ps); j++ {
			b := e.items[ps[j].ItemID]
			if b == nil || !b.IsHazardous() {
				continue
			}
			if r, ok := e.table.Rule(a.HazardClass, b.HazardClass); ok && r.Prohibited {
				out = append(out, optimization.Violation{
					Rule: optimization.RuleProhibited,
					Detail: fmt.Sprintf("classes %s and %s (%q, %q) may not be stowed together",
						a.HazardClass, b.HazardClass, ps[i].ItemID, ps[j].ItemID),
					ItemID:   ps[i].ItemID,
					Severity: optimization.SeverityHard,
				})
			}
		}
	}

	// Metacentric height is a hard safety limit for vessel plans.
	if e.mode == optimization.ModeVessel && len(ps) > 0 {
		att := stability.VesselAttitude(e.vessel, ps)
		if att.GM < e.vessel.GMMin || att.GM > e.vessel.GMMax {
			out = append(out, optimization.Violation{
				Rule: optimization.RuleGM,
				Detail: fmt.Sprintf("GM %.2fm outside safe band [%.2f, %.2f]",
					att.GM, e.vessel.GMMin, e.vessel.GMMax),
				Severity: optimization.SeverityHard,
			})
		}
	}

	return out
}

func (e *Engine) softSweep(sol *optimization.Solution) []optimization.Violation {
	if e.mode == optimization.ModeContainer {
		return e.softSweepContainer(sol)
	}
	return e.softSweepVessel(sol)
}

func (e *Engine) softSweepContainer(sol *optimization.Solution) []optimization.Violation {
	var out []optimization.Violation
	ps := sol.Placements
	tol := e.cfg.SupportTolerance

	// Support ratio for everything above the floor.
	for i := range ps {
		p := &ps[i]
		if p.Position.Z <= tol {
			continue
		}
		base := p.Box().BaseArea()
		if base <= 0 {
			continue
		}
		var supported float64
		for j := range ps {
			if i == j || ps[j].BinID != p.BinID {
				continue
			}
			q := &ps[j]
			if math.Abs(q.Box().MaxZ()-p.Position.Z) > tol {
				continue
			}
			supported += geometry.PlanOverlapArea(p.Box(), q.Box())
		}
		ratio := supported / base
		if ratio < e.cfg.MinSupportRatio {
			out = append(out, optimization.Violation{
				Rule: optimization.RuleSupport,
				Detail: fmt.Sprintf("item %q has %.0f%% base support, %.0f%% required",
					p.ItemID, ratio*100, e.cfg.MinSupportRatio*100),
				ItemID:   p.ItemID,
				Severity: optimization.SeveritySoft,
			})
		}
	}

	// Stack load and fragility, per supporting item.
	for i := range ps {
		s := &ps[i]
		item := e.items[s.ItemID]
		if item == nil {
			continue
		}
		var load float64
		for j := range ps {
			if i == j || ps[j].BinID != s.BinID {
				continue
			}
			q := &ps[j]
			if math.Abs(q.Position.Z-s.Box().MaxZ()) > tol {
				continue
			}
			if geometry.PlanOverlapArea(s.Box(), q.Box()) <= 0 {
				continue
			}
			load += q.Weight
		}
		if load == 0 {
			continue
		}
		if load > item.StackCapacity() {
			out = append(out, optimization.Violation{
				Rule: optimization.RuleStackWeight,
				Detail: fmt.Sprintf("item %q carries %.1fkg of %.1fkg allowed on top",
					s.ItemID, load, item.StackCapacity()),
				ItemID:   s.ItemID,
				Severity: optimization.SeveritySoft,
			})
		}
		if item.Fragile {
			out = append(out, optimization.Violation{
				Rule:     optimization.RuleFragile,
				Detail:   fmt.Sprintf("fragile item %q has %.1fkg resting on it", s.ItemID, load),
				ItemID:   s.ItemID,
				Severity: optimization.SeveritySoft,
			})
		}
	}

	out = append(out, e.segregationPairs(sol, nil)...)
	return out
}

func (e *Engine) softSweepVessel(sol *optimization.Solution) []optimization.Violation {
	var out []optimization.Violation
	ps := sol.Placements

	// Index occupied slots by cell.
	occupied := make(map[[3]int]*optimization.Placement, len(ps))
	cellOf := func(p *optimization.Placement) ([3]int, bool) {
		bin, ok := e.bins[p.BinID]
		if !ok || bin.Compartment == nil {
			return [3]int{}, false
		}
		c := bin.Compartment
		return [3]int{c.Bay, c.Row, c.Tier}, true
	}
	for i := range ps {
		if cell, ok := cellOf(&ps[i]); ok {
			occupied[cell] = &ps[i]
		}
	}

	for i := range ps {
		p := &ps[i]
		cell, ok := cellOf(p)
		if !ok {
			continue
		}

		// A slot above an empty cell has nothing to rest on.
		if cell[2] > 0 {
			below := [3]int{cell[0], cell[1], cell[2] - 1}
			if _, held := occupied[below]; !held {
				out = append(out, optimization.Violation{
					Rule:     optimization.RuleSupport,
					Detail:   fmt.Sprintf("item %q in slot %q sits above an empty cell", p.ItemID, p.BinID),
					ItemID:   p.ItemID,
					Severity: optimization.SeveritySoft,
				})
			}
		}

		// Load from the tier directly above.
		above := [3]int{cell[0], cell[1], cell[2] + 1}
		if q, held := occupied[above]; held {
			item := e.items[p.ItemID]
			if item != nil {
				if q.Weight > item.StackCapacity() {
					out = append(out, optimization.Violation{
						Rule: optimization.RuleStackWeight,
						Detail: fmt.Sprintf("item %q carries %.1fkg of %.1fkg allowed on top",
							p.ItemID, q.Weight, item.StackCapacity()),
						ItemID:   p.ItemID,
						Severity: optimization.SeveritySoft,
					})
				}
				if item.Fragile {
					out = append(out, optimization.Violation{
						Rule:     optimization.RuleFragile,
						Detail:   fmt.Sprintf("fragile item %q has %.1fkg resting on it", p.ItemID, q.Weight),
						ItemID:   p.ItemID,
						Severity: optimization.SeveritySoft,
					})
				}
			}
		}
	}

	out = append(out, e.segregationPairs(sol, cellOf)...)

	// Attitude limits.
	if len(ps) > 0 {
		att := stability.VesselAttitude(e.vessel, ps)
		if e.vessel.MaxTrimDeg > 0 && math.Abs(att.TrimDeg) > e.vessel.MaxTrimDeg {
			out = append(out, optimization.Violation{
				Rule:     optimization.RuleTrim,
				Detail:   fmt.Sprintf("trim %.2f° exceeds limit %.2f°", att.TrimDeg, e.vessel.MaxTrimDeg),
				Severity: optimization.SeveritySoft,
			})
		}
		if e.vessel.MaxListDeg > 0 && math.Abs(att.ListDeg) > e.vessel.MaxListDeg {
			out = append(out, optimization.Violation{
				Rule:     optimization.RuleList,
				Detail:   fmt.Sprintf("list %.2f° exceeds limit %.2f°", att.ListDeg, e.vessel.MaxListDeg),
				Severity: optimization.SeveritySoft,
			})
		}
	}

	return out
}

// segregationPairs emits the soft segregation violations for every
// hazardous pair: distance shortfalls, forbidden vertical stacking, and
// below-deck ventilation. cellOf is nil in container mode.
func (e *Engine) segregationPairs(sol *optimization.Solution, cellOf func(*optimization.Placement) ([3]int, bool)) []optimization.Violation {
	var out []optimization.Violation
	ps := sol.Placements
	tol := e.cfg.SupportTolerance

	for i := range ps {
		a := e.items[ps[i].ItemID]
		if a == nil || !a.IsHazardous() {
			continue
		}
		for j := i + 1; j < len(ps); j++ {
			b := e.items[ps[j].ItemID]
			if b == nil || !b.IsHazardous() {
				continue
			}
			rule, ok := e.table.Rule(a.HazardClass, b.HazardClass)
			if !ok || rule.Prohibited {
				// Prohibited pairs are hard violations, reported once.
				continue
			}
			p, q := &ps[i], &ps[j]

			if cellOf == nil {
				// Single container: any required distance is unsatisfiable.
				if rule.MinBayDistance > 0 {
					out = append(out, optimization.Violation{
						Rule: optimization.RuleSegregation,
						Detail: fmt.Sprintf("classes %s and %s (%q, %q) need %d bays of separation, co-stowed in one container",
							a.HazardClass, b.HazardClass, p.ItemID, q.ItemID, rule.MinBayDistance),
						ItemID:   p.ItemID,
						Severity: optimization.SeveritySoft,
					})
				}
				// Vertical stacking inside the container.
				lower, upper := p, q
				lowerItem, upperItem := a, b
				if q.Position.Z < p.Position.Z {
					lower, upper = q, p
					lowerItem, upperItem = b, a
				}
				if upper.Position.Z >= lower.Box().MaxZ()-tol &&
					geometry.PlanOverlapArea(lower.Box(), upper.Box()) > 0 &&
					rule.ForbidsUnder(lowerItem.HazardClass, upperItem.HazardClass) {
					out = append(out, optimization.Violation{
						Rule: optimization.RuleVerticalSegregation,
						Detail: fmt.Sprintf("class %s item %q may not be stowed under class %s item %q",
							lowerItem.HazardClass, lower.ItemID, upperItem.HazardClass, upper.ItemID),
						ItemID:   lower.ItemID,
						Severity: optimization.SeveritySoft,
					})
				}
				continue
			}

			cellP, okP := cellOf(p)
			cellQ, okQ := cellOf(q)
			if !okP || !okQ {
				continue
			}

			dist := cellP[0] - cellQ[0]
			if dist < 0 {
				dist = -dist
			}
			if dist < rule.MinBayDistance {
				out = append(out, optimization.Violation{
					Rule: optimization.RuleSegregation,
					Detail: fmt.Sprintf("classes %s and %s (%q, %q) at bay distance %d, %d required",
						a.HazardClass, b.HazardClass, p.ItemID, q.ItemID, dist, rule.MinBayDistance),
					ItemID:   p.ItemID,
					Severity: optimization.SeveritySoft,
				})
			}

			// Same column, forbidden vertical order.
			if cellP[0] == cellQ[0] && cellP[1] == cellQ[1] && cellP[2] != cellQ[2] {
				lower, upper := p, q
				lowerItem, upperItem := a, b
				if cellQ[2] < cellP[2] {
					lower, upper = q, p
					lowerItem, upperItem = b, a
				}
				if rule.ForbidsUnder(lowerItem.HazardClass, upperItem.HazardClass) {
					out = append(out, optimization.Violation{
						Rule: optimization.RuleVerticalSegregation,
						Detail: fmt.Sprintf("class %s item %q may not be stowed under class %s item %q",
							lowerItem.HazardClass, lower.ItemID, upperItem.HazardClass, upper.ItemID),
						ItemID:   lower.ItemID,
						Severity: optimization.SeveritySoft,
					})
				}
			}

			if rule.RequiresVentilation {
				compP := e.bins[p.BinID].Compartment
				compQ := e.bins[q.BinID].Compartment
				if compP != nil && compQ != nil && !compP.AboveDeck && !compQ.AboveDeck {
					out = append(out, optimization.Violation{
						Rule: optimization.RuleVentilation,
						Detail: fmt.Sprintf("classes %s and %s (%q, %q) need ventilation, both stowed below deck",
							a.HazardClass, b.HazardClass, p.ItemID, q.ItemID),
						ItemID:   p.ItemID,
						Severity: optimization.SeveritySoft,
					})
				}
			}
		}
	}
	return out
}
