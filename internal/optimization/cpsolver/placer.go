// Package cpsolver provides the deterministic placement machinery: the
// greedy first-feasible decoder the genetic optimizer uses to express
// chromosomes, and a backtracking constraint solver with explicit decision
// frames for small or tightly constrained problems.
package cpsolver

import (
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/constraint"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/geometry"
)

// Placer decodes an item sequence into a candidate solution by placing
// each item at the first hard-feasible candidate position: corners in
// (z, y, x) order for containers, slots in (tier, bay, row) order for
// vessels. Decoding is deterministic; identical inputs produce identical
// solutions.
type Placer struct {
	problem     *optimization.Problem
	engine      *constraint.Engine
	bins        []optimization.Bin
	cornerLimit int
}

// NewPlacer builds a placer over a normalized problem and its engine.
func NewPlacer(problem *optimization.Problem, engine *constraint.Engine) *Placer {
	return &Placer{
		problem:     problem,
		engine:      engine,
		bins:        engine.Bins(),
		cornerLimit: geometry.DefaultCornerLimit,
	}
}

// Decode places the items named by sequence in order. sequence holds
// indices into the problem's item list; orientations holds one orientation
// index per item, indexed by item index. An orientation outside the item's
// allowed set falls back to its first allowed one. Items with no feasible
// position go to the unpacked list; decoding never fails.
func (pl *Placer) Decode(sequence []int, orientations []int) *optimization.Solution {
	sol := &optimization.Solution{}
	accepted := make([]optimization.Placement, 0, len(sequence))
	for _, idx := range sequence {
		if idx < 0 || idx >= len(pl.problem.Items) {
			continue
		}
		item := &pl.problem.Items[idx]
		orient := 0
		if idx < len(orientations) {
			orient = pl.legalOrientation(item, orientations[idx])
		}
		p, ok := pl.place(item, orient, accepted)
		if !ok {
			sol.Unpacked = append(sol.Unpacked, item.ID)
			continue
		}
		accepted = append(accepted, p)
	}
	sol.Placements = accepted
	return sol
}

func (pl *Placer) legalOrientation(item *optimization.Item, orient int) int {
	allowed := item.Orientations()
	for _, a := range allowed {
		if a == orient {
			return orient
		}
	}
	return allowed[0]
}

// place finds the first feasible position for the item at the given
// orientation.
func (pl *Placer) place(item *optimization.Item, orient int, accepted []optimization.Placement) (optimization.Placement, bool) {
	if pl.problem.Mode() == optimization.ModeVessel {
		return pl.placeSlot(item, orient, accepted)
	}
	return pl.placeCorner(item, orient, accepted)
}

func (pl *Placer) placeCorner(item *optimization.Item, orient int, accepted []optimization.Placement) (optimization.Placement, bool) {
	bin := pl.bins[0]
	boxes := make([]geometry.Box, 0, len(accepted))
	for i := range accepted {
		boxes = append(boxes, accepted[i].Box())
	}
	dims := geometry.Oriented(item.Dims, orient)
	for _, corner := range geometry.CornerPoints(boxes, pl.cornerLimit) {
		p := optimization.Placement{
			ItemID:      item.ID,
			BinID:       bin.ID,
			Position:    corner,
			Orientation: orient,
			Dims:        dims,
			Weight:      item.Weight,
		}
		if pl.engine.Feasible(p, accepted) {
			return p, true
		}
	}
	return optimization.Placement{}, false
}

func (pl *Placer) placeSlot(item *optimization.Item, orient int, accepted []optimization.Placement) (optimization.Placement, bool) {
	dims := geometry.Oriented(item.Dims, orient)
	for _, bin := range pl.bins {
		p := optimization.Placement{
			ItemID:      item.ID,
			BinID:       bin.ID,
			Position:    pl.problem.Vessel.SlotOrigin(bin.Compartment),
			Orientation: orient,
			Dims:        dims,
			Weight:      item.Weight,
		}
		if pl.engine.Feasible(p, accepted) {
			return p, true
		}
	}
	return optimization.Placement{}, false
}

// candidate is one feasible (position, orientation) choice for an item.
type candidate struct {
	binID  string
	pos    geometry.Point
	orient int
	dims   geometry.Dimensions
}

// candidates enumerates every hard-feasible (position, orientation) pair
// for the item given the accepted placements, in search order: positions
// outer, allowed orientations inner.
func (pl *Placer) candidates(item *optimization.Item, accepted []optimization.Placement) []candidate {
	var out []candidate
	allowed := item.Orientations()

	appendFeasible := func(binID string, pos geometry.Point) {
		for _, orient := range allowed {
			dims := geometry.Oriented(item.Dims, orient)
			p := optimization.Placement{
				ItemID:      item.ID,
				BinID:       binID,
				Position:    pos,
				Orientation: orient,
				Dims:        dims,
				Weight:      item.Weight,
			}
			if pl.engine.Feasible(p, accepted) {
				out = append(out, candidate{binID: binID, pos: pos, orient: orient, dims: dims})
			}
		}
	}

	if pl.problem.Mode() == optimization.ModeVessel {
		for _, bin := range pl.bins {
			appendFeasible(bin.ID, pl.problem.Vessel.SlotOrigin(bin.Compartment))
		}
		return out
	}

	bin := pl.bins[0]
	boxes := make([]geometry.Box, 0, len(accepted))
	for i := range accepted {
		boxes = append(boxes, accepted[i].Box())
	}
	for _, corner := range geometry.CornerPoints(boxes, pl.cornerLimit) {
		appendFeasible(bin.ID, corner)
	}
	return out
}

// placement materializes a candidate for an item.
func (c *candidate) placement(item *optimization.Item) optimization.Placement {
	return optimization.Placement{
		ItemID:      item.ID,
		BinID:       c.binID,
		Position:    c.pos,
		Orientation: c.orient,
		Dims:        c.dims,
		Weight:      item.Weight,
	}
}
