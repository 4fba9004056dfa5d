package constraint

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/geometry"
)

func box(l, w, h float64) geometry.Dimensions {
	return geometry.Dimensions{Length: l, Width: w, Height: h}
}

func crate(id string, dims geometry.Dimensions, weight float64) optimization.Item {
	return optimization.Item{
		ID:              id,
		Dims:            dims,
		Weight:          weight,
		Stackable:       true,
		MaxStackWeight:  1000,
		RotationAllowed: true,
	}
}

func containerProblem(items ...optimization.Item) *optimization.Problem {
	return &optimization.Problem{
		Container: &optimization.Container{
			ID:        "cnt-1",
			Dims:      box(5898, 2352, 2393),
			MaxWeight: 28180,
		},
		Items:       items,
		Segregation: optimization.DefaultSegregationTable(),
	}
}

func place(item *optimization.Item, binID string, x, y, z float64) optimization.Placement {
	return optimization.Placement{
		ItemID:   item.ID,
		BinID:    binID,
		Position: geometry.Point{X: x, Y: y, Z: z},
		Dims:     item.Dims,
		Weight:   item.Weight,
	}
}

func rulesOf(violations []optimization.Violation) []string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Rule)
	}
	return out
}

func TestFeasibleContainer(t *testing.T) {
	a := crate("a", box(1000, 800, 600), 50)
	heavy := crate("heavy", box(1000, 800, 600), 30000)
	exp := crate("exp", box(500, 500, 500), 20)
	exp.HazardClass = "1"
	gas := crate("gas", box(500, 500, 500), 20)
	gas.HazardClass = "2.1"

	p := containerProblem(a, heavy, exp, gas)
	e := NewEngine(p, DefaultConfig())

	t.Run("fits at origin", func(t *testing.T) {
		assert.True(t, e.Feasible(place(&a, "cnt-1", 0, 0, 0), nil))
	})

	t.Run("out of bounds", func(t *testing.T) {
		assert.False(t, e.Feasible(place(&a, "cnt-1", 5000, 0, 0), nil))
	})

	t.Run("unknown bin", func(t *testing.T) {
		assert.False(t, e.Feasible(place(&a, "nope", 0, 0, 0), nil))
	})

	t.Run("overlap with accepted placement", func(t *testing.T) {
		accepted := []optimization.Placement{place(&a, "cnt-1", 0, 0, 0)}
		dup := crate("a2", box(1000, 800, 600), 50)
		e2 := NewEngine(containerProblem(a, dup), DefaultConfig())
		assert.False(t, e2.Feasible(place(&dup, "cnt-1", 500, 0, 0), accepted))
		assert.True(t, e2.Feasible(place(&dup, "cnt-1", 1000, 0, 0), accepted),
			"touching faces are not an overlap")
	})

	t.Run("item alone exceeds the weight capacity", func(t *testing.T) {
		assert.False(t, e.Feasible(place(&heavy, "cnt-1", 0, 0, 0), nil))
	})

	t.Run("prohibited pair never co-stows", func(t *testing.T) {
		accepted := []optimization.Placement{place(&exp, "cnt-1", 0, 0, 0)}
		assert.False(t, e.Feasible(place(&gas, "cnt-1", 2000, 0, 0), accepted))
	})
}

func TestEvaluateContainerSupport(t *testing.T) {
	bottom := crate("bottom", box(1000, 800, 600), 50)
	top := crate("top", box(1000, 800, 600), 50)
	p := containerProblem(bottom, top)
	e := NewEngine(p, DefaultConfig())

	t.Run("full support passes", func(t *testing.T) {
		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&bottom, "cnt-1", 0, 0, 0),
			place(&top, "cnt-1", 0, 0, 600),
		}}
		assert.NotContains(t, rulesOf(e.Evaluate(sol)), optimization.RuleSupport)
	})

	t.Run("40 percent support is flagged", func(t *testing.T) {
		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&bottom, "cnt-1", 0, 0, 0),
			place(&top, "cnt-1", 600, 0, 600),
		}}
		vs := e.Evaluate(sol)
		assert.Contains(t, rulesOf(vs), optimization.RuleSupport)
		for _, v := range vs {
			if v.Rule == optimization.RuleSupport {
				assert.Equal(t, optimization.SeveritySoft, v.Severity)
				assert.Equal(t, "top", v.ItemID)
			}
		}
	})

	t.Run("floating item is flagged", func(t *testing.T) {
		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&top, "cnt-1", 0, 0, 600),
		}}
		assert.Contains(t, rulesOf(e.Evaluate(sol)), optimization.RuleSupport)
	})

	t.Run("floor placements need no support", func(t *testing.T) {
		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&bottom, "cnt-1", 0, 0, 0),
		}}
		assert.Empty(t, e.Evaluate(sol))
	})
}

func TestEvaluateContainerStacking(t *testing.T) {
	t.Run("zero stack capacity flags any load", func(t *testing.T) {
		base := crate("base", box(1000, 800, 600), 50)
		base.MaxStackWeight = 0
		top := crate("top", box(1000, 800, 600), 50)
		e := NewEngine(containerProblem(base, top), DefaultConfig())

		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&base, "cnt-1", 0, 0, 0),
			place(&top, "cnt-1", 0, 0, 600),
		}}
		vs := e.Evaluate(sol)
		require.Contains(t, rulesOf(vs), optimization.RuleStackWeight)
		for _, v := range vs {
			if v.Rule == optimization.RuleStackWeight {
				assert.Equal(t, "base", v.ItemID, "the loaded item is the one flagged")
				assert.Equal(t, optimization.SeveritySoft, v.Severity)
			}
		}
	})

	t.Run("non-stackable behaves like zero capacity", func(t *testing.T) {
		base := crate("base", box(1000, 800, 600), 50)
		base.Stackable = false
		top := crate("top", box(1000, 800, 600), 50)
		e := NewEngine(containerProblem(base, top), DefaultConfig())

		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&base, "cnt-1", 0, 0, 0),
			place(&top, "cnt-1", 0, 0, 600),
		}}
		assert.Contains(t, rulesOf(e.Evaluate(sol)), optimization.RuleStackWeight)
	})

	t.Run("load within capacity passes", func(t *testing.T) {
		base := crate("base", box(1000, 800, 600), 50)
		top := crate("top", box(1000, 800, 600), 50)
		e := NewEngine(containerProblem(base, top), DefaultConfig())

		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&base, "cnt-1", 0, 0, 0),
			place(&top, "cnt-1", 0, 0, 600),
		}}
		assert.NotContains(t, rulesOf(e.Evaluate(sol)), optimization.RuleStackWeight)
	})

	t.Run("fragile item with load on top", func(t *testing.T) {
		base := crate("glass", box(1000, 800, 600), 50)
		base.Fragile = true
		top := crate("top", box(1000, 800, 600), 50)
		e := NewEngine(containerProblem(base, top), DefaultConfig())

		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&base, "cnt-1", 0, 0, 0),
			place(&top, "cnt-1", 0, 0, 600),
		}}
		vs := e.Evaluate(sol)
		assert.Contains(t, rulesOf(vs), optimization.RuleFragile)
	})
}

func TestEvaluateContainerHard(t *testing.T) {
	a := crate("a", box(1000, 800, 600), 50)
	b := crate("b", box(1000, 800, 600), 50)
	e := NewEngine(containerProblem(a, b), DefaultConfig())

	t.Run("overlap is a hard violation", func(t *testing.T) {
		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&a, "cnt-1", 0, 0, 0),
			place(&b, "cnt-1", 500, 0, 0),
		}}
		vs := e.Evaluate(sol)
		require.Contains(t, rulesOf(vs), optimization.RuleOverlap)
		assert.False(t, e.Valid(sol))
	})

	t.Run("bin weight aggregate", func(t *testing.T) {
		h1 := crate("h1", box(1000, 800, 600), 15000)
		h2 := crate("h2", box(1000, 800, 600), 15000)
		e2 := NewEngine(containerProblem(h1, h2), DefaultConfig())
		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&h1, "cnt-1", 0, 0, 0),
			place(&h2, "cnt-1", 1500, 0, 0),
		}}
		assert.Contains(t, rulesOf(e2.Evaluate(sol)), optimization.RuleBinWeight)
	})

	t.Run("clean solution is valid", func(t *testing.T) {
		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&a, "cnt-1", 0, 0, 0),
			place(&b, "cnt-1", 1000, 0, 0),
		}}
		assert.Empty(t, e.Evaluate(sol))
		assert.True(t, e.Valid(sol))
	})
}

func TestEvaluateContainerSegregation(t *testing.T) {
	exp := crate("exp", box(500, 500, 500), 20)
	exp.HazardClass = "1"
	fuel := crate("fuel", box(500, 500, 500), 20)
	fuel.HazardClass = "3"

	t.Run("distance rule in one container is soft", func(t *testing.T) {
		e := NewEngine(containerProblem(exp, fuel), DefaultConfig())
		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&exp, "cnt-1", 0, 0, 0),
			place(&fuel, "cnt-1", 2000, 0, 0),
		}}
		vs := e.Evaluate(sol)
		require.Contains(t, rulesOf(vs), optimization.RuleSegregation)
		for _, v := range vs {
			if v.Rule == optimization.RuleSegregation {
				assert.Equal(t, optimization.SeveritySoft, v.Severity)
			}
		}
	})

	t.Run("prohibited pair is hard", func(t *testing.T) {
		gas := crate("gas", box(500, 500, 500), 20)
		gas.HazardClass = "2.1"
		e := NewEngine(containerProblem(exp, gas), DefaultConfig())
		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&exp, "cnt-1", 0, 0, 0),
			place(&gas, "cnt-1", 2000, 0, 0),
		}}
		vs := e.Evaluate(sol)
		require.Contains(t, rulesOf(vs), optimization.RuleProhibited)
		assert.False(t, e.Valid(sol))
	})

	t.Run("forbidden vertical order", func(t *testing.T) {
		ox := crate("ox", box(1000, 800, 600), 20)
		ox.HazardClass = "5.1"
		liq := crate("liq", box(1000, 800, 600), 20)
		liq.HazardClass = "3"
		p := containerProblem(ox, liq)
		// Flammable liquids may not sit above oxidizers.
		p.Segregation = optimization.SegregationTable{
			{ClassA: "3", ClassB: "5.1", CannotBeOver: true},
		}
		e := NewEngine(p, DefaultConfig())

		sol := &optimization.Solution{Placements: []optimization.Placement{
			place(&ox, "cnt-1", 0, 0, 0),
			place(&liq, "cnt-1", 0, 0, 600),
		}}
		vs := e.Evaluate(sol)
		assert.Contains(t, rulesOf(vs), optimization.RuleVerticalSegregation)

		// The reverse stack is fine.
		rev := &optimization.Solution{Placements: []optimization.Placement{
			place(&liq, "cnt-1", 0, 0, 0),
			place(&ox, "cnt-1", 0, 0, 600),
		}}
		assert.NotContains(t, rulesOf(e.Evaluate(rev)), optimization.RuleVerticalSegregation)
	})
}

// Vessel fixtures.

func testVessel(bays, rows, tiers int) *optimization.Vessel {
	v := &optimization.Vessel{
		ID:         "vsl-1",
		CellDims:   box(6100, 2440, 2600),
		VCB:        1.2,
		BM:         1.5,
		GMMin:      0.5,
		GMMax:      2.5,
		MaxTrimDeg: 2.0,
		MaxListDeg: 3.0,
		LengthM:    120,
		BeamM:      20,
	}
	for b := 0; b < bays; b++ {
		for r := 0; r < rows; r++ {
			for tr := 0; tr < tiers; tr++ {
				v.Compartments = append(v.Compartments, optimization.Compartment{
					ID:        fmt.Sprintf("s-%d-%d-%d", b, r, tr),
					Bay:       b,
					Row:       r,
					Tier:      tr,
					AboveDeck: false,
					MaxWeight: 30000,
					Reefer:    true,
					Hazardous: true,
				})
			}
		}
	}
	return v
}

func vesselProblem(v *optimization.Vessel, items ...optimization.Item) *optimization.Problem {
	return &optimization.Problem{
		Vessel:      v,
		Items:       items,
		Segregation: optimization.DefaultSegregationTable(),
	}
}

func slotPlace(v *optimization.Vessel, item *optimization.Item, slotID string) optimization.Placement {
	c := v.CompartmentByID(slotID)
	return optimization.Placement{
		ItemID:   item.ID,
		BinID:    slotID,
		Position: v.SlotOrigin(c),
		Dims:     item.Dims,
		Weight:   item.Weight,
	}
}

func TestFeasibleVessel(t *testing.T) {
	v := testVessel(3, 2, 2)
	a := crate("a", box(6000, 2400, 2500), 18000)
	b := crate("b", box(6000, 2400, 2500), 18000)
	cold := crate("cold", box(6000, 2400, 2500), 18000)
	cold.Temperature = &optimization.TemperatureBand{MinC: -20, MaxC: -5}

	p := vesselProblem(v, a, b, cold)
	e := NewEngine(p, DefaultConfig())

	t.Run("empty slot accepts a fitting item", func(t *testing.T) {
		assert.True(t, e.Feasible(slotPlace(v, &a, "s-0-0-0"), nil))
	})

	t.Run("occupied slot rejects", func(t *testing.T) {
		accepted := []optimization.Placement{slotPlace(v, &a, "s-0-0-0")}
		assert.False(t, e.Feasible(slotPlace(v, &b, "s-0-0-0"), accepted))
	})

	t.Run("reefer cargo needs a reefer slot", func(t *testing.T) {
		nv := testVessel(1, 1, 1)
		nv.Compartments[0].Reefer = false
		ne := NewEngine(vesselProblem(nv, cold), DefaultConfig())
		assert.False(t, ne.Feasible(slotPlace(nv, &cold, "s-0-0-0"), nil))
	})

	t.Run("slot weight limit", func(t *testing.T) {
		nv := testVessel(1, 1, 1)
		lead := crate("lead", box(6000, 2400, 2500), 40000)
		ne := NewEngine(vesselProblem(nv, lead), DefaultConfig())
		assert.False(t, ne.Feasible(slotPlace(nv, &lead, "s-0-0-0"), nil))
	})

	t.Run("oversized cargo needs an oversized slot", func(t *testing.T) {
		wide := crate("wide", box(7000, 2400, 2500), 10000)
		wide.RotationAllowed = false
		nv := testVessel(1, 1, 1)
		ne := NewEngine(vesselProblem(nv, wide), DefaultConfig())
		assert.False(t, ne.Feasible(slotPlace(nv, &wide, "s-0-0-0"), nil))

		ov := testVessel(1, 1, 1)
		ov.Compartments[0].Oversized = true
		oe := NewEngine(vesselProblem(ov, wide), DefaultConfig())
		assert.True(t, oe.Feasible(slotPlace(ov, &wide, "s-0-0-0"), nil))
	})
}

func TestEvaluateVessel(t *testing.T) {
	t.Run("hazardous cargo in an uncertified slot", func(t *testing.T) {
		v := testVessel(1, 1, 1)
		v.Compartments[0].Hazardous = false
		fuel := crate("fuel", box(6000, 2400, 2500), 18000)
		fuel.HazardClass = "3"
		e := NewEngine(vesselProblem(v, fuel), DefaultConfig())

		sol := &optimization.Solution{Placements: []optimization.Placement{
			slotPlace(v, &fuel, "s-0-0-0"),
		}}
		assert.Contains(t, rulesOf(e.Evaluate(sol)), optimization.RuleSlotCapability)
	})

	t.Run("slot above an empty cell", func(t *testing.T) {
		v := testVessel(1, 1, 2)
		a := crate("a", box(6000, 2400, 2500), 18000)
		e := NewEngine(vesselProblem(v, a), DefaultConfig())

		sol := &optimization.Solution{Placements: []optimization.Placement{
			slotPlace(v, &a, "s-0-0-1"),
		}}
		assert.Contains(t, rulesOf(e.Evaluate(sol)), optimization.RuleSupport)
	})

	t.Run("bay distance shortfall is soft", func(t *testing.T) {
		v := testVessel(3, 1, 1)
		exp := crate("exp", box(6000, 2400, 2500), 10000)
		exp.HazardClass = "1"
		fuel := crate("fuel", box(6000, 2400, 2500), 10000)
		fuel.HazardClass = "3"
		e := NewEngine(vesselProblem(v, exp, fuel), DefaultConfig())

		sol := &optimization.Solution{Placements: []optimization.Placement{
			slotPlace(v, &exp, "s-0-0-0"),
			slotPlace(v, &fuel, "s-2-0-0"),
		}}
		vs := e.Evaluate(sol)
		require.Contains(t, rulesOf(vs), optimization.RuleSegregation)
		for _, viol := range vs {
			if viol.Rule == optimization.RuleSegregation {
				assert.Equal(t, optimization.SeveritySoft, viol.Severity)
				assert.Contains(t, viol.Detail, "bay distance 2")
			}
		}
	})

	t.Run("ventilation pair below deck", func(t *testing.T) {
		v := testVessel(4, 1, 1)
		gas := crate("gas", box(6000, 2400, 2500), 10000)
		gas.HazardClass = "2.1"
		fuel := crate("fuel", box(6000, 2400, 2500), 10000)
		fuel.HazardClass = "3"
		e := NewEngine(vesselProblem(v, gas, fuel), DefaultConfig())

		sol := &optimization.Solution{Placements: []optimization.Placement{
			slotPlace(v, &gas, "s-0-0-0"),
			slotPlace(v, &fuel, "s-3-0-0"),
		}}
		assert.Contains(t, rulesOf(e.Evaluate(sol)), optimization.RuleVentilation)
	})

	t.Run("unstable stack breaches the GM band", func(t *testing.T) {
		v := testVessel(1, 1, 3)
		a := crate("a", box(6000, 2400, 2500), 100)
		b := crate("b", box(6000, 2400, 2500), 100)
		top := crate("top", box(6000, 2400, 2500), 25000)
		e := NewEngine(vesselProblem(v, a, b, top), DefaultConfig())

		// Nearly all weight at tier 2: KG ≈ 6.4m, far above the band.
		sol := &optimization.Solution{Placements: []optimization.Placement{
			slotPlace(v, &a, "s-0-0-0"),
			slotPlace(v, &b, "s-0-0-1"),
			slotPlace(v, &top, "s-0-0-2"),
		}}
		vs := e.Evaluate(sol)
		require.Contains(t, rulesOf(vs), optimization.RuleGM)
		assert.False(t, e.Valid(sol))
	})

	t.Run("lopsided load trims past the limit", func(t *testing.T) {
		v := testVessel(2, 1, 1)
		a := crate("a", box(6000, 2400, 2500), 20000)
		e := NewEngine(vesselProblem(v, a), DefaultConfig())

		sol := &optimization.Solution{Placements: []optimization.Placement{
			slotPlace(v, &a, "s-1-0-0"),
		}}
		assert.Contains(t, rulesOf(e.Evaluate(sol)), optimization.RuleTrim)
	})
}

func TestScore(t *testing.T) {
	assert.InDelta(t, 1.0, Score(nil), 1e-9)

	three := make([]optimization.Violation, 3)
	assert.InDelta(t, 0.35, Score(three), 1e-9)

	ten := make([]optimization.Violation, 10)
	assert.InDelta(t, 0.0, Score(ten), 1e-9)

	twenty := make([]optimization.Violation, 20)
	assert.InDelta(t, 0.0, Score(twenty), 1e-9, "score never goes negative")
}
