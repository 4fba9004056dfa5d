package stability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization"
	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/geometry"
)

func placementAt(x, y, z, l, w, h, weight float64) optimization.Placement {
	return optimization.Placement{
		Position: geometry.Point{X: x, Y: y, Z: z},
		Dims:     geometry.Dimensions{Length: l, Width: w, Height: h},
		Weight:   weight,
	}
}

func TestCenterOfGravity(t *testing.T) {
	t.Run("empty plan", func(t *testing.T) {
		x, y, z := CenterOfGravity(nil)
		assert.Zero(t, x)
		assert.Zero(t, y)
		assert.Zero(t, z)
	})

	t.Run("single box", func(t *testing.T) {
		x, y, z := CenterOfGravity([]optimization.Placement{
			placementAt(0, 0, 0, 100, 200, 300, 50),
		})
		assert.InDelta(t, 50, x, 1e-9)
		assert.InDelta(t, 100, y, 1e-9)
		assert.InDelta(t, 150, z, 1e-9)
	})

	t.Run("equal weights average the centers", func(t *testing.T) {
		x, _, _ := CenterOfGravity([]optimization.Placement{
			placementAt(0, 0, 0, 100, 100, 100, 10),
			placementAt(200, 0, 0, 100, 100, 100, 10),
		})
		assert.InDelta(t, 150, x, 1e-9)
	})

	t.Run("heavier box pulls the center", func(t *testing.T) {
		x, _, _ := CenterOfGravity([]optimization.Placement{
			placementAt(0, 0, 0, 100, 100, 100, 30),
			placementAt(200, 0, 0, 100, 100, 100, 10),
		})
		// (30·50 + 10·250) / 40 = 100
		assert.InDelta(t, 100, x, 1e-9)
	})
}

func TestContainerScore(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("empty plan scores zero", func(t *testing.T) {
		assert.Zero(t, ContainerScore(nil, 2400, cfg))
	})

	t.Run("floor placement beats stacked placement", func(t *testing.T) {
		low := ContainerScore([]optimization.Placement{
			placementAt(0, 0, 0, 100, 100, 100, 10),
		}, 2400, cfg)
		high := ContainerScore([]optimization.Placement{
			placementAt(0, 0, 2000, 100, 100, 100, 10),
		}, 2400, cfg)
		assert.Greater(t, low, high)
	})

	t.Run("high center of gravity takes the extra penalty", func(t *testing.T) {
		// Center at 1500 of 2000: raw score 0.25, penalized by 20%.
		got := ContainerScore([]optimization.Placement{
			placementAt(0, 0, 1400, 100, 100, 200, 10),
		}, 2000, cfg)
		assert.InDelta(t, 0.25*0.8, got, 1e-9)
	})

	t.Run("score stays in range", func(t *testing.T) {
		got := ContainerScore([]optimization.Placement{
			placementAt(0, 0, 0, 100, 100, 100, 10),
		}, 2400, cfg)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	})
}

func testVessel() *optimization.Vessel {
	v := &optimization.Vessel{
		ID:         "v1",
		CellDims:   geometry.Dimensions{Length: 6000, Width: 2500, Height: 2500},
		VCB:        5.0,
		BM:         8.0,
		GMMin:      0.5,
		GMMax:      3.0,
		MaxTrimDeg: 2.0,
		MaxListDeg: 3.0,
		LengthM:    120,
		BeamM:      20,
	}
	for bay := 0; bay < 4; bay++ {
		for row := 0; row < 2; row++ {
			v.Compartments = append(v.Compartments, optimization.Compartment{
				ID: string(rune('a'+bay)) + string(rune('0'+row)), Bay: bay, Row: row, Tier: 0,
				MaxWeight: 30000,
			})
		}
	}
	return v
}

func TestVesselAttitude(t *testing.T) {
	v := testVessel()

	t.Run("empty plan is neutral", func(t *testing.T) {
		a := VesselAttitude(v, nil)
		assert.Zero(t, a.KG)
		assert.InDelta(t, v.VCB+v.BM, a.GM, 1e-9)
		assert.Zero(t, a.TrimDeg)
		assert.Zero(t, a.ListDeg)
	})

	t.Run("GM follows KM minus KG", func(t *testing.T) {
		// One slot, cargo center 1250mm above the floor: KG = 1.25m.
		a := VesselAttitude(v, []optimization.Placement{
			placementAt(0, 0, 0, 6000, 2500, 2500, 20000),
		})
		assert.InDelta(t, 1.25, a.KG, 1e-9)
		assert.InDelta(t, v.VCB+v.BM-1.25, a.GM, 1e-9)
	})

	t.Run("forward-heavy plan trims positive of center", func(t *testing.T) {
		// All weight in bay 3 of 4, right of the grid center.
		a := VesselAttitude(v, []optimization.Placement{
			placementAt(3*6000, 0, 0, 6000, 2500, 2500, 20000),
		})
		assert.Greater(t, a.TrimDeg, 0.0)

		// Mirror load in bay 0 trims the other way.
		b := VesselAttitude(v, []optimization.Placement{
			placementAt(0, 0, 0, 6000, 2500, 2500, 20000),
		})
		assert.Less(t, b.TrimDeg, 0.0)
		assert.InDelta(t, a.TrimDeg, -b.TrimDeg, 1e-9)
	})

	t.Run("symmetric plan has no list", func(t *testing.T) {
		a := VesselAttitude(v, []optimization.Placement{
			placementAt(0, 0, 0, 6000, 2500, 2500, 10000),
			placementAt(0, 2500, 0, 6000, 2500, 2500, 10000),
		})
		assert.InDelta(t, 0, a.ListDeg, 1e-9)
	})
}

func TestVesselScore(t *testing.T) {
	v := testVessel()

	t.Run("band center scores full marks", func(t *testing.T) {
		a := Attitude{GM: (v.GMMin + v.GMMax) / 2}
		assert.InDelta(t, 1.0, VesselScore(v, a), 1e-9)
	})

	t.Run("band edge scores zero", func(t *testing.T) {
		assert.InDelta(t, 0, VesselScore(v, Attitude{GM: v.GMMax}), 1e-9)
		assert.InDelta(t, 0, VesselScore(v, Attitude{GM: v.GMMin}), 1e-9)
	})

	t.Run("trim and list degrade the score", func(t *testing.T) {
		mid := (v.GMMin + v.GMMax) / 2
		clean := VesselScore(v, Attitude{GM: mid})
		trimmed := VesselScore(v, Attitude{GM: mid, TrimDeg: 1.0})
		listed := VesselScore(v, Attitude{GM: mid, TrimDeg: 1.0, ListDeg: 1.5})
		require.Greater(t, clean, trimmed)
		require.Greater(t, trimmed, listed)
	})
}
