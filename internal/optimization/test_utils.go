package optimization

import (
	"fmt"
	"math"
	"testing"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/geometry"
)

// testItem builds a plain stackable, rotatable item for tests.
func testItem(id string, l, w, h, weight float64) Item {
	return Item{
		ID:              id,
		Dims:            geometry.Dimensions{Length: l, Width: w, Height: h},
		Weight:          weight,
		Stackable:       true,
		MaxStackWeight:  1000,
		RotationAllowed: true,
	}
}

// testContainer builds a container for tests.
func testContainer(id string, l, w, h, maxWeight float64) Container {
	return Container{
		ID:        id,
		Dims:      geometry.Dimensions{Length: l, Width: w, Height: h},
		MaxWeight: maxWeight,
	}
}

// testVessel builds a bays×rows×tiers compartment grid with uniform cells
// and permissive capability flags.
func testVessel(bays, rows, tiers int) *Vessel {
	v := &Vessel{
		ID:         "vessel-1",
		Name:       "test vessel",
		CellDims:   geometry.Dimensions{Length: 6100, Width: 2440, Height: 2600},
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
			for t := 0; t < tiers; t++ {
				v.Compartments = append(v.Compartments, Compartment{
					ID:        fmt.Sprintf("c-%d-%d-%d", b, r, t),
					Bay:       b,
					Row:       r,
					Tier:      t,
					AboveDeck: t >= tiers-1 && tiers > 1,
					MaxWeight: 30000,
					Reefer:    true,
					Hazardous: true,
					Oversized: false,
				})
			}
		}
	}
	return v
}

// assertFloatEqual fails the test when got and want differ by more than tol.
func assertFloatEqual(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("got %v, want %v (tolerance %v)", got, want, tol)
	}
}
