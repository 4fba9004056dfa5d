// Package stability computes center-of-gravity and intact-stability
// measures for candidate stowage plans: COG height scoring for single
// containers, and metacentric height with trim/list attitude for vessels.
package stability

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization"
)

// Config tunes the container-mode score.
type Config struct {
	// HighCOGPenalty is the multiplicative penalty applied when the cargo
	// center of gravity rises above half the bin height.
	HighCOGPenalty float64
}

// DefaultConfig returns the standard 20% high-COG penalty.
func DefaultConfig() Config {
	return Config{HighCOGPenalty: 0.2}
}

// CenterOfGravity returns the weight-averaged center of the placements in
// millimeters, in the same frame as the placement positions. All zeros
// when nothing is placed or the total weight is zero.
func CenterOfGravity(placements []optimization.Placement) (x, y, z float64) {
	n := len(placements)
	if n == 0 {
		return 0, 0, 0
	}
	w := make([]float64, n)
	cx := make([]float64, n)
	cy := make([]float64, n)
	cz := make([]float64, n)
	for i := range placements {
		p := &placements[i]
		c := p.Box().Center()
		w[i] = p.Weight
		cx[i], cy[i], cz[i] = c.X, c.Y, c.Z
	}
	total := floats.Sum(w)
	if total <= 0 {
		return 0, 0, 0
	}
	return floats.Dot(w, cx) / total, floats.Dot(w, cy) / total, floats.Dot(w, cz) / total
}

// ContainerScore scores how low the cargo sits in a container of the given
// height: 1 − cogZ/height, with the high-COG penalty applied when the
// center of gravity exceeds half the height. Zero for an empty plan.
func ContainerScore(placements []optimization.Placement, binHeight float64, cfg Config) float64 {
	if len(placements) == 0 || binHeight <= 0 {
		return 0
	}
	_, _, cogZ := CenterOfGravity(placements)
	score := 1 - cogZ/binHeight
	if cogZ > binHeight/2 {
		score *= 1 - cfg.HighCOGPenalty
	}
	return clamp01(score)
}

// Attitude is the vessel-mode stability report.
type Attitude struct {
	// KG is the cargo's vertical center of gravity above the hold floor,
	// in meters.
	KG float64
	// GM is the metacentric height in meters: (VCB + BM) − KG.
	GM float64
	// TrimDeg is the longitudinal inclination, positive toward higher
	// bay numbers.
	TrimDeg float64
	// ListDeg is the transverse inclination, positive toward higher row
	// numbers.
	ListDeg float64
}

// VesselAttitude computes KG, GM, and the trim/list angles for a stowage
// plan. Placement positions are in the vessel grid frame in millimeters;
// the vessel's hydrostatic constants are in meters. Moment arms are taken
// about the geometric center of the compartment grid, and the angles are
// derived from those arms over half the vessel's length and beam.
func VesselAttitude(v *optimization.Vessel, placements []optimization.Placement) Attitude {
	cogX, cogY, cogZ := CenterOfGravity(placements)
	kg := cogZ / 1000
	gm := v.VCB + v.BM - kg

	a := Attitude{KG: kg, GM: gm}
	if len(placements) == 0 {
		return a
	}

	centerX, centerY := gridCenter(v)
	leverX := (cogX - centerX) / 1000
	leverY := (cogY - centerY) / 1000
	if v.LengthM > 0 {
		a.TrimDeg = degrees(math.Atan2(leverX, v.LengthM/2))
	}
	if v.BeamM > 0 {
		a.ListDeg = degrees(math.Atan2(leverY, v.BeamM/2))
	}
	return a
}

// VesselScore maps an attitude to [0,1]: full marks at the center of the
// safe GM band falling to zero at its edges, degraded linearly by trim and
// list relative to their limits.
func VesselScore(v *optimization.Vessel, a Attitude) float64 {
	if v.GMMax <= v.GMMin {
		return 0
	}
	mid := (v.GMMin + v.GMMax) / 2
	half := (v.GMMax - v.GMMin) / 2
	score := clamp01(1 - math.Abs(a.GM-mid)/half)
	if v.MaxTrimDeg > 0 {
		score *= clamp01(1 - math.Abs(a.TrimDeg)/v.MaxTrimDeg)
	}
	if v.MaxListDeg > 0 {
		score *= clamp01(1 - math.Abs(a.ListDeg)/v.MaxListDeg)
	}
	return score
}

// gridCenter returns the center of the compartment grid's footprint in
// grid-frame millimeters.
func gridCenter(v *optimization.Vessel) (x, y float64) {
	maxBay, maxRow := 0, 0
	for i := range v.Compartments {
		c := &v.Compartments[i]
		if c.Bay > maxBay {
			maxBay = c.Bay
		}
		if c.Row > maxRow {
			maxRow = c.Row
		}
	}
	x = float64(maxBay+1) * v.CellDims.Length / 2
	y = float64(maxRow+1) * v.CellDims.Width / 2
	return x, y
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
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
