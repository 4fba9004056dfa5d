// Package geometry provides the axis-aligned primitives the placement engine
// is built on: item dimensions and their orientations, boxes in container
// space, overlap and containment tests, and candidate corner-point
// generation. All functions are pure; axes map length→X, width→Y, height→Z
// and every value is in millimeters.
package geometry

import "sort"

// DefaultCornerLimit caps the number of candidate positions generated per
// placement step. Corner generation is quadratic in accepted placements
// without it.
const DefaultCornerLimit = 50

// epsilon absorbs float rounding in containment comparisons. Coordinates are
// millimeters, so 1e-6 is far below any physical feature.
const epsilon = 1e-6

// Dimensions is an item or bin extent as (length, width, height).
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Volume returns length × width × height.
func (d Dimensions) Volume() float64 {
	return d.Length * d.Width * d.Height
}

// IsValid reports whether all three extents are strictly positive.
func (d Dimensions) IsValid() bool {
	return d.Length > 0 && d.Width > 0 && d.Height > 0
}

// OrientationCount is the number of axis-aligned orientations of a box.
const OrientationCount = 6

// orientation index → permutation of (L, W, H). Index 0 is the identity and
// is the only orientation for keep-upright and rotation-locked items.
var orientationPerms = [OrientationCount][3]int{
	{0, 1, 2}, // L W H
	{0, 2, 1}, // L H W
	{1, 0, 2}, // W L H
	{1, 2, 0}, // W H L
	{2, 0, 1}, // H L W
	{2, 1, 0}, // H W L
}

// Oriented returns the dimensions rotated into the given orientation index.
// Out-of-range indices fall back to the identity orientation.
func Oriented(d Dimensions, orientation int) Dimensions {
	if orientation <= 0 || orientation >= OrientationCount {
		return d
	}
	axes := [3]float64{d.Length, d.Width, d.Height}
	p := orientationPerms[orientation]
	return Dimensions{
		Length: axes[p[0]],
		Width:  axes[p[1]],
		Height: axes[p[2]],
	}
}

// AllowedOrientations enumerates the orientation indices an item may use,
// identity first. Rotation-locked or keep-upright items get the identity
// orientation only. Orientations that produce duplicate extents (cubes,
// square bases) are dropped so callers never test the same shape twice.
func AllowedOrientations(d Dimensions, rotationAllowed, keepUpright bool) []int {
	if !rotationAllowed || keepUpright {
		return []int{0}
	}
	allowed := make([]int, 0, OrientationCount)
	seen := make(map[Dimensions]struct{}, OrientationCount)
	for i := 0; i < OrientationCount; i++ {
		o := Oriented(d, i)
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		allowed = append(allowed, i)
	}
	return allowed
}

// Point is a position in bin space. The origin is the lower-left-back corner
// of the bin.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Box is an axis-aligned box anchored at its lower-left-back corner.
type Box struct {
	Position Point
	Dims     Dimensions
}

// MaxX returns the upper X bound of the box.
func (b Box) MaxX() float64 { return b.Position.X + b.Dims.Length }

// MaxY returns the upper Y bound of the box.
func (b Box) MaxY() float64 { return b.Position.Y + b.Dims.Width }

// MaxZ returns the top face height of the box.
func (b Box) MaxZ() float64 { return b.Position.Z + b.Dims.Height }

// Center returns the geometric center of the box.
func (b Box) Center() Point {
	return Point{
		X: b.Position.X + b.Dims.Length/2,
		Y: b.Position.Y + b.Dims.Width/2,
		Z: b.Position.Z + b.Dims.Height/2,
	}
}

// BaseArea returns the footprint area of the box in the XY plane.
func (b Box) BaseArea() float64 {
	return b.Dims.Length * b.Dims.Width
}

// Overlaps reports whether two boxes intersect with positive volume. The test
// separates on each axis with strict inequality, so boxes sharing a face or
// an edge are touching, not overlapping.
func Overlaps(a, b Box) bool {
	if a.MaxX() <= b.Position.X+epsilon || b.MaxX() <= a.Position.X+epsilon {
		return false
	}
	if a.MaxY() <= b.Position.Y+epsilon || b.MaxY() <= a.Position.Y+epsilon {
		return false
	}
	if a.MaxZ() <= b.Position.Z+epsilon || b.MaxZ() <= a.Position.Z+epsilon {
		return false
	}
	return true
}

// FitsWithin reports whether the box lies entirely inside a bin of the given
// dimensions anchored at the origin.
func FitsWithin(b Box, bin Dimensions) bool {
	if b.Position.X < -epsilon || b.Position.Y < -epsilon || b.Position.Z < -epsilon {
		return false
	}
	return b.MaxX() <= bin.Length+epsilon &&
		b.MaxY() <= bin.Width+epsilon &&
		b.MaxZ() <= bin.Height+epsilon
}

// PlanOverlapArea returns the area of the XY-projection intersection of two
// boxes, regardless of their heights. Support and stacking checks use it to
// decide how much of one base rests on another top face.
func PlanOverlapArea(a, b Box) float64 {
	dx := minFloat(a.MaxX(), b.MaxX()) - maxFloat(a.Position.X, b.Position.X)
	if dx <= 0 {
		return 0
	}
	dy := minFloat(a.MaxY(), b.MaxY()) - maxFloat(a.Position.Y, b.Position.Y)
	if dy <= 0 {
		return 0
	}
	return dx * dy
}

// CornerPoints generates candidate placement positions from the accepted
// placements so far. The set is seeded with the origin; every box contributes
// its two leading floor-level corners (past its +X and +Y faces) and the
// three corners of its top face. Points are deduplicated, ordered ascending
// by (z, y, x) — the tie-break that biases placement toward low, back-left
// positions — and capped at limit (≤ 0 means DefaultCornerLimit).
func CornerPoints(existing []Box, limit int) []Point {
	if limit <= 0 {
		limit = DefaultCornerLimit
	}
	seen := make(map[Point]struct{}, len(existing)*5+1)
	points := make([]Point, 0, len(existing)*5+1)
	add := func(p Point) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		points = append(points, p)
	}

	add(Point{})
	for _, b := range existing {
		add(Point{X: b.MaxX(), Y: b.Position.Y, Z: b.Position.Z})
		add(Point{X: b.Position.X, Y: b.MaxY(), Z: b.Position.Z})
		add(Point{X: b.Position.X, Y: b.Position.Y, Z: b.MaxZ()})
		add(Point{X: b.MaxX(), Y: b.Position.Y, Z: b.MaxZ()})
		add(Point{X: b.Position.X, Y: b.MaxY(), Z: b.MaxZ()})
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].Z != points[j].Z {
			return points[i].Z < points[j].Z
		}
		if points[i].Y != points[j].Y {
			return points[i].Y < points[j].Y
		}
		return points[i].X < points[j].X
	})

	if len(points) > limit {
		points = points[:limit]
	}
	return points
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
