package optimization

import (
	"fmt"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/geometry"
)

// Severity classifies a constraint violation. Hard violations reject a
// placement; soft violations are scored by the fitness evaluator.
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// Rule names used in violation reports.
const (
	RuleBounds              = "bounds"
	RuleOverlap             = "overlap"
	RuleBinWeight           = "bin_weight"
	RuleSupport             = "support_ratio"
	RuleStackWeight         = "stack_weight"
	RuleFragile             = "fragile_load"
	RuleSegregation         = "segregation_distance"
	RuleProhibited          = "prohibited_costow"
	RuleSlotOccupied        = "slot_occupied"
	RuleSlotCapability      = "slot_capability"
	RuleVerticalSegregation = "vertical_segregation"
	RuleVentilation         = "ventilation"
	RuleGM                  = "metacentric_height"
	RuleTrim                = "trim"
	RuleList                = "list"
)

// Violation describes one failed constraint check.
type Violation struct {
	// Rule is the machine-readable name of the violated constraint.
	Rule string `json:"rule"`
	// Detail is a human-readable description including the offending values.
	Detail string `json:"detail"`
	// ItemID is the item the violation is attributed to, if any.
	ItemID string `json:"item_id,omitempty"`
	// Severity is hard or soft.
	Severity Severity `json:"severity"`
}

// TemperatureBand is the carriage temperature range an item requires.
// Items with a band need a reefer-capable slot in vessel stowage.
type TemperatureBand struct {
	MinC float64 `json:"min_c"`
	MaxC float64 `json:"max_c"`
}

// Item is one unit of cargo to place. Items are read-only inputs for the
// duration of an optimization run.
type Item struct {
	ID   string              `json:"id"`
	Dims geometry.Dimensions `json:"dimensions"`
	// Weight in kilograms.
	Weight  float64 `json:"weight"`
	Fragile bool    `json:"is_fragile"`
	// Stackable controls whether anything may rest on the item at all.
	Stackable bool `json:"is_stackable"`
	// MaxStackWeight is the weight in kilograms that may rest above the
	// item. Zero means nothing may rest on it.
	MaxStackWeight  float64 `json:"max_stack_weight"`
	RotationAllowed bool    `json:"rotation_allowed"`
	KeepUpright     bool    `json:"keep_upright"`
	// Priority ranks placement urgency, 1 highest through 10 lowest.
	// Zero is treated as the neutral priority 5.
	Priority int `json:"priority,omitempty"`
	// HazardClass is the IMDG class code ("1", "2.1", ... "9"), empty for
	// non-hazardous cargo.
	HazardClass string           `json:"hazard_class,omitempty"`
	UNNumber    string           `json:"un_number,omitempty"`
	Temperature *TemperatureBand `json:"temperature_band,omitempty"`
	// Quantity expands the item into that many identical units before
	// optimization. Zero is treated as one.
	Quantity int `json:"quantity,omitempty"`
}

// Volume returns the item volume in cubic millimeters.
func (i *Item) Volume() float64 {
	return i.Dims.Volume()
}

// IsHazardous reports whether the item carries an IMDG class.
func (i *Item) IsHazardous() bool {
	return i.HazardClass != ""
}

// NeedsReefer reports whether the item requires a temperature-controlled slot.
func (i *Item) NeedsReefer() bool {
	return i.Temperature != nil
}

// StackCapacity returns the weight that may rest on the item. A
// non-stackable item has capacity zero regardless of MaxStackWeight.
func (i *Item) StackCapacity() float64 {
	if !i.Stackable {
		return 0
	}
	return i.MaxStackWeight
}

// EffectivePriority maps the zero value to the neutral priority.
func (i *Item) EffectivePriority() int {
	if i.Priority == 0 {
		return 5
	}
	return i.Priority
}

// Orientations returns the allowed orientation indices for the item's
// rotation flags.
func (i *Item) Orientations() []int {
	return geometry.AllowedOrientations(i.Dims, i.RotationAllowed, i.KeepUpright)
}

// Validate checks the item for structural errors.
func (i *Item) Validate() error {
	if i.ID == "" {
		return InvalidInputf("item id must not be empty")
	}
	if !i.Dims.IsValid() {
		return InvalidInputf("item %q: dimensions must be positive, got %vx%vx%v",
			i.ID, i.Dims.Length, i.Dims.Width, i.Dims.Height)
	}
	if i.Weight <= 0 {
		return InvalidInputf("item %q: weight must be positive, got %v", i.ID, i.Weight)
	}
	if i.MaxStackWeight < 0 {
		return InvalidInputf("item %q: max_stack_weight must not be negative, got %v", i.ID, i.MaxStackWeight)
	}
	if i.Priority < 0 || i.Priority > 10 {
		return InvalidInputf("item %q: priority must be in [1,10], got %d", i.ID, i.Priority)
	}
	if i.Quantity < 0 {
		return InvalidInputf("item %q: quantity must not be negative, got %d", i.ID, i.Quantity)
	}
	if i.HazardClass != "" && !ValidHazardClass(i.HazardClass) {
		return InvalidInputf("item %q: unknown IMDG hazard class %q", i.ID, i.HazardClass)
	}
	if i.Temperature != nil && i.Temperature.MinC > i.Temperature.MaxC {
		return InvalidInputf("item %q: temperature band min %v exceeds max %v",
			i.ID, i.Temperature.MinC, i.Temperature.MaxC)
	}
	return nil
}

// ExpandItems multiplies items by their quantity, giving each unit a unique
// derived id ("crate-1", "crate-2", ...). Items with quantity zero or one
// pass through with their original id.
func ExpandItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		n := it.Quantity
		if n <= 1 {
			unit := it
			unit.Quantity = 1
			out = append(out, unit)
			continue
		}
		for k := 1; k <= n; k++ {
			unit := it
			unit.ID = fmt.Sprintf("%s-%d", it.ID, k)
			unit.Quantity = 1
			out = append(out, unit)
		}
	}
	return out
}

// Container is a single rectangular bin for item packing.
type Container struct {
	ID   string              `json:"id"`
	Dims geometry.Dimensions `json:"dimensions"`
	// MaxWeight is the payload capacity in kilograms.
	MaxWeight float64 `json:"max_weight"`
}

// Volume returns the container volume in cubic millimeters.
func (c *Container) Volume() float64 {
	return c.Dims.Volume()
}

// Validate checks the container for structural errors.
func (c *Container) Validate() error {
	if c.ID == "" {
		return InvalidInputf("container id must not be empty")
	}
	if !c.Dims.IsValid() {
		return InvalidInputf("container %q: dimensions must be positive, got %vx%vx%v",
			c.ID, c.Dims.Length, c.Dims.Width, c.Dims.Height)
	}
	if c.MaxWeight <= 0 {
		return InvalidInputf("container %q: max_weight must be positive, got %v", c.ID, c.MaxWeight)
	}
	return nil
}

// Compartment is one stowage slot in a vessel's bay/row/tier grid. A slot
// holds at most one item.
type Compartment struct {
	ID   string `json:"id"`
	Bay  int    `json:"bay"`
	Row  int    `json:"row"`
	Tier int    `json:"tier"`
	// AboveDeck slots are ventilated by open air; some hazardous pairs may
	// not be stowed together below deck.
	AboveDeck bool `json:"is_above_deck"`
	// MaxWeight is the per-slot weight capacity in kilograms.
	MaxWeight float64 `json:"max_weight"`
	// Capability flags.
	Reefer    bool `json:"reefer"`
	Hazardous bool `json:"hazardous"`
	Oversized bool `json:"oversized"`
}

// Validate checks the compartment for structural errors.
func (c *Compartment) Validate() error {
	if c.ID == "" {
		return InvalidInputf("compartment id must not be empty")
	}
	if c.Bay < 0 || c.Row < 0 || c.Tier < 0 {
		return InvalidInputf("compartment %q: bay/row/tier must not be negative, got %d/%d/%d",
			c.ID, c.Bay, c.Row, c.Tier)
	}
	if c.MaxWeight <= 0 {
		return InvalidInputf("compartment %q: max_weight must be positive, got %v", c.ID, c.MaxWeight)
	}
	return nil
}

// Vessel is an ordered grid of stowage compartments plus the hydrostatic
// constants the stability model needs. VCB and BM are treated as supplied by
// the vessel's hydrostatic tables for the expected draft.
type Vessel struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	// CellDims is the interior size of one compartment in millimeters.
	CellDims geometry.Dimensions `json:"cell_dimensions"`
	// Hydrostatics, all in meters: vertical center of buoyancy, metacentric
	// radius, and the safe metacentric height band.
	VCB   float64 `json:"vcb"`
	BM    float64 `json:"bm"`
	GMMin float64 `json:"gm_min"`
	GMMax float64 `json:"gm_max"`
	// Attitude limits in degrees.
	MaxTrimDeg float64 `json:"max_trim_deg"`
	MaxListDeg float64 `json:"max_list_deg"`
	// Principal dimensions in meters.
	LengthM float64 `json:"length_m"`
	BeamM   float64 `json:"beam_m"`

	Compartments []Compartment `json:"compartments"`
}

// SlotOrigin returns the lower-left-back corner of a compartment in the
// vessel grid frame, in millimeters.
func (v *Vessel) SlotOrigin(c *Compartment) geometry.Point {
	return geometry.Point{
		X: float64(c.Bay) * v.CellDims.Length,
		Y: float64(c.Row) * v.CellDims.Width,
		Z: float64(c.Tier) * v.CellDims.Height,
	}
}

// CompartmentByID returns the named compartment, or nil.
func (v *Vessel) CompartmentByID(id string) *Compartment {
	for i := range v.Compartments {
		if v.Compartments[i].ID == id {
			return &v.Compartments[i]
		}
	}
	return nil
}

// Validate checks the vessel for structural errors.
func (v *Vessel) Validate() error {
	if v.ID == "" {
		return InvalidInputf("vessel id must not be empty")
	}
	if !v.CellDims.IsValid() {
		return InvalidInputf("vessel %q: cell dimensions must be positive, got %vx%vx%v",
			v.ID, v.CellDims.Length, v.CellDims.Width, v.CellDims.Height)
	}
	if v.LengthM <= 0 || v.BeamM <= 0 {
		return InvalidInputf("vessel %q: length and beam must be positive, got %v/%v",
			v.ID, v.LengthM, v.BeamM)
	}
	if v.GMMin > v.GMMax {
		return InvalidInputf("vessel %q: gm_min %v exceeds gm_max %v", v.ID, v.GMMin, v.GMMax)
	}
	if len(v.Compartments) == 0 {
		return InvalidInputf("vessel %q: compartment list must not be empty", v.ID)
	}
	seen := make(map[string]struct{}, len(v.Compartments))
	cells := make(map[[3]int]string, len(v.Compartments))
	for i := range v.Compartments {
		c := &v.Compartments[i]
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := seen[c.ID]; dup {
			return InvalidInputf("vessel %q: duplicate compartment id %q", v.ID, c.ID)
		}
		seen[c.ID] = struct{}{}
		cell := [3]int{c.Bay, c.Row, c.Tier}
		if other, dup := cells[cell]; dup {
			return InvalidInputf("vessel %q: compartments %q and %q share cell %d/%d/%d",
				v.ID, other, c.ID, c.Bay, c.Row, c.Tier)
		}
		cells[cell] = c.ID
	}
	return nil
}

// Bin is the uniform view the solvers and the constraint engine take of a
// destination: a whole container, or one vessel compartment.
type Bin struct {
	ID        string
	Dims      geometry.Dimensions
	MaxWeight float64
	// Compartment is set in vessel mode and nil in container mode.
	Compartment *Compartment
}

// Placement assigns one item to a position inside a bin. Position is the
// lower-left-back corner of the item's axis-aligned box; Dims are the
// effective dimensions after applying Orientation.
type Placement struct {
	ItemID      string              `json:"item_id"`
	BinID       string              `json:"bin_id"`
	Position    geometry.Point      `json:"position"`
	Orientation int                 `json:"orientation"`
	Dims        geometry.Dimensions `json:"dimensions"`
	// Weight in kilograms, copied from the item for moment computations.
	Weight float64 `json:"weight"`
}

// Box returns the placement's occupied volume as a geometry box.
func (p *Placement) Box() geometry.Box {
	return geometry.Box{Position: p.Position, Dims: p.Dims}
}

// Solution is one complete, possibly partial, assignment of items to bins.
// Solutions are built fresh per evaluation and never mutated in place.
type Solution struct {
	Placements []Placement `json:"placements"`
	// Unpacked lists the ids of items no feasible position was found for.
	Unpacked   []string    `json:"unpacked"`
	Violations []Violation `json:"violations"`
	// Valid is true when the solution satisfies every hard constraint.
	Valid bool `json:"valid"`
}

// PlacedVolume returns the total volume of all placements in cubic
// millimeters.
func (s *Solution) PlacedVolume() float64 {
	var v float64
	for i := range s.Placements {
		v += s.Placements[i].Dims.Volume()
	}
	return v
}

// TotalWeight returns the total placed weight in kilograms.
func (s *Solution) TotalWeight() float64 {
	var w float64
	for i := range s.Placements {
		w += s.Placements[i].Weight
	}
	return w
}

// CountViolations returns the number of violations with the given severity.
func (s *Solution) CountViolations(sev Severity) int {
	n := 0
	for i := range s.Violations {
		if s.Violations[i].Severity == sev {
			n++
		}
	}
	return n
}
