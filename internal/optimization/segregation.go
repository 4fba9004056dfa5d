package optimization

import "strings"

// Known IMDG hazard classes, including the class 1 subdivisions.
var imdgClasses = map[string]struct{}{
	"1": {}, "1.1": {}, "1.2": {}, "1.3": {}, "1.4": {}, "1.5": {}, "1.6": {},
	"2.1": {}, "2.2": {}, "2.3": {},
	"3":   {},
	"4.1": {}, "4.2": {}, "4.3": {},
	"5.1": {}, "5.2": {},
	"6.1": {}, "6.2": {},
	"7": {}, "8": {}, "9": {},
}

// ValidHazardClass reports whether class is a known IMDG class code.
func ValidHazardClass(class string) bool {
	_, ok := imdgClasses[class]
	return ok
}

// ClassPair is an unordered IMDG class pair normalized so Low <= High,
// usable as a map key for rule indexes.
type ClassPair struct {
	Low  string
	High string
}

// MakeClassPair normalizes two class codes into a ClassPair.
func MakeClassPair(a, b string) ClassPair {
	if b < a {
		a, b = b, a
	}
	return ClassPair{Low: a, High: b}
}

// SegregationRule states how cargo of two IMDG classes may be stowed
// relative to each other. The pair is unordered for distance and
// prohibition; the vertical flags read left to right: CannotBeUnder means
// ClassA cargo may not be stowed beneath ClassB cargo, CannotBeOver means
// ClassA cargo may not be stowed above ClassB cargo.
type SegregationRule struct {
	ClassA string `json:"class_a"`
	ClassB string `json:"class_b"`
	// MinBayDistance is the minimum separation in bays for vessel stowage.
	// A pair with a nonzero distance sharing a single container cannot be
	// segregated and is flagged as a soft violation there.
	MinBayDistance int  `json:"min_bay_distance,omitempty"`
	Prohibited     bool `json:"prohibited,omitempty"`
	CannotBeUnder  bool `json:"cannot_be_under,omitempty"`
	CannotBeOver   bool `json:"cannot_be_over,omitempty"`
	// RequiresVentilation forbids stowing the pair together below deck.
	RequiresVentilation bool `json:"requires_ventilation,omitempty"`
}

// Matches reports whether the rule covers the unordered pair (a, b).
func (r *SegregationRule) Matches(a, b string) bool {
	return MakeClassPair(r.ClassA, r.ClassB) == MakeClassPair(a, b)
}

// ForbidsUnder reports whether cargo of class under may not be stowed
// directly beneath cargo of class over.
func (r *SegregationRule) ForbidsUnder(under, over string) bool {
	if r.CannotBeUnder && r.ClassA == under && r.ClassB == over {
		return true
	}
	if r.CannotBeOver && r.ClassA == over && r.ClassB == under {
		return true
	}
	return false
}

// SegregationTable is the pairwise rule set for hazardous cargo. Semantic
// correctness of supplied tables is the caller's responsibility; the engine
// validates structure only.
type SegregationTable []SegregationRule

// Rule returns the rule covering classes a and b. Class 1 subdivisions fall
// back to the plain class 1 entry when no exact pair is present.
func (t SegregationTable) Rule(a, b string) (*SegregationRule, bool) {
	if r := t.find(a, b); r != nil {
		return r, true
	}
	ma, mb := majorClass(a), majorClass(b)
	if ma != a || mb != b {
		if r := t.find(ma, mb); r != nil {
			return r, true
		}
	}
	return nil, false
}

func (t SegregationTable) find(a, b string) *SegregationRule {
	for i := range t {
		if t[i].Matches(a, b) {
			return &t[i]
		}
	}
	return nil
}

// Validate checks the table for structural errors.
func (t SegregationTable) Validate() error {
	seen := make(map[ClassPair]struct{}, len(t))
	for i := range t {
		r := &t[i]
		if !ValidHazardClass(r.ClassA) {
			return InvalidInputf("segregation rule %d: unknown IMDG class %q", i, r.ClassA)
		}
		if !ValidHazardClass(r.ClassB) {
			return InvalidInputf("segregation rule %d: unknown IMDG class %q", i, r.ClassB)
		}
		if r.MinBayDistance < 0 {
			return InvalidInputf("segregation rule %d: min_bay_distance must not be negative, got %d",
				i, r.MinBayDistance)
		}
		pair := MakeClassPair(r.ClassA, r.ClassB)
		if _, dup := seen[pair]; dup {
			return InvalidInputf("segregation rule %d: duplicate pair %s/%s", i, pair.Low, pair.High)
		}
		seen[pair] = struct{}{}
	}
	return nil
}

// majorClass collapses class 1 subdivisions ("1.4") to "1". Other
// subdivided classes (2.x, 4.x, 5.x, 6.x) are distinct classes and pass
// through unchanged.
func majorClass(c string) string {
	if strings.HasPrefix(c, "1.") {
		return "1"
	}
	return c
}

// DefaultSegregationTable returns the built-in rule set, a condensed form
// of the IMDG general segregation table over major classes. Distances map
// the IMDG separation levels to bay counts: away from = 1, separated from
// = 2, complete compartment = 3, longitudinal separation = 4. The returned
// slice is a fresh copy on every call.
func DefaultSegregationTable() SegregationTable {
	t := make(SegregationTable, len(defaultSegregation))
	copy(t, defaultSegregation)
	return t
}

var defaultSegregation = SegregationTable{
	// Class 1 explosives against everything flammable or reactive.
	{ClassA: "1", ClassB: "2.1", Prohibited: true},
	{ClassA: "1", ClassB: "2.2", MinBayDistance: 2},
	{ClassA: "1", ClassB: "2.3", MinBayDistance: 2},
	{ClassA: "1", ClassB: "3", MinBayDistance: 4},
	{ClassA: "1", ClassB: "4.1", MinBayDistance: 4},
	{ClassA: "1", ClassB: "4.2", MinBayDistance: 4},
	{ClassA: "1", ClassB: "4.3", MinBayDistance: 4},
	{ClassA: "1", ClassB: "5.1", MinBayDistance: 4},
	{ClassA: "1", ClassB: "5.2", MinBayDistance: 4},
	{ClassA: "1", ClassB: "6.1", MinBayDistance: 2},
	{ClassA: "1", ClassB: "7", MinBayDistance: 2},
	{ClassA: "1", ClassB: "8", MinBayDistance: 4, CannotBeUnder: true},

	// Flammable gases.
	{ClassA: "2.1", ClassB: "3", MinBayDistance: 2, RequiresVentilation: true},
	{ClassA: "2.1", ClassB: "4.1", MinBayDistance: 1},
	{ClassA: "2.1", ClassB: "4.2", MinBayDistance: 2},
	{ClassA: "2.1", ClassB: "5.1", MinBayDistance: 2, RequiresVentilation: true},
	{ClassA: "2.1", ClassB: "5.2", MinBayDistance: 2},
	{ClassA: "2.1", ClassB: "7", MinBayDistance: 2},
	{ClassA: "2.1", ClassB: "8", MinBayDistance: 1},

	// Toxic gases.
	{ClassA: "2.3", ClassB: "3", MinBayDistance: 2, RequiresVentilation: true},
	{ClassA: "2.3", ClassB: "4.2", MinBayDistance: 1},
	{ClassA: "2.3", ClassB: "5.2", MinBayDistance: 2},

	// Flammable liquids: keep leaks away from oxidizers and sources of heat.
	{ClassA: "3", ClassB: "4.2", MinBayDistance: 2},
	{ClassA: "3", ClassB: "4.3", MinBayDistance: 1},
	{ClassA: "3", ClassB: "5.1", MinBayDistance: 2, CannotBeOver: true},
	{ClassA: "3", ClassB: "5.2", MinBayDistance: 2, CannotBeOver: true},
	{ClassA: "3", ClassB: "7", MinBayDistance: 2},

	// Flammable solids and self-reactive substances.
	{ClassA: "4.1", ClassB: "4.2", MinBayDistance: 1},
	{ClassA: "4.1", ClassB: "5.1", MinBayDistance: 1},
	{ClassA: "4.1", ClassB: "5.2", MinBayDistance: 2},
	{ClassA: "4.2", ClassB: "5.1", MinBayDistance: 2},
	{ClassA: "4.2", ClassB: "5.2", MinBayDistance: 2},
	{ClassA: "4.2", ClassB: "8", MinBayDistance: 1},
	{ClassA: "4.3", ClassB: "5.1", MinBayDistance: 2},
	{ClassA: "4.3", ClassB: "8", MinBayDistance: 1, CannotBeUnder: true},

	// Oxidizers and organic peroxides.
	{ClassA: "5.1", ClassB: "5.2", MinBayDistance: 2},
	{ClassA: "5.1", ClassB: "6.1", MinBayDistance: 1},
	{ClassA: "5.1", ClassB: "8", MinBayDistance: 2},
	{ClassA: "5.2", ClassB: "6.1", MinBayDistance: 1},
	{ClassA: "5.2", ClassB: "8", MinBayDistance: 2},

	// Toxic and infectious substances.
	{ClassA: "6.1", ClassB: "6.2", MinBayDistance: 1},
	{ClassA: "6.2", ClassB: "7", MinBayDistance: 3},
	{ClassA: "6.2", ClassB: "8", MinBayDistance: 3},

	// Radioactive material.
	{ClassA: "7", ClassB: "8", MinBayDistance: 2},
}
