package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/optimization/geometry"
)

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Item)
		wantErr string
	}{
		{
			name:   "valid item",
			mutate: func(i *Item) {},
		},
		{
			name:    "empty id",
			mutate:  func(i *Item) { i.ID = "" },
			wantErr: "item id",
		},
		{
			name:    "non-positive dimension",
			mutate:  func(i *Item) { i.Dims.Width = 0 },
			wantErr: "dimensions must be positive",
		},
		{
			name:    "negative weight",
			mutate:  func(i *Item) { i.Weight = -3 },
			wantErr: "weight must be positive",
		},
		{
			name:    "negative stack weight",
			mutate:  func(i *Item) { i.MaxStackWeight = -1 },
			wantErr: "max_stack_weight",
		},
		{
			name:    "priority out of range",
			mutate:  func(i *Item) { i.Priority = 11 },
			wantErr: "priority",
		},
		{
			name:    "unknown hazard class",
			mutate:  func(i *Item) { i.HazardClass = "11" },
			wantErr: "hazard class",
		},
		{
			name:    "inverted temperature band",
			mutate:  func(i *Item) { i.Temperature = &TemperatureBand{MinC: 10, MaxC: -10} },
			wantErr: "temperature band",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := testItem("crate", 1000, 800, 600, 50)
			tt.mutate(&item)
			err := item.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestItemStackCapacity(t *testing.T) {
	item := testItem("crate", 100, 100, 100, 10)
	item.MaxStackWeight = 250
	assert.Equal(t, 250.0, item.StackCapacity())

	item.Stackable = false
	assert.Equal(t, 0.0, item.StackCapacity(), "non-stackable items accept no load")
}

func TestItemEffectivePriority(t *testing.T) {
	item := testItem("crate", 100, 100, 100, 10)
	assert.Equal(t, 5, item.EffectivePriority(), "zero priority maps to neutral")
	item.Priority = 1
	assert.Equal(t, 1, item.EffectivePriority())
}

func TestItemOrientations(t *testing.T) {
	item := testItem("crate", 1000, 800, 600, 50)
	assert.Len(t, item.Orientations(), 6)

	item.KeepUpright = true
	assert.Equal(t, []int{0}, item.Orientations(), "keep_upright pins the identity orientation")

	item.KeepUpright = false
	item.RotationAllowed = false
	assert.Equal(t, []int{0}, item.Orientations())
}

func TestExpandItems(t *testing.T) {
	items := []Item{
		testItem("a", 100, 100, 100, 5),
		testItem("b", 200, 200, 200, 10),
	}
	items[0].Quantity = 3

	out := ExpandItems(items)
	require.Len(t, out, 4)
	assert.Equal(t, "a-1", out[0].ID)
	assert.Equal(t, "a-2", out[1].ID)
	assert.Equal(t, "a-3", out[2].ID)
	assert.Equal(t, "b", out[3].ID, "quantity one keeps the original id")
	for _, it := range out {
		assert.Equal(t, 1, it.Quantity)
	}
}

func TestVesselValidate(t *testing.T) {
	v := testVessel(2, 2, 2)
	require.NoError(t, v.Validate())

	dup := testVessel(2, 2, 2)
	dup.Compartments[1].ID = dup.Compartments[0].ID
	require.Error(t, dup.Validate())
	assert.Contains(t, dup.Validate().Error(), "duplicate compartment id")

	shared := testVessel(2, 2, 2)
	shared.Compartments[1].Bay = shared.Compartments[0].Bay
	shared.Compartments[1].Row = shared.Compartments[0].Row
	shared.Compartments[1].Tier = shared.Compartments[0].Tier
	require.Error(t, shared.Validate())
	assert.Contains(t, shared.Validate().Error(), "share cell")
}

func TestSolutionAggregates(t *testing.T) {
	s := &Solution{
		Placements: []Placement{
			{ItemID: "a", Dims: geometry.Dimensions{Length: 100, Width: 100, Height: 100}, Weight: 10},
			{ItemID: "b", Dims: geometry.Dimensions{Length: 200, Width: 100, Height: 100}, Weight: 15},
		},
		Violations: []Violation{
			{Rule: RuleSupport, Severity: SeveritySoft},
			{Rule: RuleOverlap, Severity: SeverityHard},
			{Rule: RuleStackWeight, Severity: SeveritySoft},
		},
	}

	assertFloatEqual(t, s.PlacedVolume(), 3e6, 1e-9)
	assertFloatEqual(t, s.TotalWeight(), 25, 1e-9)
	assert.Equal(t, 2, s.CountViolations(SeveritySoft))
	assert.Equal(t, 1, s.CountViolations(SeverityHard))
}
