package optimization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParametersValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Parameters)
		wantErr string
	}{
		{
			name:   "zero values stand for defaults",
			mutate: func(p *Parameters) {},
		},
		{
			name:   "defaults are themselves valid",
			mutate: func(p *Parameters) { *p = DefaultParameters() },
		},
		{
			name:    "population too small",
			mutate:  func(p *Parameters) { p.PopulationSize = 5 },
			wantErr: "population_size",
		},
		{
			name:    "population too large",
			mutate:  func(p *Parameters) { p.PopulationSize = 501 },
			wantErr: "population_size",
		},
		{
			name:    "generations out of range",
			mutate:  func(p *Parameters) { p.Generations = 1000 },
			wantErr: "generations",
		},
		{
			name:    "mutation rate above one",
			mutate:  func(p *Parameters) { p.MutationRate = 1.5 },
			wantErr: "mutation_rate",
		},
		{
			name:    "negative crossover rate",
			mutate:  func(p *Parameters) { p.CrossoverRate = -0.1 },
			wantErr: "crossover_rate",
		},
		{
			name:    "time limit below minimum",
			mutate:  func(p *Parameters) { p.TimeLimitSec = 5 },
			wantErr: "time_limit_seconds",
		},
		{
			name:    "unknown algorithm",
			mutate:  func(p *Parameters) { p.Algorithm = "annealing" },
			wantErr: "unknown algorithm",
		},
		{
			name:    "unknown preset",
			mutate:  func(p *Parameters) { p.Objective = "speed-max" },
			wantErr: "unknown objective preset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Parameters
			tt.mutate(&p)
			err := p.Validate()
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

func TestParametersResolveWeights(t *testing.T) {
	var p Parameters
	w, err := p.ResolveWeights()
	require.NoError(t, err)
	assert.Equal(t, DefaultWeights(), w, "empty parameters resolve to balanced")

	p.Objective = PresetUtilizationMax
	w, err = p.ResolveWeights()
	require.NoError(t, err)
	assertFloatEqual(t, w.Utilization, 0.70, 1e-9)

	p.Weights = &Weights{Utilization: 1}
	w, err = p.ResolveWeights()
	require.NoError(t, err)
	assert.Equal(t, Weights{Utilization: 1}, w, "explicit weights beat the preset")

	p = Parameters{Objective: "nope"}
	_, err = p.ResolveWeights()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPresetWeightsSumToOne(t *testing.T) {
	for _, name := range []string{PresetBalanced, PresetUtilizationMax, PresetStabilityMax, PresetAccessibilityMax} {
		w, ok := PresetWeights(name)
		require.True(t, ok, name)
		sum := w.Utilization + w.Stability + w.Constraints + w.Accessibility
		assertFloatEqual(t, sum, 1.0, 1e-9)
	}
}

func TestProblemValidate(t *testing.T) {
	container := testContainer("cnt", 5898, 2352, 2393, 28180)
	vessel := testVessel(2, 2, 1)

	tests := []struct {
		name    string
		problem Problem
		wantErr string
	}{
		{
			name: "valid container problem",
			problem: Problem{
				Container: &container,
				Items:     []Item{testItem("a", 1000, 800, 600, 50)},
			},
		},
		{
			name: "valid vessel problem",
			problem: Problem{
				Vessel: vessel,
				Items:  []Item{testItem("a", 1000, 800, 600, 50)},
			},
		},
		{
			name:    "no destination",
			problem: Problem{Items: []Item{testItem("a", 1, 1, 1, 1)}},
			wantErr: "container or a vessel is required",
		},
		{
			name: "both destinations",
			problem: Problem{
				Container: &container,
				Vessel:    vessel,
				Items:     []Item{testItem("a", 1, 1, 1, 1)},
			},
			wantErr: "mutually exclusive",
		},
		{
			name:    "empty items",
			problem: Problem{Container: &container},
			wantErr: "item list must not be empty",
		},
		{
			name: "duplicate item ids",
			problem: Problem{
				Container: &container,
				Items:     []Item{testItem("a", 1, 1, 1, 1), testItem("a", 2, 2, 2, 2)},
			},
			wantErr: "duplicate item id",
		},
		{
			name: "bad segregation table",
			problem: Problem{
				Container:   &container,
				Items:       []Item{testItem("a", 1, 1, 1, 1)},
				Segregation: SegregationTable{{ClassA: "3", ClassB: "99"}},
			},
			wantErr: "unknown IMDG class",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.problem.Validate()
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

func TestProblemBinsVesselOrdering(t *testing.T) {
	p := Problem{Vessel: testVessel(2, 2, 2)}
	bins := p.Bins()
	require.Len(t, bins, 8)

	prev := bins[0].Compartment
	for _, b := range bins[1:] {
		c := b.Compartment
		require.NotNil(t, c)
		before := prev.Tier < c.Tier ||
			(prev.Tier == c.Tier && prev.Bay < c.Bay) ||
			(prev.Tier == c.Tier && prev.Bay == c.Bay && prev.Row < c.Row)
		assert.True(t, before, "bins must order by (tier, bay, row): %+v then %+v", prev, c)
		prev = c
	}
}

func TestProblemNormalized(t *testing.T) {
	container := testContainer("cnt", 5898, 2352, 2393, 28180)
	hazmat := testItem("fuel", 1000, 800, 600, 50)
	hazmat.HazardClass = "3"
	hazmat.Quantity = 2

	p := Problem{Container: &container, Items: []Item{hazmat}}
	n := p.Normalized()

	require.Len(t, n.Items, 2)
	assert.Equal(t, "fuel-1", n.Items[0].ID)
	assert.NotNil(t, n.Segregation, "hazardous cargo pulls in the default table")
	assert.Equal(t, DefaultPopulationSize, n.Params.PopulationSize)
	assert.Equal(t, AlgorithmAuto, n.Params.Algorithm)
	assert.Equal(t, 5*time.Minute, n.Params.TimeLimit())

	// The original request is untouched.
	assert.Len(t, p.Items, 1)
	assert.Nil(t, p.Segregation)
	assert.Zero(t, p.Params.PopulationSize)
}
