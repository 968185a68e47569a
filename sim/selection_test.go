package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomSelection_PicksAmongCandidates(t *testing.T) {
	rm := NewResourceManager(newTestTopology(t), DefaultTransportSlack)
	policy := NewRandomSelection(rand.New(rand.NewSource(1)))
	step := &Step{ID: 3, Candidates: []string{"LLA", "PM1"}}

	seen := map[Candidate]bool{}
	for i := 0; i < 200; i++ {
		c := policy.Select(step, rm)
		seen[c] = true
		switch c.Module {
		case "LLA":
			assert.Contains(t, []int{1, 2}, c.Slot)
		case "PM1":
			assert.Equal(t, 1, c.Slot)
		default:
			t.Fatalf("selected non-candidate %s", c.Module)
		}
	}
	// 200 uniform draws reach all three (module, slot) pairs
	assert.Len(t, seen, 3)
}

func TestRandomSelection_SameSeedSameSequence(t *testing.T) {
	rm := NewResourceManager(newTestTopology(t), DefaultTransportSlack)
	step := &Step{ID: 3, Candidates: []string{"LLA", "PM1", "PM2"}}
	a := NewRandomSelection(rand.New(rand.NewSource(9)))
	b := NewRandomSelection(rand.New(rand.NewSource(9)))
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Select(step, rm), b.Select(step, rm))
	}
}

func TestAdaptiveSelection_Score(t *testing.T) {
	// GIVEN LLA slot 1 with historical peak queue 2 and availability 1000
	rm := NewResourceManager(newTestTopology(t), DefaultTransportSlack)
	ms := rm.Module("LLA")
	ms.Slots[0].MaxQueueLength = 2
	ms.Slots[0].AvailableTime = 1000

	params := DefaultParameters()
	params.ModulePreference["LLA"] = 0.5
	params.SlotPreference["LLA"][1] = 0.5
	policy := NewAdaptiveSelection(params)

	// WHEN scored with load factor 0.2
	got := policy.Score(ms, ms.Slots[0], float64(ms.PeakQueueSum())/10)

	// THEN 0.5*(1-0.2) + 0.5*(1-0.1)
	assert.InDelta(t, 0.85, got, 1e-12)
}

func TestAdaptiveSelection_Select(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		prepare    func(rm *ResourceManager, p *SchedulingParameters)
		want       Candidate
	}{
		{
			name:       "tie goes to first candidate and first slot",
			candidates: []string{"PM1", "PM2"},
			prepare:    func(*ResourceManager, *SchedulingParameters) {},
			want:       Candidate{Module: "PM1", Slot: 1},
		},
		{
			name:       "higher module preference wins",
			candidates: []string{"PM1", "PM2"},
			prepare: func(_ *ResourceManager, p *SchedulingParameters) {
				p.ModulePreference["PM2"] = 0.9
			},
			want: Candidate{Module: "PM2", Slot: 1},
		},
		{
			name:       "queue history lowers score",
			candidates: []string{"PM1", "PM2"},
			prepare: func(rm *ResourceManager, _ *SchedulingParameters) {
				rm.Module("PM1").Slots[0].MaxQueueLength = 3
			},
			want: Candidate{Module: "PM2", Slot: 1},
		},
		{
			name:       "busy slot loses to idle slot",
			candidates: []string{"LLA"},
			prepare: func(rm *ResourceManager, _ *SchedulingParameters) {
				rm.Module("LLA").Slots[0].AvailableTime = 5000
			},
			want: Candidate{Module: "LLA", Slot: 2},
		},
		{
			name:       "slot preference breaks module tie",
			candidates: []string{"LLA"},
			prepare: func(_ *ResourceManager, p *SchedulingParameters) {
				p.SlotPreference["LLA"][2] = 0.8
			},
			want: Candidate{Module: "LLA", Slot: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := NewResourceManager(newTestTopology(t), DefaultTransportSlack)
			params := DefaultParameters()
			params.ModulePreference["PM1"] = 0.5
			params.ModulePreference["PM2"] = 0.5
			tt.prepare(rm, &params)

			got := NewAdaptiveSelection(params).Select(&Step{ID: 5, Candidates: tt.candidates}, rm)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdaptiveSelection_MemoizesPerStep(t *testing.T) {
	// GIVEN a decision for step 5 while PM1 is unloaded
	rm := NewResourceManager(newTestTopology(t), DefaultTransportSlack)
	policy := NewAdaptiveSelection(DefaultParameters())
	step := &Step{ID: 5, Candidates: []string{"PM1", "PM2"}}
	first := policy.Select(step, rm)
	assert.Equal(t, "PM1", first.Module)

	// WHEN PM1 becomes heavily loaded
	rm.Module("PM1").Slots[0].MaxQueueLength = 9

	// THEN the cached decision is reused
	assert.Equal(t, first, policy.Select(step, rm))
	assert.Len(t, policy.cache, 1)

	// AND a fresh policy scores the loaded state
	assert.Equal(t, "PM2", NewAdaptiveSelection(DefaultParameters()).Select(step, rm).Module)
}

func TestAdaptiveSelection_DistinctStepsCachedSeparately(t *testing.T) {
	rm := NewResourceManager(newTestTopology(t), DefaultTransportSlack)
	policy := NewAdaptiveSelection(DefaultParameters())
	policy.Select(&Step{ID: 1, Candidates: []string{"TM1"}}, rm)
	policy.Select(&Step{ID: 4, Candidates: []string{"TM1"}}, rm)
	policy.Select(&Step{ID: 1, Candidates: []string{"TM1"}}, rm)
	assert.Len(t, policy.cache, 2)
}

func TestNewSelectionPolicy(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.IsType(t, &AdaptiveSelection{}, NewSelectionPolicy(true, DefaultParameters(), rng))
	assert.IsType(t, &RandomSelection{}, NewSelectionPolicy(false, DefaultParameters(), rng))
}
