package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// Candidate is a (module, slot) choice for a step.
type Candidate struct {
	Module string
	Slot   int
}

// SelectionPolicy chooses where a wafer's next step runs.
// Implementations receive the trial's ResourceManager read-only.
type SelectionPolicy interface {
	Select(step *Step, rm *ResourceManager) Candidate
}

// RandomSelection picks a candidate module uniformly, then a slot uniformly.
type RandomSelection struct {
	rng *rand.Rand
}

// NewRandomSelection creates a random policy drawing from rng.
func NewRandomSelection(rng *rand.Rand) *RandomSelection {
	return &RandomSelection{rng: rng}
}

// Select implements SelectionPolicy for RandomSelection.
func (rs *RandomSelection) Select(step *Step, rm *ResourceManager) Candidate {
	if len(step.Candidates) == 0 {
		panic(fmt.Sprintf("RandomSelection.Select: step %d has no candidates", step.ID))
	}
	module := step.Candidates[rs.rng.Intn(len(step.Candidates))]
	ms := rm.Module(module)
	return Candidate{Module: module, Slot: rs.rng.Intn(len(ms.Slots)) + 1}
}

// AdaptiveSelection scores every (module, slot) pair of the step's candidates:
//
//	score = modulePref * (1 - loadFactor) + slotPref * (1 - slotLoad)
//	loadFactor = sum of the module's peak slot queue lengths / 10
//	slotLoad   = slot.AvailableTime / 10000
//
// and picks the strictly greatest score; ties go to the first pair seen in
// candidate order, slots ascending. Decisions are memoized per step and
// preference snapshot for the lifetime of the policy, which is one trial.
type AdaptiveSelection struct {
	params  SchedulingParameters
	prefKey string
	cache   map[string]Candidate
}

// NewAdaptiveSelection creates an adaptive policy with an empty cache.
func NewAdaptiveSelection(params SchedulingParameters) *AdaptiveSelection {
	return &AdaptiveSelection{
		params:  params,
		prefKey: params.preferenceKey(),
		cache:   make(map[string]Candidate),
	}
}

// Select implements SelectionPolicy for AdaptiveSelection.
func (as *AdaptiveSelection) Select(step *Step, rm *ResourceManager) Candidate {
	key := fmt.Sprintf("%d|%s", step.ID, as.prefKey)
	if c, ok := as.cache[key]; ok {
		return c
	}

	bestScore := math.Inf(-1)
	var best Candidate
	for _, module := range step.Candidates {
		ms := rm.Module(module)
		loadFactor := float64(ms.PeakQueueSum()) / 10
		for _, slot := range ms.Slots {
			s := as.Score(ms, slot, loadFactor)
			if s > bestScore {
				bestScore = s
				best = Candidate{Module: module, Slot: slot.ID}
			}
		}
	}
	if best.Module == "" {
		panic(fmt.Sprintf("AdaptiveSelection.Select: step %d has no candidates", step.ID))
	}
	as.cache[key] = best
	return best
}

// Score computes the adaptive score of one slot.
func (as *AdaptiveSelection) Score(ms *ModuleState, slot *Slot, loadFactor float64) float64 {
	slotLoad := slot.AvailableTime / 10000
	return as.params.modulePreference(ms.Spec.Name)*(1-loadFactor) +
		as.params.slotPreference(ms.Spec.Name, slot.ID)*(1-slotLoad)
}

// NewSelectionPolicy creates the adaptive policy when adaptive is set,
// otherwise the random one.
func NewSelectionPolicy(adaptive bool, params SchedulingParameters, rng *rand.Rand) SelectionPolicy {
	if adaptive {
		return NewAdaptiveSelection(params)
	}
	return NewRandomSelection(rng)
}
