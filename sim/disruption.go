package sim

import (
	"fmt"
	"math/rand"
)

// Scenario selects which disruptions a trial injects.
type Scenario string

const (
	ScenarioNone          Scenario = "none"
	ScenarioFault         Scenario = "fault"
	ScenarioTimeVariation Scenario = "time_variation"
	ScenarioMixed         Scenario = "mixed"
)

const (
	// FaultProbability is the chance that a slot release triggers a fault.
	FaultProbability = 0.05
	// FaultDuration is how long a faulted slot stays unavailable.
	FaultDuration = 100.0
	// VariationAmplitude bounds the relative duration perturbation.
	VariationAmplitude = 0.1
)

var validScenarios = map[Scenario]bool{
	ScenarioNone:          true,
	ScenarioFault:         true,
	ScenarioTimeVariation: true,
	ScenarioMixed:         true,
}

// AllScenarios returns every scenario in reporting order.
func AllScenarios() []Scenario {
	return []Scenario{ScenarioNone, ScenarioFault, ScenarioTimeVariation, ScenarioMixed}
}

// ParseScenario validates a scenario name. Empty means none.
func ParseScenario(s string) (Scenario, error) {
	if s == "" {
		return ScenarioNone, nil
	}
	sc := Scenario(s)
	if !validScenarios[sc] {
		return "", fmt.Errorf("unknown scenario %q; valid: none, fault, time_variation, mixed: %w", s, ErrInvalidParameter)
	}
	return sc, nil
}

// InjectsFaults reports whether the scenario injects equipment faults.
func (s Scenario) InjectsFaults() bool {
	return s == ScenarioFault || s == ScenarioMixed
}

// PerturbsDurations reports whether the scenario perturbs step durations.
func (s Scenario) PerturbsDurations() bool {
	return s == ScenarioTimeVariation || s == ScenarioMixed
}

// DisruptionModel injects faults and duration noise from seeded streams.
type DisruptionModel struct {
	scenario  Scenario
	faults    *rand.Rand
	variation *rand.Rand
}

// NewDisruptionModel creates a model drawing from the trial's RNG partitions.
func NewDisruptionModel(scenario Scenario, rng *PartitionedRNG) *DisruptionModel {
	return &DisruptionModel{
		scenario:  scenario,
		faults:    rng.ForSubsystem(SubsystemDisruption),
		variation: rng.ForSubsystem(SubsystemVariation),
	}
}

// InjectFault is called on every slot release. With FaultProbability it blocks
// the slot for FaultDuration from max(available, now), clears its occupant and
// returns true with the blocked interval; the caller drops the wafer's next step.
func (d *DisruptionModel) InjectFault(rm *ResourceManager, module string, slotID int, now float64) (bool, float64, float64) {
	if !d.scenario.InjectsFaults() {
		return false, 0, 0
	}
	if d.faults.Float64() >= FaultProbability {
		return false, 0, 0
	}
	slot := rm.Module(module).Slot(slotID)
	start := max(slot.AvailableTime, now)
	end := start + FaultDuration
	rm.Reserve(module, slotID, start, end, UsageFault)
	slot.Occupant = 0
	return true, start, end
}

// PerturbDuration scales d by 1 + U(-VariationAmplitude, VariationAmplitude)
// when the scenario perturbs durations.
func (d *DisruptionModel) PerturbDuration(duration float64) float64 {
	if !d.scenario.PerturbsDurations() {
		return duration
	}
	return duration * (1 + (2*d.variation.Float64()-1)*VariationAmplitude)
}
