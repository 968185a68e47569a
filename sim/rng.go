package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two trials with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical move lists and logs.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemSelection drives uniform-random module/slot choice.
	// Uses the master seed directly.
	SubsystemSelection = "selection"

	// SubsystemDisruption drives fault injection on slot release.
	SubsystemDisruption = "disruption"

	// SubsystemVariation drives step-duration perturbation.
	SubsystemVariation = "variation"

	// SubsystemOptimizer drives annealing perturbations and trial seeds.
	SubsystemOptimizer = "optimizer"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula:
//   - For SubsystemSelection: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Drawing from one subsystem never shifts another subsystem's sequence, so
// enabling disruption does not change which modules random selection picks.
//
// Thread-safety: NOT thread-safe. Each trial owns its own PartitionedRNG.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemSelection {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = DeriveSeed(int64(p.key), name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// DeriveSeed mixes a label into a seed: seed XOR fnv1a64(label).
// Used to give each experiment trial an order-independent seed.
func DeriveSeed(seed int64, label string) int64 {
	return seed ^ fnv1a64(label)
}

// TrialLabel names the seed stream of one experiment trial.
func TrialLabel(scenario, mode string, index int) string {
	return fmt.Sprintf("%s/%s/%d", scenario, mode, index)
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
