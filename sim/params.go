package sim

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// defaultPreference is the score used for modules and slots with no explicit preference.
const defaultPreference = 0.5

// SchedulingParameters tune the adaptive selection policy and are the search
// space of the optimizer. Pass by value; use Clone before mutating maps.
type SchedulingParameters struct {
	W1               float64                    `yaml:"w1" json:"w1"`
	W2               float64                    `yaml:"w2" json:"w2"`
	W3               float64                    `yaml:"w3" json:"w3"`
	TimeWindow       float64                    `yaml:"time_window" json:"time_window"`
	ModulePreference map[string]float64         `yaml:"module_preference" json:"module_preference"`
	SlotPreference   map[string]map[int]float64 `yaml:"slot_preference" json:"slot_preference"`
	ConflictPenalty  float64                    `yaml:"conflict_penalty" json:"conflict_penalty"`
	ProcessPriority  float64                    `yaml:"process_priority" json:"process_priority"`
}

// DefaultParameters returns the reference parameter set.
func DefaultParameters() SchedulingParameters {
	slotPref := make(map[string]map[int]float64)
	for _, m := range []string{"LLA", "LLB", "LLC", "LLD", "TM1", "TM2", "TM3"} {
		slotPref[m] = map[int]float64{1: defaultPreference, 2: defaultPreference}
	}
	return SchedulingParameters{
		W1:         0.5,
		W2:         0.3,
		W3:         0.2,
		TimeWindow: 20,
		ModulePreference: map[string]float64{
			"LLA": 0.5, "LLB": 0.5, "PM7": 0.5, "PM8": 0.5,
		},
		SlotPreference:  slotPref,
		ConflictPenalty: 2.0,
		ProcessPriority: 0.2,
	}
}

// Clone returns a deep copy so trials never alias each other's maps.
func (p SchedulingParameters) Clone() SchedulingParameters {
	out := p
	out.ModulePreference = make(map[string]float64, len(p.ModulePreference))
	for k, v := range p.ModulePreference {
		out.ModulePreference[k] = v
	}
	out.SlotPreference = make(map[string]map[int]float64, len(p.SlotPreference))
	for m, slots := range p.SlotPreference {
		inner := make(map[int]float64, len(slots))
		for s, v := range slots {
			inner[s] = v
		}
		out.SlotPreference[m] = inner
	}
	return out
}

// WithWeights returns a copy with w1, w2 set and w3 derived as 1 - w1 - w2.
func (p SchedulingParameters) WithWeights(w1, w2 float64) SchedulingParameters {
	out := p.Clone()
	out.W1 = w1
	out.W2 = w2
	out.W3 = 1 - w1 - w2
	return out
}

// Validate rejects negative weights.
func (p SchedulingParameters) Validate() error {
	if p.W1 < 0 || p.W2 < 0 || p.W3 < 0 {
		return fmt.Errorf("weights (%.4f, %.4f, %.4f) must be non-negative: %w", p.W1, p.W2, p.W3, ErrInvalidParameter)
	}
	return nil
}

// modulePreference returns the preference for a module, defaulting to 0.5.
func (p SchedulingParameters) modulePreference(module string) float64 {
	if v, ok := p.ModulePreference[module]; ok {
		return v
	}
	return defaultPreference
}

// slotPreference returns the preference for a module slot, defaulting to 0.5.
func (p SchedulingParameters) slotPreference(module string, slot int) float64 {
	if slots, ok := p.SlotPreference[module]; ok {
		if v, ok := slots[slot]; ok {
			return v
		}
	}
	return defaultPreference
}

// preferenceKey is a canonical snapshot of the module preferences, sorted by name.
func (p SchedulingParameters) preferenceKey() string {
	names := make([]string, 0, len(p.ModulePreference))
	for name := range p.ModulePreference {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(p.ModulePreference[name], 'g', -1, 64))
	}
	return b.String()
}
