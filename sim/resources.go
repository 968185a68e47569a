package sim

import (
	"fmt"
	"sort"
)

// UsageKind labels an interval in a slot's usage log.
type UsageKind string

const (
	UsageWafer      UsageKind = "wafer"
	UsageIdleClean  UsageKind = "idle_clean"
	UsageCountClean UsageKind = "count_clean"
	UsageFault      UsageKind = "fault"
)

// UsageInterval is one [Start, End) occupation of a slot.
type UsageInterval struct {
	Start  float64
	End    float64
	Wafer  int // 1-based wafer number; 0 for maintenance and faults
	StepID int
	Kind   UsageKind
}

// Slot is an independently schedulable position within a module.
type Slot struct {
	ID             int
	AvailableTime  float64 // never decreases
	Occupant       int     // 1-based wafer number; 0 when free
	QueueLength    int
	MaxQueueLength int
	Usage          []UsageInterval
}

// ModuleState is the per-trial mutable state of one module.
type ModuleState struct {
	Spec       ModuleSpec
	Slots      []*Slot
	LastUsed   float64
	WaferCount int // process modules: wafers since the last count-based clean

	lastTransportEnd float64 // transport modules: start + duration of the last action
}

// Slot returns the slot with the given 1-based id.
func (m *ModuleState) Slot(id int) *Slot {
	if id < 1 || id > len(m.Slots) {
		panic(fmt.Sprintf("module %s has no slot %d", m.Spec.Name, id))
	}
	return m.Slots[id-1]
}

// PeakQueueSum is the sum of historical max queue lengths across the module's slots.
func (m *ModuleState) PeakQueueSum() int {
	total := 0
	for _, s := range m.Slots {
		total += s.MaxQueueLength
	}
	return total
}

// Overlap describes two usage intervals on the same slot that intersect.
type Overlap struct {
	Module string
	Slot   int
	First  UsageInterval
	Second UsageInterval
}

// ResourceManager owns every module and slot of one trial.
//
// Thread-safety: NOT thread-safe. A trial drives it from a single goroutine;
// concurrent trials each hold their own instance (see Clone).
type ResourceManager struct {
	modules        map[string]*ModuleState
	order          []string
	transportSlack float64
}

// NewResourceManager builds fresh, idle state for every module of the topology.
func NewResourceManager(top *Topology, transportSlack float64) *ResourceManager {
	specs := top.Modules()
	rm := &ResourceManager{
		modules:        make(map[string]*ModuleState, len(specs)),
		order:          make([]string, 0, len(specs)),
		transportSlack: transportSlack,
	}
	for _, spec := range specs {
		ms := &ModuleState{Spec: spec, Slots: make([]*Slot, spec.Slots)}
		for i := range ms.Slots {
			ms.Slots[i] = &Slot{ID: i + 1, Usage: make([]UsageInterval, 0)}
		}
		rm.modules[spec.Name] = ms
		rm.order = append(rm.order, spec.Name)
	}
	return rm
}

// Clone deep-copies the whole resource state.
func (rm *ResourceManager) Clone() *ResourceManager {
	out := &ResourceManager{
		modules:        make(map[string]*ModuleState, len(rm.modules)),
		order:          append([]string(nil), rm.order...),
		transportSlack: rm.transportSlack,
	}
	for name, ms := range rm.modules {
		cp := *ms
		cp.Slots = make([]*Slot, len(ms.Slots))
		for i, s := range ms.Slots {
			sc := *s
			sc.Usage = append([]UsageInterval(nil), s.Usage...)
			cp.Slots[i] = &sc
		}
		out.modules[name] = &cp
	}
	return out
}

// Module returns the state of a module. Unknown names are a programming defect.
func (rm *ResourceManager) Module(name string) *ModuleState {
	ms, ok := rm.modules[name]
	if !ok {
		panic(fmt.Sprintf("unknown module %q", name))
	}
	return ms
}

// HasModule reports whether the module exists.
func (rm *ResourceManager) HasModule(name string) bool {
	_, ok := rm.modules[name]
	return ok
}

// Modules returns module states in topology order.
func (rm *ResourceManager) Modules() []*ModuleState {
	out := make([]*ModuleState, len(rm.order))
	for i, name := range rm.order {
		out[i] = rm.modules[name]
	}
	return out
}

// Acquire books [start, start+duration) on a slot for a wafer that is ready at
// readyTime. start = max(readyTime, slot.AvailableTime); transport modules also
// wait until lastActionEnd - transportSlack.
func (rm *ResourceManager) Acquire(module string, slotID, wafer, stepID int, readyTime, duration float64) (start, end float64) {
	ms := rm.Module(module)
	slot := ms.Slot(slotID)

	start = max(readyTime, slot.AvailableTime)
	if ms.Spec.IsTransport() {
		start = max(start, ms.lastTransportEnd-rm.transportSlack)
		ms.lastTransportEnd = start + duration
	}
	end = start + duration

	rm.appendUsage(ms, slot, UsageInterval{Start: start, End: end, Wafer: wafer, StepID: stepID, Kind: UsageWafer})
	slot.AvailableTime = end
	slot.Occupant = wafer
	slot.QueueLength++
	slot.MaxQueueLength = max(slot.MaxQueueLength, slot.QueueLength)
	ms.LastUsed = end
	if ms.Spec.IsProcess() {
		ms.WaferCount++
	}
	return start, end
}

// Release frees a slot after a wafer's step completed.
func (rm *ResourceManager) Release(module string, slotID, wafer int) {
	slot := rm.Module(module).Slot(slotID)
	slot.QueueLength--
	if slot.Occupant == wafer {
		slot.Occupant = 0
	}
}

// Reserve blocks a slot for maintenance or a fault over [start, end).
func (rm *ResourceManager) Reserve(module string, slotID int, start, end float64, kind UsageKind) {
	ms := rm.Module(module)
	slot := ms.Slot(slotID)
	rm.appendUsage(ms, slot, UsageInterval{Start: start, End: end, Kind: kind})
	slot.AvailableTime = end
	if kind != UsageFault {
		ms.LastUsed = end
	}
}

// appendUsage enforces the occupancy invariant before recording an interval.
func (rm *ResourceManager) appendUsage(ms *ModuleState, slot *Slot, iv UsageInterval) {
	if iv.End < iv.Start {
		panic(fmt.Sprintf("module %s slot %d: interval ends before it starts (%v < %v)", ms.Spec.Name, slot.ID, iv.End, iv.Start))
	}
	if n := len(slot.Usage); n > 0 && iv.Start < slot.Usage[n-1].End {
		panic(fmt.Sprintf("module %s slot %d: interval [%v,%v) overlaps [%v,%v)",
			ms.Spec.Name, slot.ID, iv.Start, iv.End, slot.Usage[n-1].Start, slot.Usage[n-1].End))
	}
	slot.Usage = append(slot.Usage, iv)
}

// LoadBalance is the sum of peak per-slot queue lengths over all modules.
func (rm *ResourceManager) LoadBalance() int {
	total := 0
	for _, ms := range rm.modules {
		total += ms.PeakQueueSum()
	}
	return total
}

// CheckOverlaps sorts every slot's usage log by start and returns each pair of
// consecutive intervals with curr.Start < prev.End. Empty for a valid trial.
func (rm *ResourceManager) CheckOverlaps() []Overlap {
	var overlaps []Overlap
	for _, name := range rm.order {
		for _, slot := range rm.modules[name].Slots {
			usage := append([]UsageInterval(nil), slot.Usage...)
			sort.SliceStable(usage, func(i, j int) bool { return usage[i].Start < usage[j].Start })
			for i := 1; i < len(usage); i++ {
				if usage[i].Start < usage[i-1].End {
					overlaps = append(overlaps, Overlap{Module: name, Slot: slot.ID, First: usage[i-1], Second: usage[i]})
				}
			}
		}
	}
	return overlaps
}
