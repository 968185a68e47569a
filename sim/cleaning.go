package sim

import (
	"github.com/sirupsen/logrus"

	"github.com/wafer-sim/wafer-sim/sim/trace"
)

// CleaningConfig holds maintenance thresholds for process modules.
type CleaningConfig struct {
	Enabled             bool    `yaml:"enabled"`
	IdleThreshold       float64 `yaml:"idle_threshold"`
	IdleDuration        float64 `yaml:"idle_duration"`
	WaferCountThreshold int     `yaml:"wafer_count_threshold"`
	WaferCountDuration  float64 `yaml:"wafer_count_duration"`
}

// DefaultCleaningConfig returns the reference thresholds.
func DefaultCleaningConfig() CleaningConfig {
	return CleaningConfig{
		Enabled:             true,
		IdleThreshold:       70,
		IdleDuration:        30,
		WaferCountThreshold: 13,
		WaferCountDuration:  300,
	}
}

// CleaningPolicy injects maintenance intervals on single-slot process modules.
type CleaningPolicy struct {
	cfg CleaningConfig
}

// NewCleaningPolicy creates a policy; a disabled config yields a no-op policy.
func NewCleaningPolicy(cfg CleaningConfig) *CleaningPolicy {
	return &CleaningPolicy{cfg: cfg}
}

// Applies reports whether the module is subject to cleaning.
func (c *CleaningPolicy) Applies(ms *ModuleState) bool {
	return c.cfg.Enabled && ms.Spec.IsProcess() && len(ms.Slots) == 1
}

// Apply runs the idle and wafer-count triggers for a wafer that becomes ready
// for module at now, and returns the earliest start the wafer may use
// (at least start).
func (c *CleaningPolicy) Apply(rm *ResourceManager, module string, now, start float64, moves *MoveRecorder, tr *trace.SimulationTrace) float64 {
	ms := rm.Module(module)
	if !c.Applies(ms) {
		return start
	}
	slot := ms.Slots[0]

	if idle := now - ms.LastUsed; idle >= c.cfg.IdleThreshold && slot.AvailableTime <= now {
		cleanStart := now
		cleanEnd := cleanStart + c.cfg.IdleDuration
		rm.Reserve(module, slot.ID, cleanStart, cleanEnd, UsageIdleClean)
		moves.RecordClean(module, cleanStart, cleanEnd)
		tr.RecordCleaning(trace.CleaningRecord{
			Module: module,
			Reason: trace.CleaningIdle,
			Start:  cleanStart,
			End:    cleanEnd,
		})
		logrus.Debugf("module %s cleaned at %.1f after %.1fs idle (%.1fs)", module, cleanStart, idle, c.cfg.IdleDuration)
		start = max(start, cleanEnd)
	}

	if ms.WaferCount >= c.cfg.WaferCountThreshold {
		cleanStart := max(now, slot.AvailableTime)
		cleanEnd := cleanStart + c.cfg.WaferCountDuration
		rm.Reserve(module, slot.ID, cleanStart, cleanEnd, UsageCountClean)
		moves.RecordClean(module, cleanStart, cleanEnd)
		tr.RecordCleaning(trace.CleaningRecord{
			Module:     module,
			Reason:     trace.CleaningWaferCount,
			Start:      cleanStart,
			End:        cleanEnd,
			WaferCount: ms.WaferCount,
		})
		logrus.Debugf("module %s cleaned at %.1f after %d wafers (%.1fs)", module, cleanStart, ms.WaferCount, c.cfg.WaferCountDuration)
		ms.WaferCount = 0
		start = max(start, cleanEnd)
	}
	return start
}
