package trace

// TraceLevel controls the verbosity of event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures conflicts, cleanings and disruptions.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether the config asks for any records.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelEvents
}

// SimulationTrace collects event records during one trial.
// All Record methods are no-ops on a nil receiver.
type SimulationTrace struct {
	Config      TraceConfig
	Conflicts   []ConflictRecord
	Cleanings   []CleaningRecord
	Disruptions []DisruptionRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Conflicts:   make([]ConflictRecord, 0),
		Cleanings:   make([]CleaningRecord, 0),
		Disruptions: make([]DisruptionRecord, 0),
	}
}

// RecordConflict appends a conflict record.
func (st *SimulationTrace) RecordConflict(record ConflictRecord) {
	if st == nil {
		return
	}
	st.Conflicts = append(st.Conflicts, record)
}

// RecordCleaning appends a cleaning record.
func (st *SimulationTrace) RecordCleaning(record CleaningRecord) {
	if st == nil {
		return
	}
	st.Cleanings = append(st.Cleanings, record)
}

// RecordDisruption appends a disruption record.
func (st *SimulationTrace) RecordDisruption(record DisruptionRecord) {
	if st == nil {
		return
	}
	st.Disruptions = append(st.Disruptions, record)
}
