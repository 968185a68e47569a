// Package trace records scheduling events of a single trial for offline analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// ConflictRecord captures one step that started later than its wafer was ready.
type ConflictRecord struct {
	Wafer     int // 1-based wafer number
	StepID    int
	Module    string
	Slot      int
	ReadyTime float64
	Delay     float64 // start - ready, always > 0
}

// CleaningReason says which trigger caused a maintenance interval.
type CleaningReason string

const (
	CleaningIdle       CleaningReason = "idle"
	CleaningWaferCount CleaningReason = "wafer_count"
)

// CleaningRecord captures one maintenance interval.
type CleaningRecord struct {
	Module     string
	Reason     CleaningReason
	Start      float64
	End        float64
	WaferCount int // wafers processed since the previous count clean; 0 for idle cleans
}

// DisruptionRecord captures one injected equipment fault and the wafer it dropped.
type DisruptionRecord struct {
	Module string
	Slot   int
	Wafer  int
	StepID int // next step the wafer would have executed
	Start  float64
	End    float64
}
