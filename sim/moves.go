package sim

import "fmt"

// MoveType is the numeric action code written to move-list files. The codes
// are an external contract and must not be renumbered.
type MoveType int

const (
	MovePick     MoveType = 1
	MovePlace    MoveType = 2
	MoveTransfer MoveType = 3
	MoveOpen     MoveType = 4 // open / pump-begin
	MoveClose    MoveType = 5 // close / pump-end
	MovePump     MoveType = 6
	MoveVent     MoveType = 7
	MoveProcess  MoveType = 8
	MoveClean    MoveType = 9
	MoveAlign    MoveType = 10
)

// AuxiliaryMoveDuration is the length of each open/close/pick/place sub-action.
const AuxiliaryMoveDuration = 1.0

// Move is an atomic sub-action with its own timing.
type Move struct {
	StartTime  float64  `json:"StartTime"`
	EndTime    float64  `json:"EndTime"`
	MoveID     int64    `json:"MoveID"`
	MoveType   MoveType `json:"MoveType"`
	ModuleName string   `json:"ModuleName"`
	MatID      string   `json:"MatID"`
	SlotID     int      `json:"SlotID"`
}

// MoveCount returns how many moves a step of the given category produces.
func MoveCount(c StepCategory) int {
	switch c {
	case CategoryShort:
		return 1
	case CategoryProcess:
		return 6
	default:
		return 3
	}
}

// MatID formats the material identifier of a wafer step.
func MatID(waferNumber int, label string) string {
	return fmt.Sprintf("%d.%s", waferNumber, label)
}

// CleanMatID formats the material identifier of a maintenance interval.
func CleanMatID(module string) string {
	return "CLEAN." + module
}

// MoveRecorder decomposes steps into moves and hands out trial-wide,
// strictly increasing move ids starting at zero.
type MoveRecorder struct {
	nextID int64
	Moves  []Move
}

// NewMoveRecorder creates an empty recorder.
func NewMoveRecorder() *MoveRecorder {
	return &MoveRecorder{Moves: make([]Move, 0)}
}

func (r *MoveRecorder) emit(start, end float64, typ MoveType, module, matID string, slot int) {
	r.Moves = append(r.Moves, Move{
		StartTime:  start,
		EndTime:    end,
		MoveID:     r.nextID,
		MoveType:   typ,
		ModuleName: module,
		MatID:      matID,
		SlotID:     slot,
	})
	r.nextID++
}

// bracket emits open, core, close around [start, end).
func (r *MoveRecorder) bracket(start, end float64, core MoveType, module, matID string, slot int) {
	aux := AuxiliaryMoveDuration
	r.emit(start, start+aux, MoveOpen, module, matID, slot)
	r.emit(start+aux, end-aux, core, module, matID, slot)
	r.emit(end-aux, end, MoveClose, module, matID, slot)
}

// RecordStep appends the moves of one executed step.
func (r *MoveRecorder) RecordStep(step *Step, module *ModuleSpec, slot int, start, end float64, waferNumber int) {
	matID := MatID(waferNumber, step.Label)
	name := module.Name
	aux := AuxiliaryMoveDuration

	switch step.Category {
	case CategoryShort:
		code := step.MoveType
		if code == 0 {
			code = module.MoveType
		}
		if code == 0 {
			code = MoveTransfer
		}
		r.emit(start, end, code, name, matID, slot)
	case CategoryPump:
		r.bracket(start, end, MovePump, name, matID, slot)
	case CategoryVent:
		r.bracket(start, end, MoveVent, name, matID, slot)
	case CategoryAlign:
		r.bracket(start, end, MoveAlign, name, matID, slot)
	case CategoryProcess:
		r.emit(start, start+aux, MovePick, name, matID, slot)
		r.emit(start+aux, start+2*aux, MoveTransfer, name, matID, slot)
		r.emit(start+2*aux, start+3*aux, MovePlace, name, matID, slot)
		r.emit(start+3*aux, start+4*aux, MoveOpen, name, matID, slot)
		r.emit(start+4*aux, end-aux, MoveProcess, name, matID, slot)
		r.emit(end-aux, end, MoveClose, name, matID, slot)
	default:
		r.emit(start, start+aux, MovePick, name, matID, slot)
		r.emit(start+aux, start+2*aux, MoveTransfer, name, matID, slot)
		r.emit(start+2*aux, end, MovePlace, name, matID, slot)
	}
}

// RecordClean appends the pump, clean, retract moves of a maintenance interval.
func (r *MoveRecorder) RecordClean(module string, start, end float64) {
	r.bracket(start, end, MoveClean, module, CleanMatID(module), 1)
}

// Len returns the number of recorded moves.
func (r *MoveRecorder) Len() int { return len(r.Moves) }
