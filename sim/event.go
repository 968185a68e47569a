package sim

import "container/heap"

// CompletionEvent means "wafer finished step on module/slot at Time".
type CompletionEvent struct {
	Time   float64
	Wafer  int // 0-based wafer index
	StepID int
	Module string
	Slot   int
	seq    uint64
}

// EventQueue is a min-heap of completion events with deterministic ordering:
// time → wafer → step → module → slot → insertion sequence.
// Reordering these keys changes simulated outcomes.
type EventQueue struct {
	events  []*CompletionEvent
	nextSeq uint64
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{events: make([]*CompletionEvent, 0)}
	heap.Init(q)
	return q
}

// Len implements heap.Interface
func (q *EventQueue) Len() int { return len(q.events) }

// Less implements heap.Interface with deterministic ordering
func (q *EventQueue) Less(i, j int) bool {
	ei, ej := q.events[i], q.events[j]
	if ei.Time != ej.Time {
		return ei.Time < ej.Time
	}
	if ei.Wafer != ej.Wafer {
		return ei.Wafer < ej.Wafer
	}
	if ei.StepID != ej.StepID {
		return ei.StepID < ej.StepID
	}
	if ei.Module != ej.Module {
		return ei.Module < ej.Module
	}
	if ei.Slot != ej.Slot {
		return ei.Slot < ej.Slot
	}
	return ei.seq < ej.seq
}

// Swap implements heap.Interface
func (q *EventQueue) Swap(i, j int) { q.events[i], q.events[j] = q.events[j], q.events[i] }

// Push implements heap.Interface
func (q *EventQueue) Push(x any) { q.events = append(q.events, x.(*CompletionEvent)) }

// Pop implements heap.Interface
func (q *EventQueue) Pop() any {
	old := q.events
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.events = old[0 : n-1]
	return item
}

// Schedule adds an event, stamping its insertion sequence.
func (q *EventQueue) Schedule(e *CompletionEvent) {
	e.seq = q.nextSeq
	q.nextSeq++
	heap.Push(q, e)
}

// PopNext removes and returns the earliest event, or nil when empty.
func (q *EventQueue) PopNext() *CompletionEvent {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*CompletionEvent)
}
