package sim

import (
	"fmt"
	"io"
	"math"

	"github.com/wafer-sim/wafer-sim/sim/trace"
)

// Result is everything a finished trial produced.
type Result struct {
	Makespan    float64
	Conflicts   int
	LoadBalance int // sum of peak per-slot queue lengths
	Dropped     int
	Moves       []Move
	Paths       [][]PathEntry // indexed by 0-based wafer id
	Trace       *trace.SimulationTrace
	Resources   *ResourceManager
}

// FailedResult is the sentinel reported for a trial that aborted.
func FailedResult() *Result {
	return &Result{Makespan: math.Inf(1)}
}

// Failed reports whether r is the sentinel of an aborted trial.
func (r *Result) Failed() bool {
	return math.IsInf(r.Makespan, 1)
}

// Validate checks the occupancy, route-order and move-id invariants of a
// finished trial. The first violation found is returned.
func (r *Result) Validate(route Route) error {
	if r.Resources != nil {
		if overlaps := r.Resources.CheckOverlaps(); len(overlaps) > 0 {
			o := overlaps[0]
			return fmt.Errorf("%d overlapping intervals; first on %s/%d: [%v,%v) and [%v,%v)",
				len(overlaps), o.Module, o.Slot, o.First.Start, o.First.End, o.Second.Start, o.Second.End)
		}
	}
	ids := route.IDs()
	for wafer, path := range r.Paths {
		if len(path) > len(ids) {
			return fmt.Errorf("wafer %d executed %d steps, route has %d", wafer+1, len(path), len(ids))
		}
		prevEnd := math.Inf(-1)
		for i, p := range path {
			if p.StepID != ids[i] {
				return fmt.Errorf("wafer %d position %d: executed step %d, route expects %d", wafer+1, i, p.StepID, ids[i])
			}
			if p.Start < prevEnd {
				return fmt.Errorf("wafer %d step %d starts at %v before previous end %v", wafer+1, p.StepID, p.Start, prevEnd)
			}
			prevEnd = p.End
		}
	}
	for i := 1; i < len(r.Moves); i++ {
		if r.Moves[i].MoveID <= r.Moves[i-1].MoveID {
			return fmt.Errorf("move id %d follows %d", r.Moves[i].MoveID, r.Moves[i-1].MoveID)
		}
	}
	return nil
}

// Print writes a human-readable report of the trial.
func (r *Result) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Result ===")
	fmt.Fprintf(w, "Makespan          : %.2f s\n", r.Makespan)
	fmt.Fprintf(w, "Conflicts         : %d\n", r.Conflicts)
	fmt.Fprintf(w, "Load Balance      : %d\n", r.LoadBalance)
	fmt.Fprintf(w, "Dropped Wafers    : %d\n", r.Dropped)
	fmt.Fprintf(w, "Moves             : %d\n", len(r.Moves))
	if r.Resources != nil {
		fmt.Fprintf(w, "Slot Overlaps     : %d\n", len(r.Resources.CheckOverlaps()))
	}
	if r.Trace == nil {
		return
	}

	summary := trace.Summarize(r.Trace)
	fmt.Fprintf(w, "Mean Delay        : %.2f s\n", summary.MeanDelay)
	fmt.Fprintf(w, "Max Delay         : %.2f s\n", summary.MaxDelay)
	fmt.Fprintf(w, "Idle Cleanings    : %d\n", summary.IdleCleanings)
	fmt.Fprintf(w, "Count Cleanings   : %d\n", summary.CountCleanings)
	fmt.Fprintf(w, "Faults            : %d\n", summary.Disruptions)

	if len(r.Trace.Conflicts) > 0 {
		fmt.Fprintln(w, "--- Conflicts ---")
		for _, c := range r.Trace.Conflicts {
			fmt.Fprintf(w, "wafer %d step %d on %s/%d: ready %.2f, delayed %.2f s\n",
				c.Wafer, c.StepID, c.Module, c.Slot, c.ReadyTime, c.Delay)
		}
	}
	if len(r.Trace.Cleanings) > 0 {
		fmt.Fprintln(w, "--- Cleanings ---")
		for _, c := range r.Trace.Cleanings {
			fmt.Fprintf(w, "%s %s [%.2f, %.2f)", c.Module, c.Reason, c.Start, c.End)
			if c.Reason == trace.CleaningWaferCount {
				fmt.Fprintf(w, " after %d wafers", c.WaferCount)
			}
			fmt.Fprintln(w)
		}
	}
}
