package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wafer-sim/wafer-sim/sim/trace"
)

// Config describes one simulation trial.
type Config struct {
	Route    Route
	Cleaning CleaningConfig
	Params   SchedulingParameters
	Scenario Scenario
	Adaptive bool
	Seed     int64
	Wafers   int
	Trace    trace.TraceConfig

	// Selection overrides the policy derived from Adaptive when non-nil.
	Selection SelectionPolicy
}

// PathEntry is one executed step of a wafer.
type PathEntry struct {
	StepID int
	Label  string
	Start  float64
	End    float64
	Module string
	Slot   int
}

// Wafer is the unit of work flowing through the tool.
type Wafer struct {
	ID        int   // 0-based index; breaks event-time ties
	Remaining Route // consumed front to back
	Path      []PathEntry
	Dropped   bool
}

// Number is the 1-based wafer number used in material ids.
func (w *Wafer) Number() int { return w.ID + 1 }

// Simulator is the single-threaded discrete-event engine of one trial.
// It owns the ResourceManager it is given; pass a clone to keep the original intact.
type Simulator struct {
	cfg        Config
	rm         *ResourceManager
	rng        *PartitionedRNG
	selection  SelectionPolicy
	cleaning   *CleaningPolicy
	disruption *DisruptionModel
	moves      *MoveRecorder
	queue      *EventQueue
	wafers     []*Wafer
	trace      *trace.SimulationTrace

	clock     float64
	makespan  float64
	conflicts int
	dropped   int
}

// NewSimulator validates the trial config against the resources and prepares
// fresh per-trial state: RNG partitions, selection cache, move-id counter.
func NewSimulator(cfg Config, rm *ResourceManager) (*Simulator, error) {
	if cfg.Wafers <= 0 {
		return nil, fmt.Errorf("wafers must be positive, got %d: %w", cfg.Wafers, ErrInvalidParameter)
	}
	if len(cfg.Route) == 0 {
		return nil, fmt.Errorf("route is empty: %w", ErrInvalidParameter)
	}
	if cfg.Scenario == "" {
		cfg.Scenario = ScenarioNone
	}
	if _, err := ParseScenario(string(cfg.Scenario)); err != nil {
		return nil, err
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	for _, step := range cfg.Route {
		for _, c := range step.Candidates {
			if !rm.HasModule(c) {
				return nil, fmt.Errorf("step %d references unknown module %q: %w", step.ID, c, ErrInvalidParameter)
			}
		}
	}
	cfg.Params = cfg.Params.Clone()

	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	selection := cfg.Selection
	if selection == nil {
		selection = NewSelectionPolicy(cfg.Adaptive, cfg.Params, rng.ForSubsystem(SubsystemSelection))
	}
	var tr *trace.SimulationTrace
	if cfg.Trace.Enabled() {
		tr = trace.NewSimulationTrace(cfg.Trace)
	}

	s := &Simulator{
		cfg:        cfg,
		rm:         rm,
		rng:        rng,
		selection:  selection,
		cleaning:   NewCleaningPolicy(cfg.Cleaning),
		disruption: NewDisruptionModel(cfg.Scenario, rng),
		moves:      NewMoveRecorder(),
		queue:      NewEventQueue(),
		wafers:     make([]*Wafer, cfg.Wafers),
		trace:      tr,
	}
	for i := range s.wafers {
		s.wafers[i] = &Wafer{ID: i, Remaining: cfg.Route, Path: make([]PathEntry, 0, len(cfg.Route))}
	}
	return s, nil
}

// Run seeds every wafer's first step, drains the event queue and returns the
// trial result. Run must be called once.
func (s *Simulator) Run() *Result {
	for _, w := range s.wafers {
		s.assign(w, 0, false)
	}
	for s.queue.Len() > 0 {
		ev := s.queue.PopNext()
		if ev.Time < s.clock {
			panic(fmt.Sprintf("clock went backwards: event at %v after %v", ev.Time, s.clock))
		}
		s.clock = ev.Time
		s.makespan = max(s.makespan, ev.Time)
		s.handle(ev)
	}
	logrus.Debugf("trial done: makespan=%.2f conflicts=%d dropped=%d moves=%d",
		s.makespan, s.conflicts, s.dropped, s.moves.Len())
	return s.result()
}

// handle processes one completion event.
func (s *Simulator) handle(ev *CompletionEvent) {
	w := s.wafers[ev.Wafer]
	s.rm.Release(ev.Module, ev.Slot, w.Number())
	if len(w.Remaining) == 0 {
		return
	}
	if faulted, start, end := s.disruption.InjectFault(s.rm, ev.Module, ev.Slot, ev.Time); faulted {
		s.trace.RecordDisruption(trace.DisruptionRecord{
			Module: ev.Module,
			Slot:   ev.Slot,
			Wafer:  w.Number(),
			StepID: w.Remaining[0].ID,
			Start:  start,
			End:    end,
		})
		logrus.Debugf("fault on %s/%d at %.2f, wafer %d dropped", ev.Module, ev.Slot, ev.Time, w.Number())
		w.Dropped = true
		w.Remaining = nil
		s.dropped++
		return
	}
	s.assign(w, ev.Time, true)
}

// assign runs selection, cleaning and acquisition for the wafer's next step
// and schedules its completion. Cleaning and conflict accounting only apply
// to assignments driven by a completion event.
func (s *Simulator) assign(w *Wafer, now float64, eventDriven bool) {
	step := w.Remaining[0]
	w.Remaining = w.Remaining[1:]

	choice := s.selection.Select(step, s.rm)
	ms := s.rm.Module(choice.Module)
	duration := s.disruption.PerturbDuration(step.DurationOn(&ms.Spec))

	ready := now
	if eventDriven {
		ready = s.cleaning.Apply(s.rm, choice.Module, now, now, s.moves, s.trace)
	}
	start, end := s.rm.Acquire(choice.Module, choice.Slot, w.Number(), step.ID, ready, duration)

	if eventDriven && start > now {
		s.conflicts++
		s.trace.RecordConflict(trace.ConflictRecord{
			Wafer:     w.Number(),
			StepID:    step.ID,
			Module:    choice.Module,
			Slot:      choice.Slot,
			ReadyTime: now,
			Delay:     start - now,
		})
	}

	w.Path = append(w.Path, PathEntry{
		StepID: step.ID,
		Label:  step.Label,
		Start:  start,
		End:    end,
		Module: choice.Module,
		Slot:   choice.Slot,
	})
	s.moves.RecordStep(step, &ms.Spec, choice.Slot, start, end, w.Number())
	s.queue.Schedule(&CompletionEvent{
		Time:   end,
		Wafer:  w.ID,
		StepID: step.ID,
		Module: choice.Module,
		Slot:   choice.Slot,
	})
}

func (s *Simulator) result() *Result {
	paths := make([][]PathEntry, len(s.wafers))
	for i, w := range s.wafers {
		paths[i] = w.Path
	}
	return &Result{
		Makespan:    s.makespan,
		Conflicts:   s.conflicts,
		LoadBalance: s.rm.LoadBalance(),
		Dropped:     s.dropped,
		Moves:       s.moves.Moves,
		Paths:       paths,
		Trace:       s.trace,
		Resources:   s.rm,
	}
}
