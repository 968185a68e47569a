// Package experiment fans independent simulation trials out across
// scenario x mode combinations and aggregates their results.
package experiment

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wafer-sim/wafer-sim/sim"
	"github.com/wafer-sim/wafer-sim/sim/optimize"
)

// Mode selects the parameter set and selection policy of a trial.
type Mode string

const (
	ModeBaseline Mode = "baseline" // default parameters, random selection
	ModeStatic   Mode = "static"   // optimized parameters, random selection
	ModeAdaptive Mode = "adaptive" // optimized parameters, adaptive selection
)

// AllModes returns every mode in reporting order.
func AllModes() []Mode {
	return []Mode{ModeBaseline, ModeStatic, ModeAdaptive}
}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	for _, m := range AllModes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q; valid: baseline, static, adaptive: %w", s, sim.ErrInvalidParameter)
}

// Config describes one experiment.
type Config struct {
	Scenarios []sim.Scenario
	Modes     []Mode
	Trials    int // per scenario/mode combination
	Workers   int // <= 0 means GOMAXPROCS
	Seed      int64
	Wafers    int // 0 means the tool's wafer count

	Optimizer    optimize.Config
	SkipOptimize bool // use the tool's parameters for every mode
	KeepMoves    bool // keep the move list of trial 0 of every combination
}

// TrialResult is the outcome of one trial.
type TrialResult struct {
	Scenario    sim.Scenario
	Mode        Mode
	Index       int
	Seed        int64
	Makespan    float64
	Conflicts   int
	LoadBalance int
	Dropped     int
	Failed      bool
	Moves       []sim.Move
}

// Report is everything an experiment produced.
type Report struct {
	Summary *Summary
	Trials  []TrialResult // in task order: scenario, mode, index
	Metrics *Metrics
}

// MoveList returns the kept move list of a combination, or nil.
func (r *Report) MoveList(scenario sim.Scenario, mode Mode) []sim.Move {
	for _, tr := range r.Trials {
		if tr.Scenario == scenario && tr.Mode == mode && tr.Moves != nil {
			return tr.Moves
		}
	}
	return nil
}

type task struct {
	scenario sim.Scenario
	mode     Mode
	index    int
}

// Runner executes an experiment against one tool definition.
type Runner struct {
	cfg      Config
	tool     *sim.ToolConfig
	template *sim.ResourceManager
	runID    string
	logger   *logrus.Entry
}

// NewRunner validates cfg and prepares the initial resource state every trial clones.
func NewRunner(cfg Config, tool *sim.ToolConfig) (*Runner, error) {
	if cfg.Trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d: %w", cfg.Trials, sim.ErrInvalidParameter)
	}
	if cfg.Wafers < 0 {
		return nil, fmt.Errorf("wafers must be non-negative, got %d: %w", cfg.Wafers, sim.ErrInvalidParameter)
	}
	if len(cfg.Scenarios) == 0 {
		cfg.Scenarios = sim.AllScenarios()
	}
	if len(cfg.Modes) == 0 {
		cfg.Modes = AllModes()
	}
	for _, sc := range cfg.Scenarios {
		if _, err := sim.ParseScenario(string(sc)); err != nil {
			return nil, err
		}
	}
	for _, m := range cfg.Modes {
		if _, err := ParseMode(string(m)); err != nil {
			return nil, err
		}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	runID := uuid.NewString()
	return &Runner{
		cfg:      cfg,
		tool:     tool,
		template: tool.NewResourceManager(),
		runID:    runID,
		logger:   logrus.WithFields(logrus.Fields{"run_id": runID, "tool": tool.Name}),
	}, nil
}

// RunID identifies this experiment in logs and outputs.
func (r *Runner) RunID() string { return r.runID }

func (r *Runner) baseConfig() sim.Config {
	base := r.tool.SimulationConfig(r.cfg.Seed)
	if r.cfg.Wafers > 0 {
		base.Wafers = r.cfg.Wafers
	}
	return base
}

// Run optimizes parameters once, runs every trial on a bounded worker pool and
// aggregates. Trials share nothing: each gets its own clone of the initial
// resource state, parameters and RNG streams. Results are stored by task
// index, so the summary does not depend on completion order.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	base := r.baseConfig()
	defaults := base.Params.Clone()
	optimized := defaults
	if !r.cfg.SkipOptimize {
		optimized, _ = optimize.Optimize(ctx, r.cfg.Optimizer, base, r.template)
	}

	tasks := make([]task, 0, len(r.cfg.Scenarios)*len(r.cfg.Modes)*r.cfg.Trials)
	for _, sc := range r.cfg.Scenarios {
		for _, m := range r.cfg.Modes {
			for i := 0; i < r.cfg.Trials; i++ {
				tasks = append(tasks, task{scenario: sc, mode: m, index: i})
			}
		}
	}
	r.logger.Infof("running %d trials on %d workers", len(tasks), r.cfg.Workers)

	metrics := NewMetrics()
	results := make([]TrialResult, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, t := range tasks {
		if gctx.Err() != nil {
			break
		}
		i, t := i, t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			params := defaults
			if t.mode != ModeBaseline {
				params = optimized
			}
			results[i] = r.runTask(base, params, t)
			metrics.Observe(results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("experiment %s interrupted: %w", r.runID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("experiment %s interrupted: %w", r.runID, err)
	}

	summary := &Summary{
		RunID:      r.runID,
		Tool:       r.tool.Name,
		Seed:       r.cfg.Seed,
		Trials:     r.cfg.Trials,
		Parameters: optimized,
		Results:    make(map[sim.Scenario]map[Mode]Stats, len(r.cfg.Scenarios)),
	}
	offset := 0
	for _, sc := range r.cfg.Scenarios {
		summary.Results[sc] = make(map[Mode]Stats, len(r.cfg.Modes))
		for _, m := range r.cfg.Modes {
			summary.Results[sc][m] = Aggregate(results[offset : offset+r.cfg.Trials])
			offset += r.cfg.Trials
		}
	}
	return &Report{Summary: summary, Trials: results, Metrics: metrics}, nil
}

// runTask runs one isolated trial.
func (r *Runner) runTask(base sim.Config, params sim.SchedulingParameters, t task) TrialResult {
	cfg := base
	cfg.Params = params.Clone()
	cfg.Scenario = t.scenario
	cfg.Adaptive = t.mode == ModeAdaptive
	cfg.Seed = sim.DeriveSeed(r.cfg.Seed, sim.TrialLabel(string(t.scenario), string(t.mode), t.index))

	out := TrialResult{Scenario: t.scenario, Mode: t.mode, Index: t.index, Seed: cfg.Seed}
	res, err := sim.RunTrial(cfg, r.template.Clone())
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"scenario": t.scenario,
			"mode":     t.mode,
			"trial":    t.index,
		}).Warnf("trial failed: %v", err)
		out.Failed = true
	}
	out.Makespan = res.Makespan
	out.Conflicts = res.Conflicts
	out.LoadBalance = res.LoadBalance
	out.Dropped = res.Dropped
	if r.cfg.KeepMoves && t.index == 0 && !out.Failed {
		out.Moves = res.Moves
	}
	return out
}
