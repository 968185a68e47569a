// Package optimize searches SchedulingParameters by simulated annealing over
// (w1, w2), scoring each candidate with one isolated simulation trial.
package optimize

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/wafer-sim/wafer-sim/sim"
)

// Config holds the annealing schedule.
type Config struct {
	Restarts           int        `yaml:"restarts"`
	Iterations         int        `yaml:"iterations"`
	InitialTemperature float64    `yaml:"initial_temperature"`
	CoolingRate        float64    `yaml:"cooling_rate"`
	StepSize           float64    `yaml:"step_size"`
	W1Range            [2]float64 `yaml:"w1_range"`
	W2Range            [2]float64 `yaml:"w2_range"`
	Objective          string     `yaml:"objective"`
	Seed               int64      `yaml:"seed"`
}

// DefaultConfig returns 5 restarts of 100 iterations, T0 = 1000, cooling 0.95.
func DefaultConfig() Config {
	return Config{
		Restarts:           5,
		Iterations:         100,
		InitialTemperature: 1000,
		CoolingRate:        0.95,
		StepSize:           0.05,
		W1Range:            [2]float64{0.4, 0.6},
		W2Range:            [2]float64{0.2, 0.4},
		Objective:          DefaultObjective,
	}
}

// Validate rejects schedules that cannot run.
func (c Config) Validate() error {
	if c.Restarts <= 0 || c.Iterations < 0 {
		return fmt.Errorf("restarts must be positive and iterations non-negative: %w", sim.ErrInvalidParameter)
	}
	if c.InitialTemperature <= 0 || c.CoolingRate <= 0 || c.CoolingRate > 1 {
		return fmt.Errorf("temperature %v / cooling %v out of range: %w", c.InitialTemperature, c.CoolingRate, sim.ErrInvalidParameter)
	}
	if c.W1Range[0] > c.W1Range[1] || c.W2Range[0] > c.W2Range[1] {
		return fmt.Errorf("weight ranges must be ordered: %w", sim.ErrInvalidParameter)
	}
	return nil
}

// Evaluation records one scored candidate.
type Evaluation struct {
	Restart     int
	Iteration   int // -1 for the restart's starting point
	W1          float64
	W2          float64
	Cost        float64
	Temperature float64
	Accepted    bool
}

// Outcome is the result of one search.
type Outcome struct {
	Best      sim.SchedulingParameters
	BestCost  float64
	Rejected  int // perturbations with a negative derived weight
	History   []Evaluation
	CostMean  float64 // over finite costs
	CostStd   float64
	Objective string
}

// Evaluations returns the number of simulation trials run.
func (o *Outcome) Evaluations() int { return len(o.History) }

// Annealer owns the single evolving best-parameters value; it is sequential
// and must not be shared between goroutines.
type Annealer struct {
	cfg       Config
	base      sim.Config
	template  *sim.ResourceManager
	objective *Objective
	rng       *rand.Rand
}

// NewAnnealer prepares a search. base supplies route, cleaning, wafer count
// and the parameter set whose preferences are kept; every evaluation clones
// template.
func NewAnnealer(cfg Config, base sim.Config, template *sim.ResourceManager) (*Annealer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	objective, err := CompileObjective(cfg.Objective)
	if err != nil {
		return nil, err
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)).ForSubsystem(sim.SubsystemOptimizer)
	return &Annealer{
		cfg:       cfg,
		base:      base,
		template:  template,
		objective: objective,
		rng:       rng,
	}, nil
}

// evaluate runs one isolated, non-adaptive, undisturbed trial.
func (a *Annealer) evaluate(params sim.SchedulingParameters) float64 {
	cfg := a.base
	cfg.Params = params
	cfg.Adaptive = false
	cfg.Scenario = sim.ScenarioNone
	cfg.Selection = nil
	cfg.Seed = a.rng.Int63()
	cfg.Trace.Level = ""

	res, err := sim.RunTrial(cfg, a.template.Clone())
	if err != nil {
		logrus.Warnf("optimizer trial failed (w1=%.4f w2=%.4f): %v", params.W1, params.W2, err)
		return math.Inf(1)
	}
	cost, err := a.objective.Evaluate(res)
	if err != nil {
		logrus.Warnf("objective %q failed: %v", a.objective, err)
		return math.Inf(1)
	}
	return cost
}

func (a *Annealer) uniform(lo, hi float64) float64 {
	return lo + a.rng.Float64()*(hi-lo)
}

// Optimize runs the restarts and returns the globally best parameters found.
// Temperature decays once per inner iteration and is not reset between restarts.
func (a *Annealer) Optimize(ctx context.Context) (*Outcome, error) {
	out := &Outcome{
		Best:      a.base.Params.Clone(),
		BestCost:  math.Inf(1),
		History:   make([]Evaluation, 0, a.cfg.Restarts*(a.cfg.Iterations+1)),
		Objective: a.objective.String(),
	}
	temperature := a.cfg.InitialTemperature

	for r := 0; r < a.cfg.Restarts; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := a.base.Params.WithWeights(a.uniform(a.cfg.W1Range[0], a.cfg.W1Range[1]), a.uniform(a.cfg.W2Range[0], a.cfg.W2Range[1]))
		if err := current.Validate(); err != nil {
			out.Rejected++
			continue
		}
		currentCost := a.evaluate(current)
		out.History = append(out.History, Evaluation{
			Restart: r, Iteration: -1, W1: current.W1, W2: current.W2,
			Cost: currentCost, Temperature: temperature, Accepted: true,
		})
		if currentCost < out.BestCost {
			out.Best, out.BestCost = current, currentCost
		}

		for i := 0; i < a.cfg.Iterations; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			candidate := current.WithWeights(
				current.W1+a.uniform(-a.cfg.StepSize, a.cfg.StepSize),
				current.W2+a.uniform(-a.cfg.StepSize, a.cfg.StepSize),
			)
			if err := candidate.Validate(); err != nil {
				out.Rejected++
				continue
			}

			cost := a.evaluate(candidate)
			delta := cost - currentCost
			accepted := delta < 0 || a.rng.Float64() < math.Exp(-delta/temperature)
			if accepted {
				current, currentCost = candidate, cost
			}
			if cost < out.BestCost {
				out.Best, out.BestCost = candidate, cost
			}
			out.History = append(out.History, Evaluation{
				Restart: r, Iteration: i, W1: candidate.W1, W2: candidate.W2,
				Cost: cost, Temperature: temperature, Accepted: accepted,
			})
			temperature *= a.cfg.CoolingRate
		}
		logrus.Debugf("restart %d done: best cost %.2f, temperature %.4f", r, out.BestCost, temperature)
	}

	finite := make([]float64, 0, len(out.History))
	for _, e := range out.History {
		if !math.IsInf(e.Cost, 0) && !math.IsNaN(e.Cost) {
			finite = append(finite, e.Cost)
		}
	}
	if len(finite) > 0 {
		out.CostMean = stat.Mean(finite, nil)
	}
	if len(finite) > 1 {
		out.CostStd = stat.StdDev(finite, nil)
	}
	return out, nil
}

// Optimize runs a search and falls back to base.Params when the search fails
// or finds no finite cost. The returned outcome is nil on failure.
func Optimize(ctx context.Context, cfg Config, base sim.Config, template *sim.ResourceManager) (sim.SchedulingParameters, *Outcome) {
	a, err := NewAnnealer(cfg, base, template)
	if err != nil {
		logrus.Warnf("optimizer disabled, using default parameters: %v", err)
		return base.Params.Clone(), nil
	}
	out, err := a.Optimize(ctx)
	if err != nil {
		logrus.Warnf("optimizer aborted, using default parameters: %v", err)
		return base.Params.Clone(), nil
	}
	if math.IsInf(out.BestCost, 0) || math.IsNaN(out.BestCost) {
		logrus.Warnf("optimizer found no finite cost, using default parameters")
		return base.Params.Clone(), out
	}
	logrus.Infof("optimized weights w1=%.4f w2=%.4f w3=%.4f (cost %.2f over %d trials, %d rejected)",
		out.Best.W1, out.Best.W2, out.Best.W3, out.BestCost, out.Evaluations(), out.Rejected)
	return out.Best, out
}
