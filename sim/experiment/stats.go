package experiment

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wafer-sim/wafer-sim/sim"
)

// Stats aggregates the trials of one scenario/mode combination.
type Stats struct {
	Trials          int     `json:"trials"`
	Failed          int     `json:"failed"`
	MakespanMean    float64 `json:"makespan_mean"`
	MakespanStd     float64 `json:"makespan_std"`
	ConflictsMean   float64 `json:"conflicts_mean"`
	LoadBalanceMean float64 `json:"load_balance_mean"`
	DroppedMean     float64 `json:"dropped_mean"`
}

// Aggregate computes Stats. Makespan moments use finite makespans only, with
// the sample standard deviation (zero for fewer than two values); the other
// means include failed trials at their sentinel zero values.
func Aggregate(trials []TrialResult) Stats {
	s := Stats{Trials: len(trials)}
	if len(trials) == 0 {
		return s
	}
	makespans := make([]float64, 0, len(trials))
	conflicts := make([]float64, len(trials))
	loads := make([]float64, len(trials))
	dropped := make([]float64, len(trials))
	for i, tr := range trials {
		if tr.Failed || math.IsInf(tr.Makespan, 0) {
			s.Failed++
		} else {
			makespans = append(makespans, tr.Makespan)
		}
		conflicts[i] = float64(tr.Conflicts)
		loads[i] = float64(tr.LoadBalance)
		dropped[i] = float64(tr.Dropped)
	}
	switch len(makespans) {
	case 0:
		// every trial failed; moments stay zero so the summary encodes as JSON
	case 1:
		s.MakespanMean = makespans[0]
	default:
		s.MakespanMean, s.MakespanStd = stat.MeanStdDev(makespans, nil)
	}
	s.ConflictsMean = stat.Mean(conflicts, nil)
	s.LoadBalanceMean = stat.Mean(loads, nil)
	s.DroppedMean = stat.Mean(dropped, nil)
	return s
}

// Summary is the scenario → mode → Stats table handed to reporting.
type Summary struct {
	RunID      string                          `json:"run_id"`
	Tool       string                          `json:"tool"`
	Seed       int64                           `json:"seed"`
	Trials     int                             `json:"trials_per_combination"`
	Parameters sim.SchedulingParameters        `json:"optimized_parameters"`
	Results    map[sim.Scenario]map[Mode]Stats `json:"results"`
}

// Get returns the stats of one combination.
func (s *Summary) Get(scenario sim.Scenario, mode Mode) (Stats, bool) {
	byMode, ok := s.Results[scenario]
	if !ok {
		return Stats{}, false
	}
	st, ok := byMode[mode]
	return st, ok
}
