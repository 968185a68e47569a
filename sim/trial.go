package sim

import (
	"github.com/sirupsen/logrus"
)

// RunTrial builds a simulator over rm and runs it to completion. Any panic
// inside the trial, including resource-invariant violations, is converted into
// a *SimulationFailure together with FailedResult, so one bad trial never
// aborts a batch. Invalid configs return FailedResult and the validation error.
func RunTrial(cfg Config, rm *ResourceManager) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"scenario": cfg.Scenario,
				"adaptive": cfg.Adaptive,
				"seed":     cfg.Seed,
			}).Errorf("trial aborted: %v", r)
			res = FailedResult()
			err = &SimulationFailure{Scenario: cfg.Scenario, Adaptive: cfg.Adaptive, Cause: r}
		}
	}()

	s, err := NewSimulator(cfg, rm)
	if err != nil {
		return FailedResult(), err
	}
	return s.Run(), nil
}
