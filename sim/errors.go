package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter marks scheduling parameters or tool definitions that
// cannot be simulated (negative derived weight, unknown module, empty route).
var ErrInvalidParameter = errors.New("invalid parameter")

// SimulationFailure reports a trial that aborted unexpectedly. RunTrial returns
// it together with the sentinel FailedResult.
type SimulationFailure struct {
	Scenario Scenario
	Adaptive bool
	Cause    any
}

func (e *SimulationFailure) Error() string {
	return fmt.Sprintf("simulation failed (scenario=%s, adaptive=%t): %v", e.Scenario, e.Adaptive, e.Cause)
}

// Unwrap exposes the underlying error when the trial failed with one.
func (e *SimulationFailure) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}
