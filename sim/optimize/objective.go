package optimize

import (
	"fmt"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"

	"github.com/wafer-sim/wafer-sim/sim"
)

// DefaultObjective minimizes makespan alone.
const DefaultObjective = "makespan"

// Objective turns a trial result into the scalar cost the annealer minimizes.
// The expression sees makespan, conflicts, load_balance and dropped, e.g.
// "makespan + 5 * conflicts".
type Objective struct {
	source  string
	program *vm.Program
}

func objectiveEnv(res *sim.Result) map[string]any {
	return map[string]any{
		"makespan":     res.Makespan,
		"conflicts":    float64(res.Conflicts),
		"load_balance": float64(res.LoadBalance),
		"dropped":      float64(res.Dropped),
	}
}

// CompileObjective type-checks an objective expression. Empty means DefaultObjective.
func CompileObjective(source string) (*Objective, error) {
	if source == "" {
		source = DefaultObjective
	}
	program, err := expr.Compile(source, expr.Env(objectiveEnv(&sim.Result{})), expr.AsFloat64())
	if err != nil {
		return nil, fmt.Errorf("objective compilation failed: %w", err)
	}
	return &Objective{source: source, program: program}, nil
}

// Evaluate computes the cost of a result.
func (o *Objective) Evaluate(res *sim.Result) (float64, error) {
	out, err := expr.Run(o.program, objectiveEnv(res))
	if err != nil {
		return 0, fmt.Errorf("objective execution failed: %w", err)
	}
	cost, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("objective result %v is not a number", out)
	}
	return cost, nil
}

// String returns the source expression.
func (o *Objective) String() string { return o.source }
