package cmd

import (
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wafer-sim/wafer-sim/sim/optimize"
)

func newOptimizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search scheduling weights with simulated annealing",
		Long: "Search w1/w2 with simulated annealing against the no-disruption scenario " +
			"and print the best parameters as YAML, ready for a tool definition's parameters block.",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := loadSettings(cmd)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			if err := runOptimize(cmd, cmd.OutOrStdout(), s); err != nil {
				logrus.Fatalf("%v", err)
			}
		},
	}
	addSearchFlags(cmd.Flags())
	return cmd
}

// optimizerConfig overlays the search flags on the annealer defaults.
func optimizerConfig(s *Settings) optimize.Config {
	cfg := optimize.DefaultConfig()
	cfg.Restarts = s.Restarts
	cfg.Iterations = s.Iterations
	cfg.Objective = s.Objective
	cfg.Seed = s.Seed
	return cfg
}

// runOptimize prints the best parameters found, or the tool's own parameters
// when the search cannot run or finds no finite cost.
func runOptimize(cmd *cobra.Command, out io.Writer, s *Settings) error {
	tool, err := s.loadTool()
	if err != nil {
		return err
	}
	cfg := optimizerConfig(s)
	params, outcome := optimize.Optimize(cmd.Context(), cfg, simulationConfig(s, tool), tool.NewResourceManager())

	data, err := yaml.Marshal(params)
	if err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}
	fmt.Fprintf(out, "# objective: %s\n", cfg.Objective)
	if outcome == nil || math.IsInf(outcome.BestCost, 0) {
		fmt.Fprintln(out, "# search failed, using default parameters")
	} else {
		logrus.WithFields(logrus.Fields{
			"evaluations": outcome.Evaluations(),
			"rejected":    outcome.Rejected,
			"cost_mean":   outcome.CostMean,
			"cost_std":    outcome.CostStd,
		}).Info("search finished")
		fmt.Fprintf(out, "# best cost: %.2f\n", outcome.BestCost)
	}
	_, err = out.Write(data)
	return err
}
