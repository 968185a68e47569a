package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wafer-sim/wafer-sim/sim"
	"github.com/wafer-sim/wafer-sim/sim/experiment"
	"github.com/wafer-sim/wafer-sim/sim/trace"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single trial and print its report",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := loadSettings(cmd)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			if err := runTrial(cmd.OutOrStdout(), s); err != nil {
				logrus.Fatalf("%v", err)
			}
		},
	}
	cmd.Flags().String("scenario", "none", "Disruption scenario (none, fault, time_variation, mixed)")
	cmd.Flags().Bool("adaptive", false, "Use adaptive slot selection instead of random")
	cmd.Flags().String("moves", "", "Write the move list as JSON to this file")
	cmd.Flags().String("trace", string(trace.TraceLevelEvents), "Trace level (none, events)")
	return cmd
}

// simulationConfig resolves the trial config a command runs with.
func simulationConfig(s *Settings, tool *sim.ToolConfig) sim.Config {
	cfg := tool.SimulationConfig(s.Seed)
	if s.Wafers > 0 {
		cfg.Wafers = s.Wafers
	}
	return cfg
}

func runTrial(out io.Writer, s *Settings) error {
	tool, err := s.loadTool()
	if err != nil {
		return err
	}
	scenario, err := sim.ParseScenario(s.Scenario)
	if err != nil {
		return err
	}
	if !trace.IsValidTraceLevel(s.Trace) {
		return fmt.Errorf("unknown trace level %q: %w", s.Trace, sim.ErrInvalidParameter)
	}

	cfg := simulationConfig(s, tool)
	cfg.Scenario = scenario
	cfg.Adaptive = s.Adaptive
	cfg.Trace = trace.TraceConfig{Level: trace.TraceLevel(s.Trace)}

	logrus.WithFields(logrus.Fields{
		"tool":     tool.Name,
		"modules":  len(tool.Topology().Modules()),
		"steps":    len(cfg.Route),
		"wafers":   cfg.Wafers,
		"scenario": scenario,
		"adaptive": s.Adaptive,
		"seed":     s.Seed,
	}).Info("starting trial")

	res, err := sim.RunTrial(cfg, tool.NewResourceManager())
	if err != nil {
		return err
	}
	res.Print(out)

	if err := res.Validate(cfg.Route); err != nil {
		logrus.Errorf("schedule check failed: %v", err)
	} else {
		logrus.Info("schedule check passed")
	}

	if s.Moves != "" {
		if err := experiment.WriteMoveList(s.Moves, res.Moves); err != nil {
			return err
		}
		logrus.Infof("wrote %d moves to %s", len(res.Moves), s.Moves)
	}
	return nil
}
