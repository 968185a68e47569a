package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wafer-sim/wafer-sim/sim"
	"github.com/wafer-sim/wafer-sim/sim/experiment"
)

func newExperimentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Compare baseline, static and adaptive scheduling across disruption scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			s, err := loadSettings(cmd)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			if err := runExperiment(cmd, cmd.OutOrStdout(), s); err != nil {
				logrus.Fatalf("%v", err)
			}
		},
	}
	f := cmd.Flags()
	f.Int("trials", 50, "Trials per scenario/mode combination")
	f.Int("workers", 0, "Concurrent trials (0 = GOMAXPROCS)")
	f.StringSlice("scenarios", nil, "Scenarios to run (default: all)")
	f.StringSlice("modes", nil, "Modes to run: baseline, static, adaptive (default: all)")
	f.String("out", "", "Directory for the summary and per-combination move lists")
	f.String("moves-prefix", "movelist", "File name prefix for move lists")
	f.String("metrics-file", "", "Write Prometheus metrics in text format to this file")
	f.Bool("skip-optimize", false, "Use the tool's parameters for every mode")
	addSearchFlags(cmd.Flags())
	return cmd
}

func experimentConfig(s *Settings) (experiment.Config, error) {
	cfg := experiment.Config{
		Trials:       s.Trials,
		Workers:      s.Workers,
		Seed:         s.Seed,
		Wafers:       s.Wafers,
		Optimizer:    optimizerConfig(s),
		SkipOptimize: s.SkipOptimize,
		KeepMoves:    s.Out != "",
	}
	for _, name := range s.Scenarios {
		sc, err := sim.ParseScenario(name)
		if err != nil {
			return cfg, err
		}
		cfg.Scenarios = append(cfg.Scenarios, sc)
	}
	for _, name := range s.Modes {
		m, err := experiment.ParseMode(name)
		if err != nil {
			return cfg, err
		}
		cfg.Modes = append(cfg.Modes, m)
	}
	return cfg, nil
}

func runExperiment(cmd *cobra.Command, out io.Writer, s *Settings) error {
	tool, err := s.loadTool()
	if err != nil {
		return err
	}
	cfg, err := experimentConfig(s)
	if err != nil {
		return err
	}
	runner, err := experiment.NewRunner(cfg, tool)
	if err != nil {
		return err
	}
	report, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(report.Summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	if _, err := fmt.Fprintln(out, string(data)); err != nil {
		return err
	}

	if s.Out != "" {
		paths, err := experiment.WriteMoveLists(s.Out, s.MovesPrefix, report)
		if err != nil {
			return err
		}
		summaryPath := filepath.Join(s.Out, "summary.json")
		if err := os.WriteFile(summaryPath, data, 0644); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		logrus.Infof("wrote summary and %d move lists to %s", len(paths), s.Out)
	}
	if s.MetricsFile != "" {
		if err := report.Metrics.WriteTextfile(s.MetricsFile); err != nil {
			return err
		}
		logrus.Infof("wrote metrics to %s", s.MetricsFile)
	}
	return nil
}
