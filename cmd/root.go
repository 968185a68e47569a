package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// rootCmd is the base command for the CLI
var rootCmd = newRootCmd()

// newRootCmd builds the command tree. Tests build a fresh tree per case so
// parsed flag values never leak between them.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wafer-sim",
		Short: "Discrete-event scheduling simulator for wafer cluster tools",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log")
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				logrus.Fatalf("Invalid log level: %s", logLevel)
			}
			logrus.SetLevel(level)
		},
	}

	pf := root.PersistentFlags()
	pf.String("log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	pf.String("profile", "group-route", "Built-in tool definition (fixed-route, group-route)")
	pf.String("tool", "", "Path to a tool definition YAML; overrides --profile")
	pf.Int64("seed", 42, "Master seed for selection, disruption and optimizer streams")
	pf.Int("wafers", 0, "Number of wafers (0 = the tool's default)")
	pf.String("config", "", "Optional YAML file with settings (keys match flag names)")

	root.AddCommand(newRunCmd(), newOptimizeCmd(), newExperimentCmd())
	return root
}

// addSearchFlags registers the annealing flags shared by optimize and experiment.
func addSearchFlags(f *pflag.FlagSet) {
	f.Int("restarts", 5, "Simulated-annealing restarts")
	f.Int("iterations", 100, "Iterations per restart")
	f.String("objective", "makespan", "Cost expression over makespan, conflicts, load_balance, dropped")
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
