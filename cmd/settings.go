package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wafer-sim/wafer-sim/sim"
)

// envPrefix scopes environment overrides, e.g. WAFERSIM_TRIALS=20.
const envPrefix = "WAFERSIM"

// Settings are the resolved run options. Precedence, highest first: explicit
// flag, WAFERSIM_* environment variable, --config file, flag default.
type Settings struct {
	Log     string `mapstructure:"log"`
	Profile string `mapstructure:"profile"`
	Tool    string `mapstructure:"tool"`
	Seed    int64  `mapstructure:"seed"`
	Wafers  int    `mapstructure:"wafers"`

	// run
	Scenario string `mapstructure:"scenario"`
	Adaptive bool   `mapstructure:"adaptive"`
	Moves    string `mapstructure:"moves"`
	Trace    string `mapstructure:"trace"`

	// optimize and experiment
	Restarts   int    `mapstructure:"restarts"`
	Iterations int    `mapstructure:"iterations"`
	Objective  string `mapstructure:"objective"`

	// experiment
	Trials       int      `mapstructure:"trials"`
	Workers      int      `mapstructure:"workers"`
	Scenarios    []string `mapstructure:"scenarios"`
	Modes        []string `mapstructure:"modes"`
	Out          string   `mapstructure:"out"`
	MovesPrefix  string   `mapstructure:"moves-prefix"`
	MetricsFile  string   `mapstructure:"metrics-file"`
	SkipOptimize bool     `mapstructure:"skip-optimize"`
}

// loadSettings binds the command's parsed flags, the environment and the
// optional config file into Settings.
func loadSettings(cmd *cobra.Command) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		configPath = v.GetString("config")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configPath, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return &s, nil
}

// loadTool resolves --tool (a YAML file) or --profile (a built-in definition).
func (s *Settings) loadTool() (*sim.ToolConfig, error) {
	if s.Tool != "" {
		return sim.LoadToolConfig(s.Tool)
	}
	return sim.LoadProfile(s.Profile)
}
