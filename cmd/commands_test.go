package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wafer-sim/wafer-sim/sim"
	"github.com/wafer-sim/wafer-sim/sim/experiment"
)

// execute runs args against a fresh command tree and returns stdout.
func execute(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestRunCommand_PrintsReportAndWritesMoves(t *testing.T) {
	// GIVEN a short group-route trial with a move list output
	movesPath := filepath.Join(t.TempDir(), "moves.json")

	// WHEN the run command executes
	out := execute(t, "run", "--wafers", "4", "--seed", "3", "--moves", movesPath)

	// THEN the report is printed
	assert.Contains(t, out, "=== Simulation Result ===")
	assert.Contains(t, out, "Slot Overlaps     : 0")

	// AND the move list file decodes with strictly increasing ids
	data, err := os.ReadFile(movesPath)
	require.NoError(t, err)
	var file experiment.MoveListFile
	require.NoError(t, json.Unmarshal(data, &file))
	require.NotEmpty(t, file.MoveList)
	for i := 1; i < len(file.MoveList); i++ {
		assert.Greater(t, file.MoveList[i].MoveID, file.MoveList[i-1].MoveID)
	}
}

func TestRunCommand_SameSeedSameReport(t *testing.T) {
	a := execute(t, "run", "--wafers", "3", "--scenario", "mixed", "--adaptive")
	b := execute(t, "run", "--wafers", "3", "--scenario", "mixed", "--adaptive")
	assert.Equal(t, a, b)
}

func TestOptimizeCommand_PrintsParametersYAML(t *testing.T) {
	out := execute(t, "optimize", "--wafers", "3", "--restarts", "1", "--iterations", "2")

	assert.True(t, strings.HasPrefix(out, "# objective: makespan\n"), "got %q", out)
	assert.Contains(t, out, "w1: ")
	assert.Contains(t, out, "w2: ")
	assert.Contains(t, out, "module_preference:")
}

func TestOptimizeCommand_FallsBackToToolParameters(t *testing.T) {
	tool, err := sim.LoadProfile("group-route")
	require.NoError(t, err)

	tests := []struct {
		name   string
		args   []string
		cancel bool
	}{
		{name: "objective does not compile", args: []string{"--objective", "makespan +"}},
		{name: "search cancelled", cancel: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// GIVEN a search that cannot produce a result
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tc.cancel {
				cancel()
			}
			root := newRootCmd()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs(append([]string{"optimize", "--wafers", "3", "--restarts", "1", "--iterations", "2"}, tc.args...))

			// WHEN the command runs
			require.NoError(t, root.ExecuteContext(ctx))

			// THEN it prints the tool's parameters instead of exiting
			assert.Contains(t, out.String(), "# search failed, using default parameters")
			var got sim.SchedulingParameters
			require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
			assert.Equal(t, tool.Parameters.W1, got.W1)
			assert.Equal(t, tool.Parameters.W2, got.W2)
			assert.Equal(t, tool.Parameters.W3, got.W3)
			assert.Equal(t, tool.Parameters.TimeWindow, got.TimeWindow)
		})
	}
}

func TestExperimentCommand_WritesSummaryMovesAndMetrics(t *testing.T) {
	// GIVEN a two-trial experiment over two scenarios and two modes
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "metrics.prom")

	// WHEN it runs with an output directory and a metrics file
	out := execute(t, "experiment",
		"--wafers", "3",
		"--trials", "2",
		"--workers", "2",
		"--scenarios", "none,fault",
		"--modes", "baseline,adaptive",
		"--skip-optimize",
		"--out", dir,
		"--metrics-file", metricsPath,
	)

	// THEN stdout carries the summary table
	var summary experiment.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "group-route", summary.Tool)
	assert.NotEmpty(t, summary.RunID)
	for _, sc := range []sim.Scenario{sim.ScenarioNone, sim.ScenarioFault} {
		for _, m := range []experiment.Mode{experiment.ModeBaseline, experiment.ModeAdaptive} {
			st, ok := summary.Get(sc, m)
			require.True(t, ok, "%s/%s missing", sc, m)
			assert.Equal(t, 2, st.Trials)
			assert.Greater(t, st.MakespanMean, 0.0)

			// AND each combination has its move list
			assert.FileExists(t, experiment.MoveListPath(dir, "movelist", sc, m))
		}
	}
	_, ok := summary.Get(sim.ScenarioMixed, experiment.ModeBaseline)
	assert.False(t, ok)

	// AND the summary and metrics files exist
	assert.FileExists(t, filepath.Join(dir, "summary.json"))
	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "wafersim_trials_total")
}

func TestExperimentConfig_RejectsUnknownNames(t *testing.T) {
	tests := []struct {
		name string
		s    Settings
	}{
		{"scenario", Settings{Trials: 1, Scenarios: []string{"earthquake"}}},
		{"mode", Settings{Trials: 1, Modes: []string{"greedy"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := experimentConfig(&tc.s)
			assert.ErrorIs(t, err, sim.ErrInvalidParameter)
		})
	}
}
