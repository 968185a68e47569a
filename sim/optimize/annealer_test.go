package optimize

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wafer-sim/wafer-sim/sim"
)

func smallSearch(t *testing.T) (Config, sim.Config, *sim.ResourceManager) {
	t.Helper()
	tc, err := sim.LoadProfile("group-route")
	require.NoError(t, err)
	base := tc.SimulationConfig(0)
	base.Wafers = 8

	cfg := DefaultConfig()
	cfg.Restarts = 2
	cfg.Iterations = 10
	cfg.Seed = 99
	return cfg, base, tc.NewResourceManager()
}

func TestAnnealer_FindsBestOfHistory(t *testing.T) {
	// GIVEN a short search
	cfg, base, template := smallSearch(t)
	a, err := NewAnnealer(cfg, base, template)
	require.NoError(t, err)

	// WHEN run
	out, err := a.Optimize(context.Background())
	require.NoError(t, err)

	// THEN the best cost is the minimum over every evaluation
	require.NotEmpty(t, out.History)
	minCost := math.Inf(1)
	for _, e := range out.History {
		minCost = math.Min(minCost, e.Cost)
	}
	assert.Equal(t, minCost, out.BestCost)
	assert.False(t, math.IsInf(out.BestCost, 0))
	assert.NoError(t, out.Best.Validate())
	assert.InDelta(t, 1.0, out.Best.W1+out.Best.W2+out.Best.W3, 1e-9)

	// THEN every restart contributes its start point plus the non-rejected iterations
	assert.Equal(t, cfg.Restarts*(cfg.Iterations+1)-out.Rejected, out.Evaluations())
	assert.Greater(t, out.CostMean, 0.0)

	// THEN the template was never touched
	for _, ms := range template.Modules() {
		for _, s := range ms.Slots {
			assert.Empty(t, s.Usage)
		}
	}
}

func TestAnnealer_TemperatureDecaysAcrossRestarts(t *testing.T) {
	cfg, base, template := smallSearch(t)
	a, err := NewAnnealer(cfg, base, template)
	require.NoError(t, err)
	out, err := a.Optimize(context.Background())
	require.NoError(t, err)

	// Temperatures never increase, including at the second restart's start.
	prev := math.Inf(1)
	for _, e := range out.History {
		assert.LessOrEqual(t, e.Temperature, prev)
		prev = e.Temperature
	}
	assert.Less(t, out.History[len(out.History)-1].Temperature, cfg.InitialTemperature)
}

func TestAnnealer_Deterministic(t *testing.T) {
	cfg, base, template := smallSearch(t)
	a1, err := NewAnnealer(cfg, base, template)
	require.NoError(t, err)
	a2, err := NewAnnealer(cfg, base, template)
	require.NoError(t, err)

	o1, err := a1.Optimize(context.Background())
	require.NoError(t, err)
	o2, err := a2.Optimize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, o1.History, o2.History)
	assert.Equal(t, o1.Best, o2.Best)
}

func TestAnnealer_KeepsPreferences(t *testing.T) {
	cfg, base, template := smallSearch(t)
	base.Params.ModulePreference["PM7"] = 0.8
	a, err := NewAnnealer(cfg, base, template)
	require.NoError(t, err)
	out, err := a.Optimize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.8, out.Best.ModulePreference["PM7"])
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no restarts", func(c *Config) { c.Restarts = 0 }},
		{"negative iterations", func(c *Config) { c.Iterations = -1 }},
		{"zero temperature", func(c *Config) { c.InitialTemperature = 0 }},
		{"heating", func(c *Config) { c.CoolingRate = 1.5 }},
		{"inverted range", func(c *Config) { c.W1Range = [2]float64{0.6, 0.4} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), sim.ErrInvalidParameter)
		})
	}
}

func TestOptimize_FallsBackToDefaults(t *testing.T) {
	cfg, base, template := smallSearch(t)

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		params, out := Optimize(ctx, cfg, base, template)
		assert.Nil(t, out)
		assert.Equal(t, base.Params, params)
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := cfg
		bad.Objective = "nonsense +"
		params, out := Optimize(context.Background(), bad, base, template)
		assert.Nil(t, out)
		assert.Equal(t, base.Params, params)
	})

	t.Run("success", func(t *testing.T) {
		params, out := Optimize(context.Background(), cfg, base, template)
		require.NotNil(t, out)
		assert.Equal(t, out.Best, params)
	})
}
