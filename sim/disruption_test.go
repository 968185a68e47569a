package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario(t *testing.T) {
	tests := []struct {
		in      string
		want    Scenario
		wantErr bool
	}{
		{"", ScenarioNone, false},
		{"none", ScenarioNone, false},
		{"fault", ScenarioFault, false},
		{"time_variation", ScenarioTimeVariation, false},
		{"mixed", ScenarioMixed, false},
		{"Mixed", "", true},
		{"earthquake", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseScenario(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScenario_Capabilities(t *testing.T) {
	tests := []struct {
		s       Scenario
		faults  bool
		perturb bool
	}{
		{ScenarioNone, false, false},
		{ScenarioFault, true, false},
		{ScenarioTimeVariation, false, true},
		{ScenarioMixed, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.s), func(t *testing.T) {
			assert.Equal(t, tt.faults, tt.s.InjectsFaults())
			assert.Equal(t, tt.perturb, tt.s.PerturbsDurations())
		})
	}
	assert.Len(t, AllScenarios(), 4)
}

func TestDisruptionModel_None_NeverInjects(t *testing.T) {
	rm := NewResourceManager(newTestTopology(t), DefaultTransportSlack)
	d := NewDisruptionModel(ScenarioNone, NewPartitionedRNG(NewSimulationKey(1)))
	for i := 0; i < 1000; i++ {
		faulted, _, _ := d.InjectFault(rm, "PM1", 1, float64(i))
		require.False(t, faulted)
	}
	assert.Equal(t, 70.0, d.PerturbDuration(70))
}

func TestDisruptionModel_Fault_RateAndEffect(t *testing.T) {
	// GIVEN a fault scenario and releases spaced beyond the fault duration
	rm := NewResourceManager(newTestTopology(t), DefaultTransportSlack)
	d := NewDisruptionModel(ScenarioFault, NewPartitionedRNG(NewSimulationKey(42)))

	const n = 5000
	faults := 0
	for i := 0; i < n; i++ {
		now := float64(i) * 200
		rm.Module("PM1").Slot(1).Occupant = 9
		faulted, start, end := d.InjectFault(rm, "PM1", 1, now)
		if !faulted {
			continue
		}
		faults++
		// THEN the slot is blocked for FaultDuration from now and freed
		slot := rm.Module("PM1").Slot(1)
		assert.Equal(t, now, start)
		assert.Equal(t, now+FaultDuration, end)
		assert.Equal(t, end, slot.AvailableTime)
		assert.Equal(t, 0, slot.Occupant)
		assert.Equal(t, UsageFault, slot.Usage[len(slot.Usage)-1].Kind)
	}

	// THEN roughly 5% of releases fault
	rate := float64(faults) / n
	assert.InDelta(t, FaultProbability, rate, 0.015)
	assert.Empty(t, rm.CheckOverlaps())
}

func TestDisruptionModel_Fault_StartsAfterPendingWork(t *testing.T) {
	// GIVEN a slot already booked beyond the release time
	rm := NewResourceManager(newTestTopology(t), DefaultTransportSlack)
	rm.Acquire("LLA", 1, 1, 3, 0, 15)
	rm.Acquire("LLA", 1, 2, 3, 0, 15) // [15, 30)
	d := NewDisruptionModel(ScenarioMixed, NewPartitionedRNG(NewSimulationKey(3)))

	// WHEN faults are drawn at release time 15 until one fires
	for i := 0; i < 1000; i++ {
		if faulted, start, end := d.InjectFault(rm, "LLA", 1, 15); faulted {
			// THEN the fault is appended after the pending booking
			assert.Equal(t, 30.0, start)
			assert.Equal(t, 130.0, end)
			assert.Empty(t, rm.CheckOverlaps())
			return
		}
	}
	t.Fatal("no fault in 1000 draws")
}

func TestDisruptionModel_PerturbDuration_Bounded(t *testing.T) {
	d := NewDisruptionModel(ScenarioTimeVariation, NewPartitionedRNG(NewSimulationKey(5)))
	distinct := map[float64]bool{}
	for i := 0; i < 1000; i++ {
		got := d.PerturbDuration(100)
		assert.GreaterOrEqual(t, got, 90.0)
		assert.LessOrEqual(t, got, 110.0)
		distinct[got] = true
	}
	assert.Greater(t, len(distinct), 900)
}

func TestDisruptionModel_SameSeedSameDraws(t *testing.T) {
	a := NewDisruptionModel(ScenarioMixed, NewPartitionedRNG(NewSimulationKey(11)))
	b := NewDisruptionModel(ScenarioMixed, NewPartitionedRNG(NewSimulationKey(11)))
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.PerturbDuration(50), b.PerturbDuration(50))
	}
}
