package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalConflicts     int
	MeanDelay          float64
	MaxDelay           float64
	IdleCleanings      int
	CountCleanings     int
	CleaningTime       float64
	Disruptions        int
	DroppedWafers      int
	ConflictsPerModule map[string]int // module → conflicts on it
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ConflictsPerModule: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalConflicts = len(st.Conflicts)
	if len(st.Conflicts) > 0 {
		totalDelay := 0.0
		for _, c := range st.Conflicts {
			summary.ConflictsPerModule[c.Module]++
			totalDelay += c.Delay
			if c.Delay > summary.MaxDelay {
				summary.MaxDelay = c.Delay
			}
		}
		summary.MeanDelay = totalDelay / float64(len(st.Conflicts))
	}

	for _, c := range st.Cleanings {
		switch c.Reason {
		case CleaningIdle:
			summary.IdleCleanings++
		case CleaningWaferCount:
			summary.CountCleanings++
		}
		summary.CleaningTime += c.End - c.Start
	}

	summary.Disruptions = len(st.Disruptions)
	dropped := make(map[int]bool, len(st.Disruptions))
	for _, d := range st.Disruptions {
		dropped[d.Wafer] = true
	}
	summary.DroppedWafers = len(dropped)

	return summary
}
