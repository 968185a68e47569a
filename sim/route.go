package sim

import (
	"fmt"
	"strconv"
)

// StepCategory determines how a step decomposes into moves.
type StepCategory string

const (
	CategoryShort    StepCategory = "short"    // single move with the step's own code
	CategoryPump     StepCategory = "pump"     // open, pump, close
	CategoryVent     StepCategory = "vent"     // open, vent, close
	CategoryAlign    StepCategory = "align"    // open, align, close
	CategoryProcess  StepCategory = "process"  // pick, transfer, place, open, process, close
	CategoryTransfer StepCategory = "transfer" // pick, transfer, place
)

// ShortActionThreshold is the duration below which a step without an explicit
// category is treated as a single short action.
const ShortActionThreshold = 3.0

var validCategories = map[StepCategory]bool{
	CategoryShort:    true,
	CategoryPump:     true,
	CategoryVent:     true,
	CategoryAlign:    true,
	CategoryProcess:  true,
	CategoryTransfer: true,
}

// Step is one stage of a wafer's route.
type Step struct {
	ID    int    `yaml:"id"`
	Label string `yaml:"label"` // used in MatID; defaults to the decimal ID
	// Duration in seconds. Zero means the chosen module's default duration.
	Duration   float64      `yaml:"duration"`
	Candidates []string     `yaml:"candidates"`
	Category   StepCategory `yaml:"category"`
	MoveType   MoveType     `yaml:"move_type"`
}

// DurationOn returns the nominal duration of the step on the given module.
func (s *Step) DurationOn(m *ModuleSpec) float64 {
	if s.Duration > 0 {
		return s.Duration
	}
	return m.Duration
}

// normalize fills the label and infers the category.
func (s *Step) normalize() error {
	if s.Label == "" {
		s.Label = strconv.Itoa(s.ID)
	}
	if len(s.Candidates) == 0 {
		return fmt.Errorf("step %d has no candidate modules: %w", s.ID, ErrInvalidParameter)
	}
	if s.Duration < 0 {
		return fmt.Errorf("step %d has negative duration %v: %w", s.ID, s.Duration, ErrInvalidParameter)
	}
	// Sub-threshold steps are always a single action, whatever their category says.
	switch {
	case s.Duration > 0 && s.Duration < ShortActionThreshold:
		s.Category = CategoryShort
	case s.Category == "":
		s.Category = CategoryTransfer
	}
	if !validCategories[s.Category] {
		return fmt.Errorf("step %d has unknown category %q: %w", s.ID, s.Category, ErrInvalidParameter)
	}
	return nil
}

// Route is the ordered sequence of steps a wafer executes. Steps are shared
// read-only between wafers and trials.
type Route []*Step

// IDs returns the step ids in route order.
func (r Route) IDs() []int {
	ids := make([]int, len(r))
	for i, s := range r {
		ids[i] = s.ID
	}
	return ids
}

// RouteSegment is one piece of a route definition: either the half-open
// id range [Range[0], Range[1]) or an explicit list of step ids, repeated
// Repeat times (zero means once).
type RouteSegment struct {
	Range  []int `yaml:"range"`
	Steps  []int `yaml:"steps"`
	Repeat int   `yaml:"repeat"`
}

// ExpandRoute resolves segments against the step table.
func ExpandRoute(steps map[int]*Step, segments []RouteSegment) (Route, error) {
	var route Route
	for i, seg := range segments {
		var ids []int
		switch {
		case len(seg.Range) > 0 && len(seg.Steps) > 0:
			return nil, fmt.Errorf("route segment %d sets both range and steps: %w", i, ErrInvalidParameter)
		case len(seg.Range) > 0:
			if len(seg.Range) != 2 || seg.Range[0] >= seg.Range[1] {
				return nil, fmt.Errorf("route segment %d has invalid range %v: %w", i, seg.Range, ErrInvalidParameter)
			}
			for id := seg.Range[0]; id < seg.Range[1]; id++ {
				ids = append(ids, id)
			}
		case len(seg.Steps) > 0:
			ids = seg.Steps
		default:
			return nil, fmt.Errorf("route segment %d is empty: %w", i, ErrInvalidParameter)
		}
		if seg.Repeat < 0 {
			return nil, fmt.Errorf("route segment %d has negative repeat: %w", i, ErrInvalidParameter)
		}
		repeat := max(seg.Repeat, 1)
		for r := 0; r < repeat; r++ {
			for _, id := range ids {
				step, ok := steps[id]
				if !ok {
					return nil, fmt.Errorf("route segment %d references unknown step %d: %w", i, id, ErrInvalidParameter)
				}
				route = append(route, step)
			}
		}
	}
	if len(route) == 0 {
		return nil, fmt.Errorf("route is empty: %w", ErrInvalidParameter)
	}
	return route, nil
}
