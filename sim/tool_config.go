package sim

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var profileFS embed.FS

// DefaultTransportSlack is the hand-off pacing slack used when a tool file omits it.
const DefaultTransportSlack = 4.0

// ToolConfig is the YAML description of a cluster tool: topology, step table,
// route expansion, cleaning thresholds and default scheduling parameters.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type ToolConfig struct {
	Name           string                `yaml:"name"`
	Wafers         int                   `yaml:"wafers"`
	TransportSlack *float64              `yaml:"transport_slack"` // nil means DefaultTransportSlack
	Modules        []ModuleSpec          `yaml:"modules"`
	Steps          []*Step               `yaml:"steps"`
	Route          []RouteSegment        `yaml:"route"`
	Cleaning       *CleaningConfig       `yaml:"cleaning"` // nil means DefaultCleaningConfig
	Parameters     *SchedulingParameters `yaml:"parameters"`

	topology *Topology
	route    Route
}

// ParseToolConfig decodes and validates a tool definition.
func ParseToolConfig(data []byte) (*ToolConfig, error) {
	var tc ToolConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&tc); err != nil {
		return nil, fmt.Errorf("parsing tool YAML: %w", err)
	}
	if err := tc.init(); err != nil {
		return nil, fmt.Errorf("tool %q: %w", tc.Name, err)
	}
	return &tc, nil
}

// LoadToolConfig reads a tool definition from disk.
func LoadToolConfig(filePath string) (*ToolConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading tool file: %w", err)
	}
	return ParseToolConfig(data)
}

// LoadProfile loads one of the built-in tool definitions by name.
func LoadProfile(name string) (*ToolConfig, error) {
	data, err := profileFS.ReadFile(path.Join("profiles", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("unknown profile %q; valid: %s: %w", name, strings.Join(ProfileNames(), ", "), ErrInvalidParameter)
	}
	return ParseToolConfig(data)
}

// ProfileNames lists the built-in profiles in lexical order.
func ProfileNames() []string {
	entries, err := profileFS.ReadDir("profiles")
	if err != nil {
		panic(fmt.Sprintf("embedded profiles unreadable: %v", err))
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

func (tc *ToolConfig) init() error {
	if tc.Wafers <= 0 {
		return fmt.Errorf("wafers must be positive, got %d: %w", tc.Wafers, ErrInvalidParameter)
	}
	if tc.TransportSlack == nil {
		slack := DefaultTransportSlack
		tc.TransportSlack = &slack
	} else if *tc.TransportSlack < 0 {
		return fmt.Errorf("transport_slack must be non-negative: %w", ErrInvalidParameter)
	}
	if tc.Cleaning == nil {
		cleaning := DefaultCleaningConfig()
		tc.Cleaning = &cleaning
	} else if tc.Cleaning.Enabled && (tc.Cleaning.WaferCountThreshold <= 0 || tc.Cleaning.IdleThreshold <= 0) {
		return fmt.Errorf("cleaning thresholds must be positive: %w", ErrInvalidParameter)
	}
	if tc.Parameters == nil {
		params := DefaultParameters()
		tc.Parameters = &params
	}
	if err := tc.Parameters.Validate(); err != nil {
		return err
	}

	top, err := NewTopology(tc.Modules)
	if err != nil {
		return err
	}
	steps := make(map[int]*Step, len(tc.Steps))
	for _, s := range tc.Steps {
		if err := s.normalize(); err != nil {
			return err
		}
		if _, dup := steps[s.ID]; dup {
			return fmt.Errorf("duplicate step id %d: %w", s.ID, ErrInvalidParameter)
		}
		for _, c := range s.Candidates {
			if _, ok := top.Module(c); !ok {
				return fmt.Errorf("step %d references unknown module %q: %w", s.ID, c, ErrInvalidParameter)
			}
		}
		steps[s.ID] = s
	}
	route, err := ExpandRoute(steps, tc.Route)
	if err != nil {
		return err
	}
	tc.topology = top
	tc.route = route
	return nil
}

// Topology returns the validated module table.
func (tc *ToolConfig) Topology() *Topology { return tc.topology }

// ExpandedRoute returns the full step sequence every wafer executes.
func (tc *ToolConfig) ExpandedRoute() Route { return tc.route }

// NewResourceManager builds fresh per-trial resource state for this tool.
func (tc *ToolConfig) NewResourceManager() *ResourceManager {
	return NewResourceManager(tc.topology, *tc.TransportSlack)
}

// SimulationConfig returns a trial config with the tool's defaults: all
// wafers, default parameters, no disruption, random selection.
func (tc *ToolConfig) SimulationConfig(seed int64) Config {
	return Config{
		Route:    tc.route,
		Cleaning: *tc.Cleaning,
		Params:   tc.Parameters.Clone(),
		Scenario: ScenarioNone,
		Seed:     seed,
		Wafers:   tc.Wafers,
	}
}
