package sim

import "fmt"

// ModuleKind classifies a chamber. Only process modules are cleaned; only
// transport modules are subject to hand-off pacing.
type ModuleKind string

const (
	KindLoadPort  ModuleKind = "loadport"
	KindLoadLock  ModuleKind = "loadlock"
	KindTransport ModuleKind = "transport"
	KindAligner   ModuleKind = "aligner"
	KindProcess   ModuleKind = "process"
)

var validKinds = map[ModuleKind]bool{
	KindLoadPort:  true,
	KindLoadLock:  true,
	KindTransport: true,
	KindAligner:   true,
	KindProcess:   true,
}

// ModuleSpec is the static description of one module.
type ModuleSpec struct {
	Name     string     `yaml:"name"`
	Kind     ModuleKind `yaml:"kind"`
	Slots    int        `yaml:"slots"`
	Duration float64    `yaml:"duration"`  // default step duration on this module
	MoveType MoveType   `yaml:"move_type"` // single-action code when the step has none
}

// IsProcess reports whether the module is a process chamber.
func (m *ModuleSpec) IsProcess() bool { return m.Kind == KindProcess }

// IsTransport reports whether the module is a transfer robot.
func (m *ModuleSpec) IsTransport() bool { return m.Kind == KindTransport }

// Topology is the ordered, validated module table of a tool.
type Topology struct {
	modules []ModuleSpec
	index   map[string]int
}

// NewTopology validates module specs and indexes them by name.
func NewTopology(specs []ModuleSpec) (*Topology, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("topology has no modules: %w", ErrInvalidParameter)
	}
	t := &Topology{
		modules: make([]ModuleSpec, len(specs)),
		index:   make(map[string]int, len(specs)),
	}
	for i, m := range specs {
		if m.Name == "" {
			return nil, fmt.Errorf("module %d has no name: %w", i, ErrInvalidParameter)
		}
		if _, dup := t.index[m.Name]; dup {
			return nil, fmt.Errorf("duplicate module %q: %w", m.Name, ErrInvalidParameter)
		}
		if !validKinds[m.Kind] {
			return nil, fmt.Errorf("module %q has unknown kind %q: %w", m.Name, m.Kind, ErrInvalidParameter)
		}
		if m.Slots != 1 && m.Slots != 2 {
			return nil, fmt.Errorf("module %q must have 1 or 2 slots, got %d: %w", m.Name, m.Slots, ErrInvalidParameter)
		}
		if m.Duration < 0 {
			return nil, fmt.Errorf("module %q has negative duration: %w", m.Name, ErrInvalidParameter)
		}
		t.modules[i] = m
		t.index[m.Name] = i
	}
	return t, nil
}

// Module looks up a module spec by name.
func (t *Topology) Module(name string) (*ModuleSpec, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return &t.modules[i], true
}

// Modules returns the module specs in definition order.
func (t *Topology) Modules() []ModuleSpec {
	out := make([]ModuleSpec, len(t.modules))
	copy(out, t.modules)
	return out
}
