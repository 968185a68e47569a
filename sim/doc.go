// Package sim provides the discrete-event scheduling engine for wafer flow
// through a multi-chamber cluster tool.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - route.go: Steps, categories and route expansion (what a wafer must do)
//   - resources.go: module/slot state, acquisition and the occupancy invariant
//   - simulator.go: the event loop tying selection, cleaning and disruption together
//
// # Architecture
//
// A trial is one call to RunTrial. Everything a trial mutates (ResourceManager,
// selection cache, move counter, RNG streams, trace) is constructed for that
// trial and never shared, so trials can run concurrently without locks.
// Sub-packages build on top of the engine:
//   - sim/trace/: conflict, cleaning and disruption records
//   - sim/optimize/: simulated-annealing search over SchedulingParameters
//   - sim/experiment/: scenario x mode fan-out and aggregation
//
// # Key Interfaces
//
//   - SelectionPolicy: choose (module, slot) for a wafer's next step
//
// Tool definitions (topology, route, cleaning thresholds, default parameters)
// are YAML; two profiles are embedded, see LoadProfile.
package sim
