// Package orchestrator walks a sorted build graph and drives the image
// builder node by node. It decides, per node, whether to build or skip,
// cascades skips across dependents of failed nodes, and keeps a run summary
// that can be observed while the run is in flight.
//
// The engine is single-threaded on purpose: builds dominate wall time and
// docker parallelizes internally, so orchestration stays a simple worklist
// over the precomputed order. Cancellation is honored between nodes, never
// in the middle of one.
package orchestrator
