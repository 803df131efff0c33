// Package dag builds the version- and platform-aware dependency graph of a
// build run: node identity, dependency resolution, recursive graph
// expansion, cycle detection, and the deterministic topological sort that
// yields the build order.
//
// The graph itself is passive data. Walking the order and invoking builds
// is the job of the `orchestrator` package.
package dag
