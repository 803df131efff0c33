// Package app wires the descriptor store, the build graph, the hash engine,
// and the orchestrator into the operations the CLI exposes. Each App owns an
// isolated logger and configuration; nothing in here mutates global state.
package app
