// Package builder abstracts the container build backend behind a small
// interface so the orchestrator can run against the real Docker CLI, a dry-run
// backend, or a test fake without changing its logic.
//
// Backends register themselves by name; New resolves a name to a configured
// backend. The docker backend shells out to `docker buildx`, the noop backend
// records what it would have done.
package builder
