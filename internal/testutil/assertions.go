package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MahdiBaghbani/containers-sub001/internal/orchestrator"
)

// FindOutcome returns the outcome for the node with the given key, failing
// the test when the summary does not contain it.
func FindOutcome(t *testing.T, s *orchestrator.Summary, key string) orchestrator.Outcome {
	t.Helper()
	require.NotNil(t, s, "no summary was produced")
	for _, o := range s.Outcomes {
		if o.Node.Key() == key {
			return o
		}
	}
	require.Failf(t, "node missing from summary", "no outcome for node %q", key)
	return orchestrator.Outcome{}
}

// AssertOutcome checks the terminal status of one node in the run summary.
func AssertOutcome(t *testing.T, s *orchestrator.Summary, key string, want orchestrator.Status) {
	t.Helper()
	o := FindOutcome(t, s, key)
	require.Equalf(t, want, o.Status, "node %q ended %s (reason: %s), want %s", key, o.Status, o.Reason, want)
}
