package orchestrator

import (
	"fmt"
	"time"

	"github.com/MahdiBaghbani/containers-sub001/internal/dag"
)

// Status is the lifecycle state of one node within a run.
type Status string

const (
	StatusPending Status = "pending"
	StatusSkipped Status = "skipped"
	StatusBuilt   Status = "built"
	StatusFailed  Status = "failed"
)

// Outcome records the terminal state of one node.
type Outcome struct {
	Node     dag.Node      `json:"node"`
	Status   Status        `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// Summary is the result of a run. Outcomes follow the build order.
type Summary struct {
	RunID    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Outcomes []Outcome     `json:"outcomes"`
	Built    int           `json:"built"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Pending  int           `json:"pending"`
}

// Success reports whether every node ended built or skipped.
func (s *Summary) Success() bool {
	return s.Failed == 0 && s.Pending == 0
}

// DepCacheMode controls how dependency freshness is judged.
type DepCacheMode string

const (
	// DepCacheOff rebuilds every dependency unconditionally.
	DepCacheOff DepCacheMode = "off"
	// DepCacheSoft skips fresh dependencies and rebuilds stale ones with a
	// warning.
	DepCacheSoft DepCacheMode = "soft"
	// DepCacheStrict aborts the run when a dependency is stale.
	DepCacheStrict DepCacheMode = "strict"
)

func ParseDepCacheMode(s string) (DepCacheMode, error) {
	switch DepCacheMode(s) {
	case DepCacheOff, DepCacheSoft, DepCacheStrict:
		return DepCacheMode(s), nil
	}
	return "", fmt.Errorf("invalid dep-cache mode %q, expected off, soft, or strict", s)
}

// StaleDependencyError reports a dependency whose image is missing or whose
// stored hash no longer matches the computed one, under strict dep-cache.
type StaleDependencyError struct {
	Node dag.Node
	Ref  string
	Want string
	Got  string
}

func (e *StaleDependencyError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("dependency %q is stale: image %s not available", e.Node.Key(), e.Ref)
	}
	return fmt.Sprintf("dependency %q is stale: %s carries hash %s, want %s", e.Node.Key(), e.Ref, e.Got, e.Want)
}
