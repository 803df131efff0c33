package orchestrator

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MahdiBaghbani/containers-sub001/internal/builder"
	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
	"github.com/MahdiBaghbani/containers-sub001/internal/dag"
	"github.com/MahdiBaghbani/containers-sub001/internal/hashdef"
)

// RefResolver resolves a git (url, ref) pair to an immutable revision.
// Implemented by gitref.Cache.
type RefResolver interface {
	Resolve(ctx context.Context, url, ref string) (string, error)
}

// Options configure a run.
type Options struct {
	// Registry prefixes every image reference; empty means bare service
	// names.
	Registry string
	// DepCache selects the dependency freshness policy.
	DepCache DepCacheMode
	// FailFast stops scheduling new nodes after the first failure. It never
	// prevents the skip cascade.
	FailFast bool
	// Push and Load are passed through to the builder.
	Push bool
	Load bool
	// Remote judges dependency freshness by registry manifest presence
	// instead of local image labels.
	Remote bool
	// Platforms is the target platform list handed to the builder.
	Platforms []string
	// Targets are the explicitly requested nodes. Targets always build,
	// regardless of dep-cache state.
	Targets []dag.Node
	// ServiceDir maps a service name to its directory on disk.
	ServiceDir func(name string) string
}

// Runner executes one build run over a sorted graph.
type Runner struct {
	builder builder.Builder
	refs    RefResolver
	opts    Options
	targets map[dag.Node]bool

	mu      sync.Mutex
	summary Summary
}

func New(b builder.Builder, refs RefResolver, opts Options) *Runner {
	if opts.DepCache == "" {
		opts.DepCache = DepCacheSoft
	}
	targets := make(map[dag.Node]bool, len(opts.Targets))
	for _, t := range opts.Targets {
		targets[t] = true
	}
	return &Runner{builder: b, refs: refs, opts: opts, targets: targets}
}

// Run walks order once. A non-nil error means the run was aborted (strict
// stale dependency, cancellation, or an internal inconsistency); ordinary
// build failures are recorded in the summary instead.
func (r *Runner) Run(ctx context.Context, g *dag.Graph, order []dag.Node, hashes map[dag.Node]string) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)
	r.begin(order)
	logger.Info("🚀 Starting build run.", "run_id", r.summary.RunID, "node_count", len(order), "dep_cache", string(r.opts.DepCache))

	skipped := make(map[dag.Node]string)
	stopped := false

	for i, n := range order {
		if err := ctx.Err(); err != nil {
			return r.finish(), err
		}
		if stopped {
			break
		}
		if reason, ok := skipped[n]; ok {
			logger.Info("Skipping node.", "node", n.Key(), "reason", reason)
			r.record(i, StatusSkipped, reason, 0)
			continue
		}

		eff := g.Config(n)
		if eff == nil {
			return r.finish(), fmt.Errorf("node %q has no effective config", n.Key())
		}
		hash, ok := hashes[n]
		if !ok {
			return r.finish(), fmt.Errorf("node %q has no computed hash", n.Key())
		}

		if !r.targets[n] {
			fresh, reason, err := r.checkFreshness(ctx, n, hash)
			if err != nil {
				return r.finish(), err
			}
			if fresh {
				logger.Info("Skipping node.", "node", n.Key(), "reason", reason)
				r.record(i, StatusSkipped, reason, 0)
				continue
			}
		}

		logger.Info("Building node.", "node", n.Key())
		start := time.Now()
		err := r.buildNode(ctx, g, n, hash)
		elapsed := time.Since(start)
		if err != nil {
			logger.Error("Build failed.", "node", n.Key(), "error", err)
			r.record(i, StatusFailed, err.Error(), elapsed)
			for _, dep := range dependentsClosure(g, n) {
				if _, already := skipped[dep]; !already {
					skipped[dep] = fmt.Sprintf("dependency %s failed", n.Key())
				}
			}
			if r.opts.FailFast {
				logger.Warn("Fail-fast engaged; not scheduling further nodes.")
				stopped = true
			}
			continue
		}
		r.record(i, StatusBuilt, "", elapsed)
	}

	summary := r.finish()
	logger.Info("🏁 Build run finished.",
		"run_id", summary.RunID,
		"built", summary.Built, "skipped", summary.Skipped,
		"failed", summary.Failed, "pending", summary.Pending,
		"duration", summary.Duration.Round(time.Millisecond).String(),
	)
	return summary, nil
}

// checkFreshness decides whether a dependency node can be skipped. It
// returns a stale error only under strict mode.
func (r *Runner) checkFreshness(ctx context.Context, n dag.Node, want string) (bool, string, error) {
	if r.opts.DepCache == DepCacheOff {
		return false, "", nil
	}
	logger := ctxlog.FromContext(ctx)
	ref := r.imageRef(n)

	if r.opts.Remote {
		exists, err := r.builder.RemoteManifestExists(ctx, ref)
		if err != nil {
			return false, "", err
		}
		if exists {
			return true, "remote manifest present", nil
		}
		if r.opts.DepCache == DepCacheStrict {
			return false, "", &StaleDependencyError{Node: n, Ref: ref, Want: want}
		}
		logger.Warn("Remote manifest missing; rebuilding dependency.", "node", n.Key(), "ref", ref)
		return false, "", nil
	}

	exists, err := r.builder.ImageExists(ctx, ref)
	if err != nil {
		return false, "", err
	}
	if !exists {
		if r.opts.DepCache == DepCacheStrict {
			return false, "", &StaleDependencyError{Node: n, Ref: ref, Want: want}
		}
		logger.Debug("Dependency image not present; building.", "node", n.Key(), "ref", ref)
		return false, "", nil
	}

	got, err := r.builder.ImageLabel(ctx, ref, hashdef.Label)
	if err != nil {
		return false, "", err
	}
	if got == want {
		return true, "image up to date", nil
	}
	if r.opts.DepCache == DepCacheStrict {
		return false, "", &StaleDependencyError{Node: n, Ref: ref, Want: want, Got: got}
	}
	logger.Warn("Dependency image hash mismatch; rebuilding.", "node", n.Key(), "ref", ref, "have", got, "want", want)
	return false, "", nil
}

func (r *Runner) buildNode(ctx context.Context, g *dag.Graph, n dag.Node, hash string) error {
	req, err := r.assembleRequest(ctx, g, n, hash)
	if err != nil {
		return err
	}
	return r.builder.Build(ctx, req)
}

// Snapshot returns the current run state. Safe to call concurrently with
// Run; the status endpoint polls it.
func (r *Runner) Snapshot() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.summary
	s.Outcomes = slices.Clone(r.summary.Outcomes)
	if s.Duration == 0 && !s.Started.IsZero() {
		s.Duration = time.Since(s.Started)
	}
	return s
}

func (r *Runner) begin(order []dag.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	outcomes := make([]Outcome, len(order))
	for i, n := range order {
		outcomes[i] = Outcome{Node: n, Status: StatusPending}
	}
	r.summary = Summary{
		RunID:    uuid.NewString(),
		Started:  time.Now(),
		Outcomes: outcomes,
		Pending:  len(order),
	}
}

func (r *Runner) record(i int, st Status, reason string, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := &r.summary.Outcomes[i]
	o.Status = st
	o.Reason = reason
	o.Duration = elapsed
	r.summary.Pending--
	switch st {
	case StatusBuilt:
		r.summary.Built++
	case StatusSkipped:
		r.summary.Skipped++
	case StatusFailed:
		r.summary.Failed++
	}
}

func (r *Runner) finish() *Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary.Duration = time.Since(r.summary.Started)
	s := r.summary
	s.Outcomes = slices.Clone(r.summary.Outcomes)
	return &s
}

// dependentsClosure lists every transitive dependent of n, breadth-first.
func dependentsClosure(g *dag.Graph, n dag.Node) []dag.Node {
	seen := map[dag.Node]bool{n: true}
	queue := []dag.Node{n}
	var out []dag.Node
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range g.DependentsOf(cur) {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
				queue = append(queue, d)
			}
		}
	}
	return out
}
