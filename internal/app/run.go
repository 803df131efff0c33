package app

import (
	"context"
	"fmt"

	"github.com/MahdiBaghbani/containers-sub001/internal/builder"
	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
	"github.com/MahdiBaghbani/containers-sub001/internal/gitref"
	"github.com/MahdiBaghbani/containers-sub001/internal/orchestrator"
)

// BuildOptions configure one invocation of the build operation.
type BuildOptions struct {
	// Targets are the raw service[:version[:platform]] arguments.
	Targets []string
	TargetOptions

	// Builder names the registered build backend.
	Builder string
	// Progress is the buildx progress mode.
	Progress string
	// BuildxPlatforms is the OS/arch list handed to the builder for
	// multi-arch builds, e.g. linux/amd64. Distinct from the platform
	// variant filter in TargetOptions.
	BuildxPlatforms []string

	DepCache orchestrator.DepCacheMode
	FailFast bool
	Push     bool
	Load     bool
	Remote   bool

	// StatusPort serves the live run summary over HTTP when positive.
	StatusPort int
}

// Build executes the main build pipeline: resolve targets, construct and
// sort the graph, hash every node, and walk the order through the
// orchestrator. The returned summary carries per-node outcomes; err is
// non-nil only when the run could not start or was aborted.
func (a *App) Build(ctx context.Context, opts BuildOptions) (*orchestrator.Summary, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("Build operation started.")

	plan, err := a.ResolvePlan(ctx, opts.Targets, opts.TargetOptions)
	if err != nil {
		return nil, err
	}
	hashes, err := a.Hashes(ctx, plan)
	if err != nil {
		return nil, err
	}

	name := opts.Builder
	if name == "" {
		name = "docker"
	}
	b, err := builder.New(name, builder.Options{Progress: opts.Progress})
	if err != nil {
		return nil, err
	}

	runner := orchestrator.New(b, gitref.NewCache(), orchestrator.Options{
		Registry:   a.cfg.Registry,
		DepCache:   opts.DepCache,
		FailFast:   opts.FailFast,
		Push:       opts.Push,
		Load:       opts.Load,
		Remote:     opts.Remote,
		Platforms:  opts.BuildxPlatforms,
		Targets:    plan.Roots,
		ServiceDir: a.store.ServiceDir,
	})

	if opts.StatusPort > 0 {
		a.startStatusServer(opts.StatusPort, runner.Snapshot)
	}

	summary, err := runner.Run(ctx, plan.Graph, plan.Order, hashes)
	if err != nil {
		return summary, fmt.Errorf("build run aborted: %w", err)
	}
	return summary, nil
}
