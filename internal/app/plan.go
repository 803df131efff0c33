package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/MahdiBaghbani/containers-sub001/internal/config"
	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
	"github.com/MahdiBaghbani/containers-sub001/internal/dag"
	"github.com/MahdiBaghbani/containers-sub001/internal/hashdef"
)

// Plan is a resolved build plan: the graph, its topological order, and the
// root nodes the plan was requested for.
type Plan struct {
	Graph *dag.Graph
	Order []dag.Node
	Roots []dag.Node
}

// ResolvePlan expands the target specs, constructs the build graph, and
// sorts it. Cycles and unresolvable dependencies fail here, before anything
// is built.
func (a *App) ResolvePlan(ctx context.Context, specs []string, opts TargetOptions) (*Plan, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	roots, err := a.ResolveTargets(ctx, specs, opts)
	if err != nil {
		return nil, err
	}

	graph, err := dag.Build(ctx, a.store, roots...)
	if err != nil {
		return nil, fmt.Errorf("building dependency graph: %w", err)
	}
	order, err := dag.Sort(graph)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Build plan resolved.", "roots", len(roots), "nodes", graph.Len())
	return &Plan{Graph: graph, Order: order, Roots: roots}, nil
}

// Hashes computes the service definition hash of every node in the plan.
func (a *App) Hashes(ctx context.Context, plan *Plan) (map[dag.Node]string, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	return hashdef.HashGraph(ctx, plan.Graph, plan.Order, a.dockerfileDigest)
}

// dockerfileDigest hashes the dockerfile the node builds with, located
// relative to the node's build context inside the service directory.
func (a *App) dockerfileDigest(n dag.Node, eff *config.EffectiveConfig) (string, error) {
	path := filepath.Join(a.store.ServiceDir(n.Service), eff.Context, eff.Dockerfile)
	digest, err := hashdef.DigestFile(path)
	if err != nil {
		return "", fmt.Errorf("reading dockerfile %s: %w", path, err)
	}
	return digest, nil
}
