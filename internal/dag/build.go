package dag

import (
	"context"
	"errors"
	"fmt"

	"github.com/MahdiBaghbani/containers-sub001/internal/config"
	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
)

// Store provides descriptors during graph expansion. Implemented by
// descriptor.Store. Absent manifests are reported with an error whose
// NotFound() method returns true; the builder treats those as "service has
// no manifest", not as failures.
type Store interface {
	LoadService(name string) (*config.ServiceConfig, error)
	LoadVersions(name string) (*config.VersionManifest, error)
	LoadPlatforms(name string) (*config.PlatformManifest, error)
}

// Build expands the root nodes into a complete build graph by recursively
// resolving each declared dependency into a concrete node. Visitation is
// keyed by the (service, version, platform) tuple, so a dependency shared
// by several branches is expanded once, and multi-root builds union their
// sub-graphs with structural deduplication.
//
// Cycles do not fail construction; they surface as a CycleError from Sort.
func Build(ctx context.Context, store Store, roots ...Node) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.", "root_count", len(roots))

	g := NewGraph()
	for _, root := range roots {
		if err := expand(ctx, store, g, root); err != nil {
			return nil, err
		}
	}

	logger.Debug("Build: graph construction complete.", "node_count", g.Len(), "edge_count", len(g.edges))
	return g, nil
}

// expand resolves one node's configuration and recurses into its
// dependencies, adding nodes in discovery order.
func expand(ctx context.Context, store Store, g *Graph, n Node) error {
	if g.Has(n) {
		return nil
	}
	if n.Version == "" {
		return fmt.Errorf("node %q: version must be resolved before graph expansion", n.Service)
	}

	base, err := store.LoadService(n.Service)
	if err != nil {
		return fmt.Errorf("loading service %q: %w", n.Service, err)
	}
	platforms, err := optionalPlatforms(store, n.Service)
	if err != nil {
		return err
	}
	versions, err := optionalVersions(store, n.Service)
	if err != nil {
		return err
	}

	eff, err := config.Resolve(base, platforms, versions, n.Version, n.Platform)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", n.Key(), err)
	}

	g.AddNode(n)
	g.SetConfig(n, eff)

	for _, dep := range eff.Dependencies {
		depPlatforms, err := optionalPlatforms(store, dep.Service)
		if err != nil {
			return err
		}
		version, platform, err := resolveDependency(ctx, dep, n, depPlatforms)
		if err != nil {
			return err
		}

		child := Node{Service: dep.Service, Version: version, Platform: platform}
		if err := expand(ctx, store, g, child); err != nil {
			return err
		}
		if err := g.AddEdge(n, child); err != nil {
			return err
		}
	}
	return nil
}

func optionalPlatforms(store Store, service string) (*config.PlatformManifest, error) {
	m, err := store.LoadPlatforms(service)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading platform manifest for %q: %w", service, err)
	}
	return m, nil
}

func optionalVersions(store Store, service string) (*config.VersionManifest, error) {
	m, err := store.LoadVersions(service)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading version manifest for %q: %w", service, err)
	}
	return m, nil
}

// isNotFound reports whether err marks an absent optional manifest rather
// than a real load failure.
func isNotFound(err error) bool {
	var nf interface{ NotFound() bool }
	return errors.As(err, &nf) && nf.NotFound()
}
