package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MahdiBaghbani/containers-sub001/internal/config"
	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
	"github.com/MahdiBaghbani/containers-sub001/internal/dag"
)

// TargetOptions control how target specs expand into root nodes.
type TargetOptions struct {
	// AllVersions expands every manifest entry instead of the latest one
	// when a spec omits the version.
	AllVersions bool
	// Platforms filters the platform expansion of multi-platform services.
	// Single-platform services and explicit spec platforms are unaffected.
	Platforms []string
}

// targetSpec is one parsed service[:version[:platform]] argument. Empty
// segments mean "default".
type targetSpec struct {
	service  string
	version  string
	platform string
}

func parseTargetSpec(raw string) (targetSpec, error) {
	parts := strings.Split(raw, ":")
	if len(parts) > 3 || parts[0] == "" {
		return targetSpec{}, fmt.Errorf("invalid target %q, expected service[:version[:platform]]", raw)
	}
	spec := targetSpec{service: parts[0]}
	if len(parts) > 1 {
		spec.version = parts[1]
	}
	if len(parts) > 2 {
		spec.platform = parts[2]
	}
	return spec, nil
}

// ResolveTargets expands the given specs into concrete root nodes. An empty
// spec list means every service in the repository. An omitted version picks
// the manifest's latest entry (or the fixed descriptor version); an omitted
// platform on a multi-platform service expands to every platform, subject
// to the platform filter. Duplicate nodes collapse, preserving first
// occurrence order.
func (a *App) ResolveTargets(ctx context.Context, specs []string, opts TargetOptions) ([]dag.Node, error) {
	if len(specs) == 0 {
		services, err := a.store.Services()
		if err != nil {
			return nil, fmt.Errorf("discovering services: %w", err)
		}
		specs = services
	}

	var nodes []dag.Node
	seen := make(map[dag.Node]bool)
	for _, raw := range specs {
		spec, err := parseTargetSpec(raw)
		if err != nil {
			return nil, err
		}
		expanded, err := a.resolveSpec(ctx, spec, opts)
		if err != nil {
			return nil, err
		}
		for _, n := range expanded {
			if !seen[n] {
				seen[n] = true
				nodes = append(nodes, n)
			}
		}
	}

	if len(nodes) == 0 {
		return nil, errors.New("no build targets resolved")
	}
	return nodes, nil
}

func (a *App) resolveSpec(ctx context.Context, spec targetSpec, opts TargetOptions) ([]dag.Node, error) {
	base, err := a.store.LoadService(spec.service)
	if err != nil {
		return nil, fmt.Errorf("loading service %q: %w", spec.service, err)
	}
	versions, err := a.optionalVersions(spec.service)
	if err != nil {
		return nil, err
	}
	platforms, err := a.optionalPlatforms(spec.service)
	if err != nil {
		return nil, err
	}

	versionNames, err := selectVersions(base, versions, spec, opts)
	if err != nil {
		return nil, err
	}
	platformNames, err := a.selectPlatforms(ctx, spec, platforms, opts)
	if err != nil {
		return nil, err
	}

	var nodes []dag.Node
	for _, v := range versionNames {
		for _, p := range platformNames {
			nodes = append(nodes, dag.Node{Service: spec.service, Version: v, Platform: p})
		}
	}
	return nodes, nil
}

// selectVersions picks the version names a spec expands to. Versions come
// from the manifest when one exists, otherwise from the descriptor's fixed
// version; an explicit spec version must match one of those.
func selectVersions(base *config.ServiceConfig, versions *config.VersionManifest, spec targetSpec, opts TargetOptions) ([]string, error) {
	hasManifest := versions != nil && len(versions.Versions) > 0

	if spec.version != "" {
		if hasManifest {
			if _, ok := versions.Find(spec.version); !ok {
				return nil, fmt.Errorf("service %q has no version %q in its manifest", spec.service, spec.version)
			}
			return []string{spec.version}, nil
		}
		if base.Version == "" {
			return nil, fmt.Errorf("service %q declares no versions; add a version manifest or a fixed version", spec.service)
		}
		if spec.version != base.Version {
			return nil, fmt.Errorf("service %q is fixed at version %q, cannot build %q", spec.service, base.Version, spec.version)
		}
		return []string{spec.version}, nil
	}

	if !hasManifest {
		if base.Version == "" {
			return nil, fmt.Errorf("service %q declares no versions; add a version manifest or a fixed version", spec.service)
		}
		return []string{base.Version}, nil
	}

	if opts.AllVersions {
		names := make([]string, len(versions.Versions))
		for i := range versions.Versions {
			names[i] = versions.Versions[i].Name
		}
		return names, nil
	}

	latest, ok := versions.Latest()
	if !ok {
		return nil, fmt.Errorf("service %q has no version marked latest; specify one explicitly", spec.service)
	}
	return []string{latest.Name}, nil
}

// selectPlatforms picks the platform names a spec expands to. A platform
// filter that excludes every platform of a multi-platform service drops the
// service from the expansion with a warning instead of failing the whole
// run.
func (a *App) selectPlatforms(ctx context.Context, spec targetSpec, platforms *config.PlatformManifest, opts TargetOptions) ([]string, error) {
	hasManifest := platforms != nil && len(platforms.Platforms) > 0

	if spec.platform != "" {
		if !hasManifest {
			return nil, fmt.Errorf("service %q has no platform manifest, cannot build platform %q", spec.service, spec.platform)
		}
		if _, ok := platforms.Find(spec.platform); !ok {
			return nil, fmt.Errorf("service %q has no platform %q", spec.service, spec.platform)
		}
		return []string{spec.platform}, nil
	}

	if !hasManifest {
		return []string{""}, nil
	}

	names := platforms.Names()
	if len(opts.Platforms) > 0 {
		names = intersect(names, opts.Platforms)
		if len(names) == 0 {
			ctxlog.FromContext(ctx).Warn("Platform filter excludes every platform of service.",
				"service", spec.service, "filter", opts.Platforms)
		}
	}
	return names, nil
}

// intersect keeps the members of names that appear in filter, in names
// order.
func intersect(names, filter []string) []string {
	allowed := make(map[string]bool, len(filter))
	for _, f := range filter {
		allowed[f] = true
	}
	var out []string
	for _, n := range names {
		if allowed[n] {
			out = append(out, n)
		}
	}
	return out
}

func (a *App) optionalVersions(service string) (*config.VersionManifest, error) {
	m, err := a.store.LoadVersions(service)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading version manifest for %q: %w", service, err)
	}
	return m, nil
}

func (a *App) optionalPlatforms(service string) (*config.PlatformManifest, error) {
	m, err := a.store.LoadPlatforms(service)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading platform manifest for %q: %w", service, err)
	}
	return m, nil
}

// notFound reports whether err marks an absent optional document rather
// than a real load failure.
func notFound(err error) bool {
	var nf interface{ NotFound() bool }
	return errors.As(err, &nf) && nf.NotFound()
}
