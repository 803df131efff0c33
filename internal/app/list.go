package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
)

// VersionInfo is one version manifest entry as listed.
type VersionInfo struct {
	Name   string   `json:"name"`
	Latest bool     `json:"latest,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// ServiceInfo is the listing of one service: its versions (newest first
// when they parse as semantic versions), its platforms, and which platform
// is the default.
type ServiceInfo struct {
	Name            string        `json:"name"`
	FixedVersion    string        `json:"fixed_version,omitempty"`
	Versions        []VersionInfo `json:"versions,omitempty"`
	Platforms       []string      `json:"platforms,omitempty"`
	DefaultPlatform string        `json:"default_platform,omitempty"`
}

// List describes the named services, or every service when the list is
// empty.
func (a *App) List(ctx context.Context, services []string) ([]ServiceInfo, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	if len(services) == 0 {
		discovered, err := a.store.Services()
		if err != nil {
			return nil, fmt.Errorf("discovering services: %w", err)
		}
		services = discovered
	}

	infos := make([]ServiceInfo, 0, len(services))
	for _, name := range services {
		info, err := a.describeService(name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

func (a *App) describeService(name string) (*ServiceInfo, error) {
	base, err := a.store.LoadService(name)
	if err != nil {
		return nil, fmt.Errorf("loading service %q: %w", name, err)
	}
	versions, err := a.optionalVersions(name)
	if err != nil {
		return nil, err
	}
	platforms, err := a.optionalPlatforms(name)
	if err != nil {
		return nil, err
	}

	info := &ServiceInfo{Name: name, FixedVersion: base.Version}
	if versions != nil {
		info.Versions = make([]VersionInfo, len(versions.Versions))
		for i, v := range versions.Versions {
			info.Versions[i] = VersionInfo{Name: v.Name, Latest: v.Latest, Tags: v.Tags}
		}
		sortVersions(info.Versions)
	}
	if platforms != nil {
		info.Platforms = platforms.Names()
		if def, ok := platforms.Default(); ok {
			info.DefaultPlatform = def.Name
		}
	}
	return info, nil
}

// sortVersions orders entries newest first when every name parses as a
// semantic version. Mixed or non-semver manifests keep declaration order,
// since inventing an order for arbitrary strings would mislead.
func sortVersions(versions []VersionInfo) {
	parsed := make(map[string]*semver.Version, len(versions))
	for _, v := range versions {
		sv, err := semver.NewVersion(v.Name)
		if err != nil {
			return
		}
		parsed[v.Name] = sv
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return parsed[versions[i].Name].GreaterThan(parsed[versions[j].Name])
	})
}
