package dag

import (
	"context"
	"fmt"
	"strings"

	"github.com/MahdiBaghbani/containers-sub001/internal/config"
	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
)

// ResolutionError reports a dependency declaration whose version or platform
// cannot be determined. It is always fatal for the node being expanded,
// regardless of fail-fast, because a target cannot be built without its
// dependencies.
type ResolutionError struct {
	Parent     Node
	Dependency string
	Reason     string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("node %q: cannot resolve dependency %q: %s", e.Parent.Key(), e.Dependency, e.Reason)
}

// resolveDependency determines the (version, platform) of one dependency
// declaration under a given parent node.
//
// Resolution order:
//  1. an explicit version already carrying a platform suffix recognized by
//     the dependency's own platform manifest is used verbatim;
//  2. a declaration marked single_platform uses the explicit-or-inherited
//     version with no suffix, even under a multi-platform parent;
//  3. a multi-platform parent over a dependency that has a platform manifest
//     passes its platform down (platform inheritance);
//  4. a dependency without a platform manifest reuses the unsuffixed version
//     for every parent platform (cross-platform reuse, logged info);
//  5. no explicit version and none inherited fails. The version is never
//     defaulted from the dependency's own manifest: version pinning is
//     strict where platform applicability is advisory.
func resolveDependency(ctx context.Context, dep config.Dependency, parent Node, depPlatforms *config.PlatformManifest) (string, string, error) {
	if dep.Version != "" {
		if base, platform, ok := splitVersionPlatform(dep.Version, depPlatforms); ok {
			if dep.SinglePlatform {
				return "", "", &ResolutionError{
					Parent:     parent,
					Dependency: dep.Service,
					Reason:     fmt.Sprintf("declared single_platform but pins the platform-suffixed version %q", dep.Version),
				}
			}
			return base, platform, nil
		}
	}

	version := dep.Version
	if version == "" {
		version = parent.Version
	}
	if version == "" {
		return "", "", &ResolutionError{
			Parent:     parent,
			Dependency: dep.Service,
			Reason:     "no explicit version and none inherited from the parent",
		}
	}

	if dep.SinglePlatform {
		return version, "", nil
	}

	if parent.Platform != "" {
		if len(depPlatforms.Names()) > 0 {
			return version, parent.Platform, nil
		}
		ctxlog.FromContext(ctx).Info("Dependency has no platform manifest; reusing the unsuffixed version across parent platforms.",
			"parent", parent.Key(), "dependency", dep.Service, "version", version)
	}
	return version, "", nil
}

// splitVersionPlatform splits a version string whose trailing -<platform>
// names an entry in the manifest, e.g. "v1.0.0-alpine" → ("v1.0.0",
// "alpine"). The longest matching platform name wins so hyphenated platform
// names split correctly.
func splitVersionPlatform(version string, platforms *config.PlatformManifest) (string, string, bool) {
	if platforms == nil {
		return version, "", false
	}
	best := ""
	for _, p := range platforms.Platforms {
		suffix := "-" + p.Name
		if len(version) > len(suffix) && strings.HasSuffix(version, suffix) && len(p.Name) > len(best) {
			best = p.Name
		}
	}
	if best == "" {
		return version, "", false
	}
	return strings.TrimSuffix(version, "-"+best), best, true
}
