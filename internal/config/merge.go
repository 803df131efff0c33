package config

import (
	"fmt"
	"maps"
	"slices"
)

// Defaults applied after all layers are merged. These mirror the build
// tool's own conventions; required fields are never defaulted.
const (
	DefaultContext    = "."
	DefaultDockerfile = "Dockerfile"
)

// Resolve merges the descriptor layers selected by versionName and
// platformName into the effective configuration for one node. It is
// deterministic and side-effect-free; the inputs are never mutated.
//
// Merge order, each layer overriding the previous: base descriptor →
// platform fragment → version overrides → version platform-specific
// overrides. An empty platformName on a service that carries a platform
// manifest selects the default platform's fragments while leaving the node
// unsuffixed.
func Resolve(base *ServiceConfig, platforms *PlatformManifest, versions *VersionManifest, versionName, platformName string) (*EffectiveConfig, error) {
	version, entry, err := selectVersion(base, versions, versionName)
	if err != nil {
		return nil, err
	}

	eff := &EffectiveConfig{
		Service:      base.Name,
		Version:      version,
		Platform:     platformName,
		Context:      base.Context,
		Dockerfile:   base.Dockerfile,
		Sources:      maps.Clone(base.Sources),
		Images:       maps.Clone(base.Images),
		Dependencies: slices.Clone(base.Dependencies),
		BuildArgs:    maps.Clone(base.BuildArgs),
		Labels:       maps.Clone(base.Labels),
		TLS:          cloneTLS(base.TLS),
	}

	// The platform whose fragments apply: the requested one, or the
	// manifest default when the node is unsuffixed.
	layerPlatform := platformName
	if layerPlatform == "" {
		if def, ok := platforms.Default(); ok {
			layerPlatform = def.Name
		}
	}

	if layerPlatform != "" {
		p, ok := platforms.Find(layerPlatform)
		if !ok {
			return nil, &ValidationError{
				Service: base.Name,
				Field:   "platform",
				Reason:  fmt.Sprintf("%q is not declared in the platform manifest", layerPlatform),
			}
		}
		applyFragment(eff, &p.Fragment)
	}

	if entry != nil {
		if entry.Overrides != nil {
			applyFragment(eff, &entry.Overrides.Fragment)
			if layerPlatform != "" {
				if pf, ok := entry.Overrides.Platforms[layerPlatform]; ok {
					applyFragment(eff, pf)
				}
			}
		}
		eff.Tags = slices.Clone(entry.Tags)
		eff.Latest = entry.Latest
	}

	if eff.Context == "" {
		eff.Context = DefaultContext
	}
	if eff.Dockerfile == "" {
		eff.Dockerfile = DefaultDockerfile
	}

	if err := validateEffective(eff); err != nil {
		return nil, err
	}
	return eff, nil
}

// selectVersion picks the version entry for the resolution. Services without
// a manifest may fix a single version in the base descriptor; services with
// a manifest must list every buildable version.
func selectVersion(base *ServiceConfig, versions *VersionManifest, requested string) (string, *Version, error) {
	name := requested
	if name == "" {
		name = base.Version
	}
	if name == "" {
		return "", nil, &ValidationError{
			Service: base.Name,
			Field:   "version",
			Reason:  "no version requested and none fixed in the descriptor",
		}
	}

	if versions == nil || len(versions.Versions) == 0 {
		if base.Version != "" && name != base.Version {
			return "", nil, &ValidationError{
				Service: base.Name,
				Field:   "version",
				Reason:  fmt.Sprintf("fixed to %q, cannot resolve %q", base.Version, name),
			}
		}
		return name, nil, nil
	}

	entry, ok := versions.Find(name)
	if !ok {
		return "", nil, &ValidationError{
			Service: base.Name,
			Field:   "version",
			Reason:  fmt.Sprintf("%q is not declared in the version manifest", name),
		}
	}
	return name, entry, nil
}

// applyFragment merges one override layer into the effective configuration.
// Scalars are replaced, keyed records merge per key, and sources follow the
// type-aware rule implemented by mergeSource.
func applyFragment(eff *EffectiveConfig, f *Fragment) {
	if f.Context != "" {
		eff.Context = f.Context
	}
	if f.Dockerfile != "" {
		eff.Dockerfile = f.Dockerfile
	}

	for name, src := range f.Sources {
		if eff.Sources == nil {
			eff.Sources = make(map[string]Source)
		}
		eff.Sources[name] = mergeSource(eff.Sources[name], src)
	}
	for slot, img := range f.Images {
		if eff.Images == nil {
			eff.Images = make(map[string]Image)
		}
		eff.Images[slot] = img
	}
	for k, v := range f.BuildArgs {
		if eff.BuildArgs == nil {
			eff.BuildArgs = make(map[string]string)
		}
		eff.BuildArgs[k] = v
	}
	for k, v := range f.Labels {
		if eff.Labels == nil {
			eff.Labels = make(map[string]string)
		}
		eff.Labels[k] = v
	}

	eff.Dependencies = mergeDependencies(eff.Dependencies, f.Dependencies)

	if f.TLS != nil {
		eff.TLS = cloneTLS(f.TLS)
	}
}

// mergeSource merges one overriding source entry onto the base entry for the
// same key. A git override supplying only one of url/ref inherits the other
// from a git base (partial override); supplying both, or switching family,
// replaces the entry wholesale.
func mergeSource(base, override Source) Source {
	if override.IsLocal() {
		return Source{Path: override.Path}
	}
	if override.URL != "" && override.Ref != "" {
		return Source{URL: override.URL, Ref: override.Ref}
	}
	if !base.IsGit() {
		return override
	}
	merged := Source{URL: base.URL, Ref: base.Ref}
	if override.URL != "" {
		merged.URL = override.URL
	}
	if override.Ref != "" {
		merged.Ref = override.Ref
	}
	return merged
}

// mergeDependencies replaces entries by service key and appends new ones in
// declaration order. A dependency override is a complete declaration, not a
// partial one.
func mergeDependencies(dst, overrides []Dependency) []Dependency {
	for _, o := range overrides {
		replaced := false
		for i := range dst {
			if dst[i].Service == o.Service {
				dst[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			dst = append(dst, o)
		}
	}
	return dst
}

func cloneTLS(t *TLS) *TLS {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// validateEffective rejects merged configurations with missing required
// fields. Required fields are errors, never silent defaults.
func validateEffective(eff *EffectiveConfig) error {
	for name, src := range eff.Sources {
		if src.IsLocal() {
			continue
		}
		if src.URL == "" || src.Ref == "" {
			return &ValidationError{
				Service: eff.Service,
				Field:   fmt.Sprintf("source %q", name),
				Reason:  "a git source requires both url and ref",
			}
		}
	}
	for _, dep := range eff.Dependencies {
		if dep.BuildArg == "" {
			return &ValidationError{
				Service: eff.Service,
				Field:   fmt.Sprintf("dependency %q", dep.Service),
				Reason:  "missing build_arg",
			}
		}
	}
	for slot, img := range eff.Images {
		if img.Ref == "" {
			return &ValidationError{
				Service: eff.Service,
				Field:   fmt.Sprintf("image %q", slot),
				Reason:  "missing ref",
			}
		}
	}
	if eff.TLS != nil && eff.TLS.Enabled {
		if eff.TLS.CertName == "" || eff.TLS.CAName == "" {
			return &ValidationError{
				Service: eff.Service,
				Field:   "tls",
				Reason:  "cert_name and ca_name are required when tls is enabled",
			}
		}
	}
	return nil
}
