package config

// ServiceConfig is the format-agnostic representation of a service
// descriptor (the base layer of the merge).
type ServiceConfig struct {
	// Name is the service name, taken from the block label.
	Name string

	// Version is a fixed version for services that carry no version
	// manifest. It is structurally forbidden once a version or platform
	// manifest exists for the service.
	Version string

	Fragment
}

// Fragment is one descriptor layer: the base descriptor body, a platform
// entry body, or a version override body. Empty fields mean "not set in
// this layer".
type Fragment struct {
	Context      string
	Dockerfile   string
	Sources      map[string]Source
	Images       map[string]Image
	Dependencies []Dependency
	BuildArgs    map[string]string
	Labels       map[string]string
	TLS          *TLS
}

// Source is a build input, either a git source (URL+Ref) or a local source
// (Path). The two families are mutually exclusive within one entry.
type Source struct {
	URL  string
	Ref  string
	Path string
}

// IsLocal reports whether the source is a local-path source.
func (s Source) IsLocal() bool {
	return s.Path != ""
}

// IsGit reports whether the source is a git source.
func (s Source) IsGit() bool {
	return !s.IsLocal() && (s.URL != "" || s.Ref != "")
}

// Image is an external image slot; the slot name (the build arg the
// reference is injected under) is the key of the surrounding map.
type Image struct {
	Ref string
}

// Dependency declares that the service consumes another service's image.
type Dependency struct {
	// Service is the depended-on service name, taken from the block label.
	Service string

	// BuildArg is the build argument the dependency image reference is
	// injected under. Required.
	BuildArg string

	// Version pins the dependency version explicitly. When empty the
	// version is inherited from the parent node; it is never defaulted
	// from the dependency's own manifest.
	Version string

	// SinglePlatform pins the dependency to its unsuffixed variant even
	// under a multi-platform parent.
	SinglePlatform bool
}

// TLS carries the certificate provisioning metadata of a service.
type TLS struct {
	Enabled  bool
	CertName string
	CAName   string
}

// --- Manifests ---

// VersionManifest lists the buildable versions of one service, in
// declaration order.
type VersionManifest struct {
	Versions []Version
}

// Version is one version manifest entry.
type Version struct {
	// Name is the version string, unique per manifest and never
	// platform-suffixed.
	Name string

	// Latest marks the entry selected when a target omits the version.
	// At most one entry per manifest may carry it.
	Latest bool

	// Tags are extra image tags applied on build, globally unique across
	// the manifest.
	Tags []string

	// Overrides is the fragment merged onto the base descriptor when this
	// version is built. May be nil.
	Overrides *Overrides
}

// Overrides is a version entry's override document: a global fragment plus
// optional platform-specific fragments applied after it.
type Overrides struct {
	Fragment

	// Platforms maps a platform name to the fragment applied only when
	// that platform is built.
	Platforms map[string]*Fragment
}

// Find returns the entry with the given name.
func (m *VersionManifest) Find(name string) (*Version, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Versions {
		if m.Versions[i].Name == name {
			return &m.Versions[i], true
		}
	}
	return nil, false
}

// Latest returns the entry flagged latest.
func (m *VersionManifest) Latest() (*Version, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Versions {
		if m.Versions[i].Latest {
			return &m.Versions[i], true
		}
	}
	return nil, false
}

// PlatformManifest lists the platform variants of one service, in
// declaration order.
type PlatformManifest struct {
	Platforms []Platform
}

// Platform is one platform manifest entry: a name, a default flag, and a
// descriptor fragment applied to every node built for that platform.
type Platform struct {
	Name    string
	Default bool

	Fragment
}

// Find returns the platform with the given name.
func (m *PlatformManifest) Find(name string) (*Platform, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Platforms {
		if m.Platforms[i].Name == name {
			return &m.Platforms[i], true
		}
	}
	return nil, false
}

// Default returns the platform flagged default.
func (m *PlatformManifest) Default() (*Platform, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Platforms {
		if m.Platforms[i].Default {
			return &m.Platforms[i], true
		}
	}
	return nil, false
}

// Names returns the platform names in declaration order.
func (m *PlatformManifest) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, len(m.Platforms))
	for i := range m.Platforms {
		names[i] = m.Platforms[i].Name
	}
	return names
}

// RepoConfig holds the repository-level defaults from forge.hcl. All fields
// are optional; command-line flags take precedence.
type RepoConfig struct {
	Registry string
	CertDir  string
	CacheDir string
}

// EffectiveConfig is the fully merged configuration of one build node.
// It is ephemeral: recomputed per resolution, never persisted.
type EffectiveConfig struct {
	Service  string
	Version  string
	Platform string

	Context      string
	Dockerfile   string
	Sources      map[string]Source
	Images       map[string]Image
	Dependencies []Dependency
	BuildArgs    map[string]string
	Labels       map[string]string
	TLS          *TLS

	// Tags and Latest are carried over from the selected version entry so
	// the orchestrator can apply extra image tags.
	Tags   []string
	Latest bool
}
