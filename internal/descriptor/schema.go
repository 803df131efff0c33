package descriptor

import "github.com/zclconf/go-cty/cty"

// Decode targets for gohcl. Fragment-shaped fields are repeated per block
// type because gohcl does not follow embedded structs. build_args and labels
// decode as raw cty values so scalar non-strings (ports, feature switches)
// can be written without quoting; translate stringifies them.

type serviceFile struct {
	Service *serviceBlock `hcl:"service,block"`
}

type serviceBlock struct {
	Name         string            `hcl:"name,label" validate:"required"`
	Version      string            `hcl:"version,optional"`
	Context      string            `hcl:"context,optional"`
	Dockerfile   string            `hcl:"dockerfile,optional"`
	Sources      []sourceBlock     `hcl:"source,block" validate:"dive"`
	Images       []imageBlock      `hcl:"image,block" validate:"dive"`
	Dependencies []dependencyBlock `hcl:"dependency,block" validate:"dive"`
	BuildArgs    cty.Value         `hcl:"build_args,optional"`
	Labels       cty.Value         `hcl:"labels,optional"`
	TLS          *tlsBlock         `hcl:"tls,block"`
}

type sourceBlock struct {
	Name string `hcl:"name,label" validate:"required"`
	URL  string `hcl:"url,optional"`
	Ref  string `hcl:"ref,optional"`
	Path string `hcl:"path,optional"`
}

type imageBlock struct {
	Slot string `hcl:"name,label" validate:"required"`
	Ref  string `hcl:"ref,optional" validate:"required"`
}

type dependencyBlock struct {
	Service        string `hcl:"name,label" validate:"required"`
	BuildArg       string `hcl:"build_arg,optional" validate:"required"`
	Version        string `hcl:"version,optional"`
	SinglePlatform bool   `hcl:"single_platform,optional"`
}

type tlsBlock struct {
	Enabled  bool   `hcl:"enabled,optional"`
	CertName string `hcl:"cert_name,optional"`
	CAName   string `hcl:"ca_name,optional"`
}

type versionsFile struct {
	Versions []versionBlock `hcl:"version,block" validate:"dive"`
}

type versionBlock struct {
	Name      string          `hcl:"name,label" validate:"required"`
	Latest    bool            `hcl:"latest,optional"`
	Tags      []string        `hcl:"tags,optional"`
	Overrides *overridesBlock `hcl:"overrides,block"`
}

type overridesBlock struct {
	Context      string                  `hcl:"context,optional"`
	Dockerfile   string                  `hcl:"dockerfile,optional"`
	Sources      []sourceBlock           `hcl:"source,block" validate:"dive"`
	Images       []imageBlock            `hcl:"image,block" validate:"dive"`
	Dependencies []dependencyBlock       `hcl:"dependency,block" validate:"dive"`
	BuildArgs    cty.Value               `hcl:"build_args,optional"`
	Labels       cty.Value               `hcl:"labels,optional"`
	TLS          *tlsBlock               `hcl:"tls,block"`
	Platforms    []platformOverrideBlock `hcl:"platform,block" validate:"dive"`
}

type platformOverrideBlock struct {
	Name         string            `hcl:"name,label" validate:"required,platform_name"`
	Context      string            `hcl:"context,optional"`
	Dockerfile   string            `hcl:"dockerfile,optional"`
	Sources      []sourceBlock     `hcl:"source,block" validate:"dive"`
	Images       []imageBlock      `hcl:"image,block" validate:"dive"`
	Dependencies []dependencyBlock `hcl:"dependency,block" validate:"dive"`
	BuildArgs    cty.Value         `hcl:"build_args,optional"`
	Labels       cty.Value         `hcl:"labels,optional"`
	TLS          *tlsBlock         `hcl:"tls,block"`
}

type platformsFile struct {
	Platforms []platformBlock `hcl:"platform,block" validate:"dive"`
}

type platformBlock struct {
	Name         string            `hcl:"name,label" validate:"required,platform_name"`
	Default      bool              `hcl:"default,optional"`
	Context      string            `hcl:"context,optional"`
	Dockerfile   string            `hcl:"dockerfile,optional"`
	Sources      []sourceBlock     `hcl:"source,block" validate:"dive"`
	Images       []imageBlock      `hcl:"image,block" validate:"dive"`
	Dependencies []dependencyBlock `hcl:"dependency,block" validate:"dive"`
	BuildArgs    cty.Value         `hcl:"build_args,optional"`
	Labels       cty.Value         `hcl:"labels,optional"`
	TLS          *tlsBlock         `hcl:"tls,block"`
}

type repoFile struct {
	Defaults *defaultsBlock `hcl:"defaults,block"`
}

type defaultsBlock struct {
	Registry string `hcl:"registry,optional"`
	CertDir  string `hcl:"cert_dir,optional"`
	CacheDir string `hcl:"cache_dir,optional"`
}
