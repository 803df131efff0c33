package descriptor

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/MahdiBaghbani/containers-sub001/internal/config"
)

// fragmentFields collects the fragment-shaped parts shared by service,
// platform, and override blocks.
type fragmentFields struct {
	context    string
	dockerfile string
	sources    []sourceBlock
	images     []imageBlock
	deps       []dependencyBlock
	buildArgs  cty.Value
	labels     cty.Value
	tls        *tlsBlock
}

func (b *serviceBlock) fragmentFields() fragmentFields {
	return fragmentFields{
		context: b.Context, dockerfile: b.Dockerfile,
		sources: b.Sources, images: b.Images, deps: b.Dependencies,
		buildArgs: b.BuildArgs, labels: b.Labels, tls: b.TLS,
	}
}

func (b *overridesBlock) fragmentFields() fragmentFields {
	return fragmentFields{
		context: b.Context, dockerfile: b.Dockerfile,
		sources: b.Sources, images: b.Images, deps: b.Dependencies,
		buildArgs: b.BuildArgs, labels: b.Labels, tls: b.TLS,
	}
}

func (b *platformOverrideBlock) fragmentFields() fragmentFields {
	return fragmentFields{
		context: b.Context, dockerfile: b.Dockerfile,
		sources: b.Sources, images: b.Images, deps: b.Dependencies,
		buildArgs: b.BuildArgs, labels: b.Labels, tls: b.TLS,
	}
}

func (b *platformBlock) fragmentFields() fragmentFields {
	return fragmentFields{
		context: b.Context, dockerfile: b.Dockerfile,
		sources: b.Sources, images: b.Images, deps: b.Dependencies,
		buildArgs: b.BuildArgs, labels: b.Labels, tls: b.TLS,
	}
}

func translateService(b *serviceBlock) (*config.ServiceConfig, []string) {
	frag, errs := translateFragment(b.fragmentFields())
	return &config.ServiceConfig{Name: b.Name, Version: b.Version, Fragment: frag}, errs
}

func translateVersions(f *versionsFile) (*config.VersionManifest, []string) {
	var errs []string
	m := &config.VersionManifest{Versions: make([]config.Version, 0, len(f.Versions))}
	for _, b := range f.Versions {
		v := config.Version{
			Name:   b.Name,
			Latest: b.Latest,
			Tags:   append([]string(nil), b.Tags...),
		}
		if o := b.Overrides; o != nil {
			frag, ferrs := translateFragment(o.fragmentFields())
			errs = append(errs, prefix(fmt.Sprintf("version %q", b.Name), ferrs)...)
			ov := &config.Overrides{Fragment: frag}
			if len(o.Platforms) > 0 {
				ov.Platforms = make(map[string]*config.Fragment, len(o.Platforms))
				for _, p := range o.Platforms {
					pfrag, perrs := translateFragment(p.fragmentFields())
					errs = append(errs, prefix(fmt.Sprintf("version %q: platform %q", b.Name, p.Name), perrs)...)
					ov.Platforms[p.Name] = &pfrag
				}
			}
			v.Overrides = ov
		}
		m.Versions = append(m.Versions, v)
	}
	return m, errs
}

func translatePlatforms(f *platformsFile) (*config.PlatformManifest, []string) {
	var errs []string
	m := &config.PlatformManifest{Platforms: make([]config.Platform, 0, len(f.Platforms))}
	for _, b := range f.Platforms {
		frag, ferrs := translateFragment(b.fragmentFields())
		errs = append(errs, prefix(fmt.Sprintf("platform %q", b.Name), ferrs)...)
		m.Platforms = append(m.Platforms, config.Platform{
			Name:     b.Name,
			Default:  b.Default,
			Fragment: frag,
		})
	}
	return m, errs
}

func translateFragment(ff fragmentFields) (config.Fragment, []string) {
	var errs []string
	f := config.Fragment{Context: ff.context, Dockerfile: ff.dockerfile}

	if len(ff.sources) > 0 {
		f.Sources = make(map[string]config.Source, len(ff.sources))
		for _, s := range ff.sources {
			f.Sources[s.Name] = config.Source{URL: s.URL, Ref: s.Ref, Path: s.Path}
		}
	}
	if len(ff.images) > 0 {
		f.Images = make(map[string]config.Image, len(ff.images))
		for _, i := range ff.images {
			f.Images[i.Slot] = config.Image{Ref: i.Ref}
		}
	}
	for _, d := range ff.deps {
		f.Dependencies = append(f.Dependencies, config.Dependency{
			Service:        d.Service,
			BuildArg:       d.BuildArg,
			Version:        d.Version,
			SinglePlatform: d.SinglePlatform,
		})
	}

	var merrs []string
	f.BuildArgs, merrs = stringMap(ff.buildArgs, "build_args")
	errs = append(errs, merrs...)
	f.Labels, merrs = stringMap(ff.labels, "labels")
	errs = append(errs, merrs...)

	if ff.tls != nil {
		f.TLS = &config.TLS{Enabled: ff.tls.Enabled, CertName: ff.tls.CertName, CAName: ff.tls.CAName}
	}
	return f, errs
}

// stringMap converts an object-shaped cty value into a string map. Scalar
// non-strings are stringified so descriptors can write ports and switches
// unquoted; anything structured is rejected.
func stringMap(v cty.Value, field string) (map[string]string, []string) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.CanIterateElements() {
		return nil, []string{fmt.Sprintf("%s must be an object of scalar values", field)}
	}

	var errs []string
	out := make(map[string]string)
	for it := v.ElementIterator(); it.Next(); {
		k, ev := it.Element()
		s, err := scalarString(ev)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s[%q]: %v", field, k.AsString(), err))
			continue
		}
		out[k.AsString()] = s
	}
	if len(out) == 0 {
		out = nil
	}
	return out, errs
}

func scalarString(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", fmt.Errorf("value must not be null")
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Bool:
		if v.True() {
			return "true", nil
		}
		return "false", nil
	case cty.Number:
		return v.AsBigFloat().Text('f', -1), nil
	default:
		return "", fmt.Errorf("unsupported value type %s", v.Type().FriendlyName())
	}
}
