package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseService() *ServiceConfig {
	return &ServiceConfig{
		Name: "nextcloud",
		Fragment: Fragment{
			Context:    ".",
			Dockerfile: "Dockerfile",
			Sources: map[string]Source{
				"core":    {URL: "https://github.com/nextcloud/server", Ref: "v28.0.0"},
				"patches": {Path: "patches"},
			},
			Images: map[string]Image{
				"BASE_IMAGE": {Ref: "docker.io/library/debian:bookworm-slim"},
			},
			Dependencies: []Dependency{
				{Service: "php-base", BuildArg: "PHP_BASE_IMAGE"},
			},
			BuildArgs: map[string]string{"CHANNEL": "stable", "EXTRA": "1"},
			Labels:    map[string]string{"org.opencontainers.image.vendor": "forge"},
		},
	}
}

func TestResolve_BaseOnly(t *testing.T) {
	t.Parallel()

	eff, err := Resolve(baseService(), nil, nil, "v28.0.0", "")
	require.NoError(t, err)

	assert.Equal(t, "nextcloud", eff.Service)
	assert.Equal(t, "v28.0.0", eff.Version)
	assert.Empty(t, eff.Platform)
	assert.Equal(t, "Dockerfile", eff.Dockerfile)
	assert.Len(t, eff.Sources, 2)
	assert.Len(t, eff.Dependencies, 1)
}

func TestResolve_Defaults(t *testing.T) {
	t.Parallel()

	base := &ServiceConfig{Name: "tiny"}
	eff, err := Resolve(base, nil, nil, "v1.0.0", "")
	require.NoError(t, err)

	assert.Equal(t, DefaultContext, eff.Context)
	assert.Equal(t, DefaultDockerfile, eff.Dockerfile)
}

func TestResolve_SourceMerge(t *testing.T) {
	t.Parallel()

	versions := func(src map[string]Source) *VersionManifest {
		return &VersionManifest{Versions: []Version{{
			Name:      "v28.0.0",
			Overrides: &Overrides{Fragment: Fragment{Sources: src}},
		}}}
	}

	t.Run("partial git override inherits the missing field", func(t *testing.T) {
		eff, err := Resolve(baseService(), nil, versions(map[string]Source{
			"core": {Ref: "v29.0.0"},
		}), "v28.0.0", "")
		require.NoError(t, err)

		merged := eff.Sources["core"]
		assert.Equal(t, "https://github.com/nextcloud/server", merged.URL, "url must survive a ref-only override")
		assert.Equal(t, "v29.0.0", merged.Ref)
	})

	t.Run("complete git override replaces the entry", func(t *testing.T) {
		eff, err := Resolve(baseService(), nil, versions(map[string]Source{
			"core": {URL: "https://example.com/fork", Ref: "v29.0.0"},
		}), "v28.0.0", "")
		require.NoError(t, err)

		assert.Equal(t, Source{URL: "https://example.com/fork", Ref: "v29.0.0"}, eff.Sources["core"])
	})

	t.Run("type switch to local drops url and ref", func(t *testing.T) {
		eff, err := Resolve(baseService(), nil, versions(map[string]Source{
			"core": {Path: "vendored/core"},
		}), "v28.0.0", "")
		require.NoError(t, err)

		merged := eff.Sources["core"]
		assert.Equal(t, "vendored/core", merged.Path)
		assert.Empty(t, merged.URL)
		assert.Empty(t, merged.Ref)
	})

	t.Run("keys absent from the override survive verbatim", func(t *testing.T) {
		eff, err := Resolve(baseService(), nil, versions(map[string]Source{
			"core": {Ref: "v29.0.0"},
		}), "v28.0.0", "")
		require.NoError(t, err)

		assert.Equal(t, Source{Path: "patches"}, eff.Sources["patches"])
	})

	t.Run("type switch from local to partial git does not inherit", func(t *testing.T) {
		_, err := Resolve(baseService(), nil, versions(map[string]Source{
			"patches": {Ref: "v1.0.0"},
		}), "v28.0.0", "")
		// Nothing to inherit from a local base, so the merged entry is an
		// incomplete git source and must fail validation.
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Reason, "url and ref")
	})
}

func TestResolve_RecordMerge(t *testing.T) {
	t.Parallel()

	versions := &VersionManifest{Versions: []Version{{
		Name: "v28.0.0",
		Overrides: &Overrides{Fragment: Fragment{
			BuildArgs: map[string]string{"CHANNEL": "beta", "NEW": "x"},
			Images:    map[string]Image{"BASE_IMAGE": {Ref: "docker.io/library/alpine:3.20"}},
		}},
	}}}

	eff, err := Resolve(baseService(), nil, versions, "v28.0.0", "")
	require.NoError(t, err)

	assert.Equal(t, "beta", eff.BuildArgs["CHANNEL"], "overridden key replaced")
	assert.Equal(t, "1", eff.BuildArgs["EXTRA"], "untouched key survives")
	assert.Equal(t, "x", eff.BuildArgs["NEW"], "new key added")
	assert.Equal(t, "docker.io/library/alpine:3.20", eff.Images["BASE_IMAGE"].Ref)
}

func TestResolve_LayerOrder(t *testing.T) {
	t.Parallel()

	platforms := &PlatformManifest{Platforms: []Platform{
		{Name: "debian", Default: true, Fragment: Fragment{Dockerfile: "Dockerfile.debian"}},
		{Name: "alpine", Fragment: Fragment{
			Dockerfile: "Dockerfile.alpine",
			BuildArgs:  map[string]string{"LAYER": "platform"},
		}},
	}}
	versions := &VersionManifest{Versions: []Version{{
		Name: "v28.0.0",
		Overrides: &Overrides{
			Fragment: Fragment{BuildArgs: map[string]string{"LAYER": "version"}},
			Platforms: map[string]*Fragment{
				"alpine": {BuildArgs: map[string]string{"LAYER": "version-platform"}},
			},
		},
	}}}

	eff, err := Resolve(baseService(), platforms, versions, "v28.0.0", "alpine")
	require.NoError(t, err)

	assert.Equal(t, "Dockerfile.alpine", eff.Dockerfile, "platform scalar layered over base")
	assert.Equal(t, "version-platform", eff.BuildArgs["LAYER"], "most specific layer wins")
	assert.Equal(t, "alpine", eff.Platform)
}

func TestResolve_DefaultPlatformForUnsuffixedNode(t *testing.T) {
	t.Parallel()

	platforms := &PlatformManifest{Platforms: []Platform{
		{Name: "debian", Default: true, Fragment: Fragment{Dockerfile: "Dockerfile.debian"}},
		{Name: "alpine", Fragment: Fragment{Dockerfile: "Dockerfile.alpine"}},
	}}

	eff, err := Resolve(baseService(), platforms, nil, "v28.0.0", "")
	require.NoError(t, err)

	assert.Equal(t, "Dockerfile.debian", eff.Dockerfile, "unsuffixed node uses the default platform's fragment")
	assert.Empty(t, eff.Platform, "node identity stays unsuffixed")
}

func TestResolve_UnknownPlatform(t *testing.T) {
	t.Parallel()

	platforms := &PlatformManifest{Platforms: []Platform{{Name: "debian", Default: true}}}

	_, err := Resolve(baseService(), platforms, nil, "v28.0.0", "windows")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "platform", verr.Field)
}

func TestResolve_VersionSelection(t *testing.T) {
	t.Parallel()

	t.Run("unknown version in a manifest is an error", func(t *testing.T) {
		versions := &VersionManifest{Versions: []Version{{Name: "v28.0.0"}}}
		_, err := Resolve(baseService(), nil, versions, "v99.0.0", "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "version", verr.Field)
	})

	t.Run("fixed version must match the request", func(t *testing.T) {
		base := baseService()
		base.Version = "v1.0.0"
		_, err := Resolve(base, nil, nil, "v2.0.0", "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Reason, "fixed")
	})

	t.Run("fixed version fills an empty request", func(t *testing.T) {
		base := baseService()
		base.Version = "v1.0.0"
		eff, err := Resolve(base, nil, nil, "", "")
		require.NoError(t, err)
		assert.Equal(t, "v1.0.0", eff.Version)
	})

	t.Run("no version anywhere is an error", func(t *testing.T) {
		_, err := Resolve(baseService(), nil, nil, "", "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "version", verr.Field)
	})
}

func TestResolve_DependencyOverride(t *testing.T) {
	t.Parallel()

	versions := &VersionManifest{Versions: []Version{{
		Name: "v28.0.0",
		Overrides: &Overrides{Fragment: Fragment{
			Dependencies: []Dependency{
				{Service: "php-base", BuildArg: "PHP_BASE_IMAGE", Version: "v8.3.0"},
				{Service: "redis-base", BuildArg: "REDIS_IMAGE", Version: "v7.2.0"},
			},
		}},
	}}}

	eff, err := Resolve(baseService(), nil, versions, "v28.0.0", "")
	require.NoError(t, err)

	require.Len(t, eff.Dependencies, 2)
	assert.Equal(t, "v8.3.0", eff.Dependencies[0].Version, "existing entry replaced in place")
	assert.Equal(t, "redis-base", eff.Dependencies[1].Service, "new entry appended after")
}

func TestResolve_RequiredFields(t *testing.T) {
	t.Parallel()

	t.Run("dependency without build_arg", func(t *testing.T) {
		base := baseService()
		base.Dependencies = []Dependency{{Service: "php-base"}}
		_, err := Resolve(base, nil, nil, "v28.0.0", "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Reason, "build_arg")
	})

	t.Run("tls enabled without names", func(t *testing.T) {
		base := baseService()
		base.TLS = &TLS{Enabled: true}
		_, err := Resolve(base, nil, nil, "v28.0.0", "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "tls", verr.Field)
	})

	t.Run("image slot without ref", func(t *testing.T) {
		base := baseService()
		base.Images = map[string]Image{"BASE_IMAGE": {}}
		_, err := Resolve(base, nil, nil, "v28.0.0", "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestResolve_TagsAndLatest(t *testing.T) {
	t.Parallel()

	versions := &VersionManifest{Versions: []Version{{
		Name:   "v28.0.0",
		Latest: true,
		Tags:   []string{"stable"},
	}}}

	eff, err := Resolve(baseService(), nil, versions, "v28.0.0", "")
	require.NoError(t, err)

	assert.True(t, eff.Latest)
	assert.Equal(t, []string{"stable"}, eff.Tags)
}

func TestResolve_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	base := baseService()
	versions := &VersionManifest{Versions: []Version{{
		Name: "v28.0.0",
		Overrides: &Overrides{Fragment: Fragment{
			BuildArgs: map[string]string{"CHANNEL": "beta"},
			Sources:   map[string]Source{"core": {Ref: "v29.0.0"}},
		}},
	}}}

	first, err := Resolve(base, nil, versions, "v28.0.0", "")
	require.NoError(t, err)
	first.BuildArgs["MUTATED"] = "yes"
	first.Sources["core"] = Source{Path: "elsewhere"}

	assert.Equal(t, "stable", base.BuildArgs["CHANNEL"], "base must keep its own values")
	assert.NotContains(t, base.BuildArgs, "MUTATED")

	second, err := Resolve(base, nil, versions, "v28.0.0", "")
	require.NoError(t, err)
	assert.Equal(t, "beta", second.BuildArgs["CHANNEL"])
	assert.Equal(t, "v29.0.0", second.Sources["core"].Ref, "repeated resolution is stable")
}
