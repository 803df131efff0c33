package app

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeRepo lays a descriptor repository out under a temp root and returns
// the root.
func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// repoFixture is a three-service repository: a versioned single-platform
// service, a fixed-version service, and a multi-platform service depending
// on the first.
func repoFixture(t *testing.T) string {
	t.Helper()
	return writeRepo(t, map[string]string{
		"forge.hcl": `
defaults {
  registry = "reg.example.com"
  cert_dir = "pki"
}
`,
		"services/base/service.hcl": `
service "base" {
  image "UPSTREAM" {
    ref = "docker.io/library/debian:bookworm-slim"
  }
}
`,
		"services/base/versions.hcl": `
version "v0.9.0" {}

version "v1.0.0" {
  latest = true
  tags   = ["stable"]
}
`,
		"services/base/Dockerfile": "FROM scratch\n",
		"services/tool/service.hcl": `
service "tool" {
  version = "v2.5.0"
}
`,
		"services/tool/Dockerfile": "FROM scratch\nLABEL tool=true\n",
		"services/web/service.hcl": `
service "web" {
  dependency "base" {
    build_arg = "BASE_IMAGE"
  }
}
`,
		"services/web/versions.hcl": `
version "v1.0.0" {
  latest = true
}
`,
		"services/web/platforms.hcl": `
platform "debian" {
  default = true
}

platform "alpine" {
  dockerfile = "Dockerfile.alpine"
}
`,
		"services/web/Dockerfile":        "FROM debian\n",
		"services/web/Dockerfile.alpine": "FROM alpine\n",
	})
}

func newTestApp(t *testing.T, root string) *App {
	t.Helper()
	cfg, err := NewConfig(Config{ServicesDir: filepath.Join(root, "services")})
	require.NoError(t, err)
	a, err := New(io.Discard, io.Discard, cfg)
	require.NoError(t, err)
	return a
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	_, err := NewConfig(Config{})
	require.Error(t, err)

	cfg, err := NewConfig(Config{ServicesDir: "services"})
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNew_AppliesRepoDefaults(t *testing.T) {
	t.Parallel()

	root := repoFixture(t)
	a := newTestApp(t, root)

	assert.Equal(t, "reg.example.com", a.cfg.Registry)
	assert.Equal(t, filepath.Join(root, "pki"), a.cfg.CertDir)
	assert.Empty(t, a.cfg.CacheDir)
}

func TestNew_FlagsWinOverRepoDefaults(t *testing.T) {
	t.Parallel()

	root := repoFixture(t)
	cfg, err := NewConfig(Config{
		ServicesDir: filepath.Join(root, "services"),
		Registry:    "other.example.com",
		CertDir:     "/var/lib/forge/certs",
	})
	require.NoError(t, err)
	a, err := New(io.Discard, io.Discard, cfg)
	require.NoError(t, err)

	assert.Equal(t, "other.example.com", a.cfg.Registry)
	assert.Equal(t, "/var/lib/forge/certs", a.cfg.CertDir)
}

func TestNew_BrokenRepoConfig(t *testing.T) {
	t.Parallel()

	root := writeRepo(t, map[string]string{
		"forge.hcl":                 "defaults {\n",
		"services/base/service.hcl": `service "base" {}`,
	})
	cfg, err := NewConfig(Config{ServicesDir: filepath.Join(root, "services")})
	require.NoError(t, err)

	_, err = New(io.Discard, io.Discard, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository defaults")
}
