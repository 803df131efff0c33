package docs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MahdiBaghbani/containers-sub001/internal/descriptor"
)

// writeTree lays out one service directory under a fresh services root and
// returns a store over it.
func writeTree(t *testing.T, name string, files map[string]string) *descriptor.Store {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "services", name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for file, content := range files {
		path := filepath.Join(dir, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return descriptor.New(filepath.Join(root, "services"))
}

func TestLint_Clean(t *testing.T) {
	t.Parallel()
	store := writeTree(t, "web", map[string]string{
		"service.hcl":  `service "web" {}`,
		"versions.hcl": `version "v1.0.0" {}`,
		"Dockerfile":   "FROM scratch\n",
		"README.md":    "# web\n\nShips v1.0.0.\n",
	})

	findings := Lint(context.Background(), store, []string{"web"})
	assert.Empty(t, findings)
	assert.False(t, HasErrors(findings))
}

func TestLint_MissingReadme(t *testing.T) {
	t.Parallel()
	store := writeTree(t, "web", map[string]string{
		"service.hcl": `service "web" {}`,
		"Dockerfile":  "FROM scratch\n",
	})

	findings := Lint(context.Background(), store, []string{"web"})
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityError, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "README.md is missing")
	assert.True(t, HasErrors(findings))
}

func TestLint_ReadmeWithoutHeading(t *testing.T) {
	t.Parallel()
	store := writeTree(t, "web", map[string]string{
		"service.hcl": `service "web" {}`,
		"Dockerfile":  "FROM scratch\n",
		"README.md":   "web service\n=====\n",
	})

	findings := Lint(context.Background(), store, []string{"web"})
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "level-1 heading")
}

func TestLint_UnmentionedVersionWarns(t *testing.T) {
	t.Parallel()
	store := writeTree(t, "web", map[string]string{
		"service.hcl":  `service "web" {}`,
		"versions.hcl": `version "v1.0.0" {}` + "\n" + `version "v2.0.0" {}`,
		"Dockerfile":   "FROM scratch\n",
		"README.md":    "# web\n\nOnly v1.0.0 documented.\n",
	})

	findings := Lint(context.Background(), store, []string{"web"})
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityWarning, findings[0].Severity)
	assert.Contains(t, findings[0].Message, `version "v2.0.0" is not mentioned`)
	assert.False(t, HasErrors(findings))
}

func TestLint_MissingDockerfiles(t *testing.T) {
	t.Parallel()
	store := writeTree(t, "web", map[string]string{
		"service.hcl": `service "web" {}`,
		"versions.hcl": `
version "v1.0.0" {
  overrides {
    dockerfile = "Dockerfile.v1"
  }
}
`,
		"platforms.hcl": `
platform "debian" {
  default = true
}

platform "alpine" {
  dockerfile = "Dockerfile.alpine"
}
`,
		"Dockerfile": "FROM scratch\n",
		"README.md":  "# web\n\nv1.0.0\n",
	})

	findings := Lint(context.Background(), store, []string{"web"})
	require.Len(t, findings, 2)
	messages := []string{findings[0].Message, findings[1].Message}
	assert.Contains(t, messages[0]+messages[1], "Dockerfile.alpine")
	assert.Contains(t, messages[0]+messages[1], "Dockerfile.v1")
	assert.True(t, HasErrors(findings))
}

func TestLint_BrokenDescriptor(t *testing.T) {
	t.Parallel()
	store := writeTree(t, "web", map[string]string{
		"service.hcl": `service "web" {`,
	})

	findings := Lint(context.Background(), store, []string{"web"})
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityError, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "descriptor failed to load")
}

func TestLint_MultipleServicesKeepOrder(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	for _, name := range []string{"alpha", "beta"} {
		dir := filepath.Join(root, "services", name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "service.hcl"), []byte(`service "`+name+`" {}`), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o644))
	}
	store := descriptor.New(filepath.Join(root, "services"))

	findings := Lint(context.Background(), store, []string{"alpha", "beta"})
	require.Len(t, findings, 2)
	assert.Equal(t, "alpha", findings[0].Service)
	assert.Equal(t, "beta", findings[1].Service)
}
