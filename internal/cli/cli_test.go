package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureRepo writes a small descriptor repository and returns its services
// directory.
func fixtureRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"forge.hcl": `
defaults {
  registry = "reg.example.com"
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
version "v1.0.0" {
  latest = true
}
`,
		"services/base/Dockerfile": "FROM scratch\n",
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
		"services/web/Dockerfile": "FROM debian\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return filepath.Join(root, "services")
}

// execute runs the command tree and returns captured stdout, stderr, and the
// error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(append(args, "--no-color"), &out, &errOut)
	return out.String(), errOut.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	return exitErr.Code
}

func TestExecute_Help(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "forge")
	assert.Contains(t, out, "build")
	assert.Contains(t, out, "order")
	assert.Contains(t, out, "hash")
}

func TestExecute_UnknownCommand(t *testing.T) {
	_, _, err := execute(t, "frobnicate")
	assert.Equal(t, 2, exitCode(t, err))
}

func TestExecute_InvalidLogFormat(t *testing.T) {
	_, _, err := execute(t, "list", "--log-format", "xml")
	assert.Equal(t, 2, exitCode(t, err))
	assert.Contains(t, err.Error(), "invalid log-format")
}

func TestExecute_InvalidLogLevel(t *testing.T) {
	_, _, err := execute(t, "list", "--log-level", "loud")
	assert.Equal(t, 2, exitCode(t, err))
	assert.Contains(t, err.Error(), "invalid log-level")
}

func TestBuild_InvalidDepCache(t *testing.T) {
	_, _, err := execute(t, "build", "--dep-cache", "banana")
	assert.Equal(t, 2, exitCode(t, err))
	assert.Contains(t, err.Error(), "invalid dep-cache mode")
}

func TestBuild_InvalidStatusPort(t *testing.T) {
	_, _, err := execute(t, "build", "--status-port=-1")
	assert.Equal(t, 2, exitCode(t, err))
	assert.Contains(t, err.Error(), "invalid status-port")
}

func TestOrderCommand(t *testing.T) {
	dir := fixtureRepo(t)
	out, _, err := execute(t, "order", "--services-dir", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Build order (2 nodes):")
	base := strings.Index(out, "base:v1.0.0")
	web := strings.Index(out, "web:v1.0.0")
	require.GreaterOrEqual(t, base, 0)
	require.GreaterOrEqual(t, web, 0)
	assert.Less(t, base, web)
}

func TestHashCommand(t *testing.T) {
	dir := fixtureRepo(t)
	out, _, err := execute(t, "hash", "web", "--services-dir", dir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "base:v1.0.0")
	assert.Contains(t, lines[1], "web:v1.0.0")
	fields := strings.Fields(lines[1])
	require.Len(t, fields, 2)
	assert.Len(t, fields[1], 64)
}

func TestListCommand(t *testing.T) {
	dir := fixtureRepo(t)
	out, _, err := execute(t, "list", "--services-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "base")
	assert.Contains(t, out, "web")
	assert.Contains(t, out, "v1.0.0  latest")
}

func TestBuildCommand_NoopBackend(t *testing.T) {
	dir := fixtureRepo(t)
	out, logOut, err := execute(t, "build", "web", "--services-dir", dir, "--builder", "noop")
	require.NoError(t, err)

	assert.Contains(t, out, "Run ")
	assert.Contains(t, out, "built")
	assert.Contains(t, out, "2 built, 0 skipped, 0 failed, 0 pending")
	// Logs go to stderr so the summary stays pipeable.
	assert.Contains(t, logOut, "Dry run")
}

func TestBuildCommand_UnknownTarget(t *testing.T) {
	dir := fixtureRepo(t)
	_, _, err := execute(t, "build", "ghost", "--services-dir", dir, "--builder", "noop")
	require.Error(t, err)
}

func TestDocsCommand_FailsOnFindings(t *testing.T) {
	dir := fixtureRepo(t)
	out, _, err := execute(t, "docs", "--services-dir", dir)
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, out, "README.md is missing")
}

func TestCertsCommand_NothingToProvision(t *testing.T) {
	dir := fixtureRepo(t)
	out, _, err := execute(t, "certs", "--services-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to provision")
}

func TestDiagCommand(t *testing.T) {
	dir := fixtureRepo(t)
	out, _, err := execute(t, "diag", "--services-dir", dir, "--builder", "noop")
	require.NoError(t, err)
	assert.Contains(t, out, "Disk")
	assert.Contains(t, out, "services dir")
	assert.Contains(t, out, "Builder")
	assert.Contains(t, out, "reachable")
}

func TestCICommand_Stdout(t *testing.T) {
	dir := fixtureRepo(t)
	out, _, err := execute(t, "ci", "--services-dir", dir, "--stdout")
	require.NoError(t, err)
	assert.Contains(t, out, "name: forge-build")
	assert.Contains(t, out, "forge build web:v1.0.0 --dep-cache strict --remote --push")
}
