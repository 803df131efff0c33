package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MahdiBaghbani/containers-sub001/internal/ciwf"
)

func TestGenerateCI_Stdout(t *testing.T) {
	t.Parallel()

	root := repoFixture(t)
	cfg, err := NewConfig(Config{ServicesDir: filepath.Join(root, "services")})
	require.NoError(t, err)
	var out bytes.Buffer
	a, err := New(&out, io.Discard, cfg)
	require.NoError(t, err)

	path, err := a.GenerateCI(context.Background(), CIOptions{
		Targets: []string{"web"},
		Stdout:  true,
	})
	require.NoError(t, err)
	assert.Empty(t, path)

	rendered := out.String()
	assert.Contains(t, rendered, "name: forge-build")
	assert.Contains(t, rendered, "forge build web:v1.0.0:alpine --dep-cache strict --remote --push")
	assert.Contains(t, rendered, "needs:\n")
	assert.Contains(t, rendered, "base-v1-0-0")
}

func TestGenerateCI_WritesWorkflowFile(t *testing.T) {
	t.Parallel()

	root := repoFixture(t)
	a := newTestApp(t, root)

	path, err := a.GenerateCI(context.Background(), CIOptions{
		Workflow: ciwf.Options{Name: "nightly", Branches: []string{"release"}},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".github", "workflows", "nightly.yml"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "name: nightly")
	assert.Contains(t, string(raw), "- release")
}
