// Package testutil carries the integration test harness: it lays descriptor
// repositories out on disk, runs full build pipelines against a fake
// backend, and captures logs for assertions.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MahdiBaghbani/containers-sub001/internal/app"
	"github.com/MahdiBaghbani/containers-sub001/internal/orchestrator"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Summary   *orchestrator.Summary
	App       *app.App
	Err       error
}

// WriteRepo lays the given files out under a fresh temp directory and
// returns its root. Paths are relative, so "services/web/service.hcl"
// creates the usual repository shape.
func WriteRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// NewApp builds an application over the repository root, logging at debug
// into a capture buffer.
func NewApp(t *testing.T, root string) (*app.App, *SafeBuffer) {
	t.Helper()
	cfg, err := app.NewConfig(app.Config{
		ServicesDir: filepath.Join(root, "services"),
		LogLevel:    "debug",
		LogFormat:   "text",
	})
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	a, err := app.New(&bytes.Buffer{}, logBuffer, cfg)
	require.NoError(t, err)
	return a, logBuffer
}

// RunBuild writes the repository, runs one build through the whole
// pipeline, and returns the captured result. The backend defaults to noop
// so no test ever reaches for a real docker daemon.
func RunBuild(t *testing.T, files map[string]string, opts app.BuildOptions) *HarnessResult {
	t.Helper()
	return RunBuildWithContext(context.Background(), t, files, opts)
}

// RunBuildWithContext is RunBuild with a caller-provided context.
func RunBuildWithContext(ctx context.Context, t *testing.T, files map[string]string, opts app.BuildOptions) *HarnessResult {
	t.Helper()

	if opts.Builder == "" {
		opts.Builder = "noop"
	}
	root := WriteRepo(t, files)
	a, logBuffer := NewApp(t, root)

	summary, err := a.Build(ctx, opts)

	if os.Getenv("FORGE_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Summary:   summary,
		App:       a,
		Err:       err,
	}
}
