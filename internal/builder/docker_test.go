package builder

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exitError fabricates the error shape the Docker CLI produces: a non-zero
// exit with captured stderr.
func exitError(t *testing.T, stderr string) error {
	t.Helper()
	err := exec.Command("false").Run()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	exitErr.Stderr = []byte(stderr)
	return exitErr
}

func testDockerBuilder() *dockerBuilder {
	d := newDockerBuilder(Options{Progress: "plain"})
	d.retryInterval = time.Millisecond
	return d
}

func TestBuildxArgs(t *testing.T) {
	t.Parallel()

	req := Request{
		ContextDir: "/repo/services/nextcloud",
		Dockerfile: "Dockerfile.alpine",
		Tags:       []string{"reg.example.com/nextcloud:v29.0.0-alpine", "reg.example.com/nextcloud:stable"},
		BuildArgs:  map[string]string{"PHP_BASE_IMAGE": "reg.example.com/php-base:v8.3.0", "CORE_REPO": "https://example.com/core.git"},
		Contexts:   map[string]string{"patches": "/repo/services/nextcloud/patches"},
		Labels:     map[string]string{"dev.forge.service-def-hash": "abc123"},
		Platforms:  []string{"linux/amd64", "linux/arm64"},
		Push:       true,
	}

	assert.Equal(t, []string{
		"buildx", "build", "--provenance=false", "--progress", "plain",
		"--file", "/repo/services/nextcloud/Dockerfile.alpine",
		"--tag", "reg.example.com/nextcloud:v29.0.0-alpine",
		"--tag", "reg.example.com/nextcloud:stable",
		"--build-arg", "CORE_REPO=https://example.com/core.git",
		"--build-arg", "PHP_BASE_IMAGE=reg.example.com/php-base:v8.3.0",
		"--build-context", "patches=/repo/services/nextcloud/patches",
		"--label", "dev.forge.service-def-hash=abc123",
		"--platform", "linux/amd64,linux/arm64",
		"--push",
		"/repo/services/nextcloud",
	}, buildxArgs(req, "plain"))
}

func TestBuildxArgs_Minimal(t *testing.T) {
	t.Parallel()

	req := Request{ContextDir: "/ctx", Tags: []string{"img:v1"}, Load: true}
	assert.Equal(t, []string{
		"buildx", "build", "--provenance=false", "--progress", "auto",
		"--tag", "img:v1",
		"--load",
		"/ctx",
	}, buildxArgs(req, "auto"))
}

func TestDockerBuild(t *testing.T) {
	t.Parallel()

	d := testDockerBuilder()
	var gotArgs []string
	d.stream = func(_ context.Context, name string, args ...string) error {
		assert.Equal(t, "docker", name)
		gotArgs = args
		return nil
	}

	require.NoError(t, d.Build(context.Background(), Request{ContextDir: "/ctx", Tags: []string{"img:v1"}}))
	assert.Contains(t, gotArgs, "--provenance=false")
	assert.Equal(t, "/ctx", gotArgs[len(gotArgs)-1])
}

func TestDockerBuild_Failure(t *testing.T) {
	t.Parallel()

	d := testDockerBuilder()
	cause := errors.New("exit status 1")
	d.stream = func(context.Context, string, ...string) error { return cause }

	err := d.Build(context.Background(), Request{Tags: []string{"img:v1", "img:latest"}})
	var berr *BuildError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, []string{"img:v1", "img:latest"}, berr.Tags)
	assert.ErrorIs(t, err, cause)
}

func TestImageExists(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()
		d := testDockerBuilder()
		d.output = func(context.Context, string, ...string) ([]byte, error) {
			return []byte(`[{"Id":"sha256:deadbeef","Config":{"Labels":{}}}]`), nil
		}

		ok, err := d.ImageExists(context.Background(), "img:v1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		d := testDockerBuilder()
		d.output = func(context.Context, string, ...string) ([]byte, error) {
			return nil, exitError(t, "Error: No such image: img:v1")
		}

		ok, err := d.ImageExists(context.Background(), "img:v1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("daemon error", func(t *testing.T) {
		t.Parallel()
		d := testDockerBuilder()
		d.output = func(context.Context, string, ...string) ([]byte, error) {
			return nil, exitError(t, "Cannot connect to the Docker daemon")
		}

		_, err := d.ImageExists(context.Background(), "img:v1")
		require.Error(t, err)
	})
}

func TestImageLabel(t *testing.T) {
	t.Parallel()

	d := testDockerBuilder()
	d.output = func(context.Context, string, ...string) ([]byte, error) {
		return []byte(`[{"Id":"sha256:deadbeef","Config":{"Labels":{"dev.forge.service-def-hash":"abc123"}}}]`), nil
	}

	got, err := d.ImageLabel(context.Background(), "img:v1", "dev.forge.service-def-hash")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)

	got, err = d.ImageLabel(context.Background(), "img:v1", "other.label")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestImageLabel_MissingImage(t *testing.T) {
	t.Parallel()

	d := testDockerBuilder()
	d.output = func(context.Context, string, ...string) ([]byte, error) {
		return nil, exitError(t, "Error: No such image: img:v1")
	}

	_, err := d.ImageLabel(context.Background(), "img:v1", "any")
	require.ErrorContains(t, err, "not found locally")
}

func TestRemoteManifestExists(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()
		d := testDockerBuilder()
		calls := 0
		d.output = func(context.Context, string, ...string) ([]byte, error) {
			calls++
			return []byte("manifest"), nil
		}

		ok, err := d.RemoteManifestExists(context.Background(), "img:v1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, calls)
	})

	t.Run("not found is an answer, not an error", func(t *testing.T) {
		t.Parallel()
		d := testDockerBuilder()
		calls := 0
		d.output = func(context.Context, string, ...string) ([]byte, error) {
			calls++
			return nil, exitError(t, "ERROR: img:v1: not found")
		}

		ok, err := d.RemoteManifestExists(context.Background(), "img:v1")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, calls)
	})

	t.Run("transient failure retried", func(t *testing.T) {
		t.Parallel()
		d := testDockerBuilder()
		calls := 0
		d.output = func(context.Context, string, ...string) ([]byte, error) {
			calls++
			if calls < 3 {
				return nil, exitError(t, "i/o timeout")
			}
			return []byte("manifest"), nil
		}

		ok, err := d.RemoteManifestExists(context.Background(), "img:v1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()
		d := testDockerBuilder()
		calls := 0
		d.output = func(context.Context, string, ...string) ([]byte, error) {
			calls++
			return nil, exitError(t, "i/o timeout")
		}

		_, err := d.RemoteManifestExists(context.Background(), "img:v1")
		require.ErrorContains(t, err, "inspecting remote manifest")
		assert.Equal(t, remoteInspectRetries+1, calls)
	})
}
