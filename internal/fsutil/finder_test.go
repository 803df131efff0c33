package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverServices(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, dir := range []string{"zebra", "alpha", "empty"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o750))
	}
	for _, dir := range []string{"zebra", "alpha"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, dir, "service.hcl"), []byte("service \"x\" {}\n"), 0o600))
	}
	// A stray file at the root must not be mistaken for a service.
	require.NoError(t, os.WriteFile(filepath.Join(root, "service.hcl"), []byte(""), 0o600))

	services, err := DiscoverServices(root, "service.hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zebra"}, services, "lexical order, marker-less dirs excluded")
}

func TestDiscoverServices_MissingRoot(t *testing.T) {
	t.Parallel()

	_, err := DiscoverServices(filepath.Join(t.TempDir(), "nope"), "service.hcl")
	assert.Error(t, err)
}

func TestDirSize(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a"), make([]byte, 100), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b"), make([]byte, 50), 0o600))

	files, bytes, err := DirSize(root)
	require.NoError(t, err)
	assert.Equal(t, 2, files)
	assert.Equal(t, int64(150), bytes)
}

func TestDirSize_MissingRoot(t *testing.T) {
	t.Parallel()

	files, bytes, err := DirSize(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err, "a missing directory reports zero usage")
	assert.Zero(t, files)
	assert.Zero(t, bytes)
}
