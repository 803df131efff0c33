package gitref

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tagObject = "1111111111111111111111111111111111111111"
	commit    = "2222222222222222222222222222222222222222"
)

func cacheWithOutput(out string, err error) (*Cache, *int) {
	calls := 0
	c := NewCache()
	c.runner = func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls++
		return []byte(out), err
	}
	return c, &calls
}

func TestResolve_PlainRef(t *testing.T) {
	t.Parallel()

	c, calls := cacheWithOutput(commit+"\trefs/heads/main\n", nil)
	revision, err := c.Resolve(context.Background(), "https://example.com/repo", "main")
	require.NoError(t, err)
	assert.Equal(t, commit, revision)
	assert.Equal(t, 1, *calls)
}

func TestResolve_PrefersPeeledTag(t *testing.T) {
	t.Parallel()

	out := tagObject + "\trefs/tags/v1.0.0\n" + commit + "\trefs/tags/v1.0.0^{}\n"
	c, _ := cacheWithOutput(out, nil)

	revision, err := c.Resolve(context.Background(), "https://example.com/repo", "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, commit, revision, "an annotated tag must resolve to the commit it points at")
}

func TestResolve_CachesPerPair(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c, calls := cacheWithOutput(commit+"\trefs/tags/v1.0.0\n", nil)

	first, err := c.Resolve(ctx, "https://example.com/repo", "v1.0.0")
	require.NoError(t, err)
	second, err := c.Resolve(ctx, "https://example.com/repo", "v1.0.0")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, *calls, "the remote is queried once per (url, ref) pair")
	assert.Equal(t, 1, c.Len())

	_, err = c.Resolve(ctx, "https://example.com/other", "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, 2, *calls, "a different url is a different cache key")
}

func TestResolve_FullRevisionShortCircuits(t *testing.T) {
	t.Parallel()

	c, calls := cacheWithOutput("", nil)
	revision, err := c.Resolve(context.Background(), "https://example.com/repo", commit)
	require.NoError(t, err)
	assert.Equal(t, commit, revision)
	assert.Zero(t, *calls, "a full revision needs no network round-trip")
}

func TestResolve_RefNotFound(t *testing.T) {
	t.Parallel()

	c, _ := cacheWithOutput("", nil)
	_, err := c.Resolve(context.Background(), "https://example.com/repo", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestResolve_CommandFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("remote unreachable")
	c, _ := cacheWithOutput("", boom)
	_, err := c.Resolve(context.Background(), "https://example.com/repo", "main")
	require.ErrorIs(t, err, boom)
}

func TestIsRevision(t *testing.T) {
	t.Parallel()

	assert.True(t, isRevision(commit))
	assert.False(t, isRevision("v1.0.0"))
	assert.False(t, isRevision(strings.ToUpper(commit)), "revisions are lowercase hex")
	assert.False(t, isRevision(commit[:39]))
}
