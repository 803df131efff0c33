// Package gitref resolves git (url, ref) pairs to commit revisions through
// `git ls-remote`, caching each pair for the lifetime of one run. The cache
// is a scoped arena owned by the orchestrator and passed down explicitly;
// it is discarded at process exit and never persisted.
package gitref

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
)

type key struct {
	url string
	ref string
}

// Cache maps (url, ref) to the resolved commit revision. Runs are
// single-threaded, so the cache performs no locking.
type Cache struct {
	entries map[key]string
	runner  func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCache returns an empty cache backed by the git binary.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[key]string),
		runner:  runCommand,
	}
}

// Resolve returns the commit revision the ref points to at the remote. A
// ref that is already a full revision is returned as-is without touching
// the network. Each distinct (url, ref) pair is queried at most once per
// run.
func (c *Cache) Resolve(ctx context.Context, url, ref string) (string, error) {
	if isRevision(ref) {
		return ref, nil
	}

	k := key{url: url, ref: ref}
	if revision, ok := c.entries[k]; ok {
		return revision, nil
	}

	out, err := c.runner(ctx, "git", "ls-remote", url, ref, ref+"^{}")
	if err != nil {
		return "", fmt.Errorf("resolving ref %q at %s: %w", ref, url, err)
	}
	revision, err := parseLsRemote(out, url, ref)
	if err != nil {
		return "", err
	}

	c.entries[k] = revision
	ctxlog.FromContext(ctx).Debug("Resolved git ref.", "url", url, "ref", ref, "revision", revision)
	return revision, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// parseLsRemote picks the revision out of ls-remote output. The peeled
// `^{}` line wins when present, so annotated tags resolve to the commit
// they point at rather than the tag object.
func parseLsRemote(out []byte, url, ref string) (string, error) {
	revision := ""
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if strings.HasSuffix(fields[1], "^{}") {
			return fields[0], nil
		}
		if revision == "" {
			revision = fields[0]
		}
	}
	if revision == "" {
		return "", fmt.Errorf("ref %q not found at %s", ref, url)
	}
	return revision, nil
}

// isRevision reports whether the ref is already a full 40-hex commit id.
func isRevision(ref string) bool {
	if len(ref) != 40 {
		return false
	}
	for _, r := range ref {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
