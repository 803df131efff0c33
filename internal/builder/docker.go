package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"

	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
)

func init() {
	Register("docker", func(opts Options) (Builder, error) {
		return newDockerBuilder(opts), nil
	})
}

const remoteInspectRetries = 3

// dockerBuilder drives the Docker CLI. Build output streams to the process's
// stdout and stderr; inspect commands capture theirs.
type dockerBuilder struct {
	bin           string
	progress      string
	retryInterval time.Duration

	// Swapped out in tests.
	output func(ctx context.Context, name string, args ...string) ([]byte, error)
	stream func(ctx context.Context, name string, args ...string) error
}

func newDockerBuilder(opts Options) *dockerBuilder {
	progress := opts.Progress
	if progress == "" {
		progress = "auto"
	}
	return &dockerBuilder{
		bin:           "docker",
		progress:      progress,
		retryInterval: 500 * time.Millisecond,
		output:        runOutput,
		stream:        runStream,
	}
}

func (d *dockerBuilder) Build(ctx context.Context, req Request) error {
	args := buildxArgs(req, d.progress)
	ctxlog.FromContext(ctx).Debug("Invoking docker build.", "args", strings.Join(args, " "))
	if err := d.stream(ctx, d.bin, args...); err != nil {
		return &BuildError{Tags: req.Tags, Err: err}
	}
	return nil
}

// buildxArgs renders a request into a buildx argument list. Map-backed flags
// are emitted in sorted key order so the argv is stable across runs.
func buildxArgs(req Request, progress string) []string {
	args := []string{"buildx", "build", "--provenance=false", "--progress", progress}
	if req.Dockerfile != "" {
		args = append(args, "--file", filepath.Join(req.ContextDir, req.Dockerfile))
	}
	for _, tag := range req.Tags {
		args = append(args, "--tag", tag)
	}
	for _, k := range sortedStringKeys(req.BuildArgs) {
		args = append(args, "--build-arg", k+"="+req.BuildArgs[k])
	}
	for _, k := range sortedStringKeys(req.Contexts) {
		args = append(args, "--build-context", k+"="+req.Contexts[k])
	}
	for _, k := range sortedStringKeys(req.Labels) {
		args = append(args, "--label", k+"="+req.Labels[k])
	}
	if len(req.Platforms) > 0 {
		args = append(args, "--platform", strings.Join(req.Platforms, ","))
	}
	if req.Push {
		args = append(args, "--push")
	}
	if req.Load {
		args = append(args, "--load")
	}
	return append(args, req.ContextDir)
}

type imageInspect struct {
	ID     string `json:"Id"`
	Config struct {
		Labels map[string]string `json:"Labels"`
	} `json:"Config"`
}

func (d *dockerBuilder) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, ok, err := d.inspectImage(ctx, ref)
	return ok, err
}

func (d *dockerBuilder) ImageLabel(ctx context.Context, ref, label string) (string, error) {
	entry, ok, err := d.inspectImage(ctx, ref)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("image %q not found locally", ref)
	}
	return entry.Config.Labels[label], nil
}

func (d *dockerBuilder) inspectImage(ctx context.Context, ref string) (*imageInspect, bool, error) {
	out, err := d.output(ctx, d.bin, "image", "inspect", ref)
	if err != nil {
		if isNoSuchImage(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("inspecting image %q: %w", ref, err)
	}
	var entries []imageInspect
	if err := json.Unmarshal(out, &entries); err != nil {
		return nil, false, fmt.Errorf("decoding inspect output for %q: %w", ref, err)
	}
	if len(entries) == 0 {
		return nil, false, nil
	}
	return &entries[0], true, nil
}

// RemoteManifestExists asks the registry through `docker buildx imagetools
// inspect`. A definite not-found answer returns immediately; transient
// failures are retried with exponential backoff before giving up.
func (d *dockerBuilder) RemoteManifestExists(ctx context.Context, ref string) (bool, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = d.retryInterval
	retry := backoff.WithMaxRetries(backoff.WithContext(exp, ctx), remoteInspectRetries)

	var exists bool
	err := backoff.Retry(func() error {
		_, err := d.output(ctx, d.bin, "buildx", "imagetools", "inspect", ref)
		if err == nil {
			exists = true
			return nil
		}
		if isManifestNotFound(err) {
			exists = false
			return nil
		}
		ctxlog.FromContext(ctx).Debug("Remote manifest inspection failed; retrying.", "ref", ref, "error", err)
		return err
	}, retry)
	if err != nil {
		return false, fmt.Errorf("inspecting remote manifest %q: %w", ref, err)
	}
	return exists, nil
}

// Ping verifies the Docker daemon is reachable.
func (d *dockerBuilder) Ping(ctx context.Context) error {
	if _, err := d.output(ctx, d.bin, "version", "--format", "{{.Server.Version}}"); err != nil {
		return fmt.Errorf("docker daemon unreachable: %w", err)
	}
	return nil
}

func isNoSuchImage(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	stderr := strings.ToLower(string(exitErr.Stderr))
	return strings.Contains(stderr, "no such image") || strings.Contains(stderr, "no such object")
}

func isManifestNotFound(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	stderr := strings.ToLower(string(exitErr.Stderr))
	for _, marker := range []string{"not found", "no such manifest", "manifest unknown", "name unknown"} {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

func runOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func runStream(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
