// Package docs lints the human-facing documentation of services: every
// service ships a README that names its versions, and every dockerfile a
// descriptor references must exist. Findings are reported, not fixed.
package docs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MahdiBaghbani/containers-sub001/internal/config"
	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one lint result for one service.
type Finding struct {
	Service  string
	Severity Severity
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Service, f.Severity, f.Message)
}

// HasErrors reports whether any finding is error severity.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Source provides descriptors and directories. Satisfied by
// descriptor.Store.
type Source interface {
	LoadService(name string) (*config.ServiceConfig, error)
	LoadVersions(name string) (*config.VersionManifest, error)
	LoadPlatforms(name string) (*config.PlatformManifest, error)
	ServiceDir(name string) string
}

// Lint checks the given services in order. Descriptor load failures become
// error findings so one broken service does not hide the rest.
func Lint(ctx context.Context, src Source, services []string) []Finding {
	logger := ctxlog.FromContext(ctx)
	var findings []Finding

	for _, name := range services {
		logger.Debug("Linting service documentation.", "service", name)
		findings = append(findings, lintService(src, name)...)
	}
	return findings
}

func lintService(src Source, name string) []Finding {
	var findings []Finding
	fail := func(format string, args ...any) {
		findings = append(findings, Finding{Service: name, Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
	}
	warn := func(format string, args ...any) {
		findings = append(findings, Finding{Service: name, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
	}

	base, err := src.LoadService(name)
	if err != nil {
		fail("descriptor failed to load: %v", err)
		return findings
	}
	versions, err := src.LoadVersions(name)
	if err != nil && !isNotFound(err) {
		fail("version manifest failed to load: %v", err)
		return findings
	}
	platforms, err := src.LoadPlatforms(name)
	if err != nil && !isNotFound(err) {
		fail("platform manifest failed to load: %v", err)
		return findings
	}

	dir := src.ServiceDir(name)

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	switch {
	case err != nil:
		fail("README.md is missing")
	case !startsWithHeading(readme):
		fail("README.md must start with a level-1 heading")
	default:
		if versions != nil {
			for _, v := range versions.Versions {
				if !strings.Contains(string(readme), v.Name) {
					warn("version %q is not mentioned in README.md", v.Name)
				}
			}
		}
	}

	for _, df := range dockerfileRefs(base, versions, platforms) {
		if _, err := os.Stat(filepath.Join(dir, df)); err != nil {
			fail("referenced dockerfile %q does not exist", df)
		}
	}
	return findings
}

// startsWithHeading reports whether the first non-blank line is a level-1
// markdown heading.
func startsWithHeading(readme []byte) bool {
	for _, line := range strings.Split(string(readme), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		return strings.HasPrefix(trimmed, "# ")
	}
	return false
}

// dockerfileRefs collects every dockerfile path any layer can select,
// resolved against that layer's context. This is a static approximation of
// the resolver's layering: a fragment that sets only one of context and
// dockerfile inherits the other from the base.
func dockerfileRefs(base *config.ServiceConfig, versions *config.VersionManifest, platforms *config.PlatformManifest) []string {
	baseCtx := base.Context
	if baseCtx == "" {
		baseCtx = config.DefaultContext
	}
	baseDF := base.Dockerfile
	if baseDF == "" {
		baseDF = config.DefaultDockerfile
	}

	seen := make(map[string]bool)
	var refs []string
	add := func(frag config.Fragment) {
		ctx, df := baseCtx, baseDF
		if frag.Context != "" {
			ctx = frag.Context
		}
		if frag.Dockerfile != "" {
			df = frag.Dockerfile
		}
		path := filepath.Join(ctx, df)
		if !seen[path] {
			seen[path] = true
			refs = append(refs, path)
		}
	}

	add(config.Fragment{})
	if platforms != nil {
		for _, p := range platforms.Platforms {
			add(p.Fragment)
		}
	}
	if versions != nil {
		for _, v := range versions.Versions {
			if v.Overrides == nil {
				continue
			}
			add(v.Overrides.Fragment)
			names := make([]string, 0, len(v.Overrides.Platforms))
			for name := range v.Overrides.Platforms {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				if frag := v.Overrides.Platforms[name]; frag != nil {
					add(*frag)
				}
			}
		}
	}
	return refs
}

func isNotFound(err error) bool {
	var nf interface{ NotFound() bool }
	return errors.As(err, &nf) && nf.NotFound()
}
