package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/MahdiBaghbani/containers-sub001/internal/builder"
	"github.com/MahdiBaghbani/containers-sub001/internal/dag"
	"github.com/MahdiBaghbani/containers-sub001/internal/hashdef"
)

// assembleRequest turns a node's effective config into a build request:
// dependency images become build args, git sources become <KEY>_REPO and
// <KEY>_REF pairs with the ref pinned to a resolved revision, local sources
// become named build contexts, and the definition hash rides along as a
// label.
func (r *Runner) assembleRequest(ctx context.Context, g *dag.Graph, n dag.Node, hash string) (builder.Request, error) {
	eff := g.Config(n)
	serviceDir := r.opts.ServiceDir(n.Service)

	args := make(map[string]string, len(eff.BuildArgs)+2*len(eff.Sources)+len(eff.Dependencies))
	for k, v := range eff.BuildArgs {
		args[k] = v
	}

	// Effective dependencies and graph edges share declaration order.
	depNodes := g.DependenciesOf(n)
	for i, dep := range eff.Dependencies {
		args[dep.BuildArg] = r.imageRef(depNodes[i])
	}

	var contexts map[string]string
	for _, key := range sortedSourceKeys(eff.Sources) {
		src := eff.Sources[key]
		if src.IsGit() {
			rev, err := r.refs.Resolve(ctx, src.URL, src.Ref)
			if err != nil {
				return builder.Request{}, fmt.Errorf("resolving source %q for %q: %w", key, n.Key(), err)
			}
			prefix := sourceArgPrefix(key)
			args[prefix+"_REPO"] = src.URL
			args[prefix+"_REF"] = rev
			continue
		}
		if contexts == nil {
			contexts = make(map[string]string)
		}
		contexts[key] = filepath.Join(serviceDir, src.Path)
	}

	labels := make(map[string]string, len(eff.Labels)+1)
	for k, v := range eff.Labels {
		labels[k] = v
	}
	labels[hashdef.Label] = hash

	tags := []string{r.imageRef(n)}
	for _, t := range eff.Tags {
		tags = append(tags, r.taggedRef(n.Service, suffixTag(t, n.Platform)))
	}
	if eff.Latest {
		tags = append(tags, r.taggedRef(n.Service, suffixTag("latest", n.Platform)))
	}

	return builder.Request{
		ContextDir: filepath.Join(serviceDir, eff.Context),
		Dockerfile: eff.Dockerfile,
		Tags:       tags,
		BuildArgs:  args,
		Contexts:   contexts,
		Labels:     labels,
		Platforms:  r.opts.Platforms,
		Push:       r.opts.Push,
		Load:       r.opts.Load,
	}, nil
}

func (r *Runner) imageRef(n dag.Node) string {
	return r.taggedRef(n.Service, n.Tag())
}

func (r *Runner) taggedRef(service, tag string) string {
	if r.opts.Registry == "" {
		return service + ":" + tag
	}
	return r.opts.Registry + "/" + service + ":" + tag
}

// suffixTag keeps extra tags platform-disambiguated the same way node tags
// are: stable + alpine → stable-alpine.
func suffixTag(tag, platform string) string {
	if platform == "" {
		return tag
	}
	return tag + "-" + platform
}

// sourceArgPrefix renders a source key as a build-arg prefix: uppercased,
// with every non-alphanumeric collapsed to an underscore.
func sourceArgPrefix(key string) string {
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-('a'-'A'))
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

func sortedSourceKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
