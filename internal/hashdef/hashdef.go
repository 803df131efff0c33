// Package hashdef computes the Service Definition Hash: a deterministic
// 64-hex digest of one node's effective configuration folded with the
// hashes of its direct dependencies. The hash is persisted only as an image
// label and read back as the oracle for dependency skip decisions.
package hashdef

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/MahdiBaghbani/containers-sub001/internal/config"
	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
	"github.com/MahdiBaghbani/containers-sub001/internal/dag"
)

// Label is the image label the hash is stored under after a successful
// build. It is the only durable artifact the engine writes.
const Label = "dev.forge.service-def-hash"

// ComputationError reports a dependency whose hash was not available when a
// node's hash was computed. It indicates an internal ordering bug and is
// always fatal.
type ComputationError struct {
	Node       dag.Node
	Dependency string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("node %q: missing hash for dependency %q: hashes must be computed in dependency order", e.Node.Key(), e.Dependency)
}

// DepHash pairs a declared dependency with its already-computed hash.
type DepHash struct {
	Service string
	Hash    string
}

// Compute returns the Service Definition Hash of one node. It is a pure
// function of its inputs: the node identity, the dockerfile content digest,
// the sorted source, image, and build-arg pairs, the TLS fields, and the
// direct dependency hashes in declaration order.
func Compute(node dag.Node, eff *config.EffectiveConfig, dockerfileDigest string, deps []DepHash) (string, error) {
	var lines []string
	lines = append(lines, "node:"+node.Key())
	lines = append(lines, "dockerfile:"+dockerfileDigest)

	sourceKeys := sortedKeys(eff.Sources)
	for _, key := range sourceKeys {
		src := eff.Sources[key]
		if src.IsLocal() {
			lines = append(lines, fmt.Sprintf("source:%s=%s", key, src.Path))
		} else {
			lines = append(lines, fmt.Sprintf("source:%s=%s@%s", key, src.URL, src.Ref))
		}
	}
	for _, slot := range sortedKeys(eff.Images) {
		lines = append(lines, fmt.Sprintf("image:%s=%s", slot, eff.Images[slot].Ref))
	}
	for _, k := range sortedKeys(eff.BuildArgs) {
		lines = append(lines, fmt.Sprintf("arg:%s=%s", k, eff.BuildArgs[k]))
	}
	if eff.TLS != nil {
		lines = append(lines, fmt.Sprintf("tls:%t,%s,%s", eff.TLS.Enabled, eff.TLS.CertName, eff.TLS.CAName))
	}
	for _, dep := range deps {
		if dep.Hash == "" {
			return "", &ComputationError{Node: node, Dependency: dep.Service}
		}
		lines = append(lines, fmt.Sprintf("dep:%s=%s", dep.Service, dep.Hash))
	}

	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:]), nil
}

// DigestFunc returns the dockerfile content digest for one node.
type DigestFunc func(node dag.Node, eff *config.EffectiveConfig) (string, error)

// HashGraph computes the hash of every node, strictly in the given
// topological order so each node's dependency hashes already exist. The
// declared dependency order of a node matches its edge order in the graph;
// HashGraph relies on that to pair declarations with resolved nodes.
func HashGraph(ctx context.Context, g *dag.Graph, order []dag.Node, digest DigestFunc) (map[dag.Node]string, error) {
	logger := ctxlog.FromContext(ctx)
	hashes := make(map[dag.Node]string, len(order))

	for _, n := range order {
		eff := g.Config(n)
		if eff == nil {
			return nil, fmt.Errorf("node %q has no effective configuration attached", n.Key())
		}
		dockerfileDigest, err := digest(n, eff)
		if err != nil {
			return nil, fmt.Errorf("digesting dockerfile for %q: %w", n.Key(), err)
		}

		children := g.DependenciesOf(n)
		deps := make([]DepHash, 0, len(eff.Dependencies))
		for i, decl := range eff.Dependencies {
			if i >= len(children) {
				return nil, &ComputationError{Node: n, Dependency: decl.Service}
			}
			deps = append(deps, DepHash{Service: decl.Service, Hash: hashes[children[i]]})
		}

		h, err := Compute(n, eff, dockerfileDigest, deps)
		if err != nil {
			return nil, err
		}
		hashes[n] = h
	}

	logger.Debug("Hash computation complete.", "node_count", len(hashes))
	return hashes, nil
}

// DigestFile returns the sha256 hex digest of a file's contents.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
