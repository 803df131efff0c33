// Package ciwf renders a build graph as a GitHub Actions workflow: one job
// per node, wired with needs edges so the pipeline builds in dependency
// order. Output is deterministic for a given graph.
package ciwf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/MahdiBaghbani/containers-sub001/internal/dag"
)

const (
	defaultName   = "forge-build"
	defaultRunner = "ubuntu-latest"
)

// Options shape the generated workflow.
type Options struct {
	// Name is the workflow name; defaults to forge-build.
	Name string
	// Branches trigger the workflow on push; defaults to main.
	Branches []string
}

type Workflow struct {
	Name string   `yaml:"name"`
	On   Triggers `yaml:"on"`
	Jobs Jobs     `yaml:"jobs"`
}

type Triggers struct {
	Push             PushTrigger `yaml:"push"`
	WorkflowDispatch struct{}    `yaml:"workflow_dispatch"`
}

type PushTrigger struct {
	Branches []string `yaml:"branches"`
}

type Job struct {
	ID     string   `yaml:"-"`
	Name   string   `yaml:"name"`
	RunsOn string   `yaml:"runs-on"`
	Needs  []string `yaml:"needs,omitempty"`
	Steps  []Step   `yaml:"steps"`
}

type Step struct {
	Name string `yaml:"name,omitempty"`
	Uses string `yaml:"uses,omitempty"`
	Run  string `yaml:"run,omitempty"`
}

// Jobs marshals as a YAML mapping that preserves declaration order, which
// plain Go maps cannot.
type Jobs []Job

func (jobs Jobs) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, job := range jobs {
		value := &yaml.Node{}
		if err := value.Encode(job); err != nil {
			return nil, fmt.Errorf("encoding job %q: %w", job.ID, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: job.ID},
			value,
		)
	}
	return node, nil
}

// Generate builds the workflow for a sorted graph. Jobs follow the build
// order; needs mirror the graph edges.
func Generate(g *dag.Graph, order []dag.Node, opts Options) *Workflow {
	name := opts.Name
	if name == "" {
		name = defaultName
	}
	branches := opts.Branches
	if len(branches) == 0 {
		branches = []string{"main"}
	}

	jobs := make(Jobs, 0, len(order))
	for _, n := range order {
		job := Job{
			ID:     JobID(n),
			Name:   n.Key(),
			RunsOn: defaultRunner,
			Steps: []Step{
				{Uses: "actions/checkout@v4"},
				{
					Name: "Build " + n.Key(),
					Run:  fmt.Sprintf("forge build %s --dep-cache strict --remote --push", n.Key()),
				},
			},
		}
		for _, dep := range g.DependenciesOf(n) {
			job.Needs = append(job.Needs, JobID(dep))
		}
		jobs = append(jobs, job)
	}

	return &Workflow{
		Name: name,
		On:   Triggers{Push: PushTrigger{Branches: branches}},
		Jobs: jobs,
	}
}

// Render marshals the workflow with two-space indentation.
func (w *Workflow) Render() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(w); err != nil {
		return nil, fmt.Errorf("encoding workflow: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders the workflow into dir/.github/workflows/<name>.yml.
func (w *Workflow) WriteFile(repoRoot string) (string, error) {
	out, err := w.Render()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(repoRoot, ".github", "workflows")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating workflow dir: %w", err)
	}
	path := filepath.Join(dir, w.Name+".yml")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// JobID sanitizes a node key into a GitHub Actions job identifier: anything
// outside [A-Za-z0-9_-] becomes a hyphen.
func JobID(n dag.Node) string {
	key := n.Key()
	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			out = append(out, c)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
