package dag

import (
	"fmt"
	"slices"

	"github.com/MahdiBaghbani/containers-sub001/internal/config"
)

// Graph is the build graph: deduplicated node and edge sets, both preserving
// discovery order so repeated runs over the same descriptors produce the
// same output. Every edge endpoint is guaranteed to be in the node set.
//
// The graph is populated single-threaded during construction and read-only
// afterwards; it performs no locking.
type Graph struct {
	// nodes holds every node in discovery order.
	nodes []Node
	// nodeSet indexes the node set for O(1) membership checks.
	nodeSet map[Node]struct{}
	// edges holds every edge in discovery order.
	edges []Edge
	// edgeSet indexes the edge set for structural deduplication.
	edgeSet map[Edge]struct{}
	// dependencies maps a node to its direct dependencies, in the order the
	// edges were added (declaration order of the dependency blocks).
	dependencies map[Node][]Node
	// dependents maps a node to its direct dependents.
	dependents map[Node][]Node
	// configs retains the effective configuration resolved for each node.
	configs map[Node]*config.EffectiveConfig
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodeSet:      make(map[Node]struct{}),
		edgeSet:      make(map[Edge]struct{}),
		dependencies: make(map[Node][]Node),
		dependents:   make(map[Node][]Node),
		configs:      make(map[Node]*config.EffectiveConfig),
	}
}

// AddNode inserts the node unless an equal node is already present. It
// reports whether the node was inserted.
func (g *Graph) AddNode(n Node) bool {
	if _, ok := g.nodeSet[n]; ok {
		return false
	}
	g.nodeSet[n] = struct{}{}
	g.nodes = append(g.nodes, n)
	return true
}

// AddEdge inserts the dependency edge from → to. Both endpoints must already
// be in the node set. Duplicate edges are ignored.
func (g *Graph) AddEdge(from, to Node) error {
	if _, ok := g.nodeSet[from]; !ok {
		return fmt.Errorf("edge source node %q not found in graph", from.Key())
	}
	if _, ok := g.nodeSet[to]; !ok {
		return fmt.Errorf("edge destination node %q not found in graph", to.Key())
	}
	e := Edge{From: from, To: to}
	if _, ok := g.edgeSet[e]; ok {
		return nil
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	g.dependencies[from] = append(g.dependencies[from], to)
	g.dependents[to] = append(g.dependents[to], from)
	return nil
}

// Has reports whether the node is in the graph.
func (g *Graph) Has(n Node) bool {
	_, ok := g.nodeSet[n]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns the nodes in discovery order.
func (g *Graph) Nodes() []Node {
	return slices.Clone(g.nodes)
}

// Edges returns the edges in discovery order.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// DependenciesOf returns the direct dependencies of n in edge order, which
// matches the declaration order of the node's dependency blocks.
func (g *Graph) DependenciesOf(n Node) []Node {
	return slices.Clone(g.dependencies[n])
}

// DependentsOf returns the direct dependents of n in edge order.
func (g *Graph) DependentsOf(n Node) []Node {
	return slices.Clone(g.dependents[n])
}

// SetConfig attaches the effective configuration resolved for the node.
func (g *Graph) SetConfig(n Node, eff *config.EffectiveConfig) {
	g.configs[n] = eff
}

// Config returns the effective configuration attached to the node, or nil.
func (g *Graph) Config(n Node) *config.EffectiveConfig {
	return g.configs[n]
}
