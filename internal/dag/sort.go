package dag

import (
	"fmt"
	"slices"
	"strings"
)

// CycleError reports every dependency cycle discovered during sorting, not
// just the first one.
type CycleError struct {
	Cycles [][]Node
}

func (e *CycleError) Error() string {
	rendered := make([]string, len(e.Cycles))
	for i, cycle := range e.Cycles {
		keys := make([]string, 0, len(cycle)+1)
		for _, n := range cycle {
			keys = append(keys, n.Key())
		}
		if len(cycle) > 0 {
			keys = append(keys, cycle[0].Key())
		}
		rendered[i] = strings.Join(keys, " -> ")
	}
	return fmt.Sprintf("dependency cycle detected (%d): %s", len(e.Cycles), strings.Join(rendered, "; "))
}

// Sort returns the build order: every dependency before its dependents.
// Ties between independent subtrees break by discovery order, never
// alphabetically, so a fixed input graph always yields the same order.
//
// When the graph is not a DAG, Sort fails with a CycleError enumerating all
// cycles found in one pass: a back edge records one cycle by walking the
// recursion stack from the revisited node to the current node, and the
// traversal continues afterwards instead of stopping at the first hit.
func Sort(g *Graph) ([]Node, error) {
	order := make([]Node, 0, g.Len())
	visiting := make(map[Node]bool, g.Len())
	visited := make(map[Node]bool, g.Len())
	var stack []Node
	var cycles [][]Node

	var visit func(n Node)
	visit = func(n Node) {
		visiting[n] = true
		stack = append(stack, n)

		for _, dep := range g.DependenciesOf(n) {
			if visited[dep] {
				continue
			}
			if visiting[dep] {
				cycles = append(cycles, extractCycle(stack, dep))
				continue
			}
			visit(dep)
		}

		stack = stack[:len(stack)-1]
		visiting[n] = false
		visited[n] = true
		order = append(order, n)
	}

	for _, n := range g.Nodes() {
		if !visited[n] {
			visit(n)
		}
	}

	if len(cycles) > 0 {
		return nil, &CycleError{Cycles: cycles}
	}
	return order, nil
}

// extractCycle copies the recursion stack from the revisited node to the
// current node, which is exactly the cycle the back edge closed.
func extractCycle(stack []Node, start Node) []Node {
	for i, n := range stack {
		if n == start {
			return slices.Clone(stack[i:])
		}
	}
	// The revisited node is always on the stack; this is unreachable.
	return slices.Clone(stack)
}
