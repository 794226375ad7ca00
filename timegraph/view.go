// SPDX-License-Identifier: MIT
//
// File: view.go
// Role: Non-mutating graph views (copies of the topology with nodes or arcs removed).
// Determinism:
//   - Views preserve node identities and arc weights.
// Concurrency:
//   - Read locks on the source; the result is a fresh graph instance.

package timegraph

// NodePredicate decides whether a node survives a view.
type NodePredicate func(n Node) bool

// ArcPredicate decides whether an arc survives a view.
type ArcPredicate func(a Arc) bool

// Filter returns a new Graph holding the nodes of g accepted by keepNode and
// the arcs accepted by keepArc whose endpoints both survive. The source and
// sink are always kept. A nil predicate keeps everything. g is not mutated.
//
// Complexity: O(V + E).
func Filter(g *Graph, keepNode NodePredicate, keepArc ArcPredicate) *Graph {
	out := &Graph{
		horizon: g.horizon,
		source:  g.source,
		sink:    g.sink,
		nodes:   make(map[Node]struct{}),
		out:     make(map[Node][]Arc),
		arcs:    make(map[ArcKey]float64),
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for n := range g.nodes {
		if n == g.source || n == g.sink || keepNode == nil || keepNode(n) {
			out.nodes[n] = struct{}{}
		}
	}
	for k, w := range g.arcs {
		if _, ok := out.nodes[k.From]; !ok {
			continue
		}
		if _, ok := out.nodes[k.To]; !ok {
			continue
		}
		a := Arc{From: k.From, To: k.To, Weight: w}
		if keepArc != nil && !keepArc(a) {
			continue
		}
		out.arcs[k] = w
		out.out[k.From] = append(out.out[k.From], a)
	}

	return out
}

// Clone returns an independent deep copy of g.
func Clone(g *Graph) *Graph { return Filter(g, nil, nil) }

// Trim returns the view of g restricted to nodes that lie on at least one
// source→sink path. Dead ends left by the builder or by Filter disappear.
//
// Complexity: O(V log V + E).
func Trim(g *Graph) *Graph {
	order := g.Order()

	// forward reachability from the source
	fwd := make(map[Node]bool, len(order))
	fwd[g.source] = true
	for _, n := range order {
		if !fwd[n] {
			continue
		}
		for _, a := range g.OutArcs(n) {
			fwd[a.To] = true
		}
	}

	// backward co-reachability to the sink, scanning in reverse topological order
	bwd := make(map[Node]bool, len(order))
	bwd[g.sink] = true
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		for _, a := range g.OutArcs(n) {
			if bwd[a.To] {
				bwd[n] = true
				break
			}
		}
	}

	return Filter(g, func(n Node) bool { return fwd[n] && bwd[n] }, nil)
}
