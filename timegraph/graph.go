// SPDX-License-Identifier: MIT
//
// File: graph.go
// Role: The time-expanded Graph: storage, mutation, read-only queries.
// Concurrency:
//   - mu guards nodes, out, arcs and the cached order.
//   - Readers take RLock; the order cache is rebuilt under the write lock.
// Determinism:
//   - Nodes(), Arcs() and OutArcs() return results in canonical Node.Less order.

package timegraph

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Graph is a directed acyclic time-expanded graph for one train.
//
// The graph is built once (AddNode/AddArc) and then read concurrently by the
// oracle and the engines. Acyclicity is structural: AddArc rejects any arc
// that does not advance in Node.Less order.
type Graph struct {
	mu sync.RWMutex

	horizon int
	source  Node
	sink    Node

	nodes map[Node]struct{}
	out   map[Node][]Arc
	arcs  map[ArcKey]float64

	order []Node // cached topological order; nil when stale
}

// NewGraph creates an empty graph with the given horizon. The source node
// (s_, -1) and sink node (_t, horizon) are always present.
// Complexity: O(1).
func NewGraph(horizon int) (*Graph, error) {
	if horizon <= 0 {
		return nil, ErrBadHorizon
	}
	g := &Graph{
		horizon: horizon,
		source:  Node{V: SourceStation, T: -1},
		sink:    Node{V: SinkStation, T: horizon},
		nodes:   make(map[Node]struct{}),
		out:     make(map[Node][]Arc),
		arcs:    make(map[ArcKey]float64),
	}
	g.nodes[g.source] = struct{}{}
	g.nodes[g.sink] = struct{}{}

	return g, nil
}

// Horizon returns the number of discrete time slots.
func (g *Graph) Horizon() int { return g.horizon }

// Source returns the super-source node.
func (g *Graph) Source() Node { return g.source }

// Sink returns the super-sink node.
func (g *Graph) Sink() Node { return g.sink }

// validNode checks station-node invariants (name, horizon).
func (g *Graph) validNode(n Node) error {
	if n == g.source || n == g.sink {
		return nil
	}
	if n.V.IsTerminal() {
		return fmt.Errorf("%w: terminal %s must sit at its fixed time", ErrNodeOutOfHorizon, n)
	}
	if n.V.Station == "" {
		return ErrEmptyStation
	}
	if n.T < 0 || n.T >= g.horizon {
		return fmt.Errorf("%w: %s (horizon %d)", ErrNodeOutOfHorizon, n, g.horizon)
	}

	return nil
}

// AddNode inserts n. Re-adding an existing node is a no-op.
// Complexity: O(1) amortized.
func (g *Graph) AddNode(n Node) error {
	if err := g.validNode(n); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[n]; !ok {
		g.nodes[n] = struct{}{}
		g.order = nil
	}

	return nil
}

// AddArc inserts the arc from→to with weight w, adding missing endpoints.
//
// Errors:
//   - ErrBadWeight if w is NaN or ±Inf.
//   - ErrBackwardArc unless from.Less(to).
//   - ErrDuplicateArc if the pair already exists.
//   - validation errors of AddNode for either endpoint.
//
// Complexity: O(1) amortized.
func (g *Graph) AddArc(from, to Node, w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("%w: %s→%s weight=%v", ErrBadWeight, from, to, w)
	}
	if !from.Less(to) {
		return fmt.Errorf("%w: %s→%s", ErrBackwardArc, from, to)
	}
	if err := g.validNode(from); err != nil {
		return err
	}
	if err := g.validNode(to); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	key := ArcKey{From: from, To: to}
	if _, ok := g.arcs[key]; ok {
		return fmt.Errorf("%w: %s→%s", ErrDuplicateArc, from, to)
	}
	g.nodes[from] = struct{}{}
	g.nodes[to] = struct{}{}
	g.arcs[key] = w
	g.out[from] = append(g.out[from], Arc{From: from, To: to, Weight: w})
	g.order = nil

	return nil
}

// HasNode reports whether n is present.
func (g *Graph) HasNode(n Node) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[n]

	return ok
}

// Arc returns the arc between from and to, if present.
func (g *Graph) Arc(from, to Node) (Arc, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	w, ok := g.arcs[ArcKey{From: from, To: to}]
	if !ok {
		return Arc{}, false
	}

	return Arc{From: from, To: to, Weight: w}, true
}

// NodeCount returns |V| including source and sink.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// ArcCount returns |A|.
func (g *Graph) ArcCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.arcs)
}

// Order returns all nodes in topological (Node.Less) order. The slice is
// cached and shared; callers must not modify it.
// Complexity: O(V log V) on first call after a mutation, O(1) afterwards.
func (g *Graph) Order() []Node {
	g.mu.RLock()
	if g.order != nil {
		o := g.order
		g.mu.RUnlock()
		return o
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.order == nil {
		order := make([]Node, 0, len(g.nodes))
		for n := range g.nodes {
			order = append(order, n)
		}
		sort.Slice(order, func(i, j int) bool { return order[i].Less(order[j]) })
		g.order = order
	}

	return g.order
}

// Nodes returns a fresh copy of the topological node order.
func (g *Graph) Nodes() []Node {
	o := g.Order()
	out := make([]Node, len(o))
	copy(out, o)

	return out
}

// OutArcs returns the arcs leaving n, sorted by head node.
func (g *Graph) OutArcs(n Node) []Arc {
	g.mu.RLock()
	src := g.out[n]
	out := make([]Arc, len(src))
	copy(out, src)
	g.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].To.Less(out[j].To) })

	return out
}

// Arcs returns every arc, sorted by (From, To).
func (g *Graph) Arcs() []Arc {
	g.mu.RLock()
	out := make([]Arc, 0, len(g.arcs))
	for k, w := range g.arcs {
		out = append(out, Arc{From: k.From, To: k.To, Weight: w})
	}
	g.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From.Less(out[j].From)
		}
		return out[i].To.Less(out[j].To)
	})

	return out
}

// MaxArcWeight returns the largest arc weight, or 0 for an arc-less graph.
func (g *Graph) MaxArcWeight() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var m float64
	for _, w := range g.arcs {
		if w > m {
			m = w
		}
	}

	return m
}

// VStations returns the distinct non-terminal virtual stations of g, sorted
// by label.
func (g *Graph) VStations() []VStation {
	g.mu.RLock()
	seen := make(map[VStation]struct{})
	for n := range g.nodes {
		if !n.V.IsTerminal() {
			seen[n.V] = struct{}{}
		}
	}
	g.mu.RUnlock()
	out := make([]VStation, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })

	return out
}

// PathCost sums the weights of p's arcs. It returns ErrNodeNotFound wrapped
// with the first missing arc.
func (g *Graph) PathCost(p Path) (float64, error) {
	var total float64
	for _, k := range p.Arcs() {
		a, ok := g.Arc(k.From, k.To)
		if !ok {
			return 0, fmt.Errorf("%w: arc %s→%s", ErrNodeNotFound, k.From, k.To)
		}
		total += a.Weight
	}

	return total, nil
}
