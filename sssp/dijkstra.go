// SPDX-License-Identifier: MIT
//
// File: dijkstra.go
// Role: Heap-based shortest path for non-negative arc prices.
//
// Processes nodes in order of increasing distance from the source using a
// min-heap, relaxing out-arcs as nodes are settled.
//
// Complexity:
//   - Time  O((V + E) log V).
//   - Space O(V + E) (lazy decrease-key keeps stale heap entries).
//
// Notes:
//   - Prices are evaluated lazily, once per relaxed arc. A negative price
//     fails the call with ErrNegativeWeight as soon as it is seen.
//   - Arcs priced ≥ InfThreshold (or +Inf) are walls.
//   - Exploration stops once the smallest heap distance exceeds MaxDistance.
//   - Heap entries are ordered by (distance, Node.Less). A predecessor is
//     replaced on strict improvement, or on a tie by one earlier in
//     Graph.Order. This is the DAG oracle's tie rule, so both return the
//     same path for the same non-negative prices.

package sssp

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/railopt/timegraph"
)

// Dijkstra is an Oracle for non-negative prices. Call NewDijkstra.
type Dijkstra struct {
	opts Options
}

// NewDijkstra returns a Dijkstra oracle configured by opts.
func NewDijkstra(opts ...Option) *Dijkstra {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Dijkstra{opts: cfg}
}

// ShortestPath implements Oracle.
func (d *Dijkstra) ShortestPath(ctx context.Context, g *timegraph.Graph, cost timegraph.CostFunc) (timegraph.Path, float64, error) {
	if g == nil {
		return nil, math.Inf(1), ErrNilGraph
	}
	if cost == nil {
		return nil, math.Inf(1), ErrNilCost
	}

	n := g.NodeCount()
	r := &runner{
		g:       g,
		cost:    cost,
		opts:    d.opts,
		dist:    make(map[timegraph.Node]float64, n),
		prev:    make(map[timegraph.Node]timegraph.Node, n),
		visited: make(map[timegraph.Node]bool, n),
		pq:      make(nodePQ, 0, n),
	}
	r.init()
	if err := r.process(ctx); err != nil {
		return nil, math.Inf(1), err
	}

	total, ok := r.dist[g.Sink()]
	if !ok {
		return nil, math.Inf(1), ErrNoPath
	}

	return walkBack(g, r.prev), total, nil
}

// runner holds the mutable state of one Dijkstra call.
type runner struct {
	g       *timegraph.Graph
	cost    timegraph.CostFunc
	opts    Options
	dist    map[timegraph.Node]float64
	prev    map[timegraph.Node]timegraph.Node
	visited map[timegraph.Node]bool
	pq      nodePQ
}

// init seeds the heap with the source at distance 0.
func (r *runner) init() {
	src := r.g.Source()
	r.dist[src] = 0
	heap.Init(&r.pq)
	heap.Push(&r.pq, &nodeItem{node: src, dist: 0})
}

// process pops nodes until the heap drains or MaxDistance is passed.
func (r *runner) process(ctx context.Context) error {
	settled := 0
	for r.pq.Len() > 0 {
		item := heap.Pop(&r.pq).(*nodeItem)
		u := item.node
		if r.visited[u] {
			continue // stale entry
		}
		if item.dist > r.opts.MaxDistance {
			break
		}
		if settled%r.opts.CheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		settled++
		r.visited[u] = true

		if err := r.relax(u); err != nil {
			return err
		}
	}

	return nil
}

// relax prices every out-arc of the settled node u.
func (r *runner) relax(u timegraph.Node) error {
	du := r.dist[u]
	var (
		a    timegraph.Arc
		c, w float64
	)
	for _, a = range r.g.OutArcs(u) {
		c = r.cost(a)
		switch {
		case math.IsNaN(c):
			return fmt.Errorf("%w: %s→%s", ErrNaNCost, a.From, a.To)
		case c < 0:
			return fmt.Errorf("%w: %s→%s price=%g", ErrNegativeWeight, a.From, a.To, c)
		case c >= r.opts.InfThreshold || math.IsInf(c, 1):
			continue
		}

		w = du + c
		if w > r.opts.MaxDistance {
			continue
		}
		cur, seen := r.dist[a.To]
		switch {
		case !seen || w < cur:
			r.dist[a.To] = w
			r.prev[a.To] = u
			heap.Push(&r.pq, &nodeItem{node: a.To, dist: w})
		case w == cur && u.Less(r.prev[a.To]):
			// same distance, earlier predecessor; a.To keeps its heap slot
			r.prev[a.To] = u
		}
	}

	return nil
}

// walkBack rebuilds the source→sink path from the predecessor map.
func walkBack(g *timegraph.Graph, prev map[timegraph.Node]timegraph.Node) timegraph.Path {
	var path timegraph.Path
	for v := g.Sink(); ; v = prev[v] {
		path = append(path, v)
		if v == g.Source() {
			break
		}
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}

	return path
}

// nodeItem is a heap entry: a node and the distance it was pushed with.
type nodeItem struct {
	node timegraph.Node
	dist float64
}

// nodePQ is a min-heap of *nodeItem by (dist, Node.Less).
type nodePQ []*nodeItem

func (pq nodePQ) Len() int { return len(pq) }

func (pq nodePQ) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}

	return pq[i].node.Less(pq[j].node)
}

func (pq nodePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *nodePQ) Push(x interface{}) { *pq = append(*pq, x.(*nodeItem)) }

func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]

	return item
}
