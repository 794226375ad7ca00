// SPDX-License-Identifier: MIT
//
// File: dag.go
// Role: Shortest path by relaxation in topological order.
//
// Graph.Order sorts nodes by (time, side, station). Every arc moves forward
// in that order, so it is topological and one pass settles every distance. Negative prices are fine
// (the BCD engine produces them).
//
// Complexity:
//   - Time  O(V + E) after the cached order is built.
//   - Space O(V).
//
// Determinism:
//   - Nodes are scanned in Order(), out-arcs in head order, and a predecessor
//     is replaced only on strict improvement. Ties keep the earliest arc.

package sssp

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/railopt/timegraph"
)

// DAG is the reference Oracle. The zero value is not usable; call New.
type DAG struct {
	opts Options
}

// New returns a DAG oracle configured by opts.
func New(opts ...Option) *DAG {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &DAG{opts: cfg}
}

// ShortestPath implements Oracle.
func (d *DAG) ShortestPath(ctx context.Context, g *timegraph.Graph, cost timegraph.CostFunc) (timegraph.Path, float64, error) {
	if g == nil {
		return nil, math.Inf(1), ErrNilGraph
	}
	if cost == nil {
		return nil, math.Inf(1), ErrNilCost
	}

	order := g.Order()
	dist := make(map[timegraph.Node]float64, len(order))
	prev := make(map[timegraph.Node]timegraph.Node, len(order))
	dist[g.Source()] = 0

	var (
		i    int
		u    timegraph.Node
		du   float64
		ok   bool
		a    timegraph.Arc
		c, w float64
	)
	for i, u = range order {
		if i%d.opts.CheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, math.Inf(1), err
			}
		}
		if du, ok = dist[u]; !ok {
			continue // unreachable so far
		}
		for _, a = range g.OutArcs(u) {
			c = cost(a)
			if math.IsNaN(c) {
				return nil, math.Inf(1), fmt.Errorf("%w: %s→%s", ErrNaNCost, a.From, a.To)
			}
			if c >= d.opts.InfThreshold || math.IsInf(c, 1) {
				continue
			}
			w = du + c
			if cur, seen := dist[a.To]; !seen || w < cur {
				dist[a.To] = w
				prev[a.To] = u
			}
		}
	}

	total, ok := dist[g.Sink()]
	if !ok {
		return nil, math.Inf(1), ErrNoPath
	}

	return walkBack(g, prev), total, nil
}
