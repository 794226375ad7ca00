// SPDX-License-Identifier: MIT
//
// File: arcblock.go
// Role: Arc-indexed view of one train graph, exposing the oracle as a
//       vector-in/vector-out block solver for the BCD engine.
//
// Column j of the block is Arcs()[j] of the graph (canonical arc order).
// A path is encoded as the 0/1 incidence vector of its arcs.

package sssp

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/railopt/timegraph"
)

// ArcBlock maps a train graph to arc-indexed vectors.
type ArcBlock struct {
	g      *timegraph.Graph
	oracle Oracle
	arcs   []timegraph.Arc
	index  map[timegraph.ArcKey]int
}

// NewArcBlock indexes the arcs of g. A nil oracle defaults to New().
func NewArcBlock(g *timegraph.Graph, oracle Oracle) (*ArcBlock, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	if oracle == nil {
		oracle = New()
	}
	arcs := g.Arcs()
	if len(arcs) == 0 {
		return nil, ErrNoPath
	}
	idx := make(map[timegraph.ArcKey]int, len(arcs))
	for j, a := range arcs {
		idx[a.Key()] = j
	}

	return &ArcBlock{g: g, oracle: oracle, arcs: arcs, index: idx}, nil
}

// Len returns the number of columns (arcs).
func (b *ArcBlock) Len() int { return len(b.arcs) }

// Arcs returns the column arcs. The slice is shared; do not modify it.
func (b *ArcBlock) Arcs() []timegraph.Arc { return b.arcs }

// Column returns the column of arc k.
func (b *ArcBlock) Column(k timegraph.ArcKey) (int, bool) {
	j, ok := b.index[k]

	return j, ok
}

// Weights returns the base arc weights as a vector.
func (b *ArcBlock) Weights() *mat.VecDense {
	w := make([]float64, len(b.arcs))
	for j, a := range b.arcs {
		w[j] = a.Weight
	}

	return mat.NewVecDense(len(w), w)
}

// Encode returns the incidence vector of p.
func (b *ArcBlock) Encode(p timegraph.Path) (*mat.VecDense, error) {
	x := mat.NewVecDense(len(b.arcs), nil)
	for _, k := range p.Arcs() {
		j, ok := b.index[k]
		if !ok {
			return nil, fmt.Errorf("%w: arc %s→%s", timegraph.ErrNodeNotFound, k.From, k.To)
		}
		x.SetVec(j, 1)
	}

	return x, nil
}

// Decode rebuilds the path selected by the incidence vector x. It returns nil
// for the zero vector.
func (b *ArcBlock) Decode(x mat.Vector) timegraph.Path {
	next := make(map[timegraph.Node]timegraph.Node)
	for j, a := range b.arcs {
		if x.AtVec(j) > 0.5 {
			next[a.From] = a.To
		}
	}
	if len(next) == 0 {
		return nil
	}
	p := timegraph.Path{b.g.Source()}
	for v := b.g.Source(); v != b.g.Sink(); {
		n, ok := next[v]
		if !ok {
			return nil
		}
		p = append(p, n)
		v = n
	}

	return p
}

// Solve returns the incidence vector of the cheapest path when column j is
// priced c[j]. When no path exists it returns the zero vector together with
// ErrNoPath.
func (b *ArcBlock) Solve(ctx context.Context, c *mat.VecDense) (*mat.VecDense, error) {
	if c.Len() != len(b.arcs) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, c.Len(), len(b.arcs))
	}
	cost := func(a timegraph.Arc) float64 { return c.AtVec(b.index[a.Key()]) }
	p, _, err := b.oracle.ShortestPath(ctx, b.g, cost)
	if err != nil {
		return mat.NewVecDense(len(b.arcs), nil), err
	}

	return b.Encode(p)
}
