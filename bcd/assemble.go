// SPDX-License-Identifier: MIT
//
// File: assemble.go
// Role: Builds the BCD program of a fleet: one block per train, one
//       coupling row per headway constraint.

package bcd

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/lagrange"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/sssp"
	"github.com/katalvlaran/railopt/timegraph"
)

// ErrNoCouplingRows indicates a fleet whose safety table constrains no node.
var ErrNoCouplingRows = errors.New("bcd: no headway constraint applies to the fleet")

// AssembleFleet builds the program for trains.
//
// Rows are the (node, category) pairs of the Lagrangian multiplier domain;
// row (v,t,c) reads
//
//	Σ x[arcs into (v,t) of trains in kind c.Lead]
//	  + Σ_{dt=1}^{I−1} Σ x[arcs into (v,t+dt) of trains in kind c.Follow] ≤ 1.
//
// Columns of block k are the arcs of train k (sssp.ArcBlock order). Costs
// are the arc weights, with reward subtracted on the source arcs so that
// selecting a path pays off exactly when its cost is below reward.
//
// Complexity: O(B·m·n) memory (dense A per block).
func AssembleFleet(trains fleet.Fleet, table *safety.Table, reward float64, oracle sssp.Oracle) (*Problem, error) {
	if err := trains.Validate(); err != nil {
		return nil, err
	}
	if len(trains) == 0 {
		return nil, ErrNoBlocks
	}
	keys := lagrange.NewMultipliers(lagrange.DomainNodes(trains), table).Keys()
	m := len(keys)
	if m == 0 {
		return nil, ErrNoCouplingRows
	}
	row := make(map[lagrange.Key]int, m)
	for i, k := range keys {
		row[k] = i
	}

	p := &Problem{B: mat.NewVecDense(m, nil)}
	for i := 0; i < m; i++ {
		p.B.SetVec(i, 1)
	}

	for _, tr := range trains {
		ab, err := sssp.NewArcBlock(tr.Graph, oracle)
		if err != nil {
			return nil, fmt.Errorf("bcd: train %s: %w", tr.ID, err)
		}
		n := ab.Len()
		a := mat.NewDense(m, n, nil)
		c := ab.Weights()

		for j, arc := range ab.Arcs() {
			if arc.From == tr.Graph.Source() {
				c.SetVec(j, c.AtVec(j)-reward)
			}
			h := arc.To
			if h.V.IsTerminal() {
				continue
			}
			kind, ok := tr.Kind(h.V)
			if !ok {
				continue
			}
			for _, cat := range table.Configured(h.V.Station, h.V.Side) {
				if cat.Lead == kind {
					addAt(a, row, lagrange.Key{Node: h, Category: cat}, j)
				}
				if cat.Follow != kind {
					continue
				}
				iv, _ := table.Interval(h.V.Station, cat)
				for dt := 1; dt < iv && h.T-dt >= 0; dt++ {
					addAt(a, row, lagrange.Key{Node: timegraph.Node{V: h.V, T: h.T - dt}, Category: cat}, j)
				}
			}
		}
		p.Blocks = append(p.Blocks, Block{ID: tr.ID, A: a, C: c, Oracle: ab})
	}

	return p, nil
}

func addAt(a *mat.Dense, row map[lagrange.Key]int, k lagrange.Key, j int) {
	if r, ok := row[k]; ok {
		a.Set(r, j, a.At(r, j)+1)
	}
}
