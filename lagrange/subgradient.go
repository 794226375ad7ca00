// SPDX-License-Identifier: MIT
//
// File: subgradient.go
// Role: Subgradient of the dualized headway constraints.

package lagrange

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

// Subgradient holds g in multiplier key order. Negative entries are slack,
// positive entries are violations.
type Subgradient struct {
	Keys   []Key
	Values []float64
}

// ComputeSubgradient evaluates, for every key of m,
//
//	g(v,t,c) = occ(v,t,c.Lead) + Σ_{dt=1}^{min(I,horizon−t)−1} occ(v,t+dt,c.Follow) − 1
//
// with I the interval of c at the station of v.
//
// Complexity: O(K·I).
func ComputeSubgradient(m *Multipliers, occ Occupancy, table *safety.Table, horizon int) *Subgradient {
	g := &Subgradient{Keys: m.keys, Values: make([]float64, len(m.keys))}
	for i, k := range m.keys {
		n := k.Node
		sum := occ.Count(n, k.Category.Lead)
		iv, _ := table.Interval(n.V.Station, k.Category)
		for dt := 1; dt < min(iv, horizon-n.T); dt++ {
			sum += occ.Count(timegraph.Node{V: n.V, T: n.T + dt}, k.Category.Follow)
		}
		g.Values[i] = float64(sum - 1)
	}

	return g
}

// NormSq returns ‖g‖².
func (g *Subgradient) NormSq() float64 { return floats.Dot(g.Values, g.Values) }

// Violation returns ‖max(g,0)‖₂, the norm of the violated part.
func (g *Subgradient) Violation() float64 {
	var s float64
	for _, v := range g.Values {
		if v > 0 {
			s += v * v
		}
	}

	return math.Sqrt(s)
}

// Violated returns the keys with g > 0.
func (g *Subgradient) Violated() []Key {
	var out []Key
	for i, v := range g.Values {
		if v > 0 {
			out = append(out, g.Keys[i])
		}
	}

	return out
}
