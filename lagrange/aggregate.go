// SPDX-License-Identifier: MIT
//
// File: aggregate.go
// Role: Occupancy counts and the aggregated multiplier snapshot (yvc) that
//       prices each train's arcs.

package lagrange

import (
	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

// OccKey addresses a node occupied in one event kind.
type OccKey struct {
	Node timegraph.Node
	Kind safety.EventKind
}

// Occupancy counts the trains occupying each (node, kind). Absent keys
// count zero.
type Occupancy map[OccKey]int

// Add records one more train at n in kind k.
func (o Occupancy) Add(n timegraph.Node, k safety.EventKind) { o[OccKey{n, k}]++ }

// Count returns the number of trains at n in kind k.
func (o Occupancy) Count(n timegraph.Node, k safety.EventKind) int { return o[OccKey{n, k}] }

// OccupancyOf counts the inner nodes of every feasible relaxed path.
// results must be parallel to trains.
func OccupancyOf(trains fleet.Fleet, results []TrainResult) Occupancy {
	occ := make(Occupancy)
	for i, r := range results {
		if !r.Feasible {
			continue
		}
		tr := trains[i]
		for _, n := range r.Path.Inner() {
			if k, ok := tr.Kind(n.V); ok {
				occ.Add(n, k)
			}
		}
	}

	return occ
}

// Aggregated is the read-only yvc snapshot of one iteration: the price of
// occupying a node in a given kind. Absent entries price zero.
type Aggregated struct {
	yvc map[OccKey]float64
}

// Aggregate scatters every positive μ(v,t,c) onto the occupancies it
// prices: (v,t) in kind c.Lead, and (v,t+dt) in kind c.Follow for
// 1 ≤ dt < I(c), t+dt < horizon.
//
// Complexity: O(K·I) for K positive multipliers and interval I.
func Aggregate(m *Multipliers, table *safety.Table, horizon int) *Aggregated {
	a := &Aggregated{yvc: make(map[OccKey]float64)}
	for i, k := range m.keys {
		mu := m.vals[i]
		if mu == 0 {
			continue
		}
		n := k.Node
		a.yvc[OccKey{n, k.Category.Lead}] += mu

		iv, _ := table.Interval(n.V.Station, k.Category)
		for dt := 1; dt < iv && n.T+dt < horizon; dt++ {
			a.yvc[OccKey{timegraph.Node{V: n.V, T: n.T + dt}, k.Category.Follow}] += mu
		}
	}

	return a
}

// At returns yvc(n, k).
func (a *Aggregated) At(n timegraph.Node, k safety.EventKind) float64 { return a.yvc[OccKey{n, k}] }

// CostFor prices tr's arcs: base weight plus the yvc of the head node in
// the kind tr has there. Arcs into the sink cost their weight.
func (a *Aggregated) CostFor(tr *fleet.Train) timegraph.CostFunc {
	return func(arc timegraph.Arc) float64 {
		if arc.To.V.IsTerminal() {
			return arc.Weight
		}
		k, ok := tr.Kind(arc.To.V)
		if !ok {
			return arc.Weight
		}

		return arc.Weight + a.yvc[OccKey{arc.To, k}]
	}
}
