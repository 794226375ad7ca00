// SPDX-License-Identifier: MIT

// Package sssp solves the per-train subproblem of both decomposition engines:
// the cheapest source→sink path through a time-expanded graph under
// caller-supplied arc prices.
//
// The Oracle interface is the contract. Two implementations ship:
//
//	DAG      – one relaxation pass over Graph.Order (nodes sorted by time,
//	           which is topological for these graphs). Accepts negative
//	           prices, so the BCD engine uses it.
//	Dijkstra – lazy-decrease-key heap search. Prices must be non-negative;
//	           exploration stops at MaxDistance.
//	           The Lagrangian and restoration engines use it by default.
//
// Both break ties the same way: among equally cheap predecessors the one
// earliest in Graph.Order wins, so they return identical paths whenever
// prices are non-negative.
//
// ArcBlock adapts a graph plus an Oracle to the vector form the BCD engine
// works in: columns are arcs, a path is its 0/1 incidence vector.
//
// Errors:
//
//	ErrNilGraph, ErrNilCost  – invalid inputs.
//	ErrNoPath                – sink unreachable; cost is +Inf.
//	ErrNaNCost               – the pricing function produced NaN.
//	ErrNegativeWeight        – Dijkstra met a negative price.
//	ErrDimensionMismatch     – ArcBlock.Solve got a vector of the wrong size.
package sssp
