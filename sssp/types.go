// SPDX-License-Identifier: MIT
//
// File: types.go
// Role: Oracle contract, sentinel errors and functional options of the
//       per-train shortest-path subproblem solver.

package sssp

import (
	"context"
	"errors"
	"math"

	"github.com/katalvlaran/railopt/timegraph"
)

// Sentinel errors.
var (
	// ErrNilGraph indicates a nil graph was passed to the oracle.
	ErrNilGraph = errors.New("sssp: graph is nil")

	// ErrNilCost indicates a nil cost function.
	ErrNilCost = errors.New("sssp: cost function is nil")

	// ErrNoPath indicates the sink is unreachable under the given costs.
	// The accompanying cost is +Inf.
	ErrNoPath = errors.New("sssp: no source-sink path")

	// ErrNaNCost indicates the cost function returned NaN for some arc.
	ErrNaNCost = errors.New("sssp: cost function returned NaN")

	// ErrBadInfThreshold indicates a non-positive impassability threshold.
	ErrBadInfThreshold = errors.New("sssp: InfThreshold must be positive")

	// ErrBadCheckEvery indicates a non-positive cancellation poll interval.
	ErrBadCheckEvery = errors.New("sssp: CheckEvery must be positive")

	// ErrNegativeWeight indicates a negative arc price handed to Dijkstra.
	ErrNegativeWeight = errors.New("sssp: negative arc price")

	// ErrBadMaxDistance indicates a negative distance cap.
	ErrBadMaxDistance = errors.New("sssp: MaxDistance must be non-negative")

	// ErrDimensionMismatch indicates a cost vector whose length differs from
	// the block's column count.
	ErrDimensionMismatch = errors.New("sssp: cost vector length mismatch")
)

// Oracle solves one train's subproblem: the cheapest source→sink path of g
// under arc prices given by cost.
//
// Contract:
//   - Deterministic: equal inputs give equal paths.
//   - Never mutates g.
//   - Unreachable sink: returns (nil, +Inf, ErrNoPath).
//   - Arcs priced +Inf (or at/above the implementation's threshold) are impassable.
//   - Safe for concurrent use on distinct or shared graphs.
type Oracle interface {
	ShortestPath(ctx context.Context, g *timegraph.Graph, cost timegraph.CostFunc) (timegraph.Path, float64, error)
}

// Options configures the DAG and Dijkstra oracles.
//
//	InfThreshold – arcs priced ≥ this value are impassable. Must be > 0.
//	               Default +Inf (only +Inf arcs are walls).
//	CheckEvery   – poll ctx.Err() after this many settled nodes. Must be > 0.
//	               Default 4096.
//	MaxDistance  – Dijkstra only: nodes farther than this are not explored.
//	               Must be ≥ 0. Default +Inf.
type Options struct {
	InfThreshold float64
	CheckEvery   int
	MaxDistance  float64
}

// Option is a functional option for New and NewDijkstra.
type Option func(*Options)

// WithInfThreshold marks arcs priced at or above t as impassable.
// Panics on t ≤ 0.
func WithInfThreshold(t float64) Option {
	return func(o *Options) {
		if t <= 0 || math.IsNaN(t) {
			panic(ErrBadInfThreshold.Error())
		}
		o.InfThreshold = t
	}
}

// WithCheckEvery sets the cancellation poll interval. Panics on n ≤ 0.
func WithCheckEvery(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			panic(ErrBadCheckEvery.Error())
		}
		o.CheckEvery = n
	}
}

// WithMaxDistance caps the distance Dijkstra explores. Panics on d < 0.
func WithMaxDistance(d float64) Option {
	return func(o *Options) {
		if d < 0 || math.IsNaN(d) {
			panic(ErrBadMaxDistance.Error())
		}
		o.MaxDistance = d
	}
}

// DefaultOptions returns the defaults documented on Options.
func DefaultOptions() Options {
	return Options{
		InfThreshold: math.Inf(1),
		CheckEvery:   4096,
		MaxDistance:  math.Inf(1),
	}
}
