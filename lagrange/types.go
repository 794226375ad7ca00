// SPDX-License-Identifier: MIT
//
// File: types.go
// Role: Sentinel errors, functional options and result records of the
//       Lagrangian engine.

package lagrange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/primal"
	"github.com/katalvlaran/railopt/report"
	"github.com/katalvlaran/railopt/sssp"
	"github.com/katalvlaran/railopt/timegraph"
)

// Sentinel errors.
var (
	// ErrNilTable indicates the engine was created without a safety table.
	ErrNilTable = errors.New("lagrange: safety table is nil")

	// ErrEmptyFleet indicates Run was called with no trains.
	ErrEmptyFleet = errors.New("lagrange: fleet is empty")

	// ErrUnknownStepMode indicates an unrecognized step-size policy name.
	ErrUnknownStepMode = errors.New("lagrange: unknown step mode")

	// ErrDegenerateSubgradient indicates a zero (or non-finite) subgradient
	// norm under the Polyak policy, which would make the step undefined.
	ErrDegenerateSubgradient = errors.New("lagrange: degenerate subgradient norm")

	// ErrUnknownKey indicates a multiplier lookup or write outside the domain.
	ErrUnknownKey = errors.New("lagrange: key outside the multiplier domain")

	// ErrNegativeMultiplier indicates an attempt to store μ < 0.
	ErrNegativeMultiplier = errors.New("lagrange: multiplier must be non-negative")

	// ErrDimensionMismatch indicates a subgradient not aligned with the store.
	ErrDimensionMismatch = errors.New("lagrange: subgradient does not match multiplier domain")

	// ErrDualMismatch indicates the lower bound does not equal the base path
	// weights plus μ·g within tolerance. It signals a modeling bug.
	ErrDualMismatch = errors.New("lagrange: dual feasibility check failed")
)

// StepMode selects the step-size policy.
type StepMode string

const (
	// Simple uses 0.5/(k+1) for k < 20, then 0.5/20.
	Simple StepMode = "simple"
	// Polyak uses κ·(bestUB − bestLB)/‖g‖².
	Polyak StepMode = "polyak"
)

// ParseStepMode maps "simple" and "polyak" to their StepMode.
func ParseStepMode(s string) (StepMode, error) {
	switch StepMode(s) {
	case Simple, Polyak:
		return StepMode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStepMode, s)
	}
}

// Restorer builds a feasible schedule from relaxed paths. *primal.Restorer
// satisfies it.
type Restorer interface {
	Restore(ctx context.Context, trains fleet.Fleet, relaxed map[string]primal.Relaxed) (*primal.Schedule, error)
}

// Options configures the Engine.
//
//	StepMode      – step policy (Polyak).
//	Kappa         – initial Polyak scale κ (0.2).
//	StuckLimit    – non-improving iterations before κ halves (3).
//	MaxIterations – outer iteration cap (100).
//	GapTolerance  – stop once the relative gap is at or below it (0.1).
//	PrimalEvery   – run the primal stage every n iterations; 0 disables (1).
//	Workers       – parallel oracle calls (GOMAXPROCS).
//	Debug         – run the dual feasibility check each iteration.
//	DualTolerance – absolute tolerance of that check (1e-6).
//	Oracle        – per-train shortest-path solver (sssp.Dijkstra).
//	Restorer      – primal heuristic (primal seq mode on the engine's table).
//	Observer      – optional callback after each iteration, before the step.
//	Logger        – logrus logger (default discards).
type Options struct {
	StepMode      StepMode
	Kappa         float64
	StuckLimit    int
	MaxIterations int
	GapTolerance  float64
	PrimalEvery   int
	Workers       int
	Debug         bool
	DualTolerance float64
	Oracle        sssp.Oracle
	Restorer      Restorer
	Observer      func(*IterationState)
	Logger        logrus.FieldLogger
}

// Option is a functional option for New.
type Option func(*Options)

// WithStepMode selects the step policy. Panics on an unknown mode.
func WithStepMode(m StepMode) Option {
	return func(o *Options) {
		if _, err := ParseStepMode(string(m)); err != nil {
			panic(err.Error())
		}
		o.StepMode = m
	}
}

// WithKappa sets the initial Polyak scale. Panics unless 0 < k.
func WithKappa(k float64) Option {
	return func(o *Options) {
		if !(k > 0) || math.IsInf(k, 0) {
			panic("lagrange: kappa must be positive and finite")
		}
		o.Kappa = k
	}
}

// WithStuckLimit sets the stagnation threshold. Panics unless n ≥ 1.
func WithStuckLimit(n int) Option {
	return func(o *Options) {
		if n < 1 {
			panic("lagrange: stuck limit must be ≥ 1")
		}
		o.StuckLimit = n
	}
}

// WithMaxIterations caps the outer loop. Panics unless n ≥ 1.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		if n < 1 {
			panic("lagrange: max iterations must be ≥ 1")
		}
		o.MaxIterations = n
	}
}

// WithGapTolerance sets the convergence threshold. Panics on negatives.
func WithGapTolerance(g float64) Option {
	return func(o *Options) {
		if g < 0 || math.IsNaN(g) {
			panic("lagrange: gap tolerance must be non-negative")
		}
		o.GapTolerance = g
	}
}

// WithPrimalEvery sets the primal cadence; 0 disables the primal stage.
func WithPrimalEvery(n int) Option {
	return func(o *Options) {
		if n < 0 {
			panic("lagrange: primal cadence must be non-negative")
		}
		o.PrimalEvery = n
	}
}

// WithWorkers bounds the parallel oracle calls. Panics unless n ≥ 1.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n < 1 {
			panic("lagrange: workers must be ≥ 1")
		}
		o.Workers = n
	}
}

// WithDebug enables the dual feasibility check with the given tolerance.
func WithDebug(tol float64) Option {
	return func(o *Options) {
		o.Debug = true
		if tol > 0 {
			o.DualTolerance = tol
		}
	}
}

// WithOracle overrides the shortest-path oracle.
func WithOracle(or sssp.Oracle) Option {
	return func(o *Options) { o.Oracle = or }
}

// WithRestorer overrides the primal heuristic.
func WithRestorer(r Restorer) Option {
	return func(o *Options) { o.Restorer = r }
}

// WithObserver registers a per-iteration callback.
func WithObserver(fn func(*IterationState)) Option {
	return func(o *Options) { o.Observer = fn }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Options) { o.Logger = l }
}

// DefaultOptions returns the defaults documented on Options.
func DefaultOptions() Options {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return Options{
		StepMode:      Polyak,
		Kappa:         0.2,
		StuckLimit:    3,
		MaxIterations: 100,
		GapTolerance:  0.1,
		PrimalEvery:   1,
		Workers:       runtime.GOMAXPROCS(0),
		DualTolerance: 1e-6,
		Logger:        l,
	}
}

// TrainResult is one train's relaxed solution for one iteration.
//
// Cost is the priced path cost (base weights plus aggregated multipliers);
// Base is the same path under base weights. An infeasible train carries its
// penalty in both and no path.
type TrainResult struct {
	TrainID  string
	Feasible bool
	Path     timegraph.Path
	Cost     float64
	Base     float64
}

// IterationState is the driver-owned context of one outer iteration. Mult
// and Agg are read-only snapshots while the oracle calls run.
type IterationState struct {
	K        int
	Mult     *Multipliers
	Agg      *Aggregated
	Results  []TrainResult
	LB       float64
	Sub      *Subgradient
	Schedule *primal.Schedule
	Tracker  *BoundTracker
}

// Result is the outcome of Engine.Run.
type Result struct {
	RunID       uuid.UUID
	LowerBounds []float64
	UpperBounds []float64
	BestLB      float64
	BestUB      float64
	Gap         float64
	Iterations  int
	Converged   bool
	Best        *primal.Schedule
	Records     []report.Record
	Multipliers *Multipliers
	Relaxed     []TrainResult
}

// Report converts r into the exported run summary.
func (r *Result) Report() *report.Run {
	run := &report.Run{
		RunID:       r.RunID.String(),
		Engine:      "lagrange",
		Iterations:  r.Iterations,
		Converged:   r.Converged,
		BestLB:      report.Finite(r.BestLB),
		BestUB:      report.Finite(r.BestUB),
		Gap:         report.Finite(r.Gap),
		LowerBounds: append([]float64(nil), r.LowerBounds...),
		UpperBounds: append([]float64(nil), r.UpperBounds...),
		Infeasible:  []string{},
		Timetables:  map[string]map[string]int{},
		Records:     append([]report.Record(nil), r.Records...),
	}
	if r.Best != nil {
		run.Feasible = r.Best.FeasibleCount
		run.Infeasible = append(run.Infeasible, r.Best.Infeasible...)
		run.Timetables = r.Best.Timetables()
	}

	return run
}
