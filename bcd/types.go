// SPDX-License-Identifier: MIT
//
// File: types.go
// Role: Problem data, block oracle contract, options and results of the
//       BCD-ALM solver.

package bcd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/railopt/report"
	"github.com/katalvlaran/railopt/timegraph"
)

// Sentinel errors.
var (
	// ErrNoBlocks indicates a problem without blocks.
	ErrNoBlocks = errors.New("bcd: problem has no blocks")

	// ErrDimensionMismatch indicates inconsistent block, cost or rhs shapes.
	ErrDimensionMismatch = errors.New("bcd: dimension mismatch")

	// ErrNilOracle indicates a block without an oracle.
	ErrNilOracle = errors.New("bcd: block oracle is nil")

	// ErrUnsupportedDualObjective indicates dual objective type 2, whose
	// cost adjustment is not defined.
	ErrUnsupportedDualObjective = errors.New("bcd: dual objective type 2 is not supported")

	// ErrUnknownAcceptance indicates an unrecognized acceptance rule.
	ErrUnknownAcceptance = errors.New("bcd: unknown acceptance rule")
)

// BlockOracle minimizes cᵀx over one block's feasible set. It returns the
// zero vector when nothing should be selected. Implementations must not
// retain or modify c.
type BlockOracle interface {
	Solve(ctx context.Context, c *mat.VecDense) (*mat.VecDense, error)
}

// Decoder is implemented by oracles that can turn a block solution back into
// a train path (sssp.ArcBlock does).
type Decoder interface {
	Decode(x mat.Vector) timegraph.Path
}

// Block is one train's slice of the program: the coupling columns A (m×n),
// the cost C (n) and the oracle over its own constraints.
type Block struct {
	ID     string
	A      mat.Matrix
	C      *mat.VecDense
	Oracle BlockOracle
}

// Problem is the full program. Every block has len(B) rows.
type Problem struct {
	Blocks []Block
	B      *mat.VecDense
}

// Validate checks shapes and oracles.
func (p *Problem) Validate() error {
	if len(p.Blocks) == 0 {
		return ErrNoBlocks
	}
	if p.B == nil {
		return fmt.Errorf("%w: b is nil", ErrDimensionMismatch)
	}
	m := p.B.Len()
	for _, blk := range p.Blocks {
		r, c := blk.A.Dims()
		if r != m {
			return fmt.Errorf("%w: block %s has %d rows, b has %d", ErrDimensionMismatch, blk.ID, r, m)
		}
		if blk.C == nil || blk.C.Len() != c {
			return fmt.Errorf("%w: block %s cost does not match %d columns", ErrDimensionMismatch, blk.ID, c)
		}
		if blk.Oracle == nil {
			return fmt.Errorf("%w: block %s", ErrNilOracle, blk.ID)
		}
	}

	return nil
}

// Acceptance decides whether a block's oracle answer is kept.
type Acceptance string

const (
	// AcceptObjective keeps x when c_kᵀx ≤ 0 under the unmodified cost.
	AcceptObjective Acceptance = "objective"
	// AcceptLinearized keeps x when c̃_kᵀx ≤ 0 under the linearized cost.
	AcceptLinearized Acceptance = "linearized"
)

// ParseAcceptance maps a name to its Acceptance.
func ParseAcceptance(s string) (Acceptance, error) {
	switch Acceptance(s) {
	case AcceptObjective, AcceptLinearized:
		return Acceptance(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAcceptance, s)
	}
}

// Options configures the Solver.
//
//	Rho           – initial penalty ρ (1e-2).
//	Sigma         – penalty growth factor σ > 1 (1.1).
//	MaxOuter      – outer (ρ, λ) iterations (10000).
//	MaxInner      – sweeps per outer iteration, "linmax" (1).
//	FixedPointTol – early sweep exit when Σ‖x_k − x_k'‖ is below it (1e-4).
//	DualObjective – 1 (linearized proximal); 2 is rejected.
//	Acceptance    – block acceptance rule (AcceptObjective).
//	Logger        – logrus logger (default discards). At debug level the
//	                console table is logged line by line.
type Options struct {
	Rho           float64
	Sigma         float64
	MaxOuter      int
	MaxInner      int
	FixedPointTol float64
	DualObjective int
	Acceptance    Acceptance
	Logger        logrus.FieldLogger
}

// Option is a functional option for New.
type Option func(*Options)

// WithRho sets the initial penalty. Panics unless ρ > 0.
func WithRho(rho float64) Option {
	return func(o *Options) {
		if !(rho > 0) {
			panic("bcd: rho must be positive")
		}
		o.Rho = rho
	}
}

// WithSigma sets the penalty growth. Panics unless σ ≥ 1.
func WithSigma(sigma float64) Option {
	return func(o *Options) {
		if !(sigma >= 1) {
			panic("bcd: sigma must be ≥ 1")
		}
		o.Sigma = sigma
	}
}

// WithMaxOuter caps the outer loop. Panics unless n ≥ 1.
func WithMaxOuter(n int) Option {
	return func(o *Options) {
		if n < 1 {
			panic("bcd: max outer must be ≥ 1")
		}
		o.MaxOuter = n
	}
}

// WithMaxInner caps the sweeps per outer iteration. Panics unless n ≥ 1.
func WithMaxInner(n int) Option {
	return func(o *Options) {
		if n < 1 {
			panic("bcd: max inner must be ≥ 1")
		}
		o.MaxInner = n
	}
}

// WithFixedPointTol sets the sweep exit tolerance. Panics on negatives.
func WithFixedPointTol(tol float64) Option {
	return func(o *Options) {
		if tol < 0 {
			panic("bcd: fixed-point tolerance must be non-negative")
		}
		o.FixedPointTol = tol
	}
}

// WithDualObjective selects the cost adjustment type. Panics outside {1, 2};
// type 2 is accepted here and rejected by Solve.
func WithDualObjective(t int) Option {
	return func(o *Options) {
		if t != 1 && t != 2 {
			panic(fmt.Sprintf("bcd: unknown dual objective type %d", t))
		}
		o.DualObjective = t
	}
}

// WithAcceptance selects the block acceptance rule. Panics on unknown rules.
func WithAcceptance(a Acceptance) Option {
	return func(o *Options) {
		if _, err := ParseAcceptance(string(a)); err != nil {
			panic(err.Error())
		}
		o.Acceptance = a
	}
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
		Rho:           1e-2,
		Sigma:         1.1,
		MaxOuter:      10000,
		MaxInner:      1,
		FixedPointTol: 1e-4,
		DualObjective: 1,
		Acceptance:    AcceptObjective,
		Logger:        l,
	}
}

// Result is the outcome of Solver.Solve.
//
// Norms hold ‖max(Ax−b,0)‖ in L1, L2 and L∞ per outer iteration. Tau is
// 1/(‖A_1‖_F·ρ₀), or 0 when the first block's A is zero. Selected and
// Dropped split the block IDs by whether x_k is non-zero; Timetables is
// filled for selected blocks whose oracle is a Decoder. Diverged is set when
// the run stopped early because ρ, λ or the linearized costs stopped being
// finite; Lambda and Rho then hold the last finite values.
type Result struct {
	RunID      uuid.UUID
	X          []*mat.VecDense
	Objective  float64
	Augmented  float64
	Violation  float64
	Lambda     *mat.VecDense
	Rho        float64
	Tau        float64
	Outer      int
	Converged  bool
	Diverged   bool
	Records    []report.Record
	Norms      report.Norms
	Selected   []string
	Dropped    []string
	Timetables map[string]map[string]int
}

// Report converts r into the exported run summary. A converged objective is
// reported as the upper bound; there is no lower bound.
func (r *Result) Report() *report.Run {
	run := &report.Run{
		RunID:       r.RunID.String(),
		Engine:      "bcd",
		Iterations:  r.Outer,
		Converged:   r.Converged,
		LowerBounds: []float64{},
		UpperBounds: []float64{},
		Norms:       &report.Norms{L1: r.Norms.L1, L2: r.Norms.L2, Inf: r.Norms.Inf},
		Feasible:    len(r.Selected),
		Infeasible:  append([]string{}, r.Dropped...),
		Timetables:  r.Timetables,
		Records:     r.Records,
	}
	if r.Converged {
		run.BestUB = report.Finite(r.Objective)
		run.UpperBounds = append(run.UpperBounds, r.Objective)
	}

	return run
}
