// SPDX-License-Identifier: MIT
//
// File: solver.go
// Role: The BCD-ALM loop.
//
// State machine:
//
//	outer k:  inner sweeps (≤ MaxInner, early exit on fixed point)
//	          → residual, log → stop if Ax ≤ b
//	          → λ ← max(0, ρ(Ax − b) + λ), ρ ← σρ
//
// A run that never satisfies Ax ≤ b grows ρ geometrically. Once ρ, λ, the
// augmented objective or a linearized cost is no longer finite the loop
// stops with Diverged set and the last finite state.
//
// Determinism:
//   - Blocks are swept in slice order; each sees the updates of the blocks
//     before it (Gauss–Seidel).
//
// Complexity: O(MaxOuter · MaxInner · B · (m·n + oracle)) with dense A.

package bcd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/railopt/report"
	"github.com/katalvlaran/railopt/sssp"
)

// Solver runs BCD-ALM.
type Solver struct {
	opts Options
}

// New returns a Solver configured by opts.
func New(opts ...Option) *Solver {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Solver{opts: cfg}
}

// Options returns the effective configuration.
func (s *Solver) Options() Options { return s.opts }

// finite reports whether every entry of v is finite.
func finite(v *mat.VecDense) bool {
	for _, x := range v.RawVector().Data {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}

	return true
}

func isFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// nonneg sets v ← max(v, 0).
func nonneg(v *mat.VecDense) {
	raw := v.RawVector().Data
	for i, x := range raw {
		if x < 0 {
			raw[i] = 0
		}
	}
}

// Solve runs the method on p. A block oracle reporting sssp.ErrNoPath
// selects nothing for that block; any other oracle error is fatal. On
// cancellation the outer iterations finished so far are returned with ctx's
// error.
func (s *Solver) Solve(ctx context.Context, p *Problem) (*Result, error) {
	if s.opts.DualObjective == 2 {
		return nil, ErrUnsupportedDualObjective
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var (
		start  = time.Now()
		blocks = p.Blocks
		m      = p.B.Len()
		rho    = s.opts.Rho
		tau    float64
		res    = &Result{RunID: uuid.New()}
		log    = s.opts.Logger.WithFields(logrus.Fields{"run_id": res.RunID.String(), "engine": "bcd"})
	)
	if an := mat.Norm(blocks[0].A, 2); an > 0 {
		tau = 1 / (an * rho)
	}

	xk := make([]*mat.VecDense, len(blocks))
	vAx := make([]*mat.VecDense, len(blocks))
	vcx := make([]float64, len(blocks))
	fp := make([]float64, len(blocks))
	for i, blk := range blocks {
		_, n := blk.A.Dims()
		xk[i] = mat.NewVecDense(n, nil)
		vAx[i] = mat.NewVecDense(m, nil)
	}
	lambda := mat.NewVecDense(m, nil)

	halfB := mat.NewVecDense(m, nil)
	halfB.ScaleVec(0.5, p.B)

	sumAx := func() *mat.VecDense {
		out := mat.NewVecDense(m, nil)
		for _, v := range vAx {
			out.AddVec(out, v)
		}
		return out
	}

	log.Debug("\n" + report.Header("BCD for MILP"))

	var (
		k         int
		sweeps    int
		ax, resid *mat.VecDense
		stopErr   error
	)
	diverged := func(what string) {
		res.Diverged = true
		log.WithFields(logrus.Fields{"outer": k, "rho": rho}).Warnf("bcd stopped: %s not finite", what)
	}
outer:
	for k = 0; k < s.opts.MaxOuter; k++ {
		for sweeps = 0; sweeps < s.opts.MaxInner; {
			sweeps++
			for i, blk := range blocks {
				if err := ctx.Err(); err != nil {
					stopErr = err
					break outer
				}
				_, n := blk.A.Dims()

				// w = λ + ρ·max(Ax − A_k x_k − b/2, 0)
				w := sumAx()
				w.SubVec(w, vAx[i])
				w.SubVec(w, halfB)
				nonneg(w)
				w.AddScaledVec(lambda, rho, w)

				ct := mat.NewVecDense(n, nil)
				ct.MulVec(blk.A.T(), w)
				ct.AddVec(ct, blk.C)
				if !finite(w) || !finite(ct) {
					diverged("linearized cost")
					break outer
				}

				x, err := blk.Oracle.Solve(ctx, ct)
				switch {
				case errors.Is(err, sssp.ErrNoPath):
					x = mat.NewVecDense(n, nil)
				case err != nil && ctx.Err() != nil:
					stopErr = ctx.Err()
					break outer
				case err != nil:
					return nil, fmt.Errorf("bcd: block %s: %w", blk.ID, err)
				case x == nil || x.Len() != n:
					return nil, fmt.Errorf("%w: block %s oracle answer", ErrDimensionMismatch, blk.ID)
				}

				if !s.accept(blk.C, ct, x) {
					x = mat.NewVecDense(n, nil)
				}

				d := mat.NewVecDense(n, nil)
				d.SubVec(xk[i], x)
				fp[i] = mat.Norm(d, 2)

				xk[i] = x
				vAx[i].MulVec(blk.A, x)
				vcx[i] = mat.Dot(blk.C, x)
			}
			if floats.Sum(fp) < s.opts.FixedPointTol {
				break
			}
		}

		ax = sumAx()
		resid = mat.NewVecDense(m, nil)
		resid.SubVec(ax, p.B) // Ax − b
		viol := mat.VecDenseCopyOf(resid)
		nonneg(viol)
		raw := viol.RawVector().Data
		eps := floats.Norm(raw, 2)
		cx := floats.Sum(vcx)
		lobj := cx + mat.Dot(lambda, resid) + rho/2*eps*eps
		if !isFinite(lobj) {
			diverged("augmented objective")
			break
		}

		res.Norms.L1 = append(res.Norms.L1, floats.Norm(raw, 1))
		res.Norms.L2 = append(res.Norms.L2, eps)
		res.Norms.Inf = append(res.Norms.Inf, floats.Norm(raw, math.Inf(1)))

		rec := report.Record{
			Iteration:  k,
			Elapsed:    time.Since(start),
			Primal:     cx,
			Objective:  lobj,
			Violation:  eps,
			FixedPoint: floats.Sum(fp),
			Param:      rho,
			Tau:        tau,
			Inner:      sweeps,
			Gap:        -1,
		}
		res.Records = append(res.Records, rec)
		report.Emit(log, "bcd", rec)
		log.Debug(rec.Line())

		if eps == 0 {
			res.Converged = true
			break
		}

		// λ ← max(ρ(Ax − b) + λ, 0); ρ ← σρ
		next := mat.NewVecDense(m, nil)
		next.AddScaledVec(lambda, rho, resid)
		nonneg(next)
		nextRho := rho * s.opts.Sigma
		if !finite(next) || !isFinite(nextRho) {
			diverged("penalty")
			break
		}
		lambda, rho = next, nextRho
	}

	s.finish(res, blocks, xk, vcx, lambda, rho, tau)
	log.WithFields(logrus.Fields{
		"outer":     res.Outer,
		"converged": res.Converged,
		"diverged":  res.Diverged,
		"objective": res.Objective,
		"selected":  len(res.Selected),
	}).Info("bcd finished")

	return res, stopErr
}

// finish copies the final state into res.
func (s *Solver) finish(res *Result, blocks []Block, xk []*mat.VecDense, vcx []float64, lambda *mat.VecDense, rho, tau float64) {
	res.X = xk
	res.Lambda = lambda
	res.Rho = rho
	res.Tau = tau
	res.Outer = len(res.Records)
	res.Objective = floats.Sum(vcx)
	if n := len(res.Norms.L2); n > 0 {
		res.Violation = res.Norms.L2[n-1]
		res.Augmented = res.Records[n-1].Objective
	}
	res.Timetables = make(map[string]map[string]int)
	for i, blk := range blocks {
		if floats.Norm(xk[i].RawVector().Data, 1) == 0 {
			res.Dropped = append(res.Dropped, blk.ID)
			continue
		}
		res.Selected = append(res.Selected, blk.ID)
		if dec, ok := blk.Oracle.(Decoder); ok {
			if path := dec.Decode(xk[i]); path != nil {
				tt := make(map[string]int)
				for v, t := range path.Times() {
					tt[v.String()] = t
				}
				res.Timetables[blk.ID] = tt
			}
		}
	}
}

// accept applies the acceptance rule to the oracle answer x.
func (s *Solver) accept(c, ct, x *mat.VecDense) bool {
	if s.opts.Acceptance == AcceptLinearized {
		return mat.Dot(ct, x) <= 0
	}

	return mat.Dot(c, x) <= 0
}
