// SPDX-License-Identifier: MIT
//
// File: driver.go
// Role: The dual iteration driver.
//
// Loop (one outer iteration k):
//  1. Aggregate μ into the yvc snapshot.
//  2. Price and solve every train on a bounded errgroup pool; barrier.
//  3. LB = Σ priced cost − Σμ.
//  4. Occupancy → subgradient; LB into the tracker (κ schedule).
//  5. Debug: dual feasibility identity.
//  6. Primal stage every PrimalEvery iterations → UB, best schedule.
//  7. Gap test; converged runs stop here.
//  8. Step policy → projected multiplier update.
//
// Concurrency:
//   - Only step 2 is parallel. Workers read the immutable snapshot and write
//     their own result slot; μ is not touched until after the barrier.
//
// Errors:
//   - Train without a path: penalty cost, no occupancy, loop continues.
//   - Scheduler exhausted or timed out: warning, UB not updated.
//   - Oracle failures, degenerate steps, dual mismatches: fatal.

package lagrange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/primal"
	"github.com/katalvlaran/railopt/report"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/sssp"
)

// Engine runs Lagrangian relaxation over a fleet.
type Engine struct {
	table *safety.Table
	opts  Options
}

// New returns an Engine for the headways in table.
func New(table *safety.Table, opts ...Option) (*Engine, error) {
	if table == nil {
		return nil, ErrNilTable
	}
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Oracle == nil {
		cfg.Oracle = sssp.NewDijkstra()
	}
	if cfg.Restorer == nil && cfg.PrimalEvery > 0 {
		r, err := primal.New(table, primal.WithOracle(cfg.Oracle), primal.WithLogger(cfg.Logger))
		if err != nil {
			return nil, err
		}
		cfg.Restorer = r
	}

	return &Engine{table: table, opts: cfg}, nil
}

// Options returns the effective configuration.
func (e *Engine) Options() Options { return e.opts }

// Run iterates until the gap closes, the iteration cap is reached or ctx is
// cancelled. On cancellation the partial result is returned with ctx's error.
func (e *Engine) Run(ctx context.Context, trains fleet.Fleet) (*Result, error) {
	if len(trains) == 0 {
		return nil, ErrEmptyFleet
	}
	if err := trains.Validate(); err != nil {
		return nil, err
	}

	var (
		horizon = trains.Horizon()
		mult    = NewMultipliers(DomainNodes(trains), e.table)
		bt      = NewBoundTracker(e.opts.Kappa, e.opts.StuckLimit)
		res     = &Result{RunID: uuid.New()}
		log     = e.opts.Logger.WithField("run_id", res.RunID.String())
		start   = time.Now()
	)
	log.WithFields(logrus.Fields{
		"trains":      len(trains),
		"multipliers": mult.Len(),
		"horizon":     horizon,
		"step":        e.opts.StepMode,
	}).Info("lagrangian relaxation started")

	for k := 0; k < e.opts.MaxIterations; k++ {
		if err := ctx.Err(); err != nil {
			return e.finish(res, bt, mult), err
		}

		agg := Aggregate(mult, e.table, horizon)
		results, err := e.solveAll(ctx, trains, agg)
		if err != nil {
			if ctx.Err() != nil {
				return e.finish(res, bt, mult), ctx.Err()
			}
			return nil, err
		}
		res.Relaxed = results

		var priced float64
		for _, r := range results {
			priced += r.Cost
		}
		lb := priced - mult.Total()
		sub := ComputeSubgradient(mult, OccupancyOf(trains, results), e.table, horizon)
		bt.AddLB(lb)

		if e.opts.Debug {
			if err = CheckDualFeasibility(lb, results, mult, sub, e.opts.DualTolerance); err != nil {
				return nil, fmt.Errorf("iteration %d: %w", k, err)
			}
		}

		st := &IterationState{K: k, Mult: mult, Agg: agg, Results: results, LB: lb, Sub: sub, Tracker: bt}
		if e.opts.PrimalEvery > 0 && k%e.opts.PrimalEvery == 0 {
			if st.Schedule, err = e.primalStage(ctx, trains, results, log); err != nil {
				return nil, err
			}
			if st.Schedule != nil {
				bt.AddUB(st.Schedule.Cost)
				if st.Schedule.Better(res.Best) {
					res.Best = st.Schedule
					log.WithField("feasible", res.Best.FeasibleCount).Info("best primal solution updated")
				}
			}
		}

		gap := bt.Gap()
		rec := report.Record{
			Iteration: k,
			Elapsed:   time.Since(start),
			Objective: lb,
			Violation: sub.Violation(),
			Tau:       bt.Kappa(),
			Gap:       -1,
		}
		if bt.HasUB() {
			rec.Primal, rec.Gap = bt.BestUB(), gap
		}
		if res.Best != nil {
			rec.Feasible = res.Best.FeasibleCount
		}
		if e.opts.Observer != nil {
			e.opts.Observer(st)
		}
		res.Iterations = k + 1

		if gap <= e.opts.GapTolerance {
			res.Records = append(res.Records, rec)
			report.Emit(log, "lagrange", rec)
			res.Converged = true
			break
		}

		step, err := nextStep(e.opts.StepMode, k, bt, sub)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", k, err)
		}
		if err = mult.Step(step, sub); err != nil {
			return nil, err
		}
		rec.Param = step
		res.Records = append(res.Records, rec)
		report.Emit(log, "lagrange", rec)
	}

	e.finish(res, bt, mult)
	log.WithFields(logrus.Fields{
		"iterations": res.Iterations,
		"converged":  res.Converged,
		"best_lb":    res.BestLB,
		"best_ub":    res.BestUB,
	}).Info("lagrangian relaxation finished")

	return res, nil
}

func (e *Engine) finish(res *Result, bt *BoundTracker, mult *Multipliers) *Result {
	res.LowerBounds = bt.LowerBounds()
	res.UpperBounds = bt.UpperBounds()
	res.BestLB = bt.BestLB()
	res.BestUB = bt.BestUB()
	res.Gap = bt.Gap()
	res.Multipliers = mult.Clone()

	return res
}

// solveAll prices and solves every train. Results are parallel to trains.
func (e *Engine) solveAll(ctx context.Context, trains fleet.Fleet, agg *Aggregated) ([]TrainResult, error) {
	results := make([]TrainResult, len(trains))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, tr := range trains {
		g.Go(func() error {
			p, c, err := e.opts.Oracle.ShortestPath(gctx, tr.Graph, agg.CostFor(tr))
			if errors.Is(err, sssp.ErrNoPath) {
				pen := tr.PenaltyCost()
				results[i] = TrainResult{TrainID: tr.ID, Cost: pen, Base: pen}
				return nil
			}
			if err != nil {
				return fmt.Errorf("lagrange: train %s: %w", tr.ID, err)
			}
			base, err := tr.Graph.PathCost(p)
			if err != nil {
				return fmt.Errorf("lagrange: train %s: %w", tr.ID, err)
			}
			results[i] = TrainResult{TrainID: tr.ID, Feasible: true, Path: p, Cost: c, Base: base}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// primalStage runs the restorer on this iteration's relaxed paths. A
// recoverable scheduler failure yields (nil, nil).
func (e *Engine) primalStage(ctx context.Context, trains fleet.Fleet, results []TrainResult, log logrus.FieldLogger) (*primal.Schedule, error) {
	relaxed := make(map[string]primal.Relaxed, len(results))
	for _, r := range results {
		relaxed[r.TrainID] = primal.Relaxed{Path: r.Path, Cost: r.Cost, Feasible: r.Feasible}
	}
	s, err := e.opts.Restorer.Restore(ctx, trains, relaxed)
	switch {
	case errors.Is(err, primal.ErrSchedulerExhausted), errors.Is(err, primal.ErrSchedulerTimeout):
		log.WithError(err).Warn("primal stage failed, upper bound not updated")
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("lagrange: primal stage: %w", err)
	}

	return s, nil
}
