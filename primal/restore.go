// SPDX-License-Identifier: MIT
//
// File: restore.go
// Role: Restorer entry point and the sequential (seq) placement pass.
//
// Determinism:
//   - Trains enter the priority queue sorted by ID, so equal relaxed costs pop
//     in a fixed order.
//   - The oracle and the ledger are deterministic.
//
// Concurrency:
//   - Restore is serial by construction: each train's view depends on every
//     train accepted before it. A Restorer is safe for concurrent use, but
//     calls are serialized.

package primal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/dnaeon/go-priorityqueue.v1"

	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/sssp"
	"github.com/katalvlaran/railopt/timegraph"
)

// Restorer turns relaxed per-train paths into a conflict-free Schedule.
type Restorer struct {
	mu    sync.Mutex
	table *safety.Table
	opts  Options
	model *jspModel // built on the first jsp call, reused afterwards
}

// New returns a Restorer enforcing the headways of table.
func New(table *safety.Table, opts ...Option) (*Restorer, error) {
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
	if cfg.Mode == JSP && cfg.Scheduler == nil {
		return nil, ErrNoScheduler
	}

	return &Restorer{table: table, opts: cfg}, nil
}

// Mode returns the configured mode.
func (r *Restorer) Mode() Mode { return r.opts.Mode }

// Restore builds a schedule for trains from their relaxed solutions.
// Trains missing from relaxed are placed last.
//
// In jsp mode the seq result seeds the station orders; the better of the two
// schedules (Schedule.Better) is returned. A jsp schedule that still has a
// conflict is discarded in favour of seq. Scheduler failures surface as
// ErrSchedulerExhausted or ErrSchedulerTimeout and yield no schedule.
func (r *Restorer) Restore(ctx context.Context, trains fleet.Fleet, relaxed map[string]Relaxed) (*Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seq, order, err := r.seq(ctx, trains, relaxed)
	if err != nil {
		return nil, err
	}
	r.opts.Logger.WithFields(logrus.Fields{
		"mode":       Seq,
		"feasible":   seq.FeasibleCount,
		"infeasible": seq.Infeasible,
		"cost":       seq.Cost,
	}).Debug("primal pass finished")
	if r.opts.Mode != JSP {
		return seq, nil
	}

	jsp, err := r.jsp(ctx, trains, relaxed, seq, order)
	if err != nil {
		return nil, err
	}
	if cs := Conflicts(trains, jsp, r.table, r.opts.Corridor); len(cs) > 0 {
		r.opts.Logger.WithFields(logrus.Fields{
			"mode":      JSP,
			"conflicts": len(cs),
			"first":     cs[0],
		}).Warn("scheduler timing violates headways, keeping seq")
		return seq, nil
	}
	if jsp.Better(seq) {
		return jsp, nil
	}

	return seq, nil
}

// seq places trains in decreasing relaxed cost. It returns the schedule and
// the processing order.
func (r *Restorer) seq(ctx context.Context, trains fleet.Fleet, relaxed map[string]Relaxed) (*Schedule, []string, error) {
	sorted := make(fleet.Fleet, len(trains))
	copy(sorted, trains)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	pq := priorityqueue.New[int, float64](priorityqueue.MaxHeap)
	for i, tr := range sorted {
		c := tr.PenaltyCost()
		if rel, ok := relaxed[tr.ID]; ok && rel.Feasible {
			c = rel.Cost
		}
		pq.Put(i, c)
	}

	led := newLedger(r.table, r.opts.Corridor, r.opts.Lookback, r.opts.Lookahead)
	sched := newSchedule(len(sorted))
	order := make([]string, 0, len(sorted))

	for pq.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		tr := sorted[pq.Get().Value]
		order = append(order, tr.ID)

		path, err := r.place(ctx, led, tr, relaxed[tr.ID])
		if errors.Is(err, sssp.ErrNoPath) {
			sched.add(TrainOutcome{TrainID: tr.ID, Cost: tr.PenaltyCost()})
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("primal: train %s: %w", tr.ID, err)
		}
		cost, err := tr.Graph.PathCost(path)
		if err != nil {
			return nil, nil, fmt.Errorf("primal: train %s: %w", tr.ID, err)
		}
		led.accept(tr, path)
		sched.add(TrainOutcome{TrainID: tr.ID, Feasible: true, Path: path.Clone(), Cost: cost})
	}

	return sched, order, nil
}

// place finds tr's path on the constrained view of the ledger.
func (r *Restorer) place(ctx context.Context, led *ledger, tr *fleet.Train, rel Relaxed) (timegraph.Path, error) {
	if r.opts.KeepRelaxed && rel.Feasible && led.admits(tr, rel.Path) {
		return rel.Path, nil
	}
	view := timegraph.Filter(tr.Graph,
		func(n timegraph.Node) bool { return !led.nodeBlocked(tr, n) },
		func(a timegraph.Arc) bool { return !led.arcBlocked(a) },
	)
	p, _, err := r.opts.Oracle.ShortestPath(ctx, view, timegraph.BaseCost)

	return p, err
}
