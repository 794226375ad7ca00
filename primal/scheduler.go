// SPDX-License-Identifier: MIT
//
// File: scheduler.go
// Role: Contract of the auxiliary job-scheduling subsolver and a reference
//       implementation based on difference constraints.

package primal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

// ErrBadRequest indicates a request referencing unknown events.
var ErrBadRequest = errors.New("primal: malformed scheduling request")

// Event is one (train, virtual station) visit to be timed.
type Event struct {
	Train    string
	V        timegraph.VStation
	Kind     safety.EventKind
	Earliest int
	Latest   int
}

// Duration bounds the time between two events of the same train:
// Min ≤ t[To] − t[From] ≤ Max.
type Duration struct {
	From, To int
	Min, Max int
}

// Order requires t[After] − t[Before] ≥ Gap.
type Order struct {
	Before, After int
	Gap           int
}

// SchedulingRequest is everything the subsolver sees. Indices refer to Events.
type SchedulingRequest struct {
	Events    []Event
	Durations []Duration
	Orders    []Order
}

// SchedulingResponse is either a feasible timing (Times, parallel to
// Events) or an infeasibility certificate: indices into Orders whose joint
// presence makes the request infeasible.
type SchedulingResponse struct {
	Feasible  bool
	Times     []int
	Conflicts []int
}

// Scheduler computes event times honoring durations and order constraints.
// Calls are blocking; implementations may ignore ctx.
type Scheduler interface {
	Schedule(ctx context.Context, req SchedulingRequest) (SchedulingResponse, error)
}

// DifferenceScheduler solves the request as a system of difference
// constraints: each constraint t[v] − t[u] ≥ w is an arc u→v of weight w,
// and the earliest feasible timing is the longest-path distance from a
// zero-time anchor. A positive cycle is an infeasibility certificate; its
// order arcs are reported as Conflicts.
//
// Complexity: O(V·E) (Bellman–Ford), V = events + 1, E = 2·events +
// 2·durations + orders.
type DifferenceScheduler struct{}

type dcArc struct {
	u, v  int
	w     int
	order int // index into Orders, -1 otherwise
}

// Schedule implements Scheduler.
func (DifferenceScheduler) Schedule(ctx context.Context, req SchedulingRequest) (SchedulingResponse, error) {
	n := len(req.Events)
	valid := func(i int) bool { return i >= 0 && i < n }

	arcs := make([]dcArc, 0, 2*n+2*len(req.Durations)+len(req.Orders))
	for i, e := range req.Events {
		// node 0 is the anchor, event i is node i+1
		arcs = append(arcs,
			dcArc{u: 0, v: i + 1, w: e.Earliest, order: -1},
			dcArc{u: i + 1, v: 0, w: -e.Latest, order: -1})
	}
	for _, d := range req.Durations {
		if !valid(d.From) || !valid(d.To) {
			return SchedulingResponse{}, fmt.Errorf("%w: duration %d→%d", ErrBadRequest, d.From, d.To)
		}
		arcs = append(arcs,
			dcArc{u: d.From + 1, v: d.To + 1, w: d.Min, order: -1},
			dcArc{u: d.To + 1, v: d.From + 1, w: -d.Max, order: -1})
	}
	for j, o := range req.Orders {
		if !valid(o.Before) || !valid(o.After) {
			return SchedulingResponse{}, fmt.Errorf("%w: order %d→%d", ErrBadRequest, o.Before, o.After)
		}
		arcs = append(arcs, dcArc{u: o.Before + 1, v: o.After + 1, w: o.Gap, order: j})
	}

	V := n + 1
	dist := make([]int, V)
	pred := make([]int, V) // index into arcs
	for i := range dist {
		dist[i] = math.MinInt
		pred[i] = -1
	}
	dist[0] = 0

	var round int
	for round = 0; round < V; round++ {
		if err := ctx.Err(); err != nil {
			return SchedulingResponse{}, err
		}
		changed := -1
		for ai, a := range arcs {
			if dist[a.u] == math.MinInt {
				continue
			}
			if w := dist[a.u] + a.w; w > dist[a.v] {
				dist[a.v] = w
				pred[a.v] = ai
				changed = a.v
			}
		}
		if changed < 0 {
			times := make([]int, n)
			copy(times, dist[1:])
			return SchedulingResponse{Feasible: true, Times: times}, nil
		}
		if round == V-1 {
			return SchedulingResponse{Conflicts: cycleOrders(arcs, pred, changed, V)}, nil
		}
	}

	return SchedulingResponse{}, nil
}

// cycleOrders walks predecessors from a node relaxed in round V to land on
// the positive cycle, then returns the order indices found on it.
func cycleOrders(arcs []dcArc, pred []int, v, V int) []int {
	for i := 0; i < V; i++ {
		if pred[v] < 0 {
			return nil
		}
		v = arcs[pred[v]].u
	}
	seen := make(map[int]struct{})
	for x := v; ; {
		if pred[x] < 0 {
			return nil
		}
		a := arcs[pred[x]]
		if a.order >= 0 {
			seen[a.order] = struct{}{}
		}
		x = a.u
		if x == v {
			break
		}
	}
	out := make([]int, 0, len(seen))
	for o := range seen {
		out = append(out, o)
	}
	sort.Ints(out)

	return out
}
