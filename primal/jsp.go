// SPDX-License-Identifier: MIT
//
// File: jsp.go
// Role: jsp mode: station orders from the seq pass, a scoped injection of
//       order constraints into a cached scheduling model, the scheduler call
//       under a timeout guard, and IIS-driven conflict reduction.

package primal

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

// jspModel holds the fleet-static part of every scheduling request: one event
// per (train, virtual station) and the intra-train duration bounds. Order
// constraints are injected per call through a scope.
type jspModel struct {
	key       string
	events    []Event
	index     map[string]map[timegraph.VStation]int
	durations []Duration
	orders    []Order
}

func fleetKey(trains fleet.Fleet) string {
	ids := make([]string, len(trains))
	for i, tr := range trains {
		ids[i] = tr.ID
	}
	sort.Strings(ids)

	return strings.Join(ids, "\x00")
}

func buildModel(trains fleet.Fleet) *jspModel {
	m := &jspModel{
		key:   fleetKey(trains),
		index: make(map[string]map[timegraph.VStation]int, len(trains)),
	}
	sorted := make(fleet.Fleet, len(trains))
	copy(sorted, trains)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, tr := range sorted {
		g := tr.Graph
		spans := make(map[sectionKey]span)
		for _, a := range g.Arcs() {
			k := a.Key()
			if k.From.V.IsTerminal() || k.To.V.IsTerminal() {
				continue
			}
			sk, d := sectionKey{k.From.V, k.To.V}, k.Duration()
			if s, ok := spans[sk]; !ok {
				spans[sk] = span{d, d}
			} else {
				spans[sk] = span{min(s.Start, d), max(s.End, d)}
			}
		}
		first, last := g.Horizon(), 0
		for _, a := range g.OutArcs(g.Source()) {
			first, last = min(first, a.To.T), max(last, a.To.T)
		}

		m.index[tr.ID] = make(map[timegraph.VStation]int)
		vs := tr.VStations()
		for i, v := range vs {
			k, _ := tr.Kind(v)
			e := Event{Train: tr.ID, V: v, Kind: k, Earliest: 0, Latest: g.Horizon() - 1}
			if i == 0 {
				e.Earliest, e.Latest = first, last
			}
			m.index[tr.ID][v] = len(m.events)
			m.events = append(m.events, e)
			if i > 0 {
				s := spans[sectionKey{vs[i-1], v}]
				m.durations = append(m.durations, Duration{
					From: len(m.events) - 2, To: len(m.events) - 1, Min: s.Start, Max: s.End,
				})
			}
		}
	}

	return m
}

// scope is a set of order constraints injected into a model for the
// duration of one scheduler call.
type scope struct {
	m *jspModel
	n int
}

func (m *jspModel) inject(orders []Order) *scope {
	m.orders = append(m.orders, orders...)

	return &scope{m: m, n: len(orders)}
}

func (s *scope) retract() {
	s.m.orders = s.m.orders[:len(s.m.orders)-s.n]
}

// request snapshots the model with per-call release times applied.
func (m *jspModel) request(release map[int]int) SchedulingRequest {
	events := make([]Event, len(m.events))
	copy(events, m.events)
	for i, t := range release {
		if t > events[i].Earliest {
			events[i].Earliest = t
		}
	}

	return SchedulingRequest{
		Events:    events,
		Durations: append([]Duration(nil), m.durations...),
		Orders:    append([]Order(nil), m.orders...),
	}
}

type visit struct {
	train string
	t     int
	kind  safety.EventKind
	prev  string // previous station on the train's route, "" at the origin
	dep   int    // departure time at prev
}

// stationOrders builds the order constraints for the active trains' paths
// and returns, parallel to them, the train pair each constraint binds.
func (r *Restorer) stationOrders(m *jspModel, trains fleet.Fleet, paths map[string]timegraph.Path) ([]Order, [][2]string, int) {
	byVS := make(map[timegraph.VStation][]visit)
	times := make(map[string]map[timegraph.VStation]int, len(paths))
	for _, tr := range trains {
		p, ok := paths[tr.ID]
		if !ok {
			continue
		}
		tt := p.Times()
		times[tr.ID] = tt
		for i, x := range tr.Route {
			for _, v := range []timegraph.VStation{timegraph.In(x), timegraph.Out(x)} {
				t, ok := tt[v]
				if !ok {
					continue
				}
				k, _ := tr.Kind(v)
				vi := visit{train: tr.ID, t: t, kind: k}
				if v.Side == timegraph.Inbound && i > 0 {
					vi.prev = tr.Route[i-1]
					vi.dep = tt[timegraph.Out(vi.prev)]
				}
				byVS[v] = append(byVS[v], vi)
			}
		}
	}

	stations := make([]timegraph.VStation, 0, len(byVS))
	for v := range byVS {
		stations = append(stations, v)
	}
	sort.Slice(stations, func(i, j int) bool { return stations[i].String() < stations[j].String() })

	var (
		orders     []Order
		pairs      [][2]string
		overtaking int
	)
	for _, v := range stations {
		seq, swapped := straighten(byVS[v])
		overtaking += swapped
		o, p := r.pairOrders(m, v, seq)
		orders = append(orders, o...)
		pairs = append(pairs, p...)
	}

	if c := r.opts.Corridor; c != nil {
		o, p := headOnOrders(c, m, trains, times)
		orders = append(orders, o...)
		pairs = append(pairs, p...)
	}

	return orders, pairs, overtaking
}

// pairOrders sequences the visits of one virtual station. Neighbours get
// gap max(1, I(lead, follow)). A non-neighbour pair gets its own order only
// when its interval exceeds the sum of the neighbour gaps between them.
func (r *Restorer) pairOrders(m *jspModel, v timegraph.VStation, seq []visit) ([]Order, [][2]string) {
	gapOf := func(a, b visit) int {
		gap := 1
		if iv, ok := r.table.Interval(v.Station, safety.Category{Lead: a.kind, Follow: b.kind}); ok && iv > gap {
			gap = iv
		}

		return gap
	}

	var (
		orders []Order
		pairs  [][2]string
	)
	limit := r.table.MaxInterval()
	for i := 0; i+1 < len(seq); i++ {
		implied := 0
		for j := i + 1; j < len(seq) && (j == i+1 || implied < limit); j++ {
			implied += gapOf(seq[j-1], seq[j])
			gap := gapOf(seq[i], seq[j])
			if j > i+1 && gap <= implied {
				continue
			}
			orders = append(orders, Order{Before: m.index[seq[i].train][v], After: m.index[seq[j].train][v], Gap: gap})
			pairs = append(pairs, [2]string{seq[i].train, seq[j].train})
		}
	}

	return orders, pairs
}

// straighten orders the visits of one virtual station by time, except that
// trains arriving from the same previous station keep their departure order
// there (no overtaking inside a section). It returns the order and the number
// of pairs moved relative to plain time order.
func straighten(vs []visit) ([]visit, int) {
	groups := make(map[string][]visit)
	var keys []string
	for _, v := range vs {
		if _, ok := groups[v.prev]; !ok {
			keys = append(keys, v.prev)
		}
		groups[v.prev] = append(groups[v.prev], v)
	}
	sort.Strings(keys)
	for _, k := range keys {
		g := groups[k]
		sort.Slice(g, func(i, j int) bool {
			if k != "" && g[i].dep != g[j].dep {
				return g[i].dep < g[j].dep
			}
			if g[i].t != g[j].t {
				return g[i].t < g[j].t
			}
			return g[i].train < g[j].train
		})
	}

	out := make([]visit, 0, len(vs))
	heads := make(map[string]int, len(keys))
	for len(out) < len(vs) {
		best := ""
		found := false
		for _, k := range keys {
			h := heads[k]
			if h >= len(groups[k]) {
				continue
			}
			c := groups[k][h]
			if !found {
				best, found = k, true
				continue
			}
			b := groups[best][heads[best]]
			if c.t < b.t || (c.t == b.t && c.train < b.train) {
				best = k
			}
		}
		out = append(out, groups[best][heads[best]])
		heads[best]++
	}

	swapped := 0
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[i].t > out[j].t {
				swapped++
			}
		}
	}

	return out, swapped
}

// headOnOrders keeps opposite runs on single-track sections apart: the train
// entering first must clear the far end before the other one departs.
func headOnOrders(c *timegraph.Corridor, m *jspModel, trains fleet.Fleet, times map[string]map[timegraph.VStation]int) ([]Order, [][2]string) {
	type run struct {
		train    string
		from, to string
		dep      int
	}
	bySec := make(map[timegraph.Section][]run)
	for _, tr := range trains {
		tt, ok := times[tr.ID]
		if !ok {
			continue
		}
		for i := 0; i+1 < len(tr.Route); i++ {
			sec := timegraph.Section{From: tr.Route[i], To: tr.Route[i+1]}
			if !c.IsSingleTrack(sec) {
				continue
			}
			bySec[sec] = append(bySec[sec], run{tr.ID, sec.From, sec.To, tt[timegraph.Out(sec.From)]})
		}
	}

	secs := make([]timegraph.Section, 0, len(bySec))
	for s := range bySec {
		secs = append(secs, s)
	}
	sort.Slice(secs, func(i, j int) bool {
		if secs[i].From != secs[j].From {
			return secs[i].From < secs[j].From
		}
		return secs[i].To < secs[j].To
	})

	var (
		orders []Order
		pairs  [][2]string
	)
	for _, s := range secs {
		if s.From > s.To {
			continue // each physical section once
		}
		for _, a := range bySec[s] {
			for _, b := range bySec[s.Reverse()] {
				first, second := a, b
				if b.dep < a.dep || (b.dep == a.dep && b.train < a.train) {
					first, second = b, a
				}
				orders = append(orders, Order{
					Before: m.index[first.train][timegraph.In(first.to)],
					After:  m.index[second.train][timegraph.Out(second.from)],
					Gap:    1,
				})
				pairs = append(pairs, [2]string{first.train, second.train})
			}
		}
	}

	return orders, pairs
}

type answer struct {
	resp SchedulingResponse
	err  error
}

// call runs the scheduler under the timeout guard. A scheduler that does not
// answer in time is abandoned; its goroutine ends whenever it returns.
func (r *Restorer) call(ctx context.Context, req SchedulingRequest) (SchedulingResponse, error) {
	if r.opts.SchedulerTimeout <= 0 {
		return r.opts.Scheduler.Schedule(ctx, req)
	}
	cctx, cancel := context.WithTimeout(ctx, r.opts.SchedulerTimeout)
	defer cancel()

	ch := make(chan answer, 1)
	go func() {
		resp, err := r.opts.Scheduler.Schedule(cctx, req)
		ch <- answer{resp, err}
	}()

	select {
	case a := <-ch:
		return a.resp, a.err
	case <-cctx.Done():
		if err := ctx.Err(); err != nil {
			return SchedulingResponse{}, err
		}
		return SchedulingResponse{}, fmt.Errorf("%w after %s", ErrSchedulerTimeout, r.opts.SchedulerTimeout)
	}
}

// solveOnce injects orders, calls the scheduler and always retracts.
func (r *Restorer) solveOnce(ctx context.Context, m *jspModel, orders []Order, release map[int]int) (SchedulingResponse, error) {
	sc := m.inject(orders)
	defer sc.retract()

	return r.call(ctx, m.request(release))
}

func (r *Restorer) jsp(ctx context.Context, trains fleet.Fleet, relaxed map[string]Relaxed, seq *Schedule, order []string) (*Schedule, error) {
	if r.model == nil || r.model.key != fleetKey(trains) {
		r.model = buildModel(trains)
	}
	m := r.model

	// priority: seq-feasible trains in seq order, then the rest in seq order
	rank := make(map[string]int, len(order))
	for _, id := range order {
		if seq.Trains[id].Feasible {
			rank[id] = len(rank)
		}
	}
	for _, id := range order {
		if _, ok := rank[id]; !ok {
			rank[id] = len(rank)
		}
	}

	paths := make(map[string]timegraph.Path, len(trains))
	for _, tr := range trains {
		if o := seq.Trains[tr.ID]; o.Feasible {
			paths[tr.ID] = o.Path
		} else if rel, ok := relaxed[tr.ID]; ok && rel.Feasible {
			paths[tr.ID] = rel.Path
		}
	}

	byID := trains.ByID()
	attempts := 0
	for attempt := 0; attempt <= r.opts.MaxRetries; attempt++ {
		attempts++
		orders, pairs, overtaking := r.stationOrders(m, trains, paths)
		release := make(map[int]int, len(paths))
		for id, p := range paths {
			tr := byID[id]
			if t, ok := p.Times()[timegraph.Out(tr.Origin())]; ok {
				release[m.index[id][timegraph.Out(tr.Origin())]] = t
			}
		}

		resp, err := r.solveOnce(ctx, m, orders, release)
		if err != nil {
			return nil, err
		}
		log := r.opts.Logger.WithFields(logrus.Fields{
			"mode": JSP, "attempt": attempt, "orders": len(orders), "overtaking": overtaking,
		})
		if resp.Feasible {
			log.Debug("scheduler feasible")
			return r.fromTimes(trains, m, paths, resp.Times), nil
		}

		victim, worst := "", -1
		for _, ci := range resp.Conflicts {
			if ci < 0 || ci >= len(pairs) {
				continue
			}
			for _, id := range pairs[ci] {
				if rank[id] > worst {
					victim, worst = id, rank[id]
				}
			}
		}
		if victim == "" {
			break
		}
		log.WithField("dropped", victim).Debug("scheduler infeasible, reducing")
		delete(paths, victim)
	}

	return nil, fmt.Errorf("%w: %d attempts", ErrSchedulerExhausted, attempts)
}

// fromTimes rebuilds a schedule from scheduler times. A train whose timed
// path is not in its graph is reported infeasible.
func (r *Restorer) fromTimes(trains fleet.Fleet, m *jspModel, paths map[string]timegraph.Path, times []int) *Schedule {
	s := newSchedule(len(trains))
	for _, tr := range trains {
		if _, ok := paths[tr.ID]; !ok {
			s.add(TrainOutcome{TrainID: tr.ID, Cost: tr.PenaltyCost()})
			continue
		}
		p := timegraph.Path{tr.Graph.Source()}
		for _, v := range tr.VStations() {
			p = append(p, timegraph.Node{V: v, T: times[m.index[tr.ID][v]]})
		}
		p = append(p, tr.Graph.Sink())
		cost, err := tr.Graph.PathCost(p)
		if err != nil {
			s.add(TrainOutcome{TrainID: tr.ID, Cost: tr.PenaltyCost()})
			continue
		}
		s.add(TrainOutcome{TrainID: tr.ID, Feasible: true, Path: p, Cost: cost})
	}

	return s
}
