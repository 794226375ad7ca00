// SPDX-License-Identifier: MIT
//
// File: ledger.go
// Role: Bookkeeping of accepted trains in a sequential pass: occupied nodes,
//       occupied arcs, incompatible arcs and single-track spans, plus the
//       predicates that turn them into a constrained view for the next train.
//
// Blocking rules for a candidate train with kind k at node (v, t):
//   - (v, t) is already occupied;
//   - an accepted event (v, t0, k0) leads by d = t − t0 ∈ [1, I(k0,k) − 1];
//   - an accepted event (v, t0, k0) follows by d = t0 − t ∈ [1, I(k,k0) − 1].
//
// Blocking rules for a section arc (i, st) → (j, et):
//   - the same (i, j, st, et) is already occupied;
//   - type 1: some accepted (i, j, t1, t2) has st ∈ (t1, t2), et ∈ [st, t2);
//   - type 2: some accepted (i, j, t1, t2) has st ∈ [t1−back, t1), et ∈ [t2, t2+ahead);
//   - head-on: the section is single-track and an accepted opposite run
//     [t1, t2] overlaps [st, et].

package primal

import (
	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

type sectionKey struct {
	From, To timegraph.VStation
}

type span struct {
	Start, End int
}

type event struct {
	train string
	t     int
	kind  safety.EventKind
}

type ledger struct {
	table     *safety.Table
	corridor  *timegraph.Corridor
	lookback  int
	lookahead int

	nodes        map[timegraph.Node]string
	events       map[timegraph.VStation][]event
	arcs         map[sectionKey]map[span]struct{}
	incompatible map[timegraph.ArcKey]struct{}
	runs         map[timegraph.Section][]span
}

func newLedger(table *safety.Table, corridor *timegraph.Corridor, back, ahead int) *ledger {
	return &ledger{
		table:        table,
		corridor:     corridor,
		lookback:     back,
		lookahead:    ahead,
		nodes:        make(map[timegraph.Node]string),
		events:       make(map[timegraph.VStation][]event),
		arcs:         make(map[sectionKey]map[span]struct{}),
		incompatible: make(map[timegraph.ArcKey]struct{}),
		runs:         make(map[timegraph.Section][]span),
	}
}

// headway reports whether a leader of kind lead and a follower of kind follow
// d ≥ 1 minutes apart at station violate the safety interval.
func (l *ledger) headway(station string, lead, follow safety.EventKind, d int) bool {
	i, ok := l.table.Interval(station, safety.Category{Lead: lead, Follow: follow})

	return ok && d <= i-1
}

func (l *ledger) nodeBlocked(tr *fleet.Train, n timegraph.Node) bool {
	if n.V.IsTerminal() {
		return false
	}
	if _, taken := l.nodes[n]; taken {
		return true
	}
	k, ok := tr.Kind(n.V)
	if !ok {
		return false
	}
	for _, e := range l.events[n.V] {
		switch d := n.T - e.t; {
		case d > 0 && l.headway(n.V.Station, e.kind, k, d):
			return true
		case d < 0 && l.headway(n.V.Station, k, e.kind, -d):
			return true
		}
	}

	return false
}

func isSection(k timegraph.ArcKey) bool {
	return !k.From.V.IsTerminal() && !k.To.V.IsTerminal() && !k.SameStation()
}

func (l *ledger) arcBlocked(a timegraph.Arc) bool {
	k := a.Key()
	if !isSection(k) {
		return false
	}
	if _, ok := l.arcs[sectionKey{k.From.V, k.To.V}][span{k.From.T, k.To.T}]; ok {
		return true
	}
	if _, ok := l.incompatible[k]; ok {
		return true
	}
	if l.corridor != nil {
		sec := timegraph.Section{From: k.From.V.Station, To: k.To.V.Station}
		if l.corridor.IsSingleTrack(sec) {
			for _, s := range l.runs[sec.Reverse()] {
				if k.From.T <= s.End && k.To.T >= s.Start {
					return true
				}
			}
		}
	}

	return false
}

// admits reports whether path p of tr survives the constrained view.
func (l *ledger) admits(tr *fleet.Train, p timegraph.Path) bool {
	if len(p) < 2 || p[0] != tr.Graph.Source() || p[len(p)-1] != tr.Graph.Sink() {
		return false
	}
	for _, n := range p.Inner() {
		if l.nodeBlocked(tr, n) {
			return false
		}
	}
	for _, k := range p.Arcs() {
		a, ok := tr.Graph.Arc(k.From, k.To)
		if !ok || l.arcBlocked(a) {
			return false
		}
	}

	return true
}

// accept records the accepted path p of tr.
func (l *ledger) accept(tr *fleet.Train, p timegraph.Path) {
	for _, n := range p.Inner() {
		k, _ := tr.Kind(n.V)
		l.nodes[n] = tr.ID
		l.events[n.V] = append(l.events[n.V], event{train: tr.ID, t: n.T, kind: k})
	}

	var st, et int
	for _, k := range p.Arcs() {
		if !isSection(k) {
			continue
		}
		i, j := k.From.V, k.To.V
		t1, t2 := k.From.T, k.To.T
		sk := sectionKey{i, j}
		if l.arcs[sk] == nil {
			l.arcs[sk] = make(map[span]struct{})
		}
		l.arcs[sk][span{t1, t2}] = struct{}{}

		// type 1: later start, earlier end
		for st = t1 + 1; st < t2; st++ {
			for et = st; et < t2; et++ {
				l.incompatible[arcKey(i, st, j, et)] = struct{}{}
			}
		}
		// type 2: earlier start, later end
		for st = t1 - l.lookback; st < t1; st++ {
			for et = t2; et < t2+l.lookahead; et++ {
				l.incompatible[arcKey(i, st, j, et)] = struct{}{}
			}
		}

		sec := timegraph.Section{From: i.Station, To: j.Station}
		l.runs[sec] = append(l.runs[sec], span{t1, t2})
	}
}

func arcKey(i timegraph.VStation, st int, j timegraph.VStation, et int) timegraph.ArcKey {
	return timegraph.ArcKey{
		From: timegraph.Node{V: i, T: st},
		To:   timegraph.Node{V: j, T: et},
	}
}
