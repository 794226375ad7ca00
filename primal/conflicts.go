// SPDX-License-Identifier: MIT
//
// File: conflicts.go
// Role: Pairwise verification of a schedule against the headway table,
//       node exclusivity, overtaking inside sections and head-on runs.

package primal

import (
	"sort"

	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

// ConflictKind classifies a Conflict.
type ConflictKind string

const (
	// SharedNode: two trains at the same virtual station at the same minute.
	SharedNode ConflictKind = "node"
	// Headway: a follower inside the leader's safety interval.
	Headway ConflictKind = "headway"
	// Overtaking: two runs of the same directed section swap order.
	Overtaking ConflictKind = "overtaking"
	// HeadOn: opposite runs overlap on a single-track section.
	HeadOn ConflictKind = "head-on"
)

// Conflict is one violated pair. A and B are train IDs with A < B.
type Conflict struct {
	Kind ConflictKind
	A, B string
	At   timegraph.Node // first node involved (node and headway conflicts)
}

type placed struct {
	id   string
	t    int
	kind safety.EventKind
}

type run struct {
	id     string
	t1, t2 int
}

// Conflicts lists every conflict among the feasible trains of s, sorted by
// (A, B, Kind). corridor may be nil, which disables head-on checks.
func Conflicts(trains fleet.Fleet, s *Schedule, table *safety.Table, corridor *timegraph.Corridor) []Conflict {
	byID := trains.ByID()
	ids := make([]string, 0, len(s.Trains))
	for id, o := range s.Trains {
		if o.Feasible && byID[id] != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	events := make(map[timegraph.VStation][]placed)
	runs := make(map[sectionKey][]run)
	for _, id := range ids {
		tr, p := byID[id], s.Trains[id].Path
		for _, n := range p.Inner() {
			k, _ := tr.Kind(n.V)
			events[n.V] = append(events[n.V], placed{id, n.T, k})
		}
		for _, k := range p.Arcs() {
			if isSection(k) {
				sk := sectionKey{k.From.V, k.To.V}
				runs[sk] = append(runs[sk], run{id, k.From.T, k.To.T})
			}
		}
	}

	var out []Conflict
	add := func(kind ConflictKind, a, b string, at timegraph.Node) {
		if b < a {
			a, b = b, a
		}
		out = append(out, Conflict{Kind: kind, A: a, B: b, At: at})
	}

	for v, es := range events {
		for i := 0; i < len(es); i++ {
			for j := i + 1; j < len(es); j++ {
				lead, fol := es[i], es[j]
				if fol.t < lead.t {
					lead, fol = fol, lead
				}
				at := timegraph.Node{V: v, T: lead.t}
				d := fol.t - lead.t
				if d == 0 {
					add(SharedNode, lead.id, fol.id, at)
					continue
				}
				iv, ok := table.Interval(v.Station, safety.Category{Lead: lead.kind, Follow: fol.kind})
				if ok && d <= iv-1 {
					add(Headway, lead.id, fol.id, at)
				}
			}
		}
	}

	for sk, rs := range runs {
		for i := 0; i < len(rs); i++ {
			for j := i + 1; j < len(rs); j++ {
				a, b := rs[i], rs[j]
				if (a.t1 < b.t1 && a.t2 > b.t2) || (a.t1 > b.t1 && a.t2 < b.t2) {
					add(Overtaking, a.id, b.id, timegraph.Node{V: sk.From, T: min(a.t1, b.t1)})
				}
			}
		}
		if corridor == nil {
			continue
		}
		sec := timegraph.Section{From: sk.From.Station, To: sk.To.Station}
		if sec.From > sec.To || !corridor.IsSingleTrack(sec) {
			continue // each physical section once
		}
		back := sectionKey{timegraph.Out(sec.To), timegraph.In(sec.From)}
		for _, a := range rs {
			for _, b := range runs[back] {
				if a.t1 <= b.t2 && a.t2 >= b.t1 {
					add(HeadOn, a.id, b.id, timegraph.Node{V: sk.From, T: a.t1})
				}
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		if out[i].B != out[j].B {
			return out[i].B < out[j].B
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].At.Less(out[j].At)
	})

	return out
}
