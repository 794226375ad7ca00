// SPDX-License-Identifier: MIT
//
// File: build.go
// Role: Corridor description and the per-train time-expanded graph constructor.
//
// Contract:
//   - Route.Stations has at least two stations, listed in travel order.
//   - Every consecutive pair has a run time for the route's speed class
//     (either orientation of the section is accepted).
//   - Dwell windows satisfy 0 ≤ MinDwell ≤ MaxDwell.
//
// Determinism:
//   - Arcs are emitted stage by stage in increasing time order.
//   - The result is trimmed to nodes lying on some source→sink path.

package timegraph

import (
	"errors"
	"fmt"
)

// Builder errors.
var (
	// ErrRouteTooShort indicates a route with fewer than two stations.
	ErrRouteTooShort = errors.New("timegraph: route needs at least two stations")

	// ErrMissingSection indicates no run time for a section at the route's speed.
	ErrMissingSection = errors.New("timegraph: missing section run time")

	// ErrBadDwell indicates an inverted or negative dwell window.
	ErrBadDwell = errors.New("timegraph: bad dwell window")

	// ErrUnreachableSink indicates that no departure inside the window reaches
	// the terminus within the horizon.
	ErrUnreachableSink = errors.New("timegraph: no path reaches the sink within the horizon")
)

// Section is an ordered station pair of the corridor.
type Section struct {
	From, To string
}

// Reverse returns the section traversed in the opposite direction.
func (s Section) Reverse() Section { return Section{From: s.To, To: s.From} }

// Corridor holds the static infrastructure data shared by all trains.
type Corridor struct {
	// Stations lists the corridor stations in the down direction.
	Stations []string
	// RunTimes maps speed class → section → pure running minutes.
	RunTimes map[int]map[Section]int
	// MinDwell and MaxDwell bound the stop duration per station.
	MinDwell map[string]int
	MaxDwell map[string]int
	// StopAdd and StartAdd are the braking/acceleration supplements per
	// speed class and station, added to the adjacent section run.
	StopAdd  map[int]map[string]int
	StartAdd map[int]map[string]int
	// SingleTrack flags sections shared by both directions.
	SingleTrack map[Section]bool
}

// runTime looks up the run time of s in either orientation.
func (c *Corridor) runTime(speed int, s Section) (int, bool) {
	byS, ok := c.RunTimes[speed]
	if !ok {
		return 0, false
	}
	if r, ok := byS[s]; ok {
		return r, true
	}
	r, ok := byS[s.Reverse()]

	return r, ok
}

// IsSingleTrack reports whether s (in either orientation) is single-track.
func (c *Corridor) IsSingleTrack(s Section) bool {
	return c.SingleTrack[s] || c.SingleTrack[s.Reverse()]
}

// Route is the operating plan of one train through the corridor.
type Route struct {
	// Stations in travel order; the first is the origin, the last the terminus.
	Stations []string
	// Stops marks intermediate stations where the train dwells. The origin and
	// terminus are always stops.
	Stops map[string]bool
	// Speed is the speed class used for run times and supplements.
	Speed int
	// PreferredDeparture is the desired departure minute at the origin.
	PreferredDeparture int
	// Window is the allowed deviation (±) from PreferredDeparture.
	Window int
}

// StopsAt reports whether the route dwells at station x.
func (r Route) StopsAt(x string) bool {
	if len(r.Stations) > 0 && (x == r.Stations[0] || x == r.Stations[len(r.Stations)-1]) {
		return true
	}

	return r.Stops[x]
}

// Build constructs the time-expanded graph of route r over corridor c.
//
// Arc weights:
//   - source → (origin_, t):        |t − PreferredDeparture|
//   - (X_, t) → (_Y, t+run):         section duration (run + supplements)
//   - (_X, t) → (X_, t+d):           dwell d (0 when passing)
//   - (_terminus, t) → sink:         0
//
// Complexity: O(S · H · D) where S = stations, H = horizon, D = dwell span.
func Build(c *Corridor, r Route, horizon int) (*Graph, error) {
	n := len(r.Stations)
	if n < 2 {
		return nil, ErrRouteTooShort
	}
	g, err := NewGraph(horizon)
	if err != nil {
		return nil, err
	}

	// Stage 0: departure window at the origin.
	origin := r.Stations[0]
	frontier := make([]int, 0, 2*r.Window+1)
	for t := r.PreferredDeparture - r.Window; t <= r.PreferredDeparture+r.Window; t++ {
		if t < 0 || t >= horizon {
			continue
		}
		dev := t - r.PreferredDeparture
		if dev < 0 {
			dev = -dev
		}
		if err = g.AddArc(g.source, Node{V: Out(origin), T: t}, float64(dev)); err != nil {
			return nil, err
		}
		frontier = append(frontier, t)
	}

	var (
		i        int
		from, to string
		run      int
	)
	for i = 0; i+1 < n; i++ {
		from, to = r.Stations[i], r.Stations[i+1]
		var ok bool
		run, ok = c.runTime(r.Speed, Section{From: from, To: to})
		if !ok {
			return nil, fmt.Errorf("%w: %s-%s at speed %d", ErrMissingSection, from, to, r.Speed)
		}
		if r.StopsAt(from) {
			run += c.StartAdd[r.Speed][from]
		}
		if r.StopsAt(to) {
			run += c.StopAdd[r.Speed][to]
		}

		// Section arcs: (from_, t) → (_to, t+run).
		arrivals := make([]int, 0, len(frontier))
		for _, td := range frontier {
			ta := td + run
			if ta >= horizon {
				continue
			}
			if err = g.AddArc(Node{V: Out(from), T: td}, Node{V: In(to), T: ta}, float64(run)); err != nil {
				return nil, err
			}
			arrivals = append(arrivals, ta)
		}

		// Terminus: connect arrivals to the sink.
		if i+1 == n-1 {
			for _, ta := range arrivals {
				if err = g.AddArc(Node{V: In(to), T: ta}, g.sink, 0); err != nil {
					return nil, err
				}
			}
			break
		}

		// Intermediate station: dwell or pass.
		lo, hi := 0, 0
		if r.StopsAt(to) {
			lo, hi = c.MinDwell[to], c.MaxDwell[to]
			if lo < 0 || hi < lo {
				return nil, fmt.Errorf("%w: station %s [%d,%d]", ErrBadDwell, to, lo, hi)
			}
		}
		next := make(map[int]struct{}, len(arrivals))
		for _, ta := range arrivals {
			for d := lo; d <= hi; d++ {
				td := ta + d
				if td >= horizon {
					break
				}
				if err = g.AddArc(Node{V: In(to), T: ta}, Node{V: Out(to), T: td}, float64(d)); err != nil {
					return nil, err
				}
				next[td] = struct{}{}
			}
		}
		frontier = frontier[:0]
		for t := 0; t < horizon; t++ {
			if _, ok := next[t]; ok {
				frontier = append(frontier, t)
			}
		}
	}

	trimmed := Trim(g)
	if trimmed.ArcCount() == 0 {
		return nil, fmt.Errorf("%w: route %v departing %d±%d", ErrUnreachableSink, r.Stations, r.PreferredDeparture, r.Window)
	}

	return trimmed, nil
}
