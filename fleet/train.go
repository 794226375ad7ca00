// SPDX-License-Identifier: MIT
//
// File: train.go
// Role: The read-only train record consumed by both engines.
// Policy:
//   - A Train is immutable after NewTrain; engines keep per-phase outcomes elsewhere.

package fleet

import (
	"errors"
	"fmt"
	"sort"

	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

// Sentinel errors.
var (
	// ErrEmptyID indicates a train without identifier.
	ErrEmptyID = errors.New("fleet: train id is empty")

	// ErrDuplicateID indicates two trains sharing an identifier.
	ErrDuplicateID = errors.New("fleet: duplicate train id")

	// ErrNilGraph indicates a train without time-expanded graph.
	ErrNilGraph = errors.New("fleet: train graph is nil")

	// ErrNilTrain indicates a nil entry in a Fleet.
	ErrNilTrain = errors.New("fleet: train is nil")
)

// Train is one train of the fleet together with its time-expanded graph.
type Train struct {
	ID                 string
	Speed              int
	PreferredDeparture int
	Route              []string
	Stops              map[string]bool
	Graph              *timegraph.Graph

	kinds map[timegraph.VStation]safety.EventKind
}

// NewTrain builds the train record for route r over corridor c and derives
// its event kind at every virtual station of the route.
func NewTrain(id string, c *timegraph.Corridor, r timegraph.Route, horizon int) (*Train, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	g, err := timegraph.Build(c, r, horizon)
	if err != nil {
		return nil, fmt.Errorf("train %s: %w", id, err)
	}

	return FromGraph(id, r, g)
}

// FromGraph wraps a prebuilt graph. Route and stops come from r; speed and
// preferred departure are copied as-is.
func FromGraph(id string, r timegraph.Route, g *timegraph.Graph) (*Train, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if g == nil {
		return nil, ErrNilGraph
	}
	tr := &Train{
		ID:                 id,
		Speed:              r.Speed,
		PreferredDeparture: r.PreferredDeparture,
		Route:              append([]string(nil), r.Stations...),
		Stops:              make(map[string]bool, len(r.Stops)),
		Graph:              g,
		kinds:              make(map[timegraph.VStation]safety.EventKind, 2*len(r.Stations)),
	}
	for k, v := range r.Stops {
		tr.Stops[k] = v
	}

	last := len(r.Stations) - 1
	for i, x := range r.Stations {
		switch {
		case i == 0:
			tr.kinds[timegraph.Out(x)] = safety.Departure
		case i == last:
			tr.kinds[timegraph.In(x)] = safety.Arrival
		case r.StopsAt(x):
			tr.kinds[timegraph.In(x)] = safety.Arrival
			tr.kinds[timegraph.Out(x)] = safety.Departure
		default:
			tr.kinds[timegraph.In(x)] = safety.Pass
			tr.kinds[timegraph.Out(x)] = safety.Pass
		}
	}

	return tr, nil
}

// Kind returns the event kind of the train at v. ok is false for virtual
// stations the train never visits and for the source and sink.
func (tr *Train) Kind(v timegraph.VStation) (safety.EventKind, bool) {
	k, ok := tr.kinds[v]

	return k, ok
}

// VStations returns the virtual stations visited by the train in travel order.
func (tr *Train) VStations() []timegraph.VStation {
	out := make([]timegraph.VStation, 0, 2*len(tr.Route))
	for i, x := range tr.Route {
		if i > 0 {
			out = append(out, timegraph.In(x))
		}
		if i < len(tr.Route)-1 {
			out = append(out, timegraph.Out(x))
		}
	}

	return out
}

// Origin returns the first station of the route.
func (tr *Train) Origin() string { return tr.Route[0] }

// Terminus returns the last station of the route.
func (tr *Train) Terminus() string { return tr.Route[len(tr.Route)-1] }

// PenaltyCost is the cost charged when no feasible path exists: the largest
// arc weight times the number of sections.
func (tr *Train) PenaltyCost() float64 {
	return tr.Graph.MaxArcWeight() * float64(len(tr.Route)-1)
}

// Fleet is an ordered set of trains with unique IDs.
type Fleet []*Train

// Validate checks for nil trains, nil graphs and duplicate IDs.
func (f Fleet) Validate() error {
	seen := make(map[string]struct{}, len(f))
	for i, tr := range f {
		if tr == nil {
			return fmt.Errorf("%w: index %d", ErrNilTrain, i)
		}
		if tr.Graph == nil {
			return fmt.Errorf("%w: %s", ErrNilGraph, tr.ID)
		}
		if _, dup := seen[tr.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, tr.ID)
		}
		seen[tr.ID] = struct{}{}
	}

	return nil
}

// ByID indexes the fleet.
func (f Fleet) ByID() map[string]*Train {
	out := make(map[string]*Train, len(f))
	for _, tr := range f {
		out[tr.ID] = tr
	}

	return out
}

// IDs returns the train IDs sorted.
func (f Fleet) IDs() []string {
	out := make([]string, 0, len(f))
	for _, tr := range f {
		out = append(out, tr.ID)
	}
	sort.Strings(out)

	return out
}

// Horizon returns the common horizon of the fleet's graphs, or 0 when empty.
func (f Fleet) Horizon() int {
	h := 0
	for _, tr := range f {
		if tr.Graph.Horizon() > h {
			h = tr.Graph.Horizon()
		}
	}

	return h
}
