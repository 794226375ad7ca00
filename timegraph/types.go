// SPDX-License-Identifier: MIT
//
// File: types.go
// Role: Value types of the time-expanded graph: virtual stations, nodes, arcs, paths.
// Policy:
//   - Every type here is a comparable value usable as a map key.
//   - No locking; the Graph type in graph.go owns concurrency.

package timegraph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for graph construction and lookups.
var (
	// ErrEmptyStation indicates a virtual station with an empty station name.
	ErrEmptyStation = errors.New("timegraph: station name is empty")

	// ErrBadVStation indicates a string that is not a virtual station label.
	ErrBadVStation = errors.New("timegraph: malformed virtual station")

	// ErrNodeNotFound indicates an operation referenced a node absent from the graph.
	ErrNodeNotFound = errors.New("timegraph: node not found")

	// ErrNodeOutOfHorizon indicates a node time outside [0, horizon) for station nodes.
	ErrNodeOutOfHorizon = errors.New("timegraph: node time outside horizon")

	// ErrDuplicateArc indicates a second arc between the same pair of nodes.
	ErrDuplicateArc = errors.New("timegraph: duplicate arc")

	// ErrBackwardArc indicates an arc that does not move forward in (time, side) order.
	ErrBackwardArc = errors.New("timegraph: arc goes backward in time")

	// ErrBadWeight indicates a NaN or infinite arc weight.
	ErrBadWeight = errors.New("timegraph: arc weight must be finite")

	// ErrBadHorizon indicates a non-positive planning horizon.
	ErrBadHorizon = errors.New("timegraph: horizon must be positive")
)

// Side tells which role a virtual station plays in the time-expanded network.
// A physical station X splits into an inbound side "_X" (arrivals) and an
// outbound side "X_" (departures); the source "s_" and sink "_t" are shared
// virtual terminals.
type Side int

const (
	// Source is the super-source "s_".
	Source Side = iota
	// Inbound is the arrival side "_X" of a station.
	Inbound
	// Outbound is the departure side "X_" of a station.
	Outbound
	// Sink is the super-sink "_t".
	Sink
)

// String returns a short human-readable side name.
func (s Side) String() string {
	switch s {
	case Source:
		return "source"
	case Inbound:
		return "inbound"
	case Outbound:
		return "outbound"
	case Sink:
		return "sink"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// VStation is a virtual station: a physical station name plus its side.
// Source and Sink carry an empty Station.
type VStation struct {
	Station string
	Side    Side
}

// SourceStation and SinkStation are the shared virtual terminals.
var (
	SourceStation = VStation{Side: Source}
	SinkStation   = VStation{Side: Sink}
)

// In returns the inbound virtual station "_X" of station x.
func In(x string) VStation { return VStation{Station: x, Side: Inbound} }

// Out returns the outbound virtual station "X_" of station x.
func Out(x string) VStation { return VStation{Station: x, Side: Outbound} }

// IsTerminal reports whether v is the source or the sink.
func (v VStation) IsTerminal() bool { return v.Side == Source || v.Side == Sink }

// String renders the label used throughout logs and exports:
// "s_", "_t", "_X" (inbound) or "X_" (outbound).
func (v VStation) String() string {
	switch v.Side {
	case Source:
		return "s_"
	case Sink:
		return "_t"
	case Inbound:
		return "_" + v.Station
	default:
		return v.Station + "_"
	}
}

// ParseVStation inverts VStation.String.
func ParseVStation(s string) (VStation, error) {
	switch {
	case s == "s_":
		return SourceStation, nil
	case s == "_t":
		return SinkStation, nil
	case len(s) > 1 && strings.HasPrefix(s, "_") && !strings.HasSuffix(s, "_"):
		return In(s[1:]), nil
	case len(s) > 1 && strings.HasSuffix(s, "_") && !strings.HasPrefix(s, "_"):
		return Out(s[:len(s)-1]), nil
	default:
		return VStation{}, fmt.Errorf("%w: %q", ErrBadVStation, s)
	}
}

// Node is a (virtual station, time) pair. The source node sits at T = -1 and
// the sink node at T = horizon; all station nodes satisfy 0 ≤ T < horizon.
type Node struct {
	V VStation
	T int
}

// String renders "(_X,12)".
func (n Node) String() string { return fmt.Sprintf("(%s,%d)", n.V, n.T) }

// Less is the canonical node order: time, then side, then station name.
// Every arc accepted by Graph.AddArc goes from a smaller to a larger node,
// so sorting nodes by Less yields a topological order.
func (n Node) Less(o Node) bool {
	if n.T != o.T {
		return n.T < o.T
	}
	if n.V.Side != o.V.Side {
		return n.V.Side < o.V.Side
	}

	return n.V.Station < o.V.Station
}

// ArcKey identifies an arc by its endpoints.
type ArcKey struct {
	From, To Node
}

// Duration is the time span covered by the arc.
func (k ArcKey) Duration() int { return k.To.T - k.From.T }

// SameStation reports whether both endpoints belong to the same physical
// station (dwell and pass arcs).
func (k ArcKey) SameStation() bool {
	return !k.From.V.IsTerminal() && !k.To.V.IsTerminal() && k.From.V.Station == k.To.V.Station
}

// Arc is a weighted directed move between two nodes.
type Arc struct {
	From, To Node
	Weight   float64
}

// Key returns the endpoint pair of a.
func (a Arc) Key() ArcKey { return ArcKey{From: a.From, To: a.To} }

// CostFunc prices an arc. Oracles call it once per arc they relax and must
// treat +Inf as impassable.
type CostFunc func(a Arc) float64

// BaseCost prices each arc by its own weight.
func BaseCost(a Arc) float64 { return a.Weight }

// Path is a node sequence from the source to the sink.
type Path []Node

// Inner drops the source and sink nodes. The result aliases p.
func (p Path) Inner() []Node {
	if len(p) < 2 {
		return nil
	}

	return p[1 : len(p)-1]
}

// Times maps every station node of the path to its time. If a virtual
// station repeats, the last occurrence wins.
func (p Path) Times() map[VStation]int {
	out := make(map[VStation]int, len(p))
	for _, n := range p.Inner() {
		out[n.V] = n.T
	}

	return out
}

// Arcs returns the endpoint pairs of consecutive nodes.
func (p Path) Arcs() []ArcKey {
	if len(p) < 2 {
		return nil
	}
	out := make([]ArcKey, 0, len(p)-1)
	for i := 1; i < len(p); i++ {
		out = append(out, ArcKey{From: p[i-1], To: p[i]})
	}

	return out
}

// Equal reports whether p and o visit the same nodes in the same order.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}

	return true
}

// Clone returns an independent copy of p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)

	return out
}
