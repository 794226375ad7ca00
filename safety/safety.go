// SPDX-License-Identifier: MIT
//
// File: safety.go
// Role: Event kinds, the seven headway categories and the safety-interval table.
// Policy:
//   - Interval lookups are conservative: the maximum over speed classes.
//   - A category absent from a station's table imposes no constraint there.

package safety

import (
	"errors"
	"fmt"
	"sort"

	"github.com/katalvlaran/railopt/timegraph"
)

// Sentinel errors.
var (
	// ErrNegativeInterval indicates a safety interval below zero.
	ErrNegativeInterval = errors.New("safety: interval must be non-negative")

	// ErrUnknownCategory indicates a category code outside the seven known ones.
	ErrUnknownCategory = errors.New("safety: unknown category")

	// ErrUnknownKind indicates an event-kind code other than a, s or p.
	ErrUnknownKind = errors.New("safety: unknown event kind")
)

// EventKind is what a train does at a virtual station.
type EventKind byte

const (
	// Arrival: the train stops (inbound side) or terminates.
	Arrival EventKind = 'a'
	// Departure: the train starts from a stop (outbound side) or its origin.
	Departure EventKind = 's'
	// Pass: the train runs through without stopping.
	Pass EventKind = 'p'
)

// Kinds lists every event kind in canonical order.
var Kinds = []EventKind{Arrival, Departure, Pass}

// String returns the one-letter code.
func (k EventKind) String() string { return string(k) }

// ParseKind parses "a", "s" or "p".
func ParseKind(s string) (EventKind, error) {
	if len(s) == 1 {
		switch k := EventKind(s[0]); k {
		case Arrival, Departure, Pass:
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Category is an ordered (leader, follower) pair of event kinds that needs a
// minimum headway between two trains at the same virtual station.
type Category struct {
	Lead, Follow EventKind
}

// The seven categories. Inbound nodes carry aa, ap, pa, pp; outbound nodes
// carry ss, sp, ps.
var (
	AA = Category{Arrival, Arrival}
	AP = Category{Arrival, Pass}
	PA = Category{Pass, Arrival}
	PP = Category{Pass, Pass}
	SS = Category{Departure, Departure}
	SP = Category{Departure, Pass}
	PS = Category{Pass, Departure}
)

var (
	inbound  = []Category{AA, AP, PA, PP}
	outbound = []Category{SS, SP, PS}
	all      = []Category{AA, AP, PA, PP, SS, SP, PS}
)

// String returns the two-letter code ("aa", "sp", ...).
func (c Category) String() string { return string([]byte{byte(c.Lead), byte(c.Follow)}) }

// Side returns the virtual-station side whose nodes carry c.
func (c Category) Side() timegraph.Side {
	if c.Lead == Departure || c.Follow == Departure {
		return timegraph.Outbound
	}

	return timegraph.Inbound
}

// Valid reports whether c is one of the seven categories.
func (c Category) Valid() bool {
	for _, x := range all {
		if x == c {
			return true
		}
	}

	return false
}

// ParseCategory parses a two-letter category code.
func ParseCategory(s string) (Category, error) {
	for _, c := range all {
		if c.String() == s {
			return c, nil
		}
	}

	return Category{}, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Categories returns all seven categories in canonical order.
func Categories() []Category { return append([]Category(nil), all...) }

// CategoriesFor returns the categories carried by nodes on side s. Source,
// sink and unknown sides carry none.
func CategoriesFor(s timegraph.Side) []Category {
	switch s {
	case timegraph.Inbound:
		return inbound
	case timegraph.Outbound:
		return outbound
	default:
		return nil
	}
}

type entry struct {
	station string
	c       Category
}

// Table maps (station, speed class, category) to a safety interval in
// minutes. The zero value is not usable; call NewTable.
type Table struct {
	raw map[entry]map[int]int
	max map[entry]int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{raw: make(map[entry]map[int]int), max: make(map[entry]int)}
}

// Set records the interval of category c at station for one speed class.
func (t *Table) Set(station string, speed int, c Category, interval int) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %v", ErrUnknownCategory, c)
	}
	if interval < 0 {
		return fmt.Errorf("%w: %s/%d/%s=%d", ErrNegativeInterval, station, speed, c, interval)
	}
	k := entry{station, c}
	if t.raw[k] == nil {
		t.raw[k] = make(map[int]int)
	}
	t.raw[k][speed] = interval
	m := interval
	for _, v := range t.raw[k] {
		if v > m {
			m = v
		}
	}
	t.max[k] = m

	return nil
}

// Interval returns the largest interval of c at station over all speed
// classes, and whether c is configured there at all.
func (t *Table) Interval(station string, c Category) (int, bool) {
	i, ok := t.max[entry{station, c}]

	return i, ok
}

// IntervalFor is the per-speed lookup.
func (t *Table) IntervalFor(station string, speed int, c Category) (int, bool) {
	i, ok := t.raw[entry{station, c}][speed]

	return i, ok
}

// Stations returns every station with at least one entry, sorted.
func (t *Table) Stations() []string {
	seen := make(map[string]struct{})
	for k := range t.max {
		seen[k.station] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)

	return out
}

// Configured returns the categories configured at station that apply to
// virtual-station side s, in canonical order.
func (t *Table) Configured(station string, s timegraph.Side) []Category {
	var out []Category
	for _, c := range CategoriesFor(s) {
		if _, ok := t.max[entry{station, c}]; ok {
			out = append(out, c)
		}
	}

	return out
}

// MaxInterval returns the largest interval anywhere in the table.
func (t *Table) MaxInterval() int {
	var m int
	for _, v := range t.max {
		if v > m {
			m = v
		}
	}

	return m
}
