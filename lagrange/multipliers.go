// SPDX-License-Identifier: MIT
//
// File: multipliers.go
// Role: The multiplier store: a dense vector over an explicit, sorted
//       (node, category) domain.
//
// Policy:
//   - The domain is fixed at construction. Lookups outside it report ok=false;
//     nothing is zero-filled on read.
//   - Every stored value is ≥ 0. Step projects onto the non-negative orthant.
//
// Determinism:
//   - Keys are sorted by node (Node.Less) then category label, so iteration,
//     sums and subgradient alignment are reproducible.

package lagrange

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

// Key addresses one multiplier.
type Key struct {
	Node     timegraph.Node
	Category safety.Category
}

func (k Key) String() string { return fmt.Sprintf("%s/%s", k.Node, k.Category) }

func keyLess(a, b Key) bool {
	if a.Node != b.Node {
		return a.Node.Less(b.Node)
	}

	return a.Category.String() < b.Category.String()
}

// Multipliers holds μ over a fixed domain.
type Multipliers struct {
	keys  []Key
	index map[Key]int
	vals  []float64
}

// NewMultipliers creates the store over every (node, category) pair where
// the category belongs to the node's side and is configured at its station
// in table. Terminal nodes are skipped; duplicates are merged. All values
// start at zero.
//
// Complexity: O(N·C + K log K).
func NewMultipliers(nodes []timegraph.Node, table *safety.Table) *Multipliers {
	seen := make(map[Key]struct{})
	keys := make([]Key, 0, len(nodes))
	for _, n := range nodes {
		if n.V.IsTerminal() {
			continue
		}
		for _, c := range table.Configured(n.V.Station, n.V.Side) {
			k := Key{Node: n, Category: c}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })

	m := &Multipliers{
		keys:  keys,
		index: make(map[Key]int, len(keys)),
		vals:  make([]float64, len(keys)),
	}
	for i, k := range keys {
		m.index[k] = i
	}

	return m
}

// DomainNodes returns the distinct station nodes of every train graph,
// sorted. It is the node set NewMultipliers needs for a fleet.
func DomainNodes(trains fleet.Fleet) []timegraph.Node {
	seen := make(map[timegraph.Node]struct{})
	for _, tr := range trains {
		for _, n := range tr.Graph.Order() {
			if !n.V.IsTerminal() {
				seen[n] = struct{}{}
			}
		}
	}
	out := make([]timegraph.Node, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })

	return out
}

// Len returns the domain size.
func (m *Multipliers) Len() int { return len(m.keys) }

// Keys returns a copy of the sorted domain.
func (m *Multipliers) Keys() []Key { return append([]Key(nil), m.keys...) }

// Values returns a copy of μ in key order.
func (m *Multipliers) Values() []float64 { return append([]float64(nil), m.vals...) }

// Get returns μ(k). ok is false outside the domain.
func (m *Multipliers) Get(k Key) (float64, bool) {
	i, ok := m.index[k]
	if !ok {
		return 0, false
	}

	return m.vals[i], true
}

// Set stores μ(k) = v.
func (m *Multipliers) Set(k Key, v float64) error {
	i, ok := m.index[k]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, k)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s=%v", ErrNegativeMultiplier, k, v)
	}
	m.vals[i] = v

	return nil
}

// Total returns Σμ.
func (m *Multipliers) Total() float64 { return floats.Sum(m.vals) }

// Dot returns Σ μ·g.
func (m *Multipliers) Dot(g *Subgradient) (float64, error) {
	if err := m.aligned(g); err != nil {
		return 0, err
	}

	return floats.Dot(m.vals, g.Values), nil
}

// Step applies μ ← max(0, μ + step·g) in place.
func (m *Multipliers) Step(step float64, g *Subgradient) error {
	if err := m.aligned(g); err != nil {
		return err
	}
	floats.AddScaled(m.vals, step, g.Values)
	for i, v := range m.vals {
		if v < 0 {
			m.vals[i] = 0
		}
	}

	return nil
}

// Clone returns an independent copy sharing the immutable domain.
func (m *Multipliers) Clone() *Multipliers {
	return &Multipliers{keys: m.keys, index: m.index, vals: append([]float64(nil), m.vals...)}
}

func (m *Multipliers) aligned(g *Subgradient) error {
	if g == nil || len(g.Values) != len(m.vals) {
		return ErrDimensionMismatch
	}

	return nil
}
