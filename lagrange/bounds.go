// SPDX-License-Identifier: MIT
//
// File: bounds.go
// Role: Bound histories, best bounds, the optimality gap and the κ
//       stagnation schedule.

package lagrange

import "math"

const gapEps = 1e-3

// BoundTracker is append-only: histories are never truncated.
type BoundTracker struct {
	lbs, ubs   []float64
	ref        float64 // best LB so far; -Inf before the first
	bestUB     float64
	kappa      float64
	stuck      int
	stuckLimit int
}

// NewBoundTracker starts empty with the given κ and stagnation threshold.
func NewBoundTracker(kappa float64, stuckLimit int) *BoundTracker {
	return &BoundTracker{
		ref:        math.Inf(-1),
		bestUB:     math.Inf(1),
		kappa:      kappa,
		stuckLimit: stuckLimit,
	}
}

// AddLB appends lb. An lb at or above the best so far is an improvement and
// resets the stagnation counter; otherwise the counter grows, and when it
// reaches the limit κ halves and the counter resets. It reports whether lb
// improved.
func (b *BoundTracker) AddLB(lb float64) bool {
	b.lbs = append(b.lbs, lb)
	improved := lb >= b.ref
	if improved {
		b.ref = lb
		b.stuck = 0
	} else {
		b.stuck++
	}
	if b.stuck >= b.stuckLimit {
		b.kappa *= 0.5
		b.stuck = 0
	}

	return improved
}

// AddUB appends ub.
func (b *BoundTracker) AddUB(ub float64) {
	b.ubs = append(b.ubs, ub)
	if ub < b.bestUB {
		b.bestUB = ub
	}
}

// HasUB reports whether any upper bound was recorded.
func (b *BoundTracker) HasUB() bool { return len(b.ubs) > 0 }

// BestLB returns max LB, or -Inf before the first.
func (b *BoundTracker) BestLB() float64 { return b.ref }

// BestUB returns min UB, or +Inf before the first.
func (b *BoundTracker) BestUB() float64 { return b.bestUB }

// Kappa returns the current Polyak scale.
func (b *BoundTracker) Kappa() float64 { return b.kappa }

// Stuck returns the current stagnation count.
func (b *BoundTracker) Stuck() int { return b.stuck }

// Gap returns max(0, (bestUB − bestLB)/(|bestLB| + 1e-3)), or +Inf while
// either bound is missing.
func (b *BoundTracker) Gap() float64 {
	if !b.HasUB() || len(b.lbs) == 0 {
		return math.Inf(1)
	}
	g := (b.bestUB - b.ref) / (math.Abs(b.ref) + gapEps)
	if g < 0 {
		return 0
	}

	return g
}

// LowerBounds returns a copy of the LB history.
func (b *BoundTracker) LowerBounds() []float64 { return append([]float64(nil), b.lbs...) }

// UpperBounds returns a copy of the UB history.
func (b *BoundTracker) UpperBounds() []float64 { return append([]float64(nil), b.ubs...) }
