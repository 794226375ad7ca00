// SPDX-License-Identifier: MIT
//
// File: step.go
// Role: Step-size policies for the multiplier update.

package lagrange

import (
	"fmt"
	"math"
)

const (
	simpleBase  = 0.5
	simpleSteps = 20
)

// SimpleStep returns 0.5/(k+1) for k < 20 and 0.5/20 afterwards.
func SimpleStep(k int) float64 {
	if k < simpleSteps {
		return simpleBase / float64(k+1)
	}

	return simpleBase / simpleSteps
}

// PolyakStep returns κ·(ub − lb)/normSq.
//
// A zero, negative or non-finite normSq is ErrDegenerateSubgradient. A
// negative gap (lb above ub) yields a zero step.
func PolyakStep(kappa, ub, lb, normSq float64) (float64, error) {
	if !(normSq > 0) || math.IsInf(normSq, 0) {
		return 0, fmt.Errorf("%w: ‖g‖²=%v", ErrDegenerateSubgradient, normSq)
	}
	gap := ub - lb
	if gap < 0 {
		return 0, nil
	}
	step := kappa * gap / normSq
	if math.IsNaN(step) || math.IsInf(step, 0) {
		return 0, fmt.Errorf("%w: step=%v", ErrDegenerateSubgradient, step)
	}

	return step, nil
}

// nextStep applies mode at iteration k. Polyak falls back to the simple
// schedule until the tracker holds an upper bound.
func nextStep(mode StepMode, k int, bt *BoundTracker, g *Subgradient) (float64, error) {
	switch mode {
	case Simple:
		return SimpleStep(k), nil
	case Polyak:
		if !bt.HasUB() {
			return SimpleStep(k), nil
		}
		return PolyakStep(bt.Kappa(), bt.BestUB(), bt.BestLB(), g.NormSq())
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStepMode, mode)
	}
}
