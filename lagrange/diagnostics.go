// SPDX-License-Identifier: MIT

package lagrange

import (
	"fmt"
	"math"
)

// CheckDualFeasibility verifies the identity
//
//	lb = Σ base path weight + Σ μ·g
//
// within tol·max(1,|lb|). It is only meaningful when every train has a
// relaxed path, so it returns nil as soon as one result is infeasible.
// mult must be the multipliers lb was computed with.
func CheckDualFeasibility(lb float64, results []TrainResult, mult *Multipliers, g *Subgradient, tol float64) error {
	var base float64
	for _, r := range results {
		if !r.Feasible {
			return nil
		}
		base += r.Base
	}
	mg, err := mult.Dot(g)
	if err != nil {
		return err
	}
	want := base + mg
	if math.Abs(lb-want) > tol*math.Max(1, math.Abs(lb)) {
		return fmt.Errorf("%w: lb=%.9g, base+μ·g=%.9g", ErrDualMismatch, lb, want)
	}

	return nil
}
