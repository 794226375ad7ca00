// SPDX-License-Identifier: MIT

package bcd_test

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/railopt/bcd"
)

// Two blocks compete for one unit of a shared resource. The penalty grows
// until the less profitable block gives up its column.
func ExampleSolver_Solve() {
	one := func() mat.Matrix { return mat.NewDense(1, 1, []float64{1}) }
	p := &bcd.Problem{
		Blocks: []bcd.Block{
			{ID: "big", A: one(), C: mat.NewVecDense(1, []float64{-2}), Oracle: takeIfNegative{}},
			{ID: "small", A: one(), C: mat.NewVecDense(1, []float64{-1}), Oracle: takeIfNegative{}},
		},
		B: mat.NewVecDense(1, []float64{1}),
	}
	res, err := bcd.New().Solve(context.Background(), p)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("converged=%v objective=%g\n", res.Converged, res.Objective)
	fmt.Println("selected:", res.Selected, "dropped:", res.Dropped)
	// Output:
	// converged=true objective=-2
	// selected: [big] dropped: [small]
}
