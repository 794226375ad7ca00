// SPDX-License-Identifier: MIT

// Package bcd solves the timetabling program as a binary program with
// block-diagonal structure and one coupling system A·x ≤ b:
//
//	min c'x   s.t.  A x ≤ b,  x_k ∈ X_k (train k's paths),  x binary
//
// The coupling rows are penalized by an augmented Lagrangian
//
//	min c'x + ρ‖max(Ax − b + λ/ρ, 0)‖²   s.t.  x_k ∈ X_k
//
// and minimized by block coordinate descent with a linearized proximal
// step: each block sees the cost
//
//	c̃_k = c_k + A_kᵀ(λ + ρ·max(Ax − A_k x_k − b/2, 0))
//
// and its oracle returns the best x_k under c̃_k. A block whose answer does
// not pay off is set to zero (train not selected this round). Sweeps repeat
// until the fixed-point residual Σ‖x_k − x_k'‖ drops below a tolerance or
// MaxInner sweeps ran; then λ ← max(0, ρ(Ax − b) + λ) and ρ ← σρ. The run
// stops as soon as Ax ≤ b holds, after MaxOuter iterations, or with
// Result.Diverged once ρ or λ overflows.
//
// AssembleFleet builds the program for a fleet: columns are the arcs of each
// train graph, rows are the headway constraints, and each block's oracle is
// the shortest-path solver behind an sssp.ArcBlock.
package bcd
