// SPDX-License-Identifier: MIT

// Package lagrange relaxes the headway constraints of the timetabling program
// and solves the Lagrangian dual by projected subgradient ascent.
//
// One multiplier μ(v,t,c) ≥ 0 is attached to every (node, category) pair of
// the domain. The constraint it prices reads
//
//	occ(v,t,Lead) + Σ_{dt=1}^{min(I,H−t)−1} occ(v,t+dt,Follow) ≤ 1
//
// where I is the safety interval of category c at the station of v and H is
// the horizon. Dualizing it moves the multipliers into the arc costs: a train
// occupying (v,t) in kind k pays yvc(v,t,k), the aggregated multiplier
//
//	Σ_{c: Lead=k} μ(v,t,c) + Σ_{c: Follow=k} Σ_{dt=1}^{min(I,t+1)−1} μ(v,t−dt,c)
//
// so every train becomes an independent shortest-path problem and
//
//	L(μ) = Σ_trains cost_μ(path) − Σ μ
//
// is a lower bound on the optimal timetable cost.
//
// The Engine runs the loop: aggregate, price and solve every train in
// parallel, compute the lower bound and the subgradient, restore a feasible
// schedule every PrimalEvery iterations, test the gap, and step the
// multipliers with the simple or Polyak policy. The BoundTracker owns the
// bound histories and the κ halving on stagnation.
package lagrange
