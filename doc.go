// SPDX-License-Identifier: MIT

// Package railopt is a train-timetabling engine for a single railway
// corridor: every train picks a path through its own time-expanded graph and
// the trains must respect minimum headways at every station.
//
// 🚀 What is railopt?
//
//	Two decomposition methods over the same per-train shortest-path oracle:
//		• Lagrangian relaxation with subgradient steps (simple or Polyak),
//		  a bound tracker and a primal restoration heuristic (seq / jsp)
//		• BCD-ALM: block coordinate descent on an augmented Lagrangian,
//		  one block per train, linearized penalty costs
//
// ✨ Why this layout?
//
//   - Each package owns one concern and can be tested alone
//   - Oracle, scheduler and restorer are interfaces; the shipped ones are pure Go
//   - Deterministic: sorted keys, fixed tie-breaks, reproducible logs
//   - Parallel oracle calls with a barrier per iteration
//
// Packages:
//
//	timegraph/  corridor description, time-expanded train graphs, views
//	safety/     event kinds, headway categories, safety-interval table
//	fleet/      trains, their graphs and event kinds
//	sssp/       DAG shortest path oracle, arc-indexed block adapter
//	lagrange/   multipliers, subgradient, step policies, bound tracker, driver
//	primal/     restoration heuristic: seq placement, jsp station-order scheduling
//	bcd/        BCD-ALM solver and fleet program assembly
//	report/     iteration records, console table, run export (JSON / YAML)
//	config/     YAML run configuration and problem instances
//	cmd/railopt  command line entry point
//
// Quick ASCII example (two trains, one station B with an aa headway of 2):
//
//	    A_ ──4──▶ _B        T1 departs 1, arrives 5
//	    A_ ──3──▶ _B        T2 departs 2, arrives 5  ✗ conflict
//
// The multiplier on (_B,5)/aa grows until one of them moves or is dropped.
//
//	go run ./cmd/railopt -instance corridor.yaml -engine lagrange -out run.json
package railopt
