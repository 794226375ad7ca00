// SPDX-License-Identifier: MIT

// Package timegraph models the time-expanded network a single train moves
// through.
//
// Every physical station X splits into two virtual stations: the inbound side
// "_X", where the train arrives, and the outbound side "X_", where it departs.
// A node is a (virtual station, minute) pair. A shared super-source (s_, -1)
// feeds the departure window at the origin and every arrival at the terminus
// drains into a super-sink (_t, horizon). Arcs carry:
//
//   - section runs (X_, t) → (_Y, t+run), weighted by the run time;
//   - dwells and passes (_X, t) → (X_, t+d), weighted by d;
//   - departure choices s_ → (O_, t), weighted by |t − preferred|;
//   - sink arcs (_T, t) → _t, weighted 0.
//
// Graph enforces acyclicity structurally: an arc must advance in Node.Less
// order (time, then side, then name), so sorting nodes by Less is already a
// topological order. Graph is safe for concurrent readers once built.
//
// Filter and Trim derive constrained views without touching the original,
// which is how the restoration heuristic blocks occupied slots per train.
// Build turns a Corridor plus a Route into a trimmed graph.
package timegraph
