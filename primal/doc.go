// SPDX-License-Identifier: MIT

// Package primal restores feasibility: it turns the independently optimal,
// mutually conflicting per-train paths of a relaxation into one
// conflict-free Schedule and its cost, the upper bound of the dual engines.
//
// Seq mode places trains one at a time, hardest first (highest relaxed
// cost). Each train is routed on a view of its graph that hides what the
// already accepted trains make unusable: occupied nodes and their headway
// windows, occupied section arcs, arcs that would overtake an accepted run
// inside a section, and (with a corridor) opposite runs on single-track
// sections. A train with no path left is infeasible and charged its penalty.
//
// JSP mode starts from the seq result, fixes the train order at every
// virtual station (straightening overtakes), and hands the resulting
// precedence system to a Scheduler. Order constraints are injected into a
// cached model for one call and always retracted. When the Scheduler
// reports infeasibility, the lowest-priority train of the conflict is
// dropped and the call is retried, up to MaxRetries.
//
// Conflicts verifies any schedule pairwise against the same rules.
package primal
