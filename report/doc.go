// SPDX-License-Identifier: MIT

// Package report carries what the engines hand to the outside world: one
// Record per iteration, emitted as structured logrus fields (and, for the
// BCD engine, as a fixed-width console table), and a Run summary exported as
// YAML or JSON for external plotting.
package report
