// SPDX-License-Identifier: MIT

// Package config loads the two YAML documents a railopt run needs:
//
//   - the run configuration (Config): engine choice, engine parameters,
//     logging and output settings;
//   - the problem instance (Instance): corridor stations and sections,
//     dwell limits, supplements, the safety-interval table and the trains.
//
// Both are decoded with gopkg.in/yaml.v3 on top of their defaults and
// checked with go-playground/validator struct tags before any conversion.
// Conversion methods turn them into engine options (lagrange, primal, bcd)
// and domain values (timegraph.Corridor, safety.Table, fleet.Fleet).
//
// Errors carry the offending file or field through github.com/pkg/errors
// wrapping; sentinels can be matched with errors.Is.
package config
