// SPDX-License-Identifier: MIT
//
// File: export.go
// Role: Serialization of a finished run (timetables + bound history) for
//       external plotting and reporting tools.

package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel errors.
var (
	// ErrUnknownFormat indicates an export format other than yaml or json.
	ErrUnknownFormat = errors.New("report: unknown export format")
)

// Format selects the export encoding.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" or "json" (case-insensitive).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return YAML, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Run is the exported summary of one engine run.
//
// Infinite bounds are exported as null (JSON) / omitted (YAML) through the
// pointer fields, since neither encoding carries ±Inf portably.
type Run struct {
	RunID       string                    `json:"run_id" yaml:"run_id"`
	Engine      string                    `json:"engine" yaml:"engine"`
	Iterations  int                       `json:"iterations" yaml:"iterations"`
	Converged   bool                      `json:"converged" yaml:"converged"`
	BestLB      *float64                  `json:"best_lb,omitempty" yaml:"best_lb,omitempty"`
	BestUB      *float64                  `json:"best_ub,omitempty" yaml:"best_ub,omitempty"`
	Gap         *float64                  `json:"gap,omitempty" yaml:"gap,omitempty"`
	LowerBounds []float64                 `json:"lower_bounds" yaml:"lower_bounds"`
	UpperBounds []float64                 `json:"upper_bounds" yaml:"upper_bounds"`
	Norms       *Norms                    `json:"norms,omitempty" yaml:"norms,omitempty"`
	Feasible    int                       `json:"feasible" yaml:"feasible"`
	Infeasible  []string                  `json:"infeasible" yaml:"infeasible"`
	Timetables  map[string]map[string]int `json:"timetables" yaml:"timetables"`
	Records     []Record                  `json:"records" yaml:"records"`
}

// Norms are the per-outer-iteration constraint-violation norms of a BCD run.
type Norms struct {
	L1  []float64 `json:"l1" yaml:"l1"`
	L2  []float64 `json:"l2" yaml:"l2"`
	Inf []float64 `json:"inf" yaml:"inf"`
}

// Finite returns &v, or nil when v is NaN or ±Inf.
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return &v
}

// Export writes run to w in the given format.
func Export(w io.Writer, run *Run, f Format) error {
	switch f {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(run); err != nil {
			return fmt.Errorf("report: yaml: %w", err)
		}
		return enc.Close()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			return fmt.Errorf("report: json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteFile exports run to path, picking the format from the extension.
func WriteFile(path string, run *Run) error {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = Export(out, run, f); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}

// Load reads a run previously written by Export.
func Load(r io.Reader, f Format) (*Run, error) {
	var run Run
	switch f {
	case YAML:
		if err := yaml.NewDecoder(r).Decode(&run); err != nil {
			return nil, fmt.Errorf("report: yaml: %w", err)
		}
	case JSON:
		if err := json.NewDecoder(r).Decode(&run); err != nil {
			return nil, fmt.Errorf("report: json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}

	return &run, nil
}
