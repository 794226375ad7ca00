// SPDX-License-Identifier: MIT
//
// File: record.go
// Role: Per-iteration log record shared by both engines, and its logrus emission.

package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Record is one iteration log line.
//
// Field meaning per engine:
//
//	             Lagrangian              BCD-ALM
//	Primal       best upper bound        c'x
//	Objective    lower bound             augmented objective
//	Violation    ‖max(g,0)‖₂             ‖max(Ax−b,0)‖₂
//	FixedPoint   0                       Σ‖x_k − x_k'‖ of the last sweep
//	Param        step size               ρ
//	Tau          κ                       τ
//	Inner        0                       sweeps performed
//
// Every field is finite: the Lagrangian engine records Primal as 0 and Gap
// as -1 until a first upper bound exists.
type Record struct {
	Iteration  int           `json:"iteration" yaml:"iteration"`
	Elapsed    time.Duration `json:"elapsed" yaml:"elapsed"`
	Primal     float64       `json:"primal" yaml:"primal"`
	Objective  float64       `json:"objective" yaml:"objective"`
	Violation  float64       `json:"violation" yaml:"violation"`
	FixedPoint float64       `json:"fixed_point" yaml:"fixed_point"`
	Param      float64       `json:"param" yaml:"param"`
	Tau        float64       `json:"tau" yaml:"tau"`
	Inner      int           `json:"inner" yaml:"inner"`
	Gap        float64       `json:"gap" yaml:"gap"`
	Feasible   int           `json:"feasible" yaml:"feasible"`
}

// Fields returns r as structured logrus fields.
func (r Record) Fields() logrus.Fields {
	return logrus.Fields{
		"iter":        r.Iteration,
		"elapsed":     r.Elapsed.Round(time.Millisecond).String(),
		"primal":      r.Primal,
		"objective":   r.Objective,
		"violation":   r.Violation,
		"fixed_point": r.FixedPoint,
		"param":       r.Param,
		"tau":         r.Tau,
		"inner":       r.Inner,
		"gap":         r.Gap,
		"feasible":    r.Feasible,
	}
}

// Emit logs r at info level under the given engine name.
func Emit(log logrus.FieldLogger, engine string, r Record) {
	log.WithField("engine", engine).WithFields(r.Fields()).Info("iteration")
}

var (
	headers = []string{"k", "t", "c'x", "lobj", "|Ax - b|", "error", "rho", "tau", "iter"}
	widths  = []int{3, 7, 9, 9, 10, 10, 9, 9, 4}
)

func center(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := w - len(s)
	left := pad / 2

	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

// Header returns the fixed-width column header of the BCD console table,
// framed by rules of '*'.
func Header(title string) string {
	cols := make([]string, len(headers))
	for i, h := range headers {
		cols[i] = center(h, widths[i])
	}
	line := strings.Join(cols, " ")
	rule := strings.Repeat("*", len(line))

	return strings.Join([]string{rule, center(title, len(line)), rule, line, rule}, "\n")
}

// Line renders r under Header's columns.
func (r Record) Line() string {
	return fmt.Sprintf("%03d %7.2f %+.2e %+.2e %+.3e %+.3e %+.2e %+.2e %04d",
		r.Iteration, r.Elapsed.Seconds(), r.Primal, r.Objective,
		r.Violation, r.FixedPoint, r.Param, r.Tau, r.Inner)
}
