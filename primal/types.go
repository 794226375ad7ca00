// SPDX-License-Identifier: MIT
//
// File: types.go
// Role: Modes, inputs, outputs, options and sentinel errors of the primal
//       restoration heuristic.

package primal

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/katalvlaran/railopt/sssp"
	"github.com/katalvlaran/railopt/timegraph"
)

// Sentinel errors.
var (
	// ErrNilTable indicates a Restorer built without a safety table.
	ErrNilTable = errors.New("primal: safety table is nil")

	// ErrUnknownMode indicates a mode string other than seq or jsp.
	ErrUnknownMode = errors.New("primal: unknown mode")

	// ErrSchedulerExhausted indicates the scheduler stayed infeasible after
	// MaxRetries conflict reductions, or blamed no droppable train. The
	// message carries the number of scheduler calls made. Recoverable: the
	// caller keeps its previous upper bound.
	ErrSchedulerExhausted = errors.New("primal: scheduler infeasible after retries")

	// ErrSchedulerTimeout indicates the scheduler did not answer within
	// SchedulerTimeout. Recoverable like ErrSchedulerExhausted.
	ErrSchedulerTimeout = errors.New("primal: scheduler timed out")

	// ErrNoScheduler indicates jsp mode without a Scheduler.
	ErrNoScheduler = errors.New("primal: jsp mode requires a scheduler")

	// ErrBadLookWindow indicates a negative lookback or lookahead.
	ErrBadLookWindow = errors.New("primal: lookback/lookahead must be non-negative")

	// ErrBadRetries indicates a negative retry cap.
	ErrBadRetries = errors.New("primal: MaxRetries must be non-negative")
)

// Mode selects the restoration strategy.
type Mode string

const (
	// Seq places trains one by one on constrained graphs.
	Seq Mode = "seq"
	// JSP runs Seq, then fixes a station order and lets a Scheduler compute times.
	JSP Mode = "jsp"
)

// ParseMode parses "seq" or "jsp".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Seq, JSP:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Relaxed is one train's relaxed (possibly conflicting) solution.
type Relaxed struct {
	Path     timegraph.Path
	Cost     float64
	Feasible bool
}

// TrainOutcome is one train's result in a Schedule.
type TrainOutcome struct {
	TrainID  string
	Feasible bool
	Path     timegraph.Path // nil when infeasible
	Cost     float64        // path cost, or the penalty when infeasible
}

// Schedule is a conflict-free assignment of paths to (a subset of) the fleet.
type Schedule struct {
	Trains        map[string]TrainOutcome
	Cost          float64
	FeasibleCount int
	Infeasible    []string // sorted
}

func newSchedule(n int) *Schedule {
	return &Schedule{Trains: make(map[string]TrainOutcome, n)}
}

func (s *Schedule) add(o TrainOutcome) {
	s.Trains[o.TrainID] = o
	s.Cost += o.Cost
	if o.Feasible {
		s.FeasibleCount++
		return
	}
	s.Infeasible = append(s.Infeasible, o.TrainID)
	sort.Strings(s.Infeasible)
}

// Better reports whether s ranks above o: more feasible trains first, then
// lower cost. Any schedule is better than nil.
func (s *Schedule) Better(o *Schedule) bool {
	if o == nil {
		return s != nil
	}
	if s == nil {
		return false
	}
	if s.FeasibleCount != o.FeasibleCount {
		return s.FeasibleCount > o.FeasibleCount
	}

	return s.Cost < o.Cost
}

// Timetables returns, per feasible train, the time at every virtual station
// of its path, keyed by the virtual-station label.
func (s *Schedule) Timetables() map[string]map[string]int {
	out := make(map[string]map[string]int, len(s.Trains))
	for id, o := range s.Trains {
		if !o.Feasible {
			continue
		}
		tt := make(map[string]int, len(o.Path))
		for v, t := range o.Path.Times() {
			tt[v.String()] = t
		}
		out[id] = tt
	}

	return out
}

// Options configures a Restorer.
//
//	Mode             – Seq (default) or JSP.
//	Lookback         – type-2 incompatibility window before an accepted start (10).
//	Lookahead        – type-2 incompatibility window after an accepted end (10).
//	KeepRelaxed      – accept a train's relaxed path unchanged when it survives
//	                   the constrained view instead of re-solving (default false).
//	Oracle           – shortest-path oracle (default sssp.NewDijkstra()).
//	Corridor         – optional; enables head-on blocking on single-track sections.
//	Scheduler        – JSP subsolver (default DifferenceScheduler).
//	SchedulerTimeout – wall-clock guard per scheduler call (30s).
//	MaxRetries       – JSP conflict-reduction cap (30).
//	Logger           – logrus logger (default discards).
type Options struct {
	Mode             Mode
	Lookback         int
	Lookahead        int
	KeepRelaxed      bool
	Oracle           sssp.Oracle
	Corridor         *timegraph.Corridor
	Scheduler        Scheduler
	SchedulerTimeout time.Duration
	MaxRetries       int
	Logger           logrus.FieldLogger
}

// Option is a functional option for New.
type Option func(*Options)

// WithMode selects the restoration mode.
func WithMode(m Mode) Option {
	return func(o *Options) {
		if _, err := ParseMode(string(m)); err != nil {
			panic(err.Error())
		}
		o.Mode = m
	}
}

// WithLookWindow sets the type-2 lookback and lookahead. Panics on negatives.
func WithLookWindow(back, ahead int) Option {
	return func(o *Options) {
		if back < 0 || ahead < 0 {
			panic(ErrBadLookWindow.Error())
		}
		o.Lookback, o.Lookahead = back, ahead
	}
}

// WithKeepRelaxed toggles reuse of surviving relaxed paths.
func WithKeepRelaxed(keep bool) Option {
	return func(o *Options) { o.KeepRelaxed = keep }
}

// WithOracle overrides the shortest-path oracle.
func WithOracle(or sssp.Oracle) Option {
	return func(o *Options) { o.Oracle = or }
}

// WithCorridor enables head-on blocking from the corridor's single-track flags.
func WithCorridor(c *timegraph.Corridor) Option {
	return func(o *Options) { o.Corridor = c }
}

// WithScheduler overrides the JSP subsolver.
func WithScheduler(s Scheduler) Option {
	return func(o *Options) { o.Scheduler = s }
}

// WithSchedulerTimeout sets the per-call guard. Zero disables it.
func WithSchedulerTimeout(d time.Duration) Option {
	return func(o *Options) { o.SchedulerTimeout = d }
}

// WithMaxRetries caps JSP conflict reductions. Panics on negatives.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		if n < 0 {
			panic(ErrBadRetries.Error())
		}
		o.MaxRetries = n
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Options) { o.Logger = l }
}

// DefaultOptions returns the defaults documented on Options.
func DefaultOptions() Options {
	return Options{
		Mode:             Seq,
		Lookback:         10,
		Lookahead:        10,
		KeepRelaxed:      false,
		Oracle:           sssp.NewDijkstra(),
		Scheduler:        DifferenceScheduler{},
		SchedulerTimeout: 30 * time.Second,
		MaxRetries:       30,
		Logger:           discard(),
	}
}

func discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}
