// SPDX-License-Identifier: MIT
//
// File: config.go
// Role: Run configuration: schema, defaults, loading and conversion to
//       engine options.

package config

import (
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/railopt/bcd"
	"github.com/katalvlaran/railopt/lagrange"
	"github.com/katalvlaran/railopt/primal"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

// Engine names accepted in Config.Engine.
const (
	EngineLagrange = "lagrange"
	EngineBCD      = "bcd"
)

// Config is the run configuration.
type Config struct {
	Engine   string         `yaml:"engine" validate:"oneof=lagrange bcd"`
	Log      LogConfig      `yaml:"log"`
	Lagrange LagrangeConfig `yaml:"lagrange"`
	Primal   PrimalConfig   `yaml:"primal"`
	BCD      BCDConfig      `yaml:"bcd"`
	Output   OutputConfig   `yaml:"output"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// LagrangeConfig mirrors lagrange.Options.
type LagrangeConfig struct {
	Step          string  `yaml:"step" validate:"oneof=simple polyak"`
	Kappa         float64 `yaml:"kappa" validate:"gt=0"`
	StuckLimit    int     `yaml:"stuck_limit" validate:"gte=1"`
	MaxIterations int     `yaml:"max_iterations" validate:"gte=1"`
	GapTolerance  float64 `yaml:"gap_tolerance" validate:"gte=0"`
	PrimalEvery   int     `yaml:"primal_every" validate:"gte=0"`
	Workers       int     `yaml:"workers" validate:"gte=0"` // 0 keeps the engine default
	Debug         bool    `yaml:"debug"`
	DualTolerance float64 `yaml:"dual_tolerance" validate:"gte=0"`
}

// PrimalConfig mirrors primal.Options.
type PrimalConfig struct {
	Mode             string        `yaml:"mode" validate:"oneof=seq jsp"`
	Lookback         int           `yaml:"lookback" validate:"gte=0"`
	Lookahead        int           `yaml:"lookahead" validate:"gte=0"`
	KeepRelaxed      bool          `yaml:"keep_relaxed"`
	HeadOn           bool          `yaml:"head_on"`
	SchedulerTimeout time.Duration `yaml:"scheduler_timeout" validate:"gte=0"`
	MaxRetries       int           `yaml:"max_retries" validate:"gte=0"`
}

// BCDConfig mirrors bcd.Options. Reward is the per-train profit used by
// bcd.AssembleFleet.
type BCDConfig struct {
	Rho           float64 `yaml:"rho" validate:"gt=0"`
	Sigma         float64 `yaml:"sigma" validate:"gte=1"`
	MaxOuter      int     `yaml:"max_outer" validate:"gte=1"`
	MaxInner      int     `yaml:"max_inner" validate:"gte=1"`
	FixedPointTol float64 `yaml:"fixed_point_tol" validate:"gte=0"`
	DualObjective int     `yaml:"dual_objective" validate:"oneof=1 2"`
	Acceptance    string  `yaml:"acceptance" validate:"oneof=objective linearized"`
	Reward        float64 `yaml:"reward" validate:"gt=0"`
}

// OutputConfig controls the run export. An empty Path disables it.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used for absent keys.
func Default() *Config {
	lo := lagrange.DefaultOptions()
	po := primal.DefaultOptions()
	bo := bcd.DefaultOptions()

	return &Config{
		Engine: EngineLagrange,
		Log:    LogConfig{Level: "info", Format: "text"},
		Lagrange: LagrangeConfig{
			Step:          string(lo.StepMode),
			Kappa:         lo.Kappa,
			StuckLimit:    lo.StuckLimit,
			MaxIterations: lo.MaxIterations,
			GapTolerance:  lo.GapTolerance,
			PrimalEvery:   lo.PrimalEvery,
			DualTolerance: lo.DualTolerance,
		},
		Primal: PrimalConfig{
			Mode:             string(po.Mode),
			Lookback:         po.Lookback,
			Lookahead:        po.Lookahead,
			KeepRelaxed:      po.KeepRelaxed,
			HeadOn:           true,
			SchedulerTimeout: po.SchedulerTimeout,
			MaxRetries:       po.MaxRetries,
		},
		BCD: BCDConfig{
			Rho:           bo.Rho,
			Sigma:         bo.Sigma,
			MaxOuter:      bo.MaxOuter,
			MaxInner:      bo.MaxInner,
			FixedPointTol: bo.FixedPointTol,
			DualObjective: bo.DualObjective,
			Acceptance:    string(bo.Acceptance),
			Reward:        1000,
		},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: open")
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "config: %s", path)
	}

	return cfg, nil
}

// Decode reads a configuration document from r on top of Default and
// validates it. An empty document yields the defaults.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decode")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validate")
	}

	return cfg, nil
}

// Logger builds a logrus logger writing to w at the configured level and
// format.
func (c *Config) Logger(w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "config: log level")
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	if c.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return l, nil
}

// PrimalOptions converts the primal section. The corridor is attached only
// when head-on blocking is enabled.
func (c *Config) PrimalOptions(corridor *timegraph.Corridor, log logrus.FieldLogger) []primal.Option {
	opts := []primal.Option{
		primal.WithMode(primal.Mode(c.Primal.Mode)),
		primal.WithLookWindow(c.Primal.Lookback, c.Primal.Lookahead),
		primal.WithKeepRelaxed(c.Primal.KeepRelaxed),
		primal.WithSchedulerTimeout(c.Primal.SchedulerTimeout),
		primal.WithMaxRetries(c.Primal.MaxRetries),
		primal.WithLogger(log),
	}
	if c.Primal.HeadOn && corridor != nil {
		opts = append(opts, primal.WithCorridor(corridor))
	}

	return opts
}

// LagrangeOptions converts the lagrange section and wires a primal
// Restorer built from the primal section when PrimalEvery > 0.
func (c *Config) LagrangeOptions(table *safety.Table, corridor *timegraph.Corridor, log logrus.FieldLogger) ([]lagrange.Option, error) {
	opts := []lagrange.Option{
		lagrange.WithStepMode(lagrange.StepMode(c.Lagrange.Step)),
		lagrange.WithKappa(c.Lagrange.Kappa),
		lagrange.WithStuckLimit(c.Lagrange.StuckLimit),
		lagrange.WithMaxIterations(c.Lagrange.MaxIterations),
		lagrange.WithGapTolerance(c.Lagrange.GapTolerance),
		lagrange.WithPrimalEvery(c.Lagrange.PrimalEvery),
		lagrange.WithLogger(log),
	}
	if c.Lagrange.Workers > 0 {
		opts = append(opts, lagrange.WithWorkers(c.Lagrange.Workers))
	}
	if c.Lagrange.Debug {
		opts = append(opts, lagrange.WithDebug(c.Lagrange.DualTolerance))
	}
	if c.Lagrange.PrimalEvery > 0 {
		r, err := primal.New(table, c.PrimalOptions(corridor, log)...)
		if err != nil {
			return nil, errors.Wrap(err, "config: primal restorer")
		}
		opts = append(opts, lagrange.WithRestorer(r))
	}

	return opts, nil
}

// BCDOptions converts the bcd section.
func (c *Config) BCDOptions(log logrus.FieldLogger) []bcd.Option {
	return []bcd.Option{
		bcd.WithRho(c.BCD.Rho),
		bcd.WithSigma(c.BCD.Sigma),
		bcd.WithMaxOuter(c.BCD.MaxOuter),
		bcd.WithMaxInner(c.BCD.MaxInner),
		bcd.WithFixedPointTol(c.BCD.FixedPointTol),
		bcd.WithDualObjective(c.BCD.DualObjective),
		bcd.WithAcceptance(bcd.Acceptance(c.BCD.Acceptance)),
		bcd.WithLogger(log),
	}
}
