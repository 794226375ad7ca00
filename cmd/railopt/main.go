// SPDX-License-Identifier: MIT

// Command railopt solves a train-timetabling instance with the Lagrangian
// subgradient engine or the BCD-ALM engine and exports the run.
//
// Usage:
//
//	railopt -instance corridor.yaml [-config run.yaml] [-engine lagrange|bcd] [-out run.json]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/katalvlaran/railopt/bcd"
	"github.com/katalvlaran/railopt/config"
	"github.com/katalvlaran/railopt/lagrange"
	"github.com/katalvlaran/railopt/report"
)

func main() {
	cfgPath := flag.String("config", "", "run configuration (YAML); defaults when empty")
	instPath := flag.String("instance", "", "problem instance (YAML)")
	engine := flag.String("engine", "", "lagrange|bcd (overrides config)")
	out := flag.String("out", "", "export path, .json or .yaml (overrides config)")
	flag.Parse()

	if *instPath == "" {
		fmt.Fprintln(os.Stderr, "railopt: -instance is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *cfgPath, *instPath, *engine, *out); err != nil {
		fmt.Fprintln(os.Stderr, "railopt:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath, instPath, engine, out string) error {
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return err
		}
	}
	if engine != "" {
		cfg.Engine = engine
	}
	if out != "" {
		cfg.Output.Path = out
	}

	log, err := cfg.Logger(os.Stderr)
	if err != nil {
		return err
	}
	in, err := config.LoadInstance(instPath)
	if err != nil {
		return err
	}
	p, err := in.Build()
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"engine":  cfg.Engine,
		"trains":  len(p.Fleet),
		"horizon": in.Horizon,
	}).Info("instance loaded")

	var summary *report.Run
	switch cfg.Engine {
	case config.EngineLagrange:
		opts, err := cfg.LagrangeOptions(p.Table, p.Corridor, log)
		if err != nil {
			return err
		}
		eng, err := lagrange.New(p.Table, opts...)
		if err != nil {
			return errors.Wrap(err, "lagrange")
		}
		res, err := eng.Run(ctx, p.Fleet)
		if res == nil {
			return errors.Wrap(err, "lagrange")
		}
		summary = res.Report()
		if err != nil {
			log.WithError(err).Warn("run interrupted")
		}
	case config.EngineBCD:
		prob, err := bcd.AssembleFleet(p.Fleet, p.Table, cfg.BCD.Reward, nil)
		if err != nil {
			return errors.Wrap(err, "bcd: assemble")
		}
		res, err := bcd.New(cfg.BCDOptions(log)...).Solve(ctx, prob)
		if res == nil {
			return errors.Wrap(err, "bcd")
		}
		summary = res.Report()
		if err != nil {
			log.WithError(err).Warn("run interrupted")
		}
	default:
		return errors.Errorf("unknown engine %q", cfg.Engine)
	}
	log.WithFields(logrus.Fields{
		"run_id":     summary.RunID,
		"iterations": summary.Iterations,
		"converged":  summary.Converged,
		"feasible":   summary.Feasible,
		"infeasible": summary.Infeasible,
	}).Info("run finished")

	if cfg.Output.Path == "" {
		return nil
	}
	if err = report.WriteFile(cfg.Output.Path, summary); err != nil {
		return errors.Wrapf(err, "export %s", cfg.Output.Path)
	}
	log.WithField("path", cfg.Output.Path).Info("run exported")

	return nil
}
