// SPDX-License-Identifier: MIT

package config_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/railopt/bcd"
	"github.com/katalvlaran/railopt/config"
	"github.com/katalvlaran/railopt/lagrange"
	"github.com/katalvlaran/railopt/primal"
	"github.com/katalvlaran/railopt/safety"
)

func TestLoad_OverridesKeepDefaults(t *testing.T) {
	cfg, err := config.Load("testdata/run.yaml")
	require.NoError(t, err)

	assert.Equal(t, config.EngineBCD, cfg.Engine)
	assert.Equal(t, "simple", cfg.Lagrange.Step)
	assert.Equal(t, 20, cfg.Lagrange.MaxIterations)
	assert.Equal(t, 0.2, cfg.Lagrange.Kappa, "absent key keeps its default")
	assert.Equal(t, "jsp", cfg.Primal.Mode)
	assert.Equal(t, 5*time.Second, cfg.Primal.SchedulerTimeout)
	assert.Equal(t, 10, cfg.Primal.Lookback)
	assert.Equal(t, 0.02, cfg.BCD.Rho)
	assert.Equal(t, 1.1, cfg.BCD.Sigma)
	assert.Equal(t, "linearized", cfg.BCD.Acceptance)
	assert.Equal(t, 500.0, cfg.BCD.Reward)
	assert.Equal(t, "out/run.json", cfg.Output.Path)
}

func TestDecode_EmptyDocumentIsDefault(t *testing.T) {
	cfg, err := config.Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestDecode_Rejects(t *testing.T) {
	cases := map[string]string{
		"engine":      "engine: simplex\n",
		"kappa":       "lagrange:\n  kappa: 0\n",
		"sigma":       "bcd:\n  sigma: 0.5\n",
		"acceptance":  "bcd:\n  acceptance: greedy\n",
		"dual object": "bcd:\n  dual_objective: 3\n",
		"log format":  "log:\n  format: xml\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Decode(strings.NewReader(doc))
			require.Error(t, err)
			var ve validator.ValidationErrors
			assert.True(t, errors.As(err, &ve), "want validation error, got %v", err)
		})
	}

	_, err := config.Decode(strings.NewReader("engnie: bcd\n"))
	require.Error(t, err, "unknown keys are rejected")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("testdata/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: open")
}

func TestConfig_Logger(t *testing.T) {
	cfg := config.Default()
	cfg.Log = config.LogConfig{Level: "debug", Format: "json"}
	var buf bytes.Buffer
	l, err := cfg.Logger(&buf)
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	l.WithField("k", 1).Debug("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestConfig_EngineOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Lagrange.Step = "simple"
	cfg.Lagrange.Workers = 3
	cfg.Lagrange.Debug = true
	cfg.Primal.Mode = "jsp"

	lopts, err := cfg.LagrangeOptions(safety.NewTable(), nil, logrus.New())
	require.NoError(t, err)
	lo := lagrange.DefaultOptions()
	for _, o := range lopts {
		o(&lo)
	}
	assert.Equal(t, lagrange.Simple, lo.StepMode)
	assert.Equal(t, 3, lo.Workers)
	assert.True(t, lo.Debug)
	require.IsType(t, &primal.Restorer{}, lo.Restorer)
	assert.Equal(t, primal.JSP, lo.Restorer.(*primal.Restorer).Mode())

	cfg.BCD.Acceptance = "linearized"
	bo := bcd.DefaultOptions()
	for _, o := range cfg.BCDOptions(logrus.New()) {
		o(&bo)
	}
	assert.Equal(t, bcd.AcceptLinearized, bo.Acceptance)
	assert.Equal(t, 1e-2, bo.Rho)
}

func TestConfig_NoPrimalStage(t *testing.T) {
	cfg := config.Default()
	cfg.Lagrange.PrimalEvery = 0
	lopts, err := cfg.LagrangeOptions(safety.NewTable(), nil, logrus.New())
	require.NoError(t, err)
	lo := lagrange.DefaultOptions()
	for _, o := range lopts {
		o(&lo)
	}
	assert.Nil(t, lo.Restorer)
	assert.Zero(t, lo.PrimalEvery)
}
