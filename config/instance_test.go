// SPDX-License-Identifier: MIT

package config_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/railopt/config"
	"github.com/katalvlaran/railopt/lagrange"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

func TestLoadInstance_Build(t *testing.T) {
	in, err := config.LoadInstance("testdata/instance.yaml")
	require.NoError(t, err)
	p, err := in.Build()
	require.NoError(t, err)

	c := p.Corridor
	assert.Equal(t, []string{"A", "B", "C"}, c.Stations)
	assert.Equal(t, 8, c.RunTimes[2][timegraph.Section{From: "A", To: "B"}])
	assert.True(t, c.IsSingleTrack(timegraph.Section{From: "C", To: "B"}))
	assert.False(t, c.IsSingleTrack(timegraph.Section{From: "A", To: "B"}))
	assert.Equal(t, 3, c.MaxDwell["B"])
	assert.Equal(t, 1, c.StopAdd[1]["B"])

	iv, ok := p.Table.Interval("B", safety.AA)
	require.True(t, ok)
	assert.Equal(t, 3, iv)
	iv, ok = p.Table.IntervalFor("B", 2, safety.AA)
	require.True(t, ok)
	assert.Equal(t, 2, iv)

	require.Len(t, p.Fleet, 2)
	assert.Equal(t, []string{"G1", "G2"}, p.Fleet.IDs())
	assert.Equal(t, 60, p.Fleet.Horizon())

	g1 := p.Fleet.ByID()["G1"]
	k, ok := g1.Kind(timegraph.In("B"))
	require.True(t, ok)
	assert.Equal(t, safety.Arrival, k)
	k, _ = p.Fleet.ByID()["G2"].Kind(timegraph.In("B"))
	assert.Equal(t, safety.Pass, k)
}

func TestDecodeInstance_Rejects(t *testing.T) {
	base := `
horizon: 30
stations: [A, B]
sections:
  - {from: A, to: B, run_times: {1: 4}}
trains:
  - {id: T1, route: [A, B], speed: 1, departure: 1}
`
	_, err := config.DecodeInstance(strings.NewReader(base))
	require.NoError(t, err)

	_, err = config.DecodeInstance(strings.NewReader(strings.Replace(base, "route: [A, B]", "route: [A, X]", 1)))
	require.True(t, errors.Is(err, config.ErrUnknownStation), "got %v", err)

	_, err = config.DecodeInstance(strings.NewReader(strings.Replace(base, "[A, B]\n", "[A, B, A]\n", 1)))
	require.True(t, errors.Is(err, config.ErrDuplicateStation), "got %v", err)

	_, err = config.DecodeInstance(strings.NewReader(strings.Replace(base, "horizon: 30", "horizon: 0", 1)))
	require.Error(t, err)

	_, err = config.DecodeInstance(strings.NewReader(base + "safety:\n  - {station: B, speed: 1, category: xx, interval: 2}\n"))
	require.Error(t, err)
}

func TestInstance_FleetUnreachable(t *testing.T) {
	doc := `
horizon: 5
stations: [A, B]
sections:
  - {from: A, to: B, run_times: {1: 10}}
trains:
  - {id: T1, route: [A, B], speed: 1, departure: 1}
`
	in, err := config.DecodeInstance(strings.NewReader(doc))
	require.NoError(t, err)
	_, err = in.Build()
	require.ErrorIs(t, err, timegraph.ErrUnreachableSink)
}

func TestInstance_RunsLagrange(t *testing.T) {
	in, err := config.LoadInstance("testdata/instance.yaml")
	require.NoError(t, err)
	p, err := in.Build()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Lagrange.MaxIterations = 5
	opts, err := cfg.LagrangeOptions(p.Table, p.Corridor, logrus.New())
	require.NoError(t, err)
	eng, err := lagrange.New(p.Table, opts...)
	require.NoError(t, err)

	res, err := eng.Run(context.Background(), p.Fleet)
	require.NoError(t, err)
	require.NotNil(t, res.Best)
	assert.GreaterOrEqual(t, res.Iterations, 1)
	assert.NotEmpty(t, res.Records)
}
