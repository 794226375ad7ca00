// SPDX-License-Identifier: MIT

package primal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/primal"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/sssp"
	"github.com/katalvlaran/railopt/timegraph"
)

const horizon = 30

// twoStations is A→B with a 4-minute run at speed 1 and 3 minutes at speed 2.
func twoStations() *timegraph.Corridor {
	return &timegraph.Corridor{
		Stations: []string{"A", "B"},
		RunTimes: map[int]map[timegraph.Section]int{
			1: {{From: "A", To: "B"}: 4},
			2: {{From: "A", To: "B"}: 3},
		},
	}
}

// arrivalHeadway constrains only arrival-after-arrival at B.
func arrivalHeadway(t *testing.T, interval int) *safety.Table {
	t.Helper()
	tb := safety.NewTable()
	require.NoError(t, tb.Set("B", 1, safety.AA, interval))

	return tb
}

// threeStations is A→B→C. Speed 1 runs 2+2 minutes, speed 2 runs 2+3.
// Stopping trains dwell 2 or 3 minutes at B.
func threeStations() *timegraph.Corridor {
	return &timegraph.Corridor{
		Stations: []string{"A", "B", "C"},
		RunTimes: map[int]map[timegraph.Section]int{
			1: {{From: "A", To: "B"}: 2, {From: "B", To: "C"}: 2},
			2: {{From: "A", To: "B"}: 2, {From: "B", To: "C"}: 3},
		},
		MinDwell: map[string]int{"B": 2},
		MaxDwell: map[string]int{"B": 3},
	}
}

// mixedHeadway sets aa=5 and ap=pa=1 at B.
func mixedHeadway(t *testing.T) *safety.Table {
	t.Helper()
	tb := safety.NewTable()
	require.NoError(t, tb.Set("B", 1, safety.AA, 5))
	require.NoError(t, tb.Set("B", 1, safety.AP, 1))
	require.NoError(t, tb.Set("B", 1, safety.PA, 1))

	return tb
}

// mixedFleet: A1 and A2 stop at B two minutes apart, P passes B between
// them. Departures are fixed.
func mixedFleet(t *testing.T) fleet.Fleet {
	t.Helper()
	c := threeStations()
	var f fleet.Fleet
	for _, s := range []struct {
		id    string
		speed int
		pref  int
		stop  bool
	}{{"A1", 2, 0, true}, {"P", 1, 1, false}, {"A2", 1, 2, true}} {
		tr, err := fleet.NewTrain(s.id, c, timegraph.Route{
			Stations:           []string{"A", "B", "C"},
			Stops:              map[string]bool{"B": s.stop},
			Speed:              s.speed,
			PreferredDeparture: s.pref,
		}, horizon)
		require.NoError(t, err)
		f = append(f, tr)
	}

	return f
}

type plan struct {
	id     string
	speed  int
	pref   int
	window int
}

func buildFleet(t *testing.T, c *timegraph.Corridor, plans ...plan) fleet.Fleet {
	t.Helper()
	var f fleet.Fleet
	for _, s := range plans {
		tr, err := fleet.NewTrain(s.id, c, timegraph.Route{
			Stations:           []string{"A", "B"},
			Speed:              s.speed,
			PreferredDeparture: s.pref,
			Window:             s.window,
		}, horizon)
		require.NoError(t, err)
		f = append(f, tr)
	}

	return f
}

// relaxedOf solves every train alone on its base costs.
func relaxedOf(t *testing.T, f fleet.Fleet) map[string]primal.Relaxed {
	t.Helper()
	out := make(map[string]primal.Relaxed, len(f))
	for _, tr := range f {
		p, c, err := sssp.New().ShortestPath(context.Background(), tr.Graph, timegraph.BaseCost)
		require.NoError(t, err)
		out[tr.ID] = primal.Relaxed{Path: p, Cost: c, Feasible: true}
	}

	return out
}

func asRelaxed(s *primal.Schedule) map[string]primal.Relaxed {
	out := make(map[string]primal.Relaxed, len(s.Trains))
	for id, o := range s.Trains {
		out[id] = primal.Relaxed{Path: o.Path, Cost: o.Cost, Feasible: o.Feasible}
	}

	return out
}

func arrival(p timegraph.Path) int { return p.Times()[timegraph.In("B")] }
