// SPDX-License-Identifier: MIT

package lagrange_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

const horizon = 30

func corridor() *timegraph.Corridor {
	return &timegraph.Corridor{
		Stations: []string{"A", "B"},
		RunTimes: map[int]map[timegraph.Section]int{
			1: {{From: "A", To: "B"}: 4},
			2: {{From: "A", To: "B"}: 3},
		},
	}
}

func headway(t testing.TB, interval int) *safety.Table {
	t.Helper()
	tb := safety.NewTable()
	require.NoError(t, tb.Set("B", 1, safety.AA, interval))

	return tb
}

type plan struct {
	id           string
	speed        int
	pref, window int
}

func trains(t testing.TB, plans ...plan) fleet.Fleet {
	t.Helper()
	var f fleet.Fleet
	for _, p := range plans {
		tr, err := fleet.NewTrain(p.id, corridor(), timegraph.Route{
			Stations:           []string{"A", "B"},
			Speed:              p.speed,
			PreferredDeparture: p.pref,
			Window:             p.window,
		}, horizon)
		require.NoError(t, err)
		f = append(f, tr)
	}

	return f
}

func inB(t int) timegraph.Node { return timegraph.Node{V: timegraph.In("B"), T: t} }
