// SPDX-License-Identifier: MIT

package fleet_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

func corridor() *timegraph.Corridor {
	return &timegraph.Corridor{
		Stations: []string{"A", "B", "C", "D"},
		RunTimes: map[int]map[timegraph.Section]int{
			300: {{From: "A", To: "B"}: 5, {From: "B", To: "C"}: 4, {From: "C", To: "D"}: 6},
		},
		MinDwell: map[string]int{"B": 1, "C": 1},
		MaxDwell: map[string]int{"B": 3, "C": 3},
	}
}

func TestNewTrain_Kinds(t *testing.T) {
	r := timegraph.Route{
		Stations: []string{"A", "B", "C", "D"},
		Stops:    map[string]bool{"B": true},
		Speed:    300,
	}
	tr, err := fleet.NewTrain("G1", corridor(), r, 60)
	require.NoError(t, err)

	cases := []struct {
		v    timegraph.VStation
		want safety.EventKind
	}{
		{timegraph.Out("A"), safety.Departure},
		{timegraph.In("B"), safety.Arrival},
		{timegraph.Out("B"), safety.Departure},
		{timegraph.In("C"), safety.Pass},
		{timegraph.Out("C"), safety.Pass},
		{timegraph.In("D"), safety.Arrival},
	}
	for _, tc := range cases {
		k, ok := tr.Kind(tc.v)
		require.True(t, ok, tc.v.String())
		assert.Equal(t, tc.want, k, tc.v.String())
	}
	_, ok := tr.Kind(timegraph.In("A"))
	assert.False(t, ok)
	_, ok = tr.Kind(timegraph.SinkStation)
	assert.False(t, ok)

	assert.Len(t, tr.VStations(), 6)
	assert.Equal(t, "A", tr.Origin())
	assert.Equal(t, "D", tr.Terminus())
	// largest arc weight is the 6-minute run C→D
	assert.Equal(t, 18.0, tr.PenaltyCost())
}

func TestNewTrain_Errors(t *testing.T) {
	_, err := fleet.NewTrain("", corridor(), timegraph.Route{}, 10)
	require.ErrorIs(t, err, fleet.ErrEmptyID)

	_, err = fleet.NewTrain("X", corridor(), timegraph.Route{Stations: []string{"A"}}, 10)
	require.ErrorIs(t, err, timegraph.ErrRouteTooShort)

	_, err = fleet.FromGraph("X", timegraph.Route{}, nil)
	require.ErrorIs(t, err, fleet.ErrNilGraph)
}

func TestFleet_Validate(t *testing.T) {
	r := timegraph.Route{Stations: []string{"A", "B"}, Speed: 300}
	a, err := fleet.NewTrain("T2", corridor(), r, 30)
	require.NoError(t, err)
	b, err := fleet.NewTrain("T1", corridor(), r, 30)
	require.NoError(t, err)

	f := fleet.Fleet{a, b}
	require.NoError(t, f.Validate())
	assert.Equal(t, []string{"T1", "T2"}, f.IDs())
	assert.Equal(t, 30, f.Horizon())
	assert.Same(t, a, f.ByID()["T2"])

	require.ErrorIs(t, fleet.Fleet{a, a}.Validate(), fleet.ErrDuplicateID)

	err = fleet.Fleet{a, nil, b}.Validate()
	require.ErrorIs(t, err, fleet.ErrNilTrain)
	assert.Contains(t, err.Error(), "index 1")
}
