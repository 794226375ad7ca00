// SPDX-License-Identifier: MIT

package primal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/sssp"
	"github.com/katalvlaran/railopt/timegraph"
)

func TestStraighten_KeepsSectionOrder(t *testing.T) {
	// Y left A after X but is timed to arrive first: X stays ahead.
	out, swapped := straighten([]visit{
		{train: "Y", t: 8, prev: "A", dep: 2},
		{train: "X", t: 10, prev: "A", dep: 1},
		{train: "Z", t: 9, prev: "C", dep: 0},
	})
	ids := make([]string, len(out))
	for i, v := range out {
		ids[i] = v.train
	}
	assert.Equal(t, []string{"Z", "X", "Y"}, ids)
	assert.Equal(t, 2, swapped)
}

func TestStationOrders_NonNeighbourInterval(t *testing.T) {
	c := &timegraph.Corridor{
		Stations: []string{"A", "B", "C"},
		RunTimes: map[int]map[timegraph.Section]int{
			1: {{From: "A", To: "B"}: 2, {From: "B", To: "C"}: 2},
		},
		MinDwell: map[string]int{"B": 1},
		MaxDwell: map[string]int{"B": 3},
	}
	var f fleet.Fleet
	paths := make(map[string]timegraph.Path)
	for _, s := range []struct {
		id   string
		pref int
		stop bool
	}{{"A1", 0, true}, {"P", 1, false}, {"A2", 2, true}} {
		tr, err := fleet.NewTrain(s.id, c, timegraph.Route{
			Stations: []string{"A", "B", "C"}, Stops: map[string]bool{"B": s.stop},
			Speed: 1, PreferredDeparture: s.pref,
		}, 20)
		require.NoError(t, err)
		f = append(f, tr)
		p, _, err := sssp.NewDijkstra().ShortestPath(context.Background(), tr.Graph, timegraph.BaseCost)
		require.NoError(t, err)
		paths[s.id] = p
	}
	tb := safety.NewTable()
	require.NoError(t, tb.Set("B", 1, safety.AA, 5))
	require.NoError(t, tb.Set("B", 1, safety.AP, 1))
	require.NoError(t, tb.Set("B", 1, safety.PA, 1))

	r, err := New(tb)
	require.NoError(t, err)
	m := buildModel(f)
	orders, pairs, _ := r.stationOrders(m, f, paths)
	require.Len(t, pairs, len(orders))

	// at _B: A1 2, P 3, A2 4
	in := timegraph.In("B")
	at := func(id string) int { return m.index[id][in] }
	assert.Contains(t, orders, Order{Before: at("A1"), After: at("P"), Gap: 1})
	assert.Contains(t, orders, Order{Before: at("P"), After: at("A2"), Gap: 1})
	assert.Contains(t, orders, Order{Before: at("A1"), After: at("A2"), Gap: 5})

	// neighbour gaps at A_ already imply the non-neighbour one
	out := timegraph.Out("A")
	for _, o := range orders {
		assert.False(t, o.Before == m.index["A1"][out] && o.After == m.index["A2"][out])
	}
}

func TestScope_InjectRetract(t *testing.T) {
	m := &jspModel{orders: []Order{{Before: 0, After: 1, Gap: 1}}}
	sc := m.inject([]Order{{Before: 1, After: 2, Gap: 3}, {Before: 2, After: 3, Gap: 1}})
	require.Len(t, m.orders, 3)
	assert.Len(t, m.request(nil).Orders, 3)
	sc.retract()
	assert.Equal(t, []Order{{Before: 0, After: 1, Gap: 1}}, m.orders)
}

func TestRestore_JSP_ModelReusedAndClean(t *testing.T) {
	c := &timegraph.Corridor{
		Stations: []string{"A", "B"},
		RunTimes: map[int]map[timegraph.Section]int{1: {{From: "A", To: "B"}: 4}},
	}
	var f fleet.Fleet
	for i, id := range []string{"T1", "T2"} {
		tr, err := fleet.NewTrain(id, c, timegraph.Route{
			Stations: []string{"A", "B"}, Speed: 1, PreferredDeparture: 2 * i, Window: 1,
		}, 20)
		require.NoError(t, err)
		f = append(f, tr)
	}
	tb := safety.NewTable()
	require.NoError(t, tb.Set("B", 1, safety.AA, 3))

	r, err := New(tb, WithMode(JSP))
	require.NoError(t, err)
	_, err = r.Restore(context.Background(), f, nil)
	require.NoError(t, err)
	require.NotNil(t, r.model)
	first := r.model
	assert.Empty(t, first.orders)
	assert.Len(t, first.events, 4)
	assert.Len(t, first.durations, 2)

	_, err = r.Restore(context.Background(), f, nil)
	require.NoError(t, err)
	assert.Same(t, first, r.model)
	assert.Empty(t, r.model.orders)
}
