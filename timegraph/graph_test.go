// SPDX-License-Identifier: MIT

package timegraph_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/railopt/timegraph"
)

func n(v timegraph.VStation, t int) timegraph.Node { return timegraph.Node{V: v, T: t} }

func TestVStation_StringRoundTrip(t *testing.T) {
	for _, v := range []timegraph.VStation{
		timegraph.SourceStation,
		timegraph.SinkStation,
		timegraph.In("B"),
		timegraph.Out("B"),
	} {
		got, err := timegraph.ParseVStation(v.String())
		require.NoError(t, err)
		require.Equal(t, v, got)
	}

	for _, bad := range []string{"", "_", "X", "_X_"} {
		_, err := timegraph.ParseVStation(bad)
		require.ErrorIs(t, err, timegraph.ErrBadVStation, bad)
	}
}

func TestNode_LessIsTopological(t *testing.T) {
	require.True(t, n(timegraph.In("B"), 5).Less(n(timegraph.Out("B"), 5)))
	require.True(t, n(timegraph.Out("B"), 5).Less(n(timegraph.In("A"), 6)))
	require.False(t, n(timegraph.Out("A"), 5).Less(n(timegraph.In("A"), 5)))
	require.True(t, n(timegraph.In("A"), 5).Less(n(timegraph.In("B"), 5)))
}

func TestGraph_AddArcValidation(t *testing.T) {
	_, err := timegraph.NewGraph(0)
	require.ErrorIs(t, err, timegraph.ErrBadHorizon)

	g, err := timegraph.NewGraph(10)
	require.NoError(t, err)

	a0 := n(timegraph.Out("A"), 0)
	b3 := n(timegraph.In("B"), 3)

	require.NoError(t, g.AddArc(a0, b3, 3))
	require.ErrorIs(t, g.AddArc(a0, b3, 3), timegraph.ErrDuplicateArc)
	require.ErrorIs(t, g.AddArc(b3, a0, 1), timegraph.ErrBackwardArc)
	require.ErrorIs(t, g.AddArc(a0, n(timegraph.In("B"), 4), math.NaN()), timegraph.ErrBadWeight)
	require.ErrorIs(t, g.AddArc(a0, n(timegraph.In("B"), 10), 1), timegraph.ErrNodeOutOfHorizon)
	require.ErrorIs(t, g.AddNode(n(timegraph.In(""), 2)), timegraph.ErrEmptyStation)

	require.Equal(t, 4, g.NodeCount()) // source, sink, a0, b3
	require.Equal(t, 1, g.ArcCount())

	arc, ok := g.Arc(a0, b3)
	require.True(t, ok)
	require.Equal(t, 3.0, arc.Weight)
	require.Equal(t, 3, arc.Key().Duration())
}

func TestGraph_OrderAndPathCost(t *testing.T) {
	g, err := timegraph.NewGraph(10)
	require.NoError(t, err)

	a1 := n(timegraph.Out("A"), 1)
	b4 := n(timegraph.In("B"), 4)
	require.NoError(t, g.AddArc(b4, g.Sink(), 0))
	require.NoError(t, g.AddArc(a1, b4, 3))
	require.NoError(t, g.AddArc(g.Source(), a1, 1))

	order := g.Order()
	require.Equal(t, []timegraph.Node{g.Source(), a1, b4, g.Sink()}, order)

	p := timegraph.Path(order)
	cost, err := g.PathCost(p)
	require.NoError(t, err)
	require.Equal(t, 4.0, cost)
	require.Equal(t, map[timegraph.VStation]int{timegraph.Out("A"): 1, timegraph.In("B"): 4}, p.Times())
	require.Equal(t, 3.0, g.MaxArcWeight())
	require.Equal(t, []timegraph.VStation{timegraph.Out("A"), timegraph.In("B")}, g.VStations())

	_, err = g.PathCost(timegraph.Path{g.Source(), b4})
	require.True(t, errors.Is(err, timegraph.ErrNodeNotFound))
}

func TestFilterAndTrim(t *testing.T) {
	g, err := timegraph.NewGraph(10)
	require.NoError(t, err)

	a1, a2 := n(timegraph.Out("A"), 1), n(timegraph.Out("A"), 2)
	b4, b5 := n(timegraph.In("B"), 4), n(timegraph.In("B"), 5)
	require.NoError(t, g.AddArc(g.Source(), a1, 0))
	require.NoError(t, g.AddArc(g.Source(), a2, 1))
	require.NoError(t, g.AddArc(a1, b4, 3))
	require.NoError(t, g.AddArc(a2, b5, 3))
	require.NoError(t, g.AddArc(b4, g.Sink(), 0))
	// b5 is a dead end

	trimmed := timegraph.Trim(g)
	require.False(t, trimmed.HasNode(a2))
	require.False(t, trimmed.HasNode(b5))
	require.Equal(t, 3, trimmed.ArcCount())
	require.Equal(t, 5, g.ArcCount(), "source graph untouched")

	noA1 := timegraph.Filter(g, func(x timegraph.Node) bool { return x != a1 }, nil)
	require.Equal(t, 0, timegraph.Trim(noA1).ArcCount())

	cheap := timegraph.Filter(g, nil, func(a timegraph.Arc) bool { return a.Weight < 3 })
	require.Equal(t, 3, cheap.ArcCount())

	clone := timegraph.Clone(g)
	require.Equal(t, g.Arcs(), clone.Arcs())
}
