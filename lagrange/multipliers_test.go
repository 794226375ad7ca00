// SPDX-License-Identifier: MIT

package lagrange_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/railopt/lagrange"
	"github.com/katalvlaran/railopt/safety"
	"github.com/katalvlaran/railopt/timegraph"
)

func TestMultipliers_Domain(t *testing.T) {
	tb := headway(t, 2)
	require.NoError(t, tb.Set("B", 1, safety.PA, 1))
	nodes := []timegraph.Node{
		inB(5), inB(5), inB(3),
		{V: timegraph.Out("A"), T: 1},
		{V: timegraph.SourceStation, T: -1},
	}
	m := lagrange.NewMultipliers(nodes, tb)
	require.Equal(t, 4, m.Len())
	assert.Equal(t, []lagrange.Key{
		{Node: inB(3), Category: safety.AA},
		{Node: inB(3), Category: safety.PA},
		{Node: inB(5), Category: safety.AA},
		{Node: inB(5), Category: safety.PA},
	}, m.Keys())

	v, ok := m.Get(lagrange.Key{Node: inB(5), Category: safety.AA})
	assert.True(t, ok)
	assert.Zero(t, v)
	_, ok = m.Get(lagrange.Key{Node: inB(5), Category: safety.AP})
	assert.False(t, ok)

	require.ErrorIs(t, m.Set(lagrange.Key{Node: inB(4), Category: safety.AA}, 1), lagrange.ErrUnknownKey)
	require.ErrorIs(t, m.Set(lagrange.Key{Node: inB(5), Category: safety.AA}, -1), lagrange.ErrNegativeMultiplier)
}

func TestMultipliers_StepProjects(t *testing.T) {
	m := lagrange.NewMultipliers([]timegraph.Node{inB(4), inB(5)}, headway(t, 2))
	g := &lagrange.Subgradient{Keys: m.Keys(), Values: []float64{1, -2}}

	require.NoError(t, m.Step(0.5, g))
	assert.Equal(t, []float64{0.5, 0}, m.Values())
	require.NoError(t, m.Step(1, &lagrange.Subgradient{Keys: m.Keys(), Values: []float64{-3, 0.25}}))
	assert.Equal(t, []float64{0, 0.25}, m.Values())
	assert.Equal(t, 0.25, m.Total())

	c := m.Clone()
	require.NoError(t, c.Set(lagrange.Key{Node: inB(5), Category: safety.AA}, 9))
	assert.Equal(t, 0.25, m.Total())

	require.ErrorIs(t, m.Step(1, &lagrange.Subgradient{Values: []float64{1}}), lagrange.ErrDimensionMismatch)
}

func TestAggregate_ScattersOverWindow(t *testing.T) {
	tb := headway(t, 3)
	m := lagrange.NewMultipliers([]timegraph.Node{inB(5), inB(8)}, tb)
	require.NoError(t, m.Set(lagrange.Key{Node: inB(5), Category: safety.AA}, 2))
	require.NoError(t, m.Set(lagrange.Key{Node: inB(8), Category: safety.AA}, 1))

	a := lagrange.Aggregate(m, tb, 10)
	assert.Equal(t, 2.0, a.At(inB(5), safety.Arrival))
	assert.Equal(t, 2.0, a.At(inB(6), safety.Arrival))
	assert.Equal(t, 2.0, a.At(inB(7), safety.Arrival))
	assert.Equal(t, 1.0, a.At(inB(8), safety.Arrival))
	assert.Equal(t, 1.0, a.At(inB(9), safety.Arrival))
	assert.Zero(t, a.At(inB(4), safety.Arrival))
	assert.Zero(t, a.At(inB(5), safety.Pass))
}

func TestSubgradient_ConflictFreeIsNonPositive(t *testing.T) {
	tb := headway(t, 2)
	var nodes []timegraph.Node
	for ti := 0; ti < 10; ti++ {
		nodes = append(nodes, inB(ti))
	}
	m := lagrange.NewMultipliers(nodes, tb)

	occ := lagrange.Occupancy{}
	occ.Add(inB(5), safety.Arrival)
	occ.Add(inB(8), safety.Arrival)
	g := lagrange.ComputeSubgradient(m, occ, tb, 10)
	for i, v := range g.Values {
		assert.LessOrEqual(t, v, 0.0, g.Keys[i].String())
	}
	assert.Equal(t, -1.0, g.Values[0])
	assert.Zero(t, g.Violation())
	assert.Empty(t, g.Violated())

	occ.Add(inB(6), safety.Arrival)
	g = lagrange.ComputeSubgradient(m, occ, tb, 10)
	assert.Equal(t, []lagrange.Key{{Node: inB(5), Category: safety.AA}}, g.Violated())
	assert.Equal(t, 1.0, g.Violation())
}
