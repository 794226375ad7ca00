// SPDX-License-Identifier: MIT

package primal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/railopt/fleet"
	"github.com/katalvlaran/railopt/primal"
	"github.com/katalvlaran/railopt/timegraph"
)

// Three trains, two stations, one headway category (aa at B, interval 2).
// T1 and T2 both want to arrive at B at minute 5; T3 arrives at 12.
func TestRestore_Seq_TwoFeasibleOneInfeasible(t *testing.T) {
	f := buildFleet(t, twoStations(),
		plan{"T1", 1, 1, 0},
		plan{"T2", 2, 2, 0},
		plan{"T3", 1, 8, 0},
	)
	r, err := primal.New(arrivalHeadway(t, 2))
	require.NoError(t, err)

	for run := 0; run < 3; run++ {
		s, err := r.Restore(context.Background(), f, relaxedOf(t, f))
		require.NoError(t, err)
		assert.Equal(t, 2, s.FeasibleCount)
		assert.Equal(t, []string{"T2"}, s.Infeasible)
		// T1 and T3 run 4 minutes each, T2 pays its penalty of 3×1.
		assert.Equal(t, 11.0, s.Cost)
		assert.Equal(t, 5, arrival(s.Trains["T1"].Path))
		assert.Equal(t, 12, arrival(s.Trains["T3"].Path))
		assert.Empty(t, primal.Conflicts(f, s, arrivalHeadway(t, 2), nil))
	}
}

func TestRestore_Seq_ReschedulesInsideWindow(t *testing.T) {
	f := buildFleet(t, twoStations(),
		plan{"T1", 1, 1, 0},
		plan{"T2", 2, 2, 2},
	)
	tb := arrivalHeadway(t, 2)
	r, err := primal.New(tb)
	require.NoError(t, err)

	s, err := r.Restore(context.Background(), f, relaxedOf(t, f))
	require.NoError(t, err)
	require.Equal(t, 2, s.FeasibleCount)

	// T2 is cheaper, so T1 goes first and keeps B at 5. Arrivals at 4 and 6
	// sit inside the headway window, so T2 moves ahead: it leaves at 0 and
	// arrives at 3 (leaving at 4 for 7 costs the same; ties take the
	// earlier node).
	assert.Equal(t, 5, arrival(s.Trains["T1"].Path))
	assert.Equal(t, 3, arrival(s.Trains["T2"].Path))
	assert.Equal(t, 5.0, s.Trains["T2"].Cost)
	assert.Empty(t, primal.Conflicts(f, s, tb, nil))
}

func TestRestore_Seq_IdempotentOnConflictFreeInput(t *testing.T) {
	// base-optimal arrivals at 5, 8 and 13 are already two minutes apart
	f := buildFleet(t, twoStations(),
		plan{"T1", 1, 1, 2},
		plan{"T2", 2, 5, 2},
		plan{"T3", 1, 9, 3},
	)
	tb := arrivalHeadway(t, 2)
	r, err := primal.New(tb)
	require.NoError(t, err)

	relaxed := relaxedOf(t, f)
	first, err := r.Restore(context.Background(), f, relaxed)
	require.NoError(t, err)
	require.Empty(t, primal.Conflicts(f, first, tb, nil))
	require.Empty(t, first.Infeasible)
	for id, rel := range relaxed {
		assert.True(t, rel.Path.Equal(first.Trains[id].Path), id)
	}

	second, err := r.Restore(context.Background(), f, asRelaxed(first))
	require.NoError(t, err)
	assert.Empty(t, second.Infeasible)
	for id, o := range first.Trains {
		assert.True(t, o.Path.Equal(second.Trains[id].Path), id)
	}
	assert.Equal(t, first.Cost, second.Cost)
}

func TestRestore_Seq_KeepRelaxedIsFixedPoint(t *testing.T) {
	// T2 gets rescheduled off its optimum; with KeepRelaxed the rescheduled
	// paths survive a second pass unchanged.
	f := buildFleet(t, twoStations(),
		plan{"T1", 1, 1, 2},
		plan{"T2", 2, 2, 2},
		plan{"T3", 1, 3, 3},
	)
	tb := arrivalHeadway(t, 2)
	r, err := primal.New(tb, primal.WithKeepRelaxed(true))
	require.NoError(t, err)

	first, err := r.Restore(context.Background(), f, relaxedOf(t, f))
	require.NoError(t, err)
	require.Empty(t, primal.Conflicts(f, first, tb, nil))
	require.Empty(t, first.Infeasible)

	second, err := r.Restore(context.Background(), f, asRelaxed(first))
	require.NoError(t, err)
	assert.Empty(t, second.Infeasible)
	for id, o := range first.Trains {
		assert.True(t, o.Path.Equal(second.Trains[id].Path), id)
	}
	assert.Equal(t, first.Cost, second.Cost)
}

func TestRestore_Seq_ResolvesPricedPathByDefault(t *testing.T) {
	// The relaxed path leaves at 8 (priced there by multipliers); the base
	// optimum leaves at the preferred minute 5.
	f := buildFleet(t, twoStations(), plan{"T1", 1, 5, 3})
	g := f[0].Graph
	late := timegraph.Path{
		g.Source(),
		{V: timegraph.Out("A"), T: 8},
		{V: timegraph.In("B"), T: 12},
		g.Sink(),
	}
	lateCost, err := g.PathCost(late)
	require.NoError(t, err)
	require.Equal(t, 7.0, lateCost)
	relaxed := map[string]primal.Relaxed{"T1": {Path: late, Cost: lateCost, Feasible: true}}

	r, err := primal.New(arrivalHeadway(t, 2))
	require.NoError(t, err)
	s, err := r.Restore(context.Background(), f, relaxed)
	require.NoError(t, err)
	assert.Equal(t, 4.0, s.Cost)
	assert.Equal(t, 5, s.Trains["T1"].Path.Times()[timegraph.Out("A")])

	keep, err := primal.New(arrivalHeadway(t, 2), primal.WithKeepRelaxed(true))
	require.NoError(t, err)
	s, err = keep.Restore(context.Background(), f, relaxed)
	require.NoError(t, err)
	assert.Equal(t, 7.0, s.Cost)
	assert.True(t, late.Equal(s.Trains["T1"].Path))
}

func TestRestore_Seq_OvertakingBlocked(t *testing.T) {
	// T1 (slow) runs 1→5. T2 (fast) can only run 2→4, which starts later
	// and ends earlier: a type 1 incompatible arc.
	c := twoStations()
	c.RunTimes[2][timegraph.Section{From: "A", To: "B"}] = 2
	f := buildFleet(t, c,
		plan{"T1", 1, 1, 0},
		plan{"T2", 2, 2, 0},
	)
	r, err := primal.New(arrivalHeadway(t, 0))
	require.NoError(t, err)

	s, err := r.Restore(context.Background(), f, relaxedOf(t, f))
	require.NoError(t, err)
	// T2 (2→4) would overtake T1 (1→5) inside the section.
	assert.Equal(t, []string{"T2"}, s.Infeasible)

	// reusing the relaxed path gives the same verdict
	r, err = primal.New(arrivalHeadway(t, 0), primal.WithKeepRelaxed(true))
	require.NoError(t, err)
	s, err = r.Restore(context.Background(), f, relaxedOf(t, f))
	require.NoError(t, err)
	assert.Equal(t, []string{"T2"}, s.Infeasible)
}

func TestRestore_Seq_HeadOnOnSingleTrack(t *testing.T) {
	c := twoStations()
	c.SingleTrack = map[timegraph.Section]bool{{From: "A", To: "B"}: true}

	// D1 (4 minutes) is costlier than U1 (3 minutes) and is placed first.
	down, err := fleet.NewTrain("D1", c, timegraph.Route{Stations: []string{"A", "B"}, Speed: 1}, horizon)
	require.NoError(t, err)
	up, err := fleet.NewTrain("U1", c, timegraph.Route{
		Stations: []string{"B", "A"}, Speed: 2, PreferredDeparture: 2, Window: 4,
	}, horizon)
	require.NoError(t, err)
	f := fleet.Fleet{down, up}

	r, err := primal.New(arrivalHeadway(t, 0), primal.WithCorridor(c))
	require.NoError(t, err)
	s, err := r.Restore(context.Background(), f, relaxedOf(t, f))
	require.NoError(t, err)
	require.Equal(t, 2, s.FeasibleCount)

	// D1 occupies the section during [0,4]; U1 must leave B after 4.
	dep := s.Trains["U1"].Path.Times()[timegraph.Out("B")]
	assert.Greater(t, dep, 4)
	assert.Empty(t, primal.Conflicts(f, s, arrivalHeadway(t, 0), c))
}

func TestSchedule_Better(t *testing.T) {
	a := &primal.Schedule{FeasibleCount: 2, Cost: 100}
	b := &primal.Schedule{FeasibleCount: 1, Cost: 1}
	c := &primal.Schedule{FeasibleCount: 2, Cost: 50}
	assert.True(t, a.Better(b))
	assert.True(t, c.Better(a))
	assert.False(t, a.Better(a))
	assert.True(t, b.Better(nil))
}

func TestNew_Validation(t *testing.T) {
	_, err := primal.New(nil)
	require.ErrorIs(t, err, primal.ErrNilTable)

	_, err = primal.New(arrivalHeadway(t, 1), primal.WithMode(primal.JSP), primal.WithScheduler(nil))
	require.ErrorIs(t, err, primal.ErrNoScheduler)

	require.Panics(t, func() { primal.WithLookWindow(-1, 0)(&primal.Options{}) })
	require.Panics(t, func() { primal.WithMode("greedy")(&primal.Options{}) })

	m, err := primal.ParseMode("jsp")
	require.NoError(t, err)
	assert.Equal(t, primal.JSP, m)
	_, err = primal.ParseMode("x")
	require.ErrorIs(t, err, primal.ErrUnknownMode)
}
