package network

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/domain/domaintest"
	"github.com/hochfrequenz/critpath/internal/timeline"
)

// chain builds e0 -A-> e1 -B-> e2 by hand.
func chain(t *testing.T) *Network {
	t.Helper()
	n := New()
	e0, e1, e2 := n.AddEvent(), n.AddEvent(), n.AddEvent()
	_, err := n.AddActivity(e0, e1, 1, "A", timeline.Hours(1))
	require.NoError(t, err)
	_, err = n.AddActivity(e1, e2, 2, "B", timeline.Hours(2))
	require.NoError(t, err)
	n.SetStart(e0)
	n.SetEnd(e2)
	return n
}

func TestNetwork_AddDummyDeduplicates(t *testing.T) {
	n := New()
	a, b := n.AddEvent(), n.AddEvent()

	first, added, err := n.AddDummy(a, b)
	require.NoError(t, err)
	assert.True(t, added)

	second, added, err := n.AddDummy(a, b)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, n.NumActivities())

	// reverse direction is a different pair
	_, added, err = n.AddDummy(b, a)
	require.NoError(t, err)
	assert.True(t, added)
}

func TestNetwork_RealArcsAreNeverMerged(t *testing.T) {
	n := New()
	a, b := n.AddEvent(), n.AddEvent()
	x, err := n.AddActivity(a, b, 1, "X", timeline.Hours(1))
	require.NoError(t, err)
	y, err := n.AddActivity(a, b, 2, "Y", timeline.Hours(1))
	require.NoError(t, err)

	assert.NotEqual(t, x, y)
	assert.Len(t, n.Event(a).Out, 2)
	assert.Len(t, n.Event(b).In, 2)
}

func TestNetwork_AddArcErrors(t *testing.T) {
	n := New()
	a := n.AddEvent()

	_, err := n.AddActivity(a, 5, 1, "X", timeline.Hours(1))
	assert.ErrorIs(t, err, ErrInvalidNetwork)

	_, _, err = n.AddDummy(a, a)
	assert.ErrorIs(t, err, ErrCycleInNetwork)
	assert.Zero(t, n.NumActivities())
}

func TestNetwork_EventReturnsCopies(t *testing.T) {
	n := chain(t)
	e := n.Event(1)
	e.In[0] = 99
	assert.Equal(t, ActivityID(0), n.Event(1).In[0])
}

func TestNetwork_Validate(t *testing.T) {
	t.Run("valid chain", func(t *testing.T) {
		assert.NoError(t, chain(t).Validate())
	})

	t.Run("end not set", func(t *testing.T) {
		n := chain(t)
		n.SetEnd(NoEvent)
		assert.ErrorIs(t, n.Validate(), ErrInvalidNetwork)
	})

	t.Run("second source", func(t *testing.T) {
		n := chain(t)
		orphan := n.AddEvent()
		_, err := n.AddActivity(orphan, 2, 3, "C", timeline.Hours(1))
		require.NoError(t, err)
		assert.ErrorIs(t, n.Validate(), ErrInvalidNetwork)
	})

	t.Run("dangling sink", func(t *testing.T) {
		n := chain(t)
		sink := n.AddEvent()
		_, err := n.AddActivity(1, sink, 3, "C", timeline.Hours(1))
		require.NoError(t, err)
		assert.ErrorIs(t, n.Validate(), ErrInvalidNetwork)
	})

	t.Run("cycle", func(t *testing.T) {
		n := chain(t)
		_, err := n.AddActivity(2, 1, 3, "Back", timeline.Hours(1))
		require.NoError(t, err)
		assert.ErrorIs(t, n.Validate(), ErrCycleInNetwork)
	})
}

func TestNetwork_TopologicalOrder(t *testing.T) {
	// A; B and C after A; D after B and C
	p := domaintest.Build(t, "E",
		domaintest.T("A", 1),
		domaintest.T("B", 2, "A"),
		domaintest.T("C", 2, "A"),
		domaintest.T("D", 1, "B", "C"),
	)
	n, err := Build(p.Model, p.Root)
	require.NoError(t, err)

	order, err := n.TopologicalOrder()
	require.NoError(t, err)
	// e0 start, e1..e4 heads of A..D, e5 joins B and C
	assert.Equal(t, []EventID{0, 1, 2, 3, 5, 4}, order.Forward)
	assert.Equal(t, []EventID{4, 5, 3, 2, 1, 0}, order.Reverse)
	assert.Equal(t, n.Start(), order.Forward[0])
	assert.Equal(t, n.End(), order.Reverse[0])

	pos := make(map[EventID]int)
	for i, e := range order.Forward {
		pos[e] = i
	}
	for _, a := range n.Activities() {
		assert.Less(t, pos[a.Tail], pos[a.Head], "arc %d", a.ID)
	}
}

func TestNetwork_TopologicalOrderSingleEvent(t *testing.T) {
	n := New()
	e := n.AddEvent()
	n.SetStart(e)
	n.SetEnd(e)

	order, err := n.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []EventID{e}, order.Forward)
	assert.Equal(t, []EventID{e}, order.Reverse)
}

func TestNetwork_TopologicalOrderCycle(t *testing.T) {
	n := chain(t)
	_, err := n.AddActivity(2, 1, 3, "Back", timeline.Hours(1))
	require.NoError(t, err)

	_, err = n.TopologicalOrder()
	require.ErrorIs(t, err, ErrCycleInNetwork)

	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []EventID{1, 2, 1}, cycle.Events)
	assert.Equal(t, []string{"B", "Back"}, cycle.Tasks)
}

func TestNetwork_DetectCycleOffStart(t *testing.T) {
	n := chain(t)
	x, y := n.AddEvent(), n.AddEvent()
	_, err := n.AddActivity(x, y, 3, "X", timeline.Hours(1))
	require.NoError(t, err)
	_, _, err = n.AddDummy(y, x)
	require.NoError(t, err)

	cycle := n.DetectCycle()
	require.NotNil(t, cycle)
	assert.Equal(t, []EventID{x, y, x}, cycle.Events)
	assert.Equal(t, []string{"X"}, cycle.Tasks)
}

func TestNetwork_Reverse(t *testing.T) {
	n := chain(t)
	_, _, err := n.AddDummy(0, 2)
	require.NoError(t, err)

	r := n.Reverse()
	assert.Equal(t, n.End(), r.Start())
	assert.Equal(t, n.Start(), r.End())
	assert.Equal(t, n.Stats(), r.Stats())
	for _, a := range n.Activities() {
		ra := r.Activity(a.ID)
		assert.Equal(t, a.Tail, ra.Head)
		assert.Equal(t, a.Head, ra.Tail)
		assert.Equal(t, a.Duration, ra.Duration)
		assert.Equal(t, a.Dummy, ra.Dummy)
	}
	assert.NoError(t, r.Validate())

	order, err := r.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []EventID{2, 1, 0}, order.Forward)
}

func TestActivity_DummyHasNoTask(t *testing.T) {
	n := chain(t)
	id, _, err := n.AddDummy(0, 2)
	require.NoError(t, err)
	d := n.Activity(id)
	assert.True(t, d.Dummy)
	assert.Equal(t, domain.NoTask, d.Task)
	assert.True(t, d.Duration.IsZero())
}
