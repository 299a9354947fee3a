package cpa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/domain/domaintest"
	"github.com/hochfrequenz/critpath/internal/network"
	"github.com/hochfrequenz/critpath/internal/timeline"
)

func analyze(t *testing.T, p *domaintest.Project) *Result {
	t.Helper()
	r, err := Analyze(p.Model, p.Root)
	require.NoError(t, err)
	return r
}

func names(p *domaintest.Project, ids []domain.TaskID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = p.Model.Name(id)
	}
	return out
}

func timing(t *testing.T, r *Result, p *domaintest.Project, name string) TaskTiming {
	t.Helper()
	tt, ok := r.Timing(p.ID(t, name))
	require.True(t, ok, "no timing for %s", name)
	return tt
}

func diamond(t *testing.T, b, c int) *domaintest.Project {
	return domaintest.Build(t, "Diamond",
		domaintest.T("A", 2),
		domaintest.T("B", b, "A"),
		domaintest.T("C", c, "A"),
		domaintest.T("D", 4, "B", "C"),
	)
}

func TestAnalyze_TrivialChain(t *testing.T) {
	p := domaintest.Build(t, "Chain",
		domaintest.T("A", 3),
		domaintest.T("B", 2, "A"),
		domaintest.T("C", 1, "B"),
	)
	r := analyze(t, p)

	assert.Equal(t, timeline.Hours(6), r.ProjectDuration())
	assert.Equal(t, "6h 00m", r.ProjectDuration().String())
	assert.Equal(t, []string{"A", "B", "C"}, names(p, r.CriticalActivities()))
	assert.Equal(t, []string{"A", "B", "C"}, names(p, r.CriticalPath()))
	for _, tt := range r.Tasks() {
		assert.True(t, tt.Float.IsZero(), tt.Name)
	}
	for _, e := range r.Events() {
		assert.True(t, e.Float.IsZero(), "e%d", e.Event)
	}

	b := timing(t, r, p, "B")
	assert.Equal(t, timeline.MustTime(3, 0), b.EarliestStart)
	assert.Equal(t, timeline.MustTime(5, 0), b.EarliestFinish)
	assert.Equal(t, timeline.MustTime(3, 0), b.LatestStart)
	assert.Equal(t, timeline.MustTime(5, 0), b.LatestFinish)
}

func TestAnalyze_Diamond(t *testing.T) {
	p := diamond(t, 3, 1)
	r := analyze(t, p)

	assert.Equal(t, timeline.Hours(9), r.ProjectDuration())
	assert.Equal(t, []string{"A", "B", "D"}, names(p, r.CriticalActivities()))
	assert.Equal(t, []string{"A", "B", "D"}, names(p, r.CriticalPath()))

	c := timing(t, r, p, "C")
	assert.False(t, c.Critical)
	assert.Equal(t, timeline.Hours(2), c.Float)
	assert.Equal(t, timeline.MustTime(2, 0), c.EarliestStart)
	assert.Equal(t, timeline.MustTime(3, 0), c.EarliestFinish)
	assert.Equal(t, timeline.MustTime(4, 0), c.LatestStart)
	assert.Equal(t, timeline.MustTime(5, 0), c.LatestFinish)

	// the dummy leaving C's head carries C's float
	var dummyFloats []timeline.Duration
	for _, a := range r.Activities() {
		if a.Dummy {
			dummyFloats = append(dummyFloats, a.Float)
		}
	}
	assert.Equal(t, []timeline.Duration{{}, timeline.Hours(2)}, dummyFloats)
}

func TestAnalyze_DiamondEqualBranches(t *testing.T) {
	p := diamond(t, 3, 3)
	r := analyze(t, p)

	assert.Equal(t, timeline.Hours(9), r.ProjectDuration())
	assert.Equal(t, []string{"A", "B", "C", "D"}, names(p, r.CriticalActivities()))
	assert.True(t, timing(t, r, p, "B").Float.IsZero())
	assert.True(t, timing(t, r, p, "C").Float.IsZero())
	// ties go to the arc added first
	assert.Equal(t, []string{"A", "B", "D"}, names(p, r.CriticalPath()))
}

func textbook(t *testing.T) *domaintest.Project {
	return domaintest.Build(t, "Textbook",
		domaintest.T("A", 3),
		domaintest.T("B", 2),
		domaintest.T("C", 3, "A"),
		domaintest.T("D", 2, "A", "B"),
		domaintest.T("E", 1, "B"),
		domaintest.T("F", 3, "C", "D"),
		domaintest.T("G", 2, "D", "E"),
		domaintest.T("K", 4, "E"),
		domaintest.T("H", 1, "F", "G", "K"),
	)
}

func TestAnalyze_Textbook(t *testing.T) {
	p := textbook(t)
	r := analyze(t, p)

	assert.Equal(t, timeline.Hours(10), r.ProjectDuration())
	assert.Equal(t, []string{"A", "C", "F", "H"}, names(p, r.CriticalActivities()))
	assert.Equal(t, []string{"A", "C", "F", "H"}, names(p, r.CriticalPath()))
	assert.Equal(t, network.Stats{Events: 14, Activities: 18, Dummies: 9}, r.Network().Stats())

	floats := map[string]int{"A": 0, "B": 2, "C": 0, "D": 1, "E": 2, "F": 0, "G": 2, "K": 2, "H": 0}
	for name, hours := range floats {
		assert.Equal(t, timeline.Hours(hours), timing(t, r, p, name).Float, name)
	}

	d := timing(t, r, p, "D")
	assert.Equal(t, timeline.MustTime(3, 0), d.EarliestStart)
	assert.Equal(t, timeline.MustTime(4, 0), d.LatestStart)
	assert.Equal(t, timeline.MustTime(6, 0), d.LatestFinish)

	var order []string
	for _, tt := range r.Tasks() {
		order = append(order, tt.Name)
	}
	assert.Equal(t, []string{"A", "B", "C", "E", "D", "K", "F", "G", "H"}, order)
}

func TestAnalyze_TextbookWaves(t *testing.T) {
	p := textbook(t)
	r := analyze(t, p)

	waves := r.Waves()
	require.Len(t, waves, 6)

	var got [][]string
	for _, w := range waves {
		got = append(got, names(p, w.Tasks))
	}
	assert.Equal(t, [][]string{
		{"A", "B"},
		{"E"},
		{"C", "D", "K"},
		{"G"},
		{"F"},
		{"H"},
	}, got)
	assert.Equal(t, timeline.MustTime(3, 0), waves[2].Start)
	assert.True(t, waves[2].Critical)
	assert.False(t, waves[1].Critical)
	assert.Equal(t, 4, timing(t, r, p, "F").Wave)
}

func TestAnalyze_SharedPrerequisite(t *testing.T) {
	p := domaintest.Build(t, "Shared",
		domaintest.T("A", 1),
		domaintest.T("B", 2, "A"),
		domaintest.T("C", 2, "A"),
		domaintest.T("D", 1, "B", "C"),
	)
	r := analyze(t, p)

	assert.Equal(t, timeline.Hours(4), r.ProjectDuration())
	assert.Len(t, r.Network().RealActivities(), 4)
	assert.Equal(t, []string{"A", "B", "C", "D"}, names(p, r.CriticalActivities()))
}

func TestAnalyze_CycleRejectedModelUnchanged(t *testing.T) {
	p := diamond(t, 3, 1)

	err := p.Model.AddDependency(p.ID(t, "C"), p.ID(t, "D"))
	require.ErrorIs(t, err, domain.ErrCycleDetected)

	r := analyze(t, p)
	assert.Equal(t, timeline.Hours(9), r.ProjectDuration())
	assert.Equal(t, timeline.Hours(2), timing(t, r, p, "C").Float)
}

func TestAnalyze_EmptyProject(t *testing.T) {
	p := domaintest.Build(t, "Empty")
	r := analyze(t, p)

	assert.True(t, r.ProjectDuration().IsZero())
	assert.Empty(t, r.CriticalActivities())
	assert.Empty(t, r.CriticalPath())
	assert.Empty(t, r.Tasks())
	assert.Empty(t, r.Waves())

	e, ok := r.EventTiming(r.Network().Start())
	require.True(t, ok)
	assert.Equal(t, EventTiming{}, e)
}

func TestAnalyze_ParallelChains(t *testing.T) {
	p := domaintest.Build(t, "Parallel",
		domaintest.T("A1", 2),
		domaintest.T("A2", 3, "A1"),
		domaintest.T("B1", 1),
		domaintest.T("B2", 1, "B1"),
	)
	r := analyze(t, p)

	assert.Equal(t, timeline.Hours(5), r.ProjectDuration())
	assert.Equal(t, []string{"A1", "A2"}, names(p, r.CriticalActivities()))
	assert.Equal(t, timeline.Hours(3), timing(t, r, p, "B1").Float)
	assert.Equal(t, timeline.Hours(3), timing(t, r, p, "B2").Float)
}

func TestAnalyze_AddedDependencyExtendsProject(t *testing.T) {
	p := domaintest.Build(t, "Grow",
		domaintest.T("A", 3),
		domaintest.T("B", 2),
	)
	before := analyze(t, p).ProjectDuration()
	require.NoError(t, p.Model.AddDependency(p.ID(t, "B"), p.ID(t, "A")))
	after := analyze(t, p).ProjectDuration()

	assert.Equal(t, timeline.Hours(3), before)
	assert.Equal(t, before.Add(timeline.Hours(2)), after)
}

func TestAnalyze_MinutePrecision(t *testing.T) {
	p := domaintest.Build(t, "Minutes",
		domaintest.Spec{Name: "A", Duration: timeline.MustDuration(1, 30)},
		domaintest.Spec{Name: "B", Duration: timeline.Minutes(45), DependsOn: []string{"A"}},
	)
	r := analyze(t, p)
	assert.Equal(t, "2h 15m", r.ProjectDuration().String())
}

func TestAnalyze_PlannedWindow(t *testing.T) {
	p := diamond(t, 3, 1)
	require.NoError(t, p.Model.SetStart(p.Root, timeline.MustTime(9, 0)))
	r := analyze(t, p)

	assert.Equal(t, "Diamond", r.Project())
	assert.Equal(t, timeline.MustTime(9, 0), r.PlannedStart())
	assert.Equal(t, timeline.MustTime(18, 0), r.PlannedFinish())
}

func TestAnalyze_MalformedModel(t *testing.T) {
	_, err := Analyze(nil, 0)
	assert.ErrorIs(t, err, domain.ErrMalformedModel)

	p := diamond(t, 3, 1)
	_, err = Analyze(p.Model, p.ID(t, "A"))
	assert.ErrorIs(t, err, domain.ErrMalformedModel)
}

func TestAnalyzeNetwork_ParallelArcs(t *testing.T) {
	n := network.New()
	a, b := n.AddEvent(), n.AddEvent()
	_, err := n.AddActivity(a, b, 1, "X", timeline.Hours(1))
	require.NoError(t, err)
	_, err = n.AddActivity(a, b, 2, "Y", timeline.Hours(3))
	require.NoError(t, err)
	n.SetStart(a)
	n.SetEnd(b)

	r, err := AnalyzeNetwork(n)
	require.NoError(t, err)
	assert.Equal(t, timeline.Hours(3), r.ProjectDuration())
	assert.Equal(t, []domain.TaskID{2}, r.CriticalActivities())

	// both endpoints are critical but X itself has slack
	x, ok := r.Timing(1)
	require.True(t, ok)
	assert.False(t, x.Critical)
	assert.Equal(t, timeline.Hours(2), x.Float)
	assert.Empty(t, r.Project())
}

func TestAnalyzeNetwork_Errors(t *testing.T) {
	t.Run("cycle", func(t *testing.T) {
		n := network.New()
		a, b, c := n.AddEvent(), n.AddEvent(), n.AddEvent()
		_, err := n.AddActivity(a, b, 1, "X", timeline.Hours(1))
		require.NoError(t, err)
		_, err = n.AddActivity(b, c, 2, "Y", timeline.Hours(1))
		require.NoError(t, err)
		_, _, err = n.AddDummy(c, b)
		require.NoError(t, err)
		n.SetStart(a)
		n.SetEnd(c)

		_, err = AnalyzeNetwork(n)
		assert.ErrorIs(t, err, network.ErrCycleInNetwork)
	})

	t.Run("too long", func(t *testing.T) {
		half, err := timeline.FromMinutes(timeline.MaxMinutes/2 + 1)
		require.NoError(t, err)
		n := network.New()
		a, b, c := n.AddEvent(), n.AddEvent(), n.AddEvent()
		_, err = n.AddActivity(a, b, 1, "X", half)
		require.NoError(t, err)
		_, err = n.AddActivity(b, c, 2, "Y", half)
		require.NoError(t, err)
		n.SetStart(a)
		n.SetEnd(c)

		_, err = AnalyzeNetwork(n)
		assert.ErrorIs(t, err, timeline.ErrOutOfRange)
	})

	t.Run("no end", func(t *testing.T) {
		n := network.New()
		n.SetStart(n.AddEvent())
		_, err := AnalyzeNetwork(n)
		assert.ErrorIs(t, err, network.ErrInvalidNetwork)
	})
}

func TestResult_LookupsMiss(t *testing.T) {
	r := analyze(t, diamond(t, 3, 1))

	_, ok := r.Timing(domain.TaskID(42))
	assert.False(t, ok)
	_, ok = r.EventTiming(network.EventID(-1))
	assert.False(t, ok)
	_, ok = r.EventTiming(network.EventID(99))
	assert.False(t, ok)
}
