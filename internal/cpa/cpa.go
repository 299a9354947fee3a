// Package cpa runs the critical path analysis over an activity-on-arc
// network: a forward pass for earliest event times, a backward pass for
// latest event times, and float per event and per activity.
package cpa

import (
	"fmt"
	"sort"

	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/network"
	"github.com/hochfrequenz/critpath/internal/timeline"
)

// Analyze builds the network for the overall task root and analyzes it.
// Planned start and finish are anchored at the overall task's start time.
func Analyze(m *domain.Model, root domain.TaskID) (*Result, error) {
	n, err := network.Build(m, root)
	if err != nil {
		return nil, err
	}
	r, err := AnalyzeNetwork(n)
	if err != nil {
		return nil, err
	}
	overall, _ := m.Get(root) // Build validated root
	r.project = overall.Name
	r.origin = overall.Start
	return r, nil
}

// AnalyzeNetwork analyzes a network that was built or assembled by hand.
// The network is validated first; once it is valid and sorted the analysis
// cannot fail.
func AnalyzeNetwork(n *network.Network) (*Result, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if err := checkTotalWork(n); err != nil {
		return nil, err
	}
	order, err := n.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	r := &Result{
		net:    n,
		order:  order,
		byTask: make(map[domain.TaskID]int),
	}

	earliest := forwardPass(n, order)
	r.duration = earliest[n.End()].Since()
	latest, err := backwardPass(n, order, earliest[n.End()])
	if err != nil {
		return nil, err
	}

	r.events = make([]EventTiming, n.NumEvents())
	for id := range r.events {
		float, err := latest[id].Diff(earliest[id])
		if err != nil {
			return nil, fmt.Errorf("event e%d: %w", id, err)
		}
		r.events[id] = EventTiming{
			Event:    network.EventID(id),
			Earliest: earliest[id],
			Latest:   latest[id],
			Float:    float,
		}
	}

	r.activities = make([]ActivityTiming, 0, n.NumActivities())
	for _, a := range n.Activities() {
		timing, err := r.activityTiming(a)
		if err != nil {
			return nil, err
		}
		r.activities = append(r.activities, ActivityTiming{Activity: a, Timing: timing})
	}

	r.tasks = r.tasksInOrder()
	for i, t := range r.tasks {
		r.byTask[t.Task] = i
	}
	r.waves = computeWaves(r.tasks)
	return r, nil
}

// checkTotalWork bounds every path length by the summed durations of all
// arcs, so neither pass can overflow.
func checkTotalWork(n *network.Network) error {
	ds := make([]timeline.Duration, 0, n.NumActivities())
	for _, a := range n.Activities() {
		ds = append(ds, a.Duration)
	}
	if _, err := timeline.Sum(ds...); err != nil {
		return fmt.Errorf("project too long: %w", err)
	}
	return nil
}

// forwardPass computes earliest(v) = max over incoming arcs of
// earliest(u) + d. The start event stays at the origin.
func forwardPass(n *network.Network, order network.Order) []timeline.Time {
	earliest := make([]timeline.Time, n.NumEvents())
	for _, v := range order.Forward {
		for _, aid := range n.Event(v).In {
			a := n.Activity(aid)
			earliest[v] = timeline.MaxTime(earliest[v], earliest[a.Tail].Add(a.Duration))
		}
	}
	return earliest
}

// backwardPass computes latest(u) = min over outgoing arcs of latest(v) - d,
// with latest(end) = finish.
func backwardPass(n *network.Network, order network.Order, finish timeline.Time) ([]timeline.Time, error) {
	latest := make([]timeline.Time, n.NumEvents())
	for _, u := range order.Reverse {
		out := n.Event(u).Out
		if len(out) == 0 {
			latest[u] = finish
			continue
		}
		for i, aid := range out {
			a := n.Activity(aid)
			t, err := latest[a.Head].Sub(a.Duration)
			if err != nil {
				return nil, fmt.Errorf("backward pass at e%d: %w", u, err)
			}
			if i == 0 || t.Before(latest[u]) {
				latest[u] = t
			}
		}
	}
	return latest, nil
}

// activityTiming derives the window of arc u -> v:
// float = latest(v) - earliest(u) - d. The arc is critical when its float
// and the float of both endpoints are zero.
func (r *Result) activityTiming(a network.Activity) (Timing, error) {
	tail, head := r.events[a.Tail], r.events[a.Head]
	window, err := head.Latest.Diff(tail.Earliest)
	if err != nil {
		return Timing{}, fmt.Errorf("activity %d: %w", a.ID, err)
	}
	float, err := window.Sub(a.Duration)
	if err != nil {
		return Timing{}, fmt.Errorf("activity %d: %w", a.ID, err)
	}
	latestStart, err := head.Latest.Sub(a.Duration)
	if err != nil {
		return Timing{}, fmt.Errorf("activity %d: %w", a.ID, err)
	}
	return Timing{
		EarliestStart:  tail.Earliest,
		EarliestFinish: tail.Earliest.Add(a.Duration),
		LatestStart:    latestStart,
		LatestFinish:   head.Latest,
		Float:          float,
		Critical:       float.IsZero() && tail.Float.IsZero() && head.Float.IsZero(),
	}, nil
}

// tasksInOrder returns the real activities ordered by the topological
// position of their tail event, ties broken by insertion order.
func (r *Result) tasksInOrder() []TaskTiming {
	pos := make([]int, len(r.events))
	for i, e := range r.order.Forward {
		pos[e] = i
	}

	var real []ActivityTiming
	for _, a := range r.activities {
		if !a.Dummy {
			real = append(real, a)
		}
	}
	sort.SliceStable(real, func(i, j int) bool {
		return pos[real[i].Tail] < pos[real[j].Tail]
	})

	tasks := make([]TaskTiming, len(real))
	for i, a := range real {
		tasks[i] = TaskTiming{
			Task:     a.Task,
			Name:     a.Name,
			Duration: a.Duration,
			Timing:   a.Timing,
		}
	}
	return tasks
}
