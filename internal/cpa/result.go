package cpa

import (
	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/network"
	"github.com/hochfrequenz/critpath/internal/timeline"
)

// Result is a completed analysis. It is read-only and owns the network it
// was computed from.
type Result struct {
	net      *network.Network
	order    network.Order
	project  string
	origin   timeline.Time
	duration timeline.Duration

	events     []EventTiming
	activities []ActivityTiming
	tasks      []TaskTiming // topological order
	byTask     map[domain.TaskID]int
	waves      []Wave
}

// Project returns the name of the analyzed overall task, or "" when the
// network was analyzed directly.
func (r *Result) Project() string { return r.project }

// Network returns the analyzed network.
func (r *Result) Network() *network.Network { return r.net }

// Order returns the topological order the passes ran in.
func (r *Result) Order() network.Order { return r.order }

// ProjectDuration is the earliest time of the end event.
func (r *Result) ProjectDuration() timeline.Duration { return r.duration }

// PlannedStart is the overall task's start time.
func (r *Result) PlannedStart() timeline.Time { return r.origin }

// PlannedFinish is the planned start moved forward by the project duration.
func (r *Result) PlannedFinish() timeline.Time { return r.origin.Add(r.duration) }

// Timing returns the schedule of a task.
func (r *Result) Timing(task domain.TaskID) (TaskTiming, bool) {
	i, ok := r.byTask[task]
	if !ok {
		return TaskTiming{}, false
	}
	return r.tasks[i], true
}

// Tasks returns the schedule of every task in topological order.
func (r *Result) Tasks() []TaskTiming {
	return append([]TaskTiming(nil), r.tasks...)
}

// CriticalActivities returns the critical tasks in topological order.
func (r *Result) CriticalActivities() []domain.TaskID {
	var out []domain.TaskID
	for _, t := range r.tasks {
		if t.Critical {
			out = append(out, t.Task)
		}
	}
	return out
}

// CriticalPath walks one chain of critical arcs from the start event to the
// end event, taking the first critical outgoing arc in insertion order at
// each event, and returns the tasks along it. Dummies are skipped.
func (r *Result) CriticalPath() []domain.TaskID {
	var path []domain.TaskID
	cur := r.net.Start()
	for cur != r.net.End() {
		next := network.NoEvent
		for _, aid := range r.net.Event(cur).Out {
			a := r.activities[aid]
			if !a.Critical {
				continue
			}
			if !a.Dummy {
				path = append(path, a.Task)
			}
			next = a.Head
			break
		}
		if next == network.NoEvent {
			// every critical non-end event has a critical successor
			break
		}
		cur = next
	}
	return path
}

// EventTiming returns the timing of an event.
func (r *Result) EventTiming(id network.EventID) (EventTiming, bool) {
	if id < 0 || int(id) >= len(r.events) {
		return EventTiming{}, false
	}
	return r.events[id], true
}

// Events returns the timing of every event in topological order.
func (r *Result) Events() []EventTiming {
	out := make([]EventTiming, 0, len(r.events))
	for _, id := range r.order.Forward {
		out = append(out, r.events[id])
	}
	return out
}

// Activities returns the timing of every arc, dummies included, in
// insertion order.
func (r *Result) Activities() []ActivityTiming {
	return append([]ActivityTiming(nil), r.activities...)
}

// Waves returns the tasks grouped by earliest start.
func (r *Result) Waves() []Wave {
	out := make([]Wave, len(r.waves))
	for i, w := range r.waves {
		w.Tasks = append([]domain.TaskID(nil), w.Tasks...)
		out[i] = w
	}
	return out
}
