// Package network holds the activity-on-arc representation of a project:
// events are nodes, activities are arcs carrying durations. Events refer to
// their arcs by index into the network's activity table, so the network owns
// everything and nothing points back into it.
package network

import (
	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/timeline"
)

// Network is a directed graph of events and activities with one start and
// one end event. Use Build to derive one from a task model, or the Add*
// methods to assemble one by hand.
type Network struct {
	events     []Event
	activities []Activity
	start      EventID
	end        EventID

	dummies map[[2]EventID]ActivityID
}

// New creates an empty network
func New() *Network {
	return &Network{
		start:   NoEvent,
		end:     NoEvent,
		dummies: make(map[[2]EventID]ActivityID),
	}
}

// AddEvent appends a new event
func (n *Network) AddEvent() EventID {
	id := EventID(len(n.events))
	n.events = append(n.events, Event{ID: id})
	return id
}

// AddActivity appends a real activity for task from tail to head. Real
// activities are never merged, even when they share both endpoints.
func (n *Network) AddActivity(tail, head EventID, task domain.TaskID, name string, d timeline.Duration) (ActivityID, error) {
	if err := n.checkArc(tail, head); err != nil {
		return -1, err
	}
	return n.link(Activity{Tail: tail, Head: head, Task: task, Name: name, Duration: d}), nil
}

// AddDummy links tail to head with a zero-duration precedence arc. A second
// dummy between the same pair is suppressed: the existing id is returned
// with added == false.
func (n *Network) AddDummy(tail, head EventID) (id ActivityID, added bool, err error) {
	if err := n.checkArc(tail, head); err != nil {
		return -1, false, err
	}
	key := [2]EventID{tail, head}
	if existing, ok := n.dummies[key]; ok {
		return existing, false, nil
	}
	id = n.link(Activity{Tail: tail, Head: head, Task: domain.NoTask, Dummy: true})
	n.dummies[key] = id
	return id, true, nil
}

func (n *Network) link(a Activity) ActivityID {
	a.ID = ActivityID(len(n.activities))
	n.activities = append(n.activities, a)
	n.events[a.Tail].Out = append(n.events[a.Tail].Out, a.ID)
	n.events[a.Head].In = append(n.events[a.Head].In, a.ID)
	return a.ID
}

func (n *Network) checkArc(tail, head EventID) error {
	if !n.hasEvent(tail) || !n.hasEvent(head) {
		return invalid("arc e%d -> e%d references an unknown event", tail, head)
	}
	if tail == head {
		return &CycleError{Events: []EventID{tail, head}}
	}
	return nil
}

func (n *Network) hasEvent(id EventID) bool {
	return id >= 0 && int(id) < len(n.events)
}

// SetStart marks the start event
func (n *Network) SetStart(id EventID) { n.start = id }

// SetEnd marks the end event
func (n *Network) SetEnd(id EventID) { n.end = id }

// Start returns the start event
func (n *Network) Start() EventID { return n.start }

// End returns the end event
func (n *Network) End() EventID { return n.end }

// NumEvents returns the number of events
func (n *Network) NumEvents() int { return len(n.events) }

// NumActivities returns the number of activities, dummies included
func (n *Network) NumActivities() int { return len(n.activities) }

// Event returns the event with the given id. It panics on an unknown id, like
// a slice index would.
func (n *Network) Event(id EventID) Event {
	e := n.events[id]
	e.In = append([]ActivityID(nil), e.In...)
	e.Out = append([]ActivityID(nil), e.Out...)
	return e
}

// Activity returns the activity with the given id
func (n *Network) Activity(id ActivityID) Activity { return n.activities[id] }

// Activities returns all activities in insertion order
func (n *Network) Activities() []Activity {
	return append([]Activity(nil), n.activities...)
}

// RealActivities returns the non-dummy activities in insertion order
func (n *Network) RealActivities() []Activity {
	var out []Activity
	for _, a := range n.activities {
		if !a.Dummy {
			out = append(out, a)
		}
	}
	return out
}

// Dummies returns the dummy activities in insertion order
func (n *Network) Dummies() []Activity {
	var out []Activity
	for _, a := range n.activities {
		if a.Dummy {
			out = append(out, a)
		}
	}
	return out
}

// Stats returns event and activity counts
func (n *Network) Stats() Stats {
	return Stats{
		Events:     len(n.events),
		Activities: len(n.activities),
		Dummies:    len(n.dummies),
	}
}

// Reverse returns the transposed network: every arc flipped, start and end
// swapped. Event and activity ids are preserved.
func (n *Network) Reverse() *Network {
	r := New()
	for range n.events {
		r.AddEvent()
	}
	for _, a := range n.activities {
		a.Tail, a.Head = a.Head, a.Tail
		id := r.link(a)
		if a.Dummy {
			r.dummies[[2]EventID{a.Tail, a.Head}] = id
		}
	}
	r.start, r.end = n.end, n.start
	return r
}
