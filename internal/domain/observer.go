package domain

import "sort"

// Change is delivered to observers after a successful mutation. Related is
// the other end of a link change (sub-task or prerequisite) and NoTask
// otherwise.
type Change struct {
	Kind    ChangeKind
	Task    TaskID
	Related TaskID
}

// Observer receives model change notifications
type Observer interface {
	ModelChanged(c Change)
}

// ObserverFunc adapts a plain function to Observer
type ObserverFunc func(c Change)

// ModelChanged calls f(c)
func (f ObserverFunc) ModelChanged(c Change) { f(c) }

// Subscribe registers o and returns a function that removes it again.
// Observers are called synchronously, in subscription order.
func (m *Model) Subscribe(o Observer) (unsubscribe func()) {
	if m.observers == nil {
		m.observers = make(map[int]Observer)
	}
	id := m.nextObs
	m.nextObs++
	m.observers[id] = o
	return func() { delete(m.observers, id) }
}

func (m *Model) notify(c Change) {
	if len(m.observers) == 0 {
		return
	}
	ids := make([]int, 0, len(m.observers))
	for id := range m.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		m.observers[id].ModelChanged(c)
	}
}
