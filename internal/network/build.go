package network

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hochfrequenz/critpath/internal/domain"
)

// Build converts the sub-task graph under root into an activity-on-arc
// network.
//
// Every sub-task becomes exactly one real activity ending in its own head
// event. A sub-task without prerequisites starts at the start event; one with
// a single prerequisite starts at that prerequisite's head event; one with
// several starts at a synthesis event fed by a dummy from each prerequisite's
// head. Sub-tasks with identical prerequisite sets share the synthesis event.
// When exactly one sub-task has no dependents its head is the end event,
// otherwise a dedicated end event collects them through dummies.
//
// An overall task without sub-tasks yields a single event that is both start
// and end. The model is only read.
func Build(m *domain.Model, root domain.TaskID) (*Network, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", domain.ErrMalformedModel)
	}
	if err := m.Validate(root); err != nil {
		return nil, err
	}
	closure, err := m.Closure(root)
	if err != nil {
		return nil, err
	}

	n := New()
	start := n.AddEvent()
	n.SetStart(start)
	if len(closure) == 0 {
		n.SetEnd(start)
		return n, nil
	}

	tasks := make(map[domain.TaskID]domain.Task, len(closure))
	head := make(map[domain.TaskID]EventID, len(closure))
	dependents := make(map[domain.TaskID]int, len(closure))
	for _, id := range closure {
		t, _ := m.Get(id) // closure ids are valid
		tasks[id] = t
		head[id] = n.AddEvent()
		for _, p := range t.DependsOn {
			dependents[p]++
		}
	}

	synthesis := make(map[string]EventID)
	for _, id := range closure {
		t := tasks[id]

		var tail EventID
		switch len(t.DependsOn) {
		case 0:
			tail = start
		case 1:
			tail = head[t.DependsOn[0]]
		default:
			key := prerequisiteKey(t.DependsOn)
			s, ok := synthesis[key]
			if !ok {
				s = n.AddEvent()
				for _, p := range t.DependsOn {
					if _, _, err := n.AddDummy(head[p], s); err != nil {
						return nil, err
					}
				}
				synthesis[key] = s
			}
			tail = s
		}

		if _, err := n.AddActivity(tail, head[id], id, t.Name, t.Duration); err != nil {
			return nil, err
		}
	}

	var terminals []domain.TaskID
	for _, id := range closure {
		if dependents[id] == 0 {
			terminals = append(terminals, id)
		}
	}
	if len(terminals) == 1 {
		n.SetEnd(head[terminals[0]])
	} else {
		end := n.AddEvent()
		for _, id := range terminals {
			if _, _, err := n.AddDummy(head[id], end); err != nil {
				return nil, err
			}
		}
		n.SetEnd(end)
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

func prerequisiteKey(ids []domain.TaskID) string {
	sorted := append([]domain.TaskID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}
