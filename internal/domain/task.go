package domain

import (
	"fmt"

	"github.com/hochfrequenz/critpath/internal/timeline"
)

// TaskID identifies a task inside its Model. IDs are handed out in creation
// order and never reused.
type TaskID int

// NoTask is the zero reference, used by dummy activities.
const NoTask TaskID = -1

// String returns the canonical string representation
func (id TaskID) String() string {
	if id == NoTask {
		return "-"
	}
	return fmt.Sprintf("T%d", int(id))
}

// Task is a snapshot of one task in a Model. Slices are copies; editing them
// does not change the model.
type Task struct {
	ID       TaskID
	Kind     Kind
	Name     string
	Duration timeline.Duration

	// Overall tasks only
	Start    timeline.Time
	Subtasks []TaskID

	// Prerequisites: tasks that must complete before this one starts.
	DependsOn []TaskID
}

// IsOverall reports whether t is the project-level variant
func (t *Task) IsOverall() bool {
	return t.Kind == KindOverall
}

// Requires returns every task t directly needs: sub-tasks for an overall
// task, prerequisites for both variants.
func (t *Task) Requires() []TaskID {
	out := make([]TaskID, 0, len(t.Subtasks)+len(t.DependsOn))
	out = append(out, t.Subtasks...)
	return append(out, t.DependsOn...)
}

func (t *Task) clone() Task {
	c := *t
	c.Subtasks = append([]TaskID(nil), t.Subtasks...)
	c.DependsOn = append([]TaskID(nil), t.DependsOn...)
	return c
}

func containsID(ids []TaskID, id TaskID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func removeID(ids []TaskID, id TaskID) ([]TaskID, bool) {
	for i, x := range ids {
		if x == id {
			return append(ids[:i:i], ids[i+1:]...), true
		}
	}
	return ids, false
}
