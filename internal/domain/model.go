package domain

import (
	"sort"

	"github.com/hochfrequenz/critpath/internal/timeline"
)

// Model owns every task of one or more projects. Tasks reference each other
// by TaskID, so a sub-task shared by several dependents is a single instance.
//
// A Model is not safe for concurrent mutation.
type Model struct {
	tasks     []*Task
	observers map[int]Observer
	nextObs   int
}

// NewModel creates an empty Model
func NewModel() *Model {
	return &Model{observers: make(map[int]Observer)}
}

// Len returns the number of tasks in the model
func (m *Model) Len() int {
	return len(m.tasks)
}

// Get returns a snapshot of the task with the given id
func (m *Model) Get(id TaskID) (Task, bool) {
	t, err := m.lookup(id)
	if err != nil {
		return Task{}, false
	}
	return t.clone(), true
}

// Name returns the name of a task, or "" for an unknown id
func (m *Model) Name(id TaskID) string {
	t, err := m.lookup(id)
	if err != nil {
		return ""
	}
	return t.Name
}

// OverallTasks returns the ids of all overall tasks in creation order
func (m *Model) OverallTasks() []TaskID {
	var out []TaskID
	for _, t := range m.tasks {
		if t.Kind == KindOverall {
			out = append(out, t.ID)
		}
	}
	return out
}

// AddOverallTask creates a project-level task
func (m *Model) AddOverallTask(name string, start timeline.Time, duration timeline.Duration) (TaskID, error) {
	return m.add(KindOverall, name, start, duration)
}

// NewSubTask creates a sub-task that is not yet attached to anything
func (m *Model) NewSubTask(name string, duration timeline.Duration) (TaskID, error) {
	return m.add(KindSub, name, timeline.Zero, duration)
}

func (m *Model) add(kind Kind, name string, start timeline.Time, duration timeline.Duration) (TaskID, error) {
	if name == "" {
		return NoTask, malformed("task name is empty")
	}
	id := TaskID(len(m.tasks))
	m.tasks = append(m.tasks, &Task{
		ID:       id,
		Kind:     kind,
		Name:     name,
		Duration: duration,
		Start:    start,
	})
	m.notify(Change{Kind: ChangeTaskAdded, Task: id, Related: NoTask})
	return id, nil
}

// AddSubTask adds child to parent's direct sub-tasks. parent must be an
// overall task and child a sub-task. Adding an existing sub-task again is a
// no-op. The model is unchanged when an error is returned.
func (m *Model) AddSubTask(parent, child TaskID) error {
	p, err := m.lookup(parent)
	if err != nil {
		return err
	}
	c, err := m.lookup(child)
	if err != nil {
		return err
	}
	if p.Kind != KindOverall {
		return malformed("%q is not an overall task", p.Name)
	}
	if c.Kind != KindSub {
		return malformed("%q is not a sub-task", c.Name)
	}
	if containsID(p.Subtasks, child) {
		return nil
	}
	if path := m.cyclePath(parent, child, (*Task).Requires); path != nil {
		return &CycleError{Path: path}
	}

	p.Subtasks = append(p.Subtasks, child)
	m.notify(Change{Kind: ChangeSubTaskAdded, Task: parent, Related: child})
	return nil
}

// RemoveSubTask detaches child from parent's direct sub-tasks
func (m *Model) RemoveSubTask(parent, child TaskID) error {
	p, err := m.lookup(parent)
	if err != nil {
		return err
	}
	if _, err := m.lookup(child); err != nil {
		return err
	}
	var ok bool
	if p.Subtasks, ok = removeID(p.Subtasks, child); !ok {
		return &LookupError{Name: m.Name(child)}
	}
	m.notify(Change{Kind: ChangeSubTaskRemoved, Task: parent, Related: child})
	return nil
}

// AddDependency records that subtask cannot start before prerequisite has
// completed. It fails with a *CycleError (ErrCycleDetected) when prerequisite
// already depends on subtask, directly or transitively; the model is then
// unchanged. Adding an existing dependency again is a no-op.
func (m *Model) AddDependency(subtask, prerequisite TaskID) error {
	s, err := m.lookup(subtask)
	if err != nil {
		return err
	}
	p, err := m.lookup(prerequisite)
	if err != nil {
		return err
	}
	if p.Kind != KindSub {
		return malformed("%q cannot be a prerequisite: not a sub-task", p.Name)
	}
	if containsID(s.DependsOn, prerequisite) {
		return nil
	}
	if path := m.cyclePath(subtask, prerequisite, func(t *Task) []TaskID { return t.DependsOn }); path != nil {
		return &CycleError{Path: path}
	}

	s.DependsOn = append(s.DependsOn, prerequisite)
	m.notify(Change{Kind: ChangeDependencyAdded, Task: subtask, Related: prerequisite})
	return nil
}

// RemoveDependency drops prerequisite from subtask's prerequisites
func (m *Model) RemoveDependency(subtask, prerequisite TaskID) error {
	s, err := m.lookup(subtask)
	if err != nil {
		return err
	}
	if _, err := m.lookup(prerequisite); err != nil {
		return err
	}
	var ok bool
	if s.DependsOn, ok = removeID(s.DependsOn, prerequisite); !ok {
		return &LookupError{Name: m.Name(prerequisite)}
	}
	m.notify(Change{Kind: ChangeDependencyRemoved, Task: subtask, Related: prerequisite})
	return nil
}

// Rename changes a task's name
func (m *Model) Rename(id TaskID, name string) error {
	t, err := m.lookup(id)
	if err != nil {
		return err
	}
	if name == "" {
		return malformed("task name is empty")
	}
	t.Name = name
	m.notify(Change{Kind: ChangeTaskUpdated, Task: id, Related: NoTask})
	return nil
}

// SetDuration changes a task's duration
func (m *Model) SetDuration(id TaskID, d timeline.Duration) error {
	t, err := m.lookup(id)
	if err != nil {
		return err
	}
	t.Duration = d
	m.notify(Change{Kind: ChangeTaskUpdated, Task: id, Related: NoTask})
	return nil
}

// SetStart changes an overall task's planned start
func (m *Model) SetStart(id TaskID, start timeline.Time) error {
	t, err := m.lookup(id)
	if err != nil {
		return err
	}
	if t.Kind != KindOverall {
		return malformed("%q has no start time: not an overall task", t.Name)
	}
	t.Start = start
	m.notify(Change{Kind: ChangeTaskUpdated, Task: id, Related: NoTask})
	return nil
}

// Closure returns every sub-task reachable from root through sub-task and
// prerequisite links, each exactly once, ordered by id.
func (m *Model) Closure(root TaskID) ([]TaskID, error) {
	r, err := m.lookup(root)
	if err != nil {
		return nil, err
	}

	seen := map[TaskID]bool{root: true}
	stack := r.Requires()
	var out []TaskID
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		t, err := m.lookup(id)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
		stack = append(stack, t.Requires()...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Dependents returns the tasks in root's closure that list id as a
// prerequisite, ordered by id.
func (m *Model) Dependents(root, id TaskID) ([]TaskID, error) {
	closure, err := m.Closure(root)
	if err != nil {
		return nil, err
	}
	var out []TaskID
	for _, c := range closure {
		if containsID(m.tasks[c].DependsOn, id) {
			out = append(out, c)
		}
	}
	return out, nil
}

// FindByName returns the unique sub-task reachable from root with the given
// name. It fails with a *LookupError wrapping ErrNotFound or ErrAmbiguous.
func (m *Model) FindByName(root TaskID, name string) (TaskID, error) {
	closure, err := m.Closure(root)
	if err != nil {
		return NoTask, err
	}
	found := NoTask
	matches := 0
	for _, id := range closure {
		if m.tasks[id].Name == name {
			found = id
			matches++
		}
	}
	if matches != 1 {
		return NoTask, &LookupError{Name: name, Matches: matches}
	}
	return found, nil
}

// Validate checks that root is an overall task whose closure is well formed
func (m *Model) Validate(root TaskID) error {
	r, err := m.lookup(root)
	if err != nil {
		return err
	}
	if r.Kind != KindOverall {
		return malformed("%q is not an overall task", r.Name)
	}
	closure, err := m.Closure(root)
	if err != nil {
		return err
	}
	for _, id := range closure {
		t := m.tasks[id]
		if t.Kind != KindSub {
			return malformed("%q is reachable from %q but is not a sub-task", t.Name, r.Name)
		}
		if t.Name == "" {
			return malformed("task %s has an empty name", id)
		}
	}
	return nil
}

func (m *Model) lookup(id TaskID) (*Task, error) {
	if id < 0 || int(id) >= len(m.tasks) {
		return nil, malformed("unknown task %s", id)
	}
	return m.tasks[id], nil
}

// cyclePath returns the task names of the cycle that adding the edge
// from -> to would close, or nil when the edge is safe.
func (m *Model) cyclePath(from, to TaskID, next func(*Task) []TaskID) []string {
	if from == to {
		return []string{m.tasks[from].Name, m.tasks[from].Name}
	}

	// BFS from `to` looking for `from`, tracking parents for the path.
	parent := map[TaskID]TaskID{to: NoTask}
	queue := []TaskID{to}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == from {
			var ids []TaskID
			for n := cur; n != NoTask; n = parent[n] {
				ids = append(ids, n)
			}
			// ids holds from, its BFS parent, ..., to
			path := []string{m.tasks[from].Name}
			for i := len(ids) - 1; i >= 0; i-- {
				path = append(path, m.tasks[ids[i]].Name)
			}
			return path
		}
		for _, n := range next(m.tasks[cur]) {
			if _, seen := parent[n]; !seen {
				parent[n] = cur
				queue = append(queue, n)
			}
		}
	}
	return nil
}
