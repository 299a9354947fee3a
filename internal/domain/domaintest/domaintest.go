// Package domaintest builds task models for tests.
package domaintest

import (
	"testing"

	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/timeline"
)

// Spec describes one sub-task: its name, duration and prerequisite names.
// Prerequisites must be listed before the tasks that depend on them.
type Spec struct {
	Name      string
	Duration  timeline.Duration
	DependsOn []string
}

// T is shorthand for a Spec with a whole-hour duration.
func T(name string, hours int, dependsOn ...string) Spec {
	return Spec{Name: name, Duration: timeline.Hours(hours), DependsOn: dependsOn}
}

// Project holds a built model and the ids of its tasks by name.
type Project struct {
	Model *domain.Model
	Root  domain.TaskID
	IDs   map[string]domain.TaskID
}

// ID returns the id of the named task, failing the test if it is unknown.
func (p *Project) ID(t testing.TB, name string) domain.TaskID {
	t.Helper()
	id, ok := p.IDs[name]
	if !ok {
		t.Fatalf("no task named %q", name)
	}
	return id
}

// Build creates an overall task named name whose direct sub-tasks are the
// specs nobody depends on.
func Build(t testing.TB, name string, specs ...Spec) *Project {
	t.Helper()
	m := domain.NewModel()
	root, err := m.AddOverallTask(name, timeline.Zero, timeline.Duration{})
	if err != nil {
		t.Fatalf("add overall task: %v", err)
	}

	p := &Project{Model: m, Root: root, IDs: make(map[string]domain.TaskID)}
	used := make(map[string]bool)
	for _, s := range specs {
		id, err := m.NewSubTask(s.Name, s.Duration)
		if err != nil {
			t.Fatalf("add %s: %v", s.Name, err)
		}
		p.IDs[s.Name] = id
		for _, dep := range s.DependsOn {
			pre, ok := p.IDs[dep]
			if !ok {
				t.Fatalf("%s depends on unknown task %s", s.Name, dep)
			}
			if err := m.AddDependency(id, pre); err != nil {
				t.Fatalf("%s depends on %s: %v", s.Name, dep, err)
			}
			used[dep] = true
		}
	}
	for _, s := range specs {
		if !used[s.Name] {
			if err := m.AddSubTask(root, p.IDs[s.Name]); err != nil {
				t.Fatalf("attach %s: %v", s.Name, err)
			}
		}
	}
	return p
}
