package domain

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/hochfrequenz/critpath/internal/timeline"
)

// diamond builds a diamond: B and C depend on A, D depends on B and C.
func diamond(t *testing.T) (*Model, TaskID, map[string]TaskID) {
	t.Helper()
	m := NewModel()
	root, err := m.AddOverallTask("Diamond", timeline.Zero, timeline.Duration{})
	if err != nil {
		t.Fatal(err)
	}
	ids := map[string]TaskID{}
	for _, spec := range []struct {
		name  string
		hours int
	}{{"A", 2}, {"B", 3}, {"C", 1}, {"D", 4}} {
		id, err := m.NewSubTask(spec.name, timeline.Hours(spec.hours))
		if err != nil {
			t.Fatal(err)
		}
		ids[spec.name] = id
	}
	mustDep := func(sub, pre string) {
		if err := m.AddDependency(ids[sub], ids[pre]); err != nil {
			t.Fatalf("AddDependency(%s, %s): %v", sub, pre, err)
		}
	}
	mustDep("B", "A")
	mustDep("C", "A")
	mustDep("D", "B")
	mustDep("D", "C")
	if err := m.AddSubTask(root, ids["D"]); err != nil {
		t.Fatal(err)
	}
	return m, root, ids
}

func TestModel_AddDependency_CycleRejected(t *testing.T) {
	m, root, ids := diamond(t)
	before, _ := m.Get(ids["C"])

	err := m.AddDependency(ids["C"], ids["D"])
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("AddDependency(C, D) error = %v, want ErrCycleDetected", err)
	}
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("error %T is not a *CycleError", err)
	}
	want := []string{"C", "D", "C"}
	if !reflect.DeepEqual(cycle.Path, want) {
		t.Errorf("cycle path = %v, want %v", cycle.Path, want)
	}

	after, _ := m.Get(ids["C"])
	if !reflect.DeepEqual(before.DependsOn, after.DependsOn) {
		t.Errorf("model changed after rejected edit: %v -> %v", before.DependsOn, after.DependsOn)
	}
	if closure, _ := m.Closure(root); len(closure) != 4 {
		t.Errorf("closure size = %d, want 4", len(closure))
	}
}

func TestModel_AddDependency_TransitiveCycle(t *testing.T) {
	m, _, ids := diamond(t)

	err := m.AddDependency(ids["A"], ids["D"])
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("AddDependency(A, D) error = %v, want *CycleError", err)
	}
	if cycle.Path[0] != "A" || cycle.Path[len(cycle.Path)-1] != "A" || len(cycle.Path) != 4 {
		t.Errorf("cycle path = %v, want A -> D -> (B|C) -> A", cycle.Path)
	}
}

func TestModel_AddDependency_SelfLoop(t *testing.T) {
	m, _, ids := diamond(t)
	err := m.AddDependency(ids["B"], ids["B"])
	if !errors.Is(err, ErrCycleDetected) {
		t.Errorf("self dependency error = %v, want ErrCycleDetected", err)
	}
}

func TestModel_AddDependency_Idempotent(t *testing.T) {
	m, _, ids := diamond(t)
	if err := m.AddDependency(ids["B"], ids["A"]); err != nil {
		t.Fatal(err)
	}
	b, _ := m.Get(ids["B"])
	if len(b.DependsOn) != 1 {
		t.Errorf("DependsOn = %v, want a single prerequisite", b.DependsOn)
	}
}

func TestModel_AddDependency_OverallNotAllowed(t *testing.T) {
	m, root, ids := diamond(t)
	if err := m.AddDependency(ids["A"], root); !errors.Is(err, ErrMalformedModel) {
		t.Errorf("depending on an overall task: error = %v, want ErrMalformedModel", err)
	}
}

func TestModel_AddSubTask(t *testing.T) {
	m, root, ids := diamond(t)

	if err := m.AddSubTask(ids["A"], ids["B"]); !errors.Is(err, ErrMalformedModel) {
		t.Errorf("sub-task as parent: error = %v, want ErrMalformedModel", err)
	}
	if err := m.AddSubTask(root, root); !errors.Is(err, ErrMalformedModel) {
		t.Errorf("overall as child: error = %v, want ErrMalformedModel", err)
	}
	if err := m.AddSubTask(root, ids["D"]); err != nil {
		t.Errorf("re-adding a sub-task should be a no-op, got %v", err)
	}
	r, _ := m.Get(root)
	if len(r.Subtasks) != 1 {
		t.Errorf("Subtasks = %v, want [D]", r.Subtasks)
	}
}

func TestModel_Closure_SharedPrerequisite(t *testing.T) {
	m, root, ids := diamond(t)

	closure, err := m.Closure(root)
	if err != nil {
		t.Fatal(err)
	}
	want := []TaskID{ids["A"], ids["B"], ids["C"], ids["D"]}
	if !reflect.DeepEqual(closure, want) {
		t.Errorf("Closure = %v, want %v (A once despite two paths)", closure, want)
	}
}

func TestModel_Dependents(t *testing.T) {
	m, root, ids := diamond(t)
	deps, err := m.Dependents(root, ids["A"])
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(deps, []TaskID{ids["B"], ids["C"]}) {
		t.Errorf("Dependents(A) = %v, want [B C]", deps)
	}
}

func TestModel_FindByName(t *testing.T) {
	m, root, ids := diamond(t)

	tests := []struct {
		name    string
		want    TaskID
		wantErr error
	}{
		{"B", ids["B"], nil},
		{"Z", NoTask, ErrNotFound},
		{"Diamond", NoTask, ErrNotFound}, // the root itself is not a sub-task
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.FindByName(root, tt.name)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FindByName(%q) error = %v, want %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FindByName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	dup, _ := m.NewSubTask("B", timeline.Hours(1))
	if err := m.AddDependency(ids["D"], dup); err != nil {
		t.Fatal(err)
	}
	_, err := m.FindByName(root, "B")
	if !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("duplicate name: error = %v, want ErrAmbiguous", err)
	}
	var lookup *LookupError
	if !errors.As(err, &lookup) || lookup.Matches != 2 {
		t.Errorf("LookupError = %+v, want 2 matches", lookup)
	}
}

func TestModel_RemoveDependency(t *testing.T) {
	m, _, ids := diamond(t)

	if err := m.RemoveDependency(ids["D"], ids["C"]); err != nil {
		t.Fatal(err)
	}
	d, _ := m.Get(ids["D"])
	if !reflect.DeepEqual(d.DependsOn, []TaskID{ids["B"]}) {
		t.Errorf("DependsOn = %v, want [B]", d.DependsOn)
	}
	if err := m.RemoveDependency(ids["D"], ids["C"]); !errors.Is(err, ErrNotFound) {
		t.Errorf("removing twice: error = %v, want ErrNotFound", err)
	}
	// with the edge gone C may now depend on D
	if err := m.AddDependency(ids["C"], ids["D"]); err != nil {
		t.Errorf("AddDependency(C, D) after removal: %v", err)
	}
}

func TestModel_RemoveUnknownTask(t *testing.T) {
	m, root, ids := diamond(t)

	tests := []struct {
		name    string
		remove  func() error
		wantErr error
		wantMsg string
	}{
		{"dependency with unknown id", func() error { return m.RemoveDependency(ids["D"], 99) }, ErrMalformedModel, "unknown task T99"},
		{"sub-task with unknown id", func() error { return m.RemoveSubTask(root, 99) }, ErrMalformedModel, "unknown task T99"},
		{"dependency that is not there", func() error { return m.RemoveDependency(ids["B"], ids["C"]) }, ErrNotFound, `task "C" not found`},
		{"sub-task that is not attached", func() error { return m.RemoveSubTask(root, ids["A"]) }, ErrNotFound, `task "A" not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.remove()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestModel_Validate(t *testing.T) {
	m, root, ids := diamond(t)
	if err := m.Validate(root); err != nil {
		t.Errorf("Validate(root) = %v", err)
	}
	if err := m.Validate(ids["A"]); !errors.Is(err, ErrMalformedModel) {
		t.Errorf("Validate(sub-task) = %v, want ErrMalformedModel", err)
	}
	if err := m.Validate(TaskID(42)); !errors.Is(err, ErrMalformedModel) {
		t.Errorf("Validate(unknown) = %v, want ErrMalformedModel", err)
	}
	if _, err := m.NewSubTask("", timeline.Hours(1)); !errors.Is(err, ErrMalformedModel) {
		t.Errorf("empty name: error = %v, want ErrMalformedModel", err)
	}
}

func TestModel_Edits(t *testing.T) {
	m, root, ids := diamond(t)

	if err := m.Rename(ids["A"], "Survey"); err != nil {
		t.Fatal(err)
	}
	if m.Name(ids["A"]) != "Survey" {
		t.Errorf("Name = %q, want Survey", m.Name(ids["A"]))
	}
	if err := m.SetDuration(ids["A"], timeline.MustDuration(1, 30)); err != nil {
		t.Fatal(err)
	}
	if err := m.SetStart(ids["A"], timeline.MustTime(9, 0)); !errors.Is(err, ErrMalformedModel) {
		t.Errorf("SetStart on sub-task = %v, want ErrMalformedModel", err)
	}
	if err := m.SetStart(root, timeline.MustTime(9, 0)); err != nil {
		t.Fatal(err)
	}
	if err := m.RemoveSubTask(root, ids["D"]); err != nil {
		t.Fatal(err)
	}
	if closure, _ := m.Closure(root); len(closure) != 0 {
		t.Errorf("closure after detaching D = %v, want empty", closure)
	}
	if got := m.OverallTasks(); len(got) != 1 || got[0] != root {
		t.Errorf("OverallTasks = %v", got)
	}
}

func TestModel_Observers(t *testing.T) {
	m := NewModel()
	var got []Change
	unsubscribe := m.Subscribe(ObserverFunc(func(c Change) { got = append(got, c) }))

	root, _ := m.AddOverallTask("P", timeline.Zero, timeline.Duration{})
	a, _ := m.NewSubTask("A", timeline.Hours(1))
	b, _ := m.NewSubTask("B", timeline.Hours(1))
	_ = m.AddDependency(b, a)
	_ = m.AddDependency(a, b) // rejected, no notification
	_ = m.AddSubTask(root, b)

	kinds := make([]ChangeKind, len(got))
	for i, c := range got {
		kinds[i] = c.Kind
	}
	want := []ChangeKind{ChangeTaskAdded, ChangeTaskAdded, ChangeTaskAdded, ChangeDependencyAdded, ChangeSubTaskAdded}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("changes = %v, want %v", kinds, want)
	}
	if got[3].Task != b || got[3].Related != a {
		t.Errorf("dependency change = %+v, want Task=B Related=A", got[3])
	}

	unsubscribe()
	_ = m.Rename(a, "A2")
	if len(got) != len(want) {
		t.Errorf("observer called after unsubscribe")
	}
}
