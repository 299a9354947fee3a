package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/timeline"
)

const kitchen = `---
name: Kitchen refit
start: "8:00"
tasks:
  - name: Strip out
    duration: 3h
  - name: Plumbing
    duration: 2h30m
    depends_on: [Strip out]
  - name: Electrics
    duration: "1:45"
    depends_on: [Strip out]
  - name: Fit units
    duration: 4
    depends_on: [Plumbing, Electrics]
---
# Kitchen refit

Order worktops early.
`

func TestParseProject(t *testing.T) {
	p, err := ParseProject([]byte(kitchen))
	if err != nil {
		t.Fatal(err)
	}

	if p.Name() != "Kitchen refit" {
		t.Errorf("Name() = %q, want Kitchen refit", p.Name())
	}
	if p.Title != "Kitchen refit" {
		t.Errorf("Title = %q", p.Title)
	}
	overall, _ := p.Model.Get(p.Root)
	if overall.Start != timeline.MustTime(8, 0) {
		t.Errorf("Start = %s, want 8:00", overall.Start)
	}

	closure, err := p.Model.Closure(p.Root)
	if err != nil {
		t.Fatal(err)
	}
	if len(closure) != 4 {
		t.Fatalf("closure has %d tasks, want 4", len(closure))
	}

	// only the task nobody depends on hangs off the overall task
	if len(overall.Subtasks) != 1 || p.Model.Name(overall.Subtasks[0]) != "Fit units" {
		t.Errorf("Subtasks = %v, want [Fit units]", overall.Subtasks)
	}

	fit, err := p.Model.FindByName(p.Root, "Fit units")
	if err != nil {
		t.Fatal(err)
	}
	task, _ := p.Model.Get(fit)
	if task.Duration != timeline.Hours(4) {
		t.Errorf("Fit units duration = %s, want 4h", task.Duration)
	}
	if len(task.DependsOn) != 2 {
		t.Errorf("Fit units depends on %d tasks, want 2", len(task.DependsOn))
	}

	electrics, _ := p.Model.FindByName(p.Root, "Electrics")
	if e, _ := p.Model.Get(electrics); e.Duration != timeline.MustDuration(1, 45) {
		t.Errorf("Electrics duration = %s, want 1h 45m", e.Duration)
	}
}

func TestParseProject_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
		wantMsg string
	}{
		{
			name:    "no frontmatter",
			content: "# Just notes\n",
			wantErr: ErrNoFrontmatter,
		},
		{
			name:    "unknown dependency",
			content: "---\nname: P\ntasks:\n  - name: A\n    duration: 1h\n    depends_on: [Ghost]\n---\n",
			wantErr: domain.ErrNotFound,
			wantMsg: `"Ghost"`,
		},
		{
			name:    "ambiguous dependency",
			content: "---\nname: P\ntasks:\n  - name: A\n    duration: 1h\n  - name: A\n    duration: 2h\n  - name: B\n    duration: 1h\n    depends_on: [A]\n---\n",
			wantErr: domain.ErrAmbiguous,
		},
		{
			name:    "cycle",
			content: "---\nname: P\ntasks:\n  - name: A\n    duration: 1h\n    depends_on: [B]\n  - name: B\n    duration: 1h\n    depends_on: [A]\n---\n",
			wantErr: domain.ErrCycleDetected,
		},
		{
			name:    "missing name",
			content: "---\ntasks: []\n---\nno heading here\n",
			wantErr: domain.ErrMalformedModel,
		},
		{
			name:    "bad duration",
			content: "---\nname: P\ntasks:\n  - name: A\n    duration: soon\n---\n",
			wantMsg: "duration",
		},
		{
			name:    "negative duration",
			content: "---\nname: P\ntasks:\n  - name: A\n    duration: -2h\n---\n",
			wantErr: timeline.ErrNegativeDuration,
		},
		{
			name:    "duration too large",
			content: "---\nname: P\ntasks:\n  - name: A\n    duration: 200000000000000000h\n  - name: B\n    duration: 1h\n---\n",
			wantErr: timeline.ErrOutOfRange,
		},
		{
			name:    "empty task name",
			content: "---\nname: P\ntasks:\n  - duration: 1h\n---\n",
			wantErr: domain.ErrMalformedModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProject([]byte(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParseProject_NameFromHeading(t *testing.T) {
	p, err := ParseProject([]byte("---\ntasks:\n  - name: A\n    duration: 1h\n---\n# Garden shed\n"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "Garden shed" {
		t.Errorf("Name() = %q, want Garden shed", p.Name())
	}
}

func TestParseProjectFile_WrapsFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.md")
	content := "---\nname: P\ntasks:\n  - name: A\n    duration: 1h\n    depends_on: [Ghost]\n---\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ParseProjectFile(path)
	if err == nil || !strings.HasPrefix(err.Error(), "broken.md: ") {
		t.Errorf("error = %v, want it prefixed with the file name", err)
	}
}

func TestParseProjectsDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"kitchen.md":       kitchen,
		"sub/shed.md":      "---\nname: Shed\ntasks:\n  - name: Base\n    duration: 2h\n---\n",
		"README.md":        "---\nname: Ignored\ntasks: []\n---\n",
		"notes.md":         "# plain notes\n",
		".hidden/x.md":     "---\nname: Hidden\ntasks: []\n---\n",
		"sub/not-a-md.txt": "---\nname: Text\n---\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		os.MkdirAll(filepath.Dir(path), 0755)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	projects, err := ParseProjectsDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, p := range projects {
		names = append(names, p.Name())
	}
	if strings.Join(names, ",") != "Kitchen refit,Shed" {
		t.Errorf("projects = %v, want [Kitchen refit Shed]", names)
	}
	if projects[0].FilePath != filepath.Join(dir, "kitchen.md") {
		t.Errorf("FilePath = %q", projects[0].FilePath)
	}
}

func TestIsProjectFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"plan.md", true},
		{"dir/plan.md", true},
		{"README.md", false},
		{"readme.md", false},
		{".plan.md", false},
		{"plan.txt", false},
	}
	for _, tt := range tests {
		if got := IsProjectFile(tt.path); got != tt.want {
			t.Errorf("IsProjectFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWriteProject_RoundTrip(t *testing.T) {
	p, err := ParseProject([]byte(kitchen))
	if err != nil {
		t.Fatal(err)
	}

	out, err := WriteProject(p.Model, p.Root, p.Notes)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "Order worktops early.") {
		t.Errorf("notes were dropped:\n%s", out)
	}

	again, err := ParseProject(out)
	if err != nil {
		t.Fatalf("re-parse: %v\n%s", err, out)
	}
	for _, name := range []string{"Strip out", "Plumbing", "Electrics", "Fit units"} {
		a, err := p.Model.FindByName(p.Root, name)
		if err != nil {
			t.Fatal(err)
		}
		b, err := again.Model.FindByName(again.Root, name)
		if err != nil {
			t.Fatal(err)
		}
		ta, _ := p.Model.Get(a)
		tb, _ := again.Model.Get(b)
		if ta.Duration != tb.Duration || len(ta.DependsOn) != len(tb.DependsOn) {
			t.Errorf("%s changed: %+v vs %+v", name, ta, tb)
		}
	}
	o1, _ := p.Model.Get(p.Root)
	o2, _ := again.Model.Get(again.Root)
	if o1.Start != o2.Start {
		t.Errorf("start %s != %s", o1.Start, o2.Start)
	}
}

func TestWriteProject_AmbiguousPrerequisite(t *testing.T) {
	m := domain.NewModel()
	root, _ := m.AddOverallTask("P", timeline.Zero, timeline.Duration{})
	a1, _ := m.NewSubTask("A", timeline.Hours(1))
	a2, _ := m.NewSubTask("A", timeline.Hours(2))
	b, _ := m.NewSubTask("B", timeline.Hours(1))
	m.AddDependency(b, a1)
	m.AddSubTask(root, b)
	m.AddSubTask(root, a2)

	if _, err := WriteProject(m, root, nil); err == nil {
		t.Error("expected error for ambiguous prerequisite name")
	}
}
