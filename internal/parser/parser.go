// Package parser reads and writes project files: markdown documents whose
// YAML frontmatter lists the sub-tasks of one overall task.
package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/timeline"
)

// ErrNoFrontmatter is returned for markdown files without a frontmatter block.
var ErrNoFrontmatter = errors.New("no frontmatter")

var titleRegex = regexp.MustCompile(`^#\s+(.+)$`)

// Project is a parsed project file
type Project struct {
	Model    *domain.Model
	Root     domain.TaskID
	Title    string // first markdown heading, if any
	Notes    []byte // markdown body after the frontmatter
	FilePath string
}

// Name returns the overall task's name
func (p *Project) Name() string { return p.Model.Name(p.Root) }

// ParseProjectFile parses a single project file
func ParseProjectFile(path string) (*Project, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ParseProject(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	p.FilePath = path
	return p, nil
}

// ParseProject builds a model from project file content. Every frontmatter
// task becomes a sub-task; the ones nobody depends on become direct
// sub-tasks of the overall task. A missing name falls back to the first
// heading.
func ParseProject(content []byte) (*Project, error) {
	fm, body, ok, err := ParseFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	if !ok {
		return nil, ErrNoFrontmatter
	}

	title := extractTitle(body)
	name := fm.Name
	if name == "" {
		name = title
	}
	if name == "" {
		return nil, fmt.Errorf("%w: project has no name", domain.ErrMalformedModel)
	}

	start := timeline.Zero
	if fm.Start != "" {
		if start, err = timeline.ParseTime(fm.Start); err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
	}

	m := domain.NewModel()
	root, err := m.AddOverallTask(name, start, timeline.Duration{})
	if err != nil {
		return nil, err
	}

	// Attach everything first so dependency names resolve against the
	// project's closure, then detach the tasks something depends on.
	ids := make([]domain.TaskID, len(fm.Tasks))
	for i, entry := range fm.Tasks {
		d, err := timeline.ParseDuration(entry.Duration)
		if err != nil {
			return nil, fmt.Errorf("task %q: duration: %w", entry.Name, err)
		}
		if ids[i], err = m.NewSubTask(entry.Name, d); err != nil {
			return nil, fmt.Errorf("task %d: %w", i+1, err)
		}
		if err := m.AddSubTask(root, ids[i]); err != nil {
			return nil, err
		}
	}

	required := make(map[domain.TaskID]bool)
	for i, entry := range fm.Tasks {
		for _, dep := range entry.DependsOn {
			pre, err := m.FindByName(root, dep)
			if err != nil {
				return nil, fmt.Errorf("task %q depends on %q: %w", entry.Name, dep, err)
			}
			if err := m.AddDependency(ids[i], pre); err != nil {
				return nil, fmt.Errorf("task %q depends on %q: %w", entry.Name, dep, err)
			}
			required[pre] = true
		}
	}
	for id := range required {
		if err := m.RemoveSubTask(root, id); err != nil {
			return nil, err
		}
	}

	return &Project{Model: m, Root: root, Title: title, Notes: body}, nil
}

// ParseProjectsDir parses every markdown file with frontmatter under dir,
// sorted by path. Files without frontmatter are skipped.
func ParseProjectsDir(dir string) ([]*Project, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsProjectFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var projects []*Project
	for _, path := range paths {
		p, err := ParseProjectFile(path)
		if errors.Is(err, ErrNoFrontmatter) {
			continue
		}
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// IsProjectFile reports whether path looks like a project file by name.
func IsProjectFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ".md") && !strings.HasPrefix(base, ".") && !strings.EqualFold(base, "README.md")
}

func extractTitle(content []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if matches := titleRegex.FindStringSubmatch(line); matches != nil {
			return strings.TrimSpace(matches[1])
		}
	}
	return ""
}
