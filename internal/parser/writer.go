package parser

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hochfrequenz/critpath/internal/domain"
)

// WriteProject renders the overall task root as a project file. Tasks are
// listed in id order; notes become the markdown body, or a heading with the
// project name when empty. Prerequisites must have unique names so the file
// can be read back.
func WriteProject(m *domain.Model, root domain.TaskID, notes []byte) ([]byte, error) {
	if err := m.Validate(root); err != nil {
		return nil, err
	}
	overall, _ := m.Get(root)
	closure, err := m.Closure(root)
	if err != nil {
		return nil, err
	}

	fm := Frontmatter{Name: overall.Name, Tasks: make([]TaskEntry, 0, len(closure))}
	if !overall.Start.IsZero() {
		fm.Start = overall.Start.String()
	}
	for _, id := range closure {
		t, _ := m.Get(id)
		entry := TaskEntry{Name: t.Name, Duration: t.Duration.Format("compact")}
		for _, pre := range t.DependsOn {
			name := m.Name(pre)
			if found, err := m.FindByName(root, name); err != nil || found != pre {
				return nil, fmt.Errorf("task %q: prerequisite name %q is not unique", t.Name, name)
			}
			entry.DependsOn = append(entry.DependsOn, name)
		}
		fm.Tasks = append(fm.Tasks, entry)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("---\n")
	if len(bytes.TrimSpace(notes)) == 0 {
		fmt.Fprintf(&buf, "# %s\n", overall.Name)
	} else {
		buf.Write(notes)
	}
	return buf.Bytes(), nil
}
