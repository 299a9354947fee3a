package parser

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// Frontmatter represents the YAML frontmatter of a project file
type Frontmatter struct {
	Name  string      `yaml:"name"`
	Start string      `yaml:"start,omitempty"`
	Tasks []TaskEntry `yaml:"tasks"`
}

// TaskEntry is one sub-task in the frontmatter
type TaskEntry struct {
	Name      string   `yaml:"name"`
	Duration  string   `yaml:"duration"`
	DependsOn []string `yaml:"depends_on,omitempty,flow"`
}

// ParseFrontmatter extracts YAML frontmatter from markdown content.
// Returns the frontmatter, remaining content, and whether a frontmatter
// block was present.
func ParseFrontmatter(content []byte) (*Frontmatter, []byte, bool, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return &Frontmatter{}, content, false, nil
	}

	// Find end of frontmatter
	rest := content[4:]
	endIdx := bytes.Index(rest, []byte("\n---"))
	if endIdx == -1 {
		return &Frontmatter{}, content, false, nil
	}

	fmData := rest[:endIdx]
	remaining := rest[endIdx+4:] // skip \n---

	var fm Frontmatter
	if err := yaml.Unmarshal(fmData, &fm); err != nil {
		return nil, nil, true, err
	}

	return &fm, bytes.TrimLeft(remaining, "\n"), true, nil
}
