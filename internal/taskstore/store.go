// Package taskstore persists projects and analysis history in SQLite.
package taskstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hochfrequenz/critpath/internal/cpa"
	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/parser"
	"github.com/hochfrequenz/critpath/internal/timeline"
)

// ErrNotFound is returned when a project has not been stored.
var ErrNotFound = errors.New("project not found")

// Store provides SQLite-backed project persistence
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// ProjectInfo summarises a stored project
type ProjectInfo struct {
	Name         string
	FilePath     string
	Tasks        int
	UpdatedAt    time.Time
	LastAnalysis *Analysis
}

// Analysis is a recorded analysis summary
type Analysis struct {
	ID         string            `json:"id"`
	Project    string            `json:"project"`
	Duration   timeline.Duration `json:"duration"`
	Critical   []string          `json:"critical"` // critical task names in topological order
	Tasks      int               `json:"tasks"`
	AnalyzedAt time.Time         `json:"analyzed_at"`
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite only supports one writer, and ":memory:" is per connection
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveProject replaces the stored copy of the overall task root in a single
// transaction. Analysis history is kept.
func (s *Store) SaveProject(m *domain.Model, root domain.TaskID, filePath string, notes []byte) error {
	if err := m.Validate(root); err != nil {
		return err
	}
	overall, _ := m.Get(root)
	closure, err := m.Closure(root)
	if err != nil {
		return err
	}
	seq := make(map[domain.TaskID]int, len(closure))
	for i, id := range closure {
		seq[id] = i
	}
	direct := make(map[domain.TaskID]bool, len(overall.Subtasks))
	for _, id := range overall.Subtasks {
		direct[id] = true
	}

	return s.transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO projects (name, start_minutes, file_path, notes, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				start_minutes = excluded.start_minutes,
				file_path = excluded.file_path,
				notes = excluded.notes,
				updated_at = excluded.updated_at
		`, overall.Name, overall.Start.TotalMinutes(), filePath, string(notes), s.now().UTC())
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM dependencies WHERE project = ?`, overall.Name); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM tasks WHERE project = ?`, overall.Name); err != nil {
			return err
		}

		for i, id := range closure {
			t, _ := m.Get(id)
			if _, err := tx.Exec(`
				INSERT INTO tasks (project, seq, name, duration_minutes, direct)
				VALUES (?, ?, ?, ?, ?)
			`, overall.Name, i, t.Name, t.Duration.TotalMinutes(), direct[id]); err != nil {
				return err
			}
		}
		for _, id := range closure {
			t, _ := m.Get(id)
			for _, pre := range t.DependsOn {
				if _, err := tx.Exec(`
					INSERT INTO dependencies (project, task_seq, prereq_seq)
					VALUES (?, ?, ?)
				`, overall.Name, seq[id], seq[pre]); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// LoadProject rebuilds a stored project through the domain API, so a
// corrupted dependency table still cannot produce a cycle.
func (s *Store) LoadProject(name string) (*parser.Project, error) {
	var startMinutes int64
	var filePath, notes sql.NullString
	err := s.db.QueryRow(`SELECT start_minutes, file_path, notes FROM projects WHERE name = ?`, name).
		Scan(&startMinutes, &filePath, &notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	start, err := timeline.FromMinutes(startMinutes)
	if err != nil {
		return nil, err
	}
	m := domain.NewModel()
	root, err := m.AddOverallTask(name, timeline.At(start), timeline.Duration{})
	if err != nil {
		return nil, err
	}

	ids, directs, err := s.loadTasks(m, name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT task_seq, prereq_seq FROM dependencies WHERE project = ? ORDER BY task_seq, rowid`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var task, pre int
		if err := rows.Scan(&task, &pre); err != nil {
			return nil, err
		}
		if task >= len(ids) || pre >= len(ids) {
			return nil, fmt.Errorf("%w: dependency references unknown task", domain.ErrMalformedModel)
		}
		if err := m.AddDependency(ids[task], ids[pre]); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range directs {
		if err := m.AddSubTask(root, id); err != nil {
			return nil, err
		}
	}

	return &parser.Project{
		Model:    m,
		Root:     root,
		Title:    name,
		Notes:    []byte(notes.String),
		FilePath: filePath.String,
	}, nil
}

func (s *Store) loadTasks(m *domain.Model, project string) (ids, directs []domain.TaskID, err error) {
	rows, err := s.db.Query(`SELECT seq, name, duration_minutes, direct FROM tasks WHERE project = ? ORDER BY seq`, project)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var seq int
		var name string
		var minutes int64
		var direct bool
		if err := rows.Scan(&seq, &name, &minutes, &direct); err != nil {
			return nil, nil, err
		}
		if seq != len(ids) {
			return nil, nil, fmt.Errorf("%w: task sequence gap at %d", domain.ErrMalformedModel, seq)
		}
		d, err := timeline.FromMinutes(minutes)
		if err != nil {
			return nil, nil, err
		}
		id, err := m.NewSubTask(name, d)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		if direct {
			directs = append(directs, id)
		}
	}
	return ids, directs, rows.Err()
}

// ListProjects returns all stored projects ordered by name, each with its
// latest analysis if there is one.
func (s *Store) ListProjects() ([]ProjectInfo, error) {
	rows, err := s.db.Query(`
		SELECT p.name, p.file_path, p.updated_at,
			(SELECT COUNT(*) FROM tasks t WHERE t.project = p.name)
		FROM projects p
		ORDER BY p.name
	`)
	if err != nil {
		return nil, err
	}

	var projects []ProjectInfo
	for rows.Next() {
		var info ProjectInfo
		var filePath sql.NullString
		if err := rows.Scan(&info.Name, &filePath, &info.UpdatedAt, &info.Tasks); err != nil {
			rows.Close()
			return nil, err
		}
		info.FilePath = filePath.String
		projects = append(projects, info)
	}
	// one connection: close before issuing more queries
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range projects {
		a, err := s.LatestAnalysis(projects[i].Name)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		projects[i].LastAnalysis = a
	}
	return projects, nil
}

// DeleteProject removes a project and its analysis history
func (s *Store) DeleteProject(name string) error {
	res, err := s.db.Exec(`DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// RecordAnalysis stores a summary of r for a saved project
func (s *Store) RecordAnalysis(project string, r *cpa.Result) (*Analysis, error) {
	a := &Analysis{
		ID:         uuid.New().String(),
		Project:    project,
		Duration:   r.ProjectDuration(),
		Critical:   CriticalNames(r),
		Tasks:      len(r.Tasks()),
		AnalyzedAt: s.now().UTC(),
	}
	critical, err := json.Marshal(a.Critical)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(`
		INSERT INTO analyses (id, project, duration_minutes, critical, task_count, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, project, a.Duration.TotalMinutes(), string(critical), a.Tasks, a.AnalyzedAt)
	if err != nil {
		return nil, fmt.Errorf("recording analysis for %s: %w", project, err)
	}
	return a, nil
}

// LatestAnalysis returns the most recent analysis of a project
func (s *Store) LatestAnalysis(project string) (*Analysis, error) {
	row := s.db.QueryRow(`
		SELECT id, project, duration_minutes, critical, task_count, analyzed_at
		FROM analyses WHERE project = ?
		ORDER BY analyzed_at DESC, rowid DESC
		LIMIT 1
	`, project)

	var a Analysis
	var minutes int64
	var critical string
	err := row.Scan(&a.ID, &a.Project, &minutes, &critical, &a.Tasks, &a.AnalyzedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no analysis for %s", ErrNotFound, project)
	}
	if err != nil {
		return nil, err
	}
	if a.Duration, err = timeline.FromMinutes(minutes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(critical), &a.Critical); err != nil {
		return nil, err
	}
	return &a, nil
}

// CriticalNames returns the names of the critical tasks of r in
// topological order.
func CriticalNames(r *cpa.Result) []string {
	names := []string{}
	for _, t := range r.Tasks() {
		if t.Critical {
			names = append(names, t.Name)
		}
	}
	return names
}

func (s *Store) transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
