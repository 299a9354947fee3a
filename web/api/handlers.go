package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/hochfrequenz/critpath/internal/cpa"
	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/parser"
	"github.com/hochfrequenz/critpath/internal/taskstore"
	"github.com/hochfrequenz/critpath/internal/timeline"
)

// ProjectSummary is the API response for one entry of the project list
type ProjectSummary struct {
	Name         string              `json:"name"`
	FilePath     string              `json:"file_path,omitempty"`
	Tasks        int                 `json:"tasks"`
	UpdatedAt    time.Time           `json:"updated_at"`
	LastAnalysis *taskstore.Analysis `json:"last_analysis,omitempty"`
	Stale        bool                `json:"stale"`
}

// TaskResponse is the API response for a sub-task
type TaskResponse struct {
	Name      string            `json:"name"`
	Duration  timeline.Duration `json:"duration"`
	DependsOn []string          `json:"depends_on,omitempty"`
}

// ProjectResponse is the API response for a project
type ProjectResponse struct {
	Name  string         `json:"name"`
	Title string         `json:"title,omitempty"`
	Start timeline.Time  `json:"start"`
	Tasks []TaskResponse `json:"tasks"`
}

// WaveResponse is a wave with task names
type WaveResponse struct {
	Index    int           `json:"index"`
	Start    timeline.Time `json:"start"`
	Tasks    []string      `json:"tasks"`
	Critical bool          `json:"critical"`
}

// EventResponse is the timing of one network event
type EventResponse struct {
	Event    int               `json:"event"`
	Earliest timeline.Time     `json:"earliest"`
	Latest   timeline.Time     `json:"latest"`
	Float    timeline.Duration `json:"float"`
}

// AnalysisResponse is the API response for a critical path analysis
type AnalysisResponse struct {
	Project       string            `json:"project"`
	Duration      timeline.Duration `json:"duration"`
	PlannedStart  timeline.Time     `json:"planned_start"`
	PlannedFinish timeline.Time     `json:"planned_finish"`
	CriticalPath  []string          `json:"critical_path"`
	Critical      []string          `json:"critical"`
	Tasks         []cpa.TaskTiming  `json:"tasks"`
	Waves         []WaveResponse    `json:"waves"`
	Events        []EventResponse   `json:"events"`
}

// MetricsResponse is the API response for analysis run metrics
type MetricsResponse struct {
	TotalRuns  int        `json:"total_runs"`
	Failed     int        `json:"failed"`
	AvgElapsed string     `json:"avg_elapsed"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	Clients    int        `json:"clients"`
}

func names(m *domain.Model, ids []domain.TaskID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = m.Name(id)
	}
	return out
}

func projectToResponse(p *parser.Project) (ProjectResponse, error) {
	overall, _ := p.Model.Get(p.Root)
	resp := ProjectResponse{Name: overall.Name, Title: p.Title, Start: overall.Start, Tasks: []TaskResponse{}}

	closure, err := p.Model.Closure(p.Root)
	if err != nil {
		return resp, err
	}
	for _, id := range closure {
		t, _ := p.Model.Get(id)
		resp.Tasks = append(resp.Tasks, TaskResponse{
			Name:      t.Name,
			Duration:  t.Duration,
			DependsOn: names(p.Model, t.DependsOn),
		})
	}
	return resp, nil
}

// NewAnalysisResponse renders an analysis the way the API serves it
func NewAnalysisResponse(r *cpa.Result) AnalysisResponse {
	byID := make(map[domain.TaskID]string)
	for _, t := range r.Tasks() {
		byID[t.Task] = t.Name
	}
	taskNames := func(ids []domain.TaskID) []string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = byID[id]
		}
		return out
	}

	resp := AnalysisResponse{
		Project:       r.Project(),
		Duration:      r.ProjectDuration(),
		PlannedStart:  r.PlannedStart(),
		PlannedFinish: r.PlannedFinish(),
		CriticalPath:  taskNames(r.CriticalPath()),
		Critical:      taskNames(r.CriticalActivities()),
		Tasks:         r.Tasks(),
	}
	for _, w := range r.Waves() {
		resp.Waves = append(resp.Waves, WaveResponse{
			Index:    w.Index,
			Start:    w.Start,
			Tasks:    taskNames(w.Tasks),
			Critical: w.Critical,
		})
	}
	for _, e := range r.Events() {
		resp.Events = append(resp.Events, EventResponse{
			Event:    int(e.Event),
			Earliest: e.Earliest,
			Latest:   e.Latest,
			Float:    e.Float,
		})
	}
	return resp
}

func (s *Server) loadProject(w http.ResponseWriter, r *http.Request) (*parser.Project, bool) {
	p, err := s.store.LoadProject(r.PathValue("name"))
	if errors.Is(err, taskstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return p, true
}

func (s *Server) listProjectsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := s.store.ListProjects()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		resp := make([]ProjectSummary, 0, len(projects))
		for _, p := range projects {
			summary := ProjectSummary{
				Name:         p.Name,
				FilePath:     p.FilePath,
				Tasks:        p.Tasks,
				UpdatedAt:    p.UpdatedAt,
				LastAnalysis: p.LastAnalysis,
			}
			if s.observer != nil {
				summary.Stale = s.observer.IsStale(p.Name)
			}
			resp = append(resp, summary)
		}
		writeJSON(w, resp)
	}
}

func (s *Server) getProjectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.loadProject(w, r)
		if !ok {
			return
		}
		resp, err := projectToResponse(p)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, resp)
	}
}

func (s *Server) analysisHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.loadProject(w, r)
		if !ok {
			return
		}

		started := time.Now()
		result, err := cpa.Analyze(p.Model, p.Root)
		if s.observer != nil {
			s.observer.RecordRun(p.Name(), time.Since(started), err)
		}
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, NewAnalysisResponse(result))
	}
}

func (s *Server) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := MetricsResponse{Clients: s.hub.Clients()}
		if s.observer != nil {
			m := s.observer.GetMetrics()
			resp.TotalRuns = m.TotalRuns
			resp.Failed = m.TotalFailed
			resp.AvgElapsed = m.AvgElapsed.String()
			if !m.LastRun.IsZero() {
				resp.LastRun = &m.LastRun
			}
		}
		writeJSON(w, resp)
	}
}
