package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/hochfrequenz/critpath/internal/config"
	"github.com/hochfrequenz/critpath/internal/cpa"
	"github.com/hochfrequenz/critpath/internal/domain"
	"github.com/hochfrequenz/critpath/internal/notify"
	"github.com/hochfrequenz/critpath/internal/observer"
	"github.com/hochfrequenz/critpath/internal/parser"
	"github.com/hochfrequenz/critpath/internal/taskstore"
)

// Store is the part of taskstore.Store a Runner needs
type Store interface {
	ListProjects() ([]taskstore.ProjectInfo, error)
	LoadProject(name string) (*parser.Project, error)
	SaveProject(m *domain.Model, root domain.TaskID, filePath string, notes []byte) error
	RecordAnalysis(project string, r *cpa.Result) (*taskstore.Analysis, error)
	LatestAnalysis(project string) (*taskstore.Analysis, error)
}

// Runner re-analyses projects: it re-reads the project file when there is
// one, stores the project and the new analysis, and notifies when the
// critical path moved.
type Runner struct {
	Store    Store
	Notifier notify.Notifier
	Observer *observer.Observer

	// OnResult, if set, is called after every successful analysis
	OnResult func(project string, r *cpa.Result)
}

// Run performs a scheduled batch. It keeps going after a failing project
// and returns all failures joined.
func (r *Runner) Run(ctx context.Context, cfg config.BatchConfig) error {
	names := []string{cfg.Project}
	if cfg.Project == "" {
		projects, err := r.Store.ListProjects()
		if err != nil {
			return err
		}
		names = names[:0]
		for _, p := range projects {
			names = append(names, p.Name)
		}
	}

	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := r.RefreshProject(name, cfg.NotifyOnChange); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	log.Printf("batch %s: refreshed %d projects, %d failed", cfg.Name, len(names), len(errs))
	return errors.Join(errs...)
}

// RefreshProject re-analyses a stored project.
func (r *Runner) RefreshProject(name string, notifyOnChange bool) (*cpa.Result, error) {
	p, err := r.Store.LoadProject(name)
	if err != nil {
		return nil, err
	}
	if p.FilePath != "" {
		fresh, err := parser.ParseProjectFile(p.FilePath)
		if err != nil {
			r.fail(name, err, notifyOnChange)
			return nil, err
		}
		if fresh.Name() != name {
			err := fmt.Errorf("%s now describes %q", p.FilePath, fresh.Name())
			r.fail(name, err, notifyOnChange)
			return nil, err
		}
		p = fresh
	}
	return r.analyze(p, notifyOnChange)
}

// RefreshFile parses a project file, stores it and analyses it.
func (r *Runner) RefreshFile(path string, notifyOnChange bool) (*cpa.Result, error) {
	p, err := parser.ParseProjectFile(path)
	if err != nil {
		r.fail(filepath.Base(path), err, notifyOnChange)
		return nil, err
	}
	return r.analyze(p, notifyOnChange)
}

func (r *Runner) analyze(p *parser.Project, notifyOnChange bool) (*cpa.Result, error) {
	name := p.Name()
	started := time.Now()
	result, err := cpa.Analyze(p.Model, p.Root)
	if err != nil {
		r.fail(name, err, notifyOnChange)
		return nil, err
	}
	r.record(name, time.Since(started), nil)

	if err := r.Store.SaveProject(p.Model, p.Root, p.FilePath, p.Notes); err != nil {
		return nil, err
	}
	var prev *notify.Summary
	if last, err := r.Store.LatestAnalysis(name); err == nil {
		prev = &notify.Summary{Duration: last.Duration, Critical: last.Critical}
	} else if !errors.Is(err, taskstore.ErrNotFound) {
		return nil, err
	}
	rec, err := r.Store.RecordAnalysis(name, result)
	if err != nil {
		return nil, err
	}

	log.Printf("analysed %s: duration %s, %d critical of %d tasks", name, rec.Duration, len(rec.Critical), rec.Tasks)
	if notifyOnChange && r.Notifier != nil {
		if n, changed := notify.CriticalPathChanged(name, prev, notify.Summary{Duration: rec.Duration, Critical: rec.Critical}); changed {
			if err := r.Notifier.Send(n); err != nil {
				log.Printf("notify %s: %v", name, err)
			}
		}
	}
	if r.OnResult != nil {
		r.OnResult(name, result)
	}
	return result, nil
}

// fail records a failed refresh and, if asked to, tells people about it
func (r *Runner) fail(project string, err error, notifyOnChange bool) {
	r.record(project, 0, err)
	log.Printf("refreshing %s: %v", project, err)
	if notifyOnChange && r.Notifier != nil {
		if nerr := r.Notifier.Send(notify.AnalysisFailed(project, err)); nerr != nil {
			log.Printf("notify %s: %v", project, nerr)
		}
	}
}

func (r *Runner) record(project string, elapsed time.Duration, err error) {
	if r.Observer != nil {
		r.Observer.RecordRun(project, elapsed, err)
	}
}
