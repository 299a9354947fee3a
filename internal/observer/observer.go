// Package observer watches project files and keeps run metrics for the
// analyses triggered by them.
package observer

import (
	"sort"
	"sync"
	"time"
)

// Observer records analysis runs and collects metrics
type Observer struct {
	staleAfter time.Duration
	now        func() time.Time

	runs []run
	mu   sync.RWMutex
}

type run struct {
	Project    string
	Elapsed    time.Duration
	Failed     bool
	FinishedAt time.Time
}

// Metrics holds aggregated metrics
type Metrics struct {
	TotalRuns   int           `json:"total_runs"`
	TotalFailed int           `json:"total_failed"`
	AvgElapsed  time.Duration `json:"avg_elapsed"`
	LastRun     time.Time     `json:"last_run"`
}

// New creates an Observer that reports projects as stale when their last
// successful analysis is older than staleAfter.
func New(staleAfter time.Duration) *Observer {
	return &Observer{
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// RecordRun records one analysis of project
func (o *Observer) RecordRun(project string, elapsed time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.runs = append(o.runs, run{
		Project:    project,
		Elapsed:    elapsed,
		Failed:     err != nil,
		FinishedAt: o.now(),
	})
}

// IsStale returns true if project has no successful analysis within the
// stale threshold
func (o *Observer) IsStale(project string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for i := len(o.runs) - 1; i >= 0; i-- {
		r := o.runs[i]
		if r.Project == project && !r.Failed {
			return o.now().Sub(r.FinishedAt) > o.staleAfter
		}
	}
	return true
}

// GetMetrics returns aggregated metrics
func (o *Observer) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var metrics Metrics
	var total time.Duration

	for _, r := range o.runs {
		metrics.TotalRuns++
		if r.Failed {
			metrics.TotalFailed++
		}
		total += r.Elapsed
		if r.FinishedAt.After(metrics.LastRun) {
			metrics.LastRun = r.FinishedAt
		}
	}

	if metrics.TotalRuns > 0 {
		metrics.AvgElapsed = total / time.Duration(metrics.TotalRuns)
	}

	return metrics
}

// RecentProjects returns the projects analysed within the last duration,
// sorted by name
func (o *Observer) RecentProjects(since time.Duration) []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	cutoff := o.now().Add(-since)
	seen := make(map[string]bool)
	var result []string

	for _, r := range o.runs {
		if r.FinishedAt.After(cutoff) && !seen[r.Project] {
			seen[r.Project] = true
			result = append(result, r.Project)
		}
	}
	sort.Strings(result)
	return result
}
