// Package batch re-analyses stored projects on cron schedules.
package batch

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hochfrequenz/critpath/internal/config"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// RunFunc performs one scheduled batch
type RunFunc func(ctx context.Context, cfg config.BatchConfig) error

// Scheduler manages scheduled batch runs
type Scheduler struct {
	configs   map[string]config.BatchConfig
	schedules map[string]cron.Schedule
	lastRun   map[string]time.Time
	running   map[string]bool
	mu        sync.RWMutex

	now  func() time.Time
	tick time.Duration
}

// ParseCron parses a five-field cron expression or a descriptor such as
// "@daily"
func ParseCron(expr string) (cron.Schedule, error) {
	return cronParser.Parse(expr)
}

// Validate checks a batch entry
func Validate(cfg config.BatchConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("batch name is required")
	}
	if cfg.Cron == "" {
		return fmt.Errorf("batch %s: cron expression is required", cfg.Name)
	}
	if _, err := ParseCron(cfg.Cron); err != nil {
		return fmt.Errorf("batch %s: invalid cron expression: %w", cfg.Name, err)
	}
	return nil
}

// NewScheduler creates a new batch scheduler
func NewScheduler(configs []config.BatchConfig) (*Scheduler, error) {
	s := &Scheduler{
		configs:   make(map[string]config.BatchConfig),
		schedules: make(map[string]cron.Schedule),
		lastRun:   make(map[string]time.Time),
		running:   make(map[string]bool),
		now:       time.Now,
		tick:      time.Minute,
	}

	for _, cfg := range configs {
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		if _, dup := s.configs[cfg.Name]; dup {
			return nil, fmt.Errorf("batch %s: duplicate name", cfg.Name)
		}
		sched, _ := ParseCron(cfg.Cron) // validated above
		s.configs[cfg.Name] = cfg
		s.schedules[cfg.Name] = sched
	}

	return s, nil
}

// NextRun returns the next scheduled run time for a batch
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sched, ok := s.schedules[name]
	if !ok {
		return time.Time{}
	}
	return sched.Next(s.now())
}

// ShouldRun returns true if a batch is due and not already running
func (s *Scheduler) ShouldRun(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sched, ok := s.schedules[name]
	if !ok || s.running[name] {
		return false
	}

	lastRun := s.lastRun[name]
	if lastRun.IsZero() {
		lastRun = s.now().Add(-24 * time.Hour)
	}

	nextRun := sched.Next(lastRun)
	return !s.now().Before(nextRun)
}

// MarkRunning marks a batch as currently running
func (s *Scheduler) MarkRunning(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[name] = true
}

// MarkComplete marks a batch as complete
func (s *Scheduler) MarkComplete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[name] = false
	s.lastRun[name] = s.now()
}

// GetConfig returns the config for a batch
func (s *Scheduler) GetConfig(name string) (config.BatchConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[name]
	return cfg, ok
}

// ListBatches returns all batch names, sorted
func (s *Scheduler) ListBatches() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.configs))
	for name := range s.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start runs due batches every tick until ctx is cancelled, then waits for
// running batches to finish.
func (s *Scheduler) Start(ctx context.Context, run RunFunc) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatch(ctx, run, &wg)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, run RunFunc, wg *sync.WaitGroup) {
	for _, name := range s.ListBatches() {
		if !s.ShouldRun(name) {
			continue
		}
		cfg, _ := s.GetConfig(name)
		s.MarkRunning(name)
		wg.Add(1)
		go func(c config.BatchConfig) {
			defer wg.Done()
			defer s.MarkComplete(c.Name)
			if err := run(ctx, c); err != nil {
				log.Printf("batch %s failed: %v", c.Name, err)
			}
		}(cfg)
	}
}
