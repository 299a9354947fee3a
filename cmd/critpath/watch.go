package main

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hochfrequenz/critpath/internal/batch"
	"github.com/hochfrequenz/critpath/internal/config"
	"github.com/hochfrequenz/critpath/internal/observer"
	"github.com/hochfrequenz/critpath/internal/parser"
	"github.com/hochfrequenz/critpath/internal/taskstore"
)

func init() {
	watchCmd := &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Re-analyse project files whenever they change",
		Long: `Watch DIR (default: general.projects_dir) for changes to project files.
Each change is parsed, stored and analysed; when the project duration or the
critical set moves a notification is sent.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}
	rootCmd.AddCommand(watchCmd)
}

// startWatcher locks dir, watches it and refreshes every changed project
// file through runner. The returned stop func releases everything.
func startWatcher(cfg *config.Config, dir string, runner *batch.Runner) (*observer.ProjectWatcher, func(), error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, nil, err
	}
	lock, err := observer.AcquireLock(cfg.Watch.LockDir, abs)
	if err != nil {
		return nil, nil, err
	}

	debounce, _ := cfg.Watch.DebounceDuration() // validated on load
	watcher, err := observer.NewProjectWatcher(func(_ string, files []string) {
		for _, f := range files {
			if _, err := runner.RefreshFile(f, true); err != nil {
				log.Printf("re-analysing %s: %v", f, err)
			}
		}
	})
	if err != nil {
		lock.Release()
		return nil, nil, err
	}
	watcher.SetDebounce(debounce)
	watcher.SetFilter(parser.IsProjectFile)
	if err := watcher.AddDir(abs); err != nil {
		lock.Release()
		return nil, nil, err
	}

	stop := func() {
		watcher.Stop()
		lock.Release()
	}
	return watcher, stop, nil
}

// importDir stores and analyses every project already in dir
func importDir(dir string, runner *batch.Runner) {
	projects, err := parser.ParseProjectsDir(dir)
	if err != nil {
		log.Printf("scanning %s: %v", dir, err)
		return
	}
	for _, p := range projects {
		if _, err := runner.RefreshFile(p.FilePath, false); err != nil {
			log.Printf("analysing %s: %v", p.FilePath, err)
		}
	}
}

func newRunner(cfg *config.Config, store *taskstore.Store) *batch.Runner {
	return &batch.Runner{
		Store:    store,
		Notifier: newNotifier(cfg),
		Observer: observer.New(24 * time.Hour),
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := cfg.General.ProjectsDir
	if len(args) == 1 {
		dir = args[0]
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := newRunner(cfg, store)
	importDir(dir, runner)

	watcher, stop, err := startWatcher(cfg, dir, runner)
	if err != nil {
		return err
	}
	defer stop()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (ctrl+c to stop)\n", dir)
	watcher.Start(ctx)
	<-ctx.Done()

	m := runner.Observer.GetMetrics()
	log.Printf("watch stopped: %d analyses, %d failed", m.TotalRuns, m.TotalFailed)
	return nil
}
