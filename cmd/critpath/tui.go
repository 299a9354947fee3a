package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hochfrequenz/critpath/internal/cpa"
	"github.com/hochfrequenz/critpath/internal/parser"
	"github.com/hochfrequenz/critpath/internal/taskstore"
	"github.com/hochfrequenz/critpath/tui"
)

var tuiRefresh time.Duration

func init() {
	tuiCmd := &cobra.Command{
		Use:   "tui [FILE...]",
		Short: "Launch TUI dashboard",
		Long: `Launch the TUI dashboard. With no arguments it shows every stored project;
with files it analyses those files and re-reads them on refresh.`,
		RunE: runTUI,
	}
	tuiCmd.Flags().DurationVar(&tuiRefresh, "refresh", 5*time.Second, "refresh interval, 0 to disable")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	var loader tui.Loader
	if len(args) > 0 {
		loader = fileLoader(args)
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		loader = storeLoader(store)
	}

	projects, err := loader()
	if err != nil {
		return err
	}

	model := tui.NewModel(tui.ModelConfig{
		Projects:     projects,
		Loader:       loader,
		RefreshEvery: tuiRefresh,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func analyzeView(p *parser.Project) tui.ProjectView {
	r, err := cpa.Analyze(p.Model, p.Root)
	return tui.ProjectView{Name: p.Name(), Result: r, Err: err}
}

func fileLoader(paths []string) tui.Loader {
	return func() ([]tui.ProjectView, error) {
		views := make([]tui.ProjectView, 0, len(paths))
		for _, path := range paths {
			p, err := parser.ParseProjectFile(path)
			if err != nil {
				views = append(views, tui.ProjectView{Name: path, Err: err})
				continue
			}
			views = append(views, analyzeView(p))
		}
		return views, nil
	}
}

func storeLoader(store *taskstore.Store) tui.Loader {
	return func() ([]tui.ProjectView, error) {
		infos, err := store.ListProjects()
		if err != nil {
			return nil, err
		}
		views := make([]tui.ProjectView, 0, len(infos))
		for _, info := range infos {
			p, err := store.LoadProject(info.Name)
			if err != nil {
				views = append(views, tui.ProjectView{Name: info.Name, Err: err})
				continue
			}
			views = append(views, analyzeView(p))
		}
		return views, nil
	}
}
