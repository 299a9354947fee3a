package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hochfrequenz/critpath/internal/batch"
	"github.com/hochfrequenz/critpath/internal/config"
	"github.com/hochfrequenz/critpath/internal/cpa"
	"github.com/hochfrequenz/critpath/internal/notify"
	"github.com/hochfrequenz/critpath/internal/parser"
	"github.com/hochfrequenz/critpath/internal/taskstore"
	"github.com/hochfrequenz/critpath/web/api"
)

var (
	analyzeJSON bool
	analyzePath bool
)

func init() {
	analyzeCmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyse project files without storing them",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the analyses as JSON")
	analyzeCmd.Flags().BoolVar(&analyzePath, "path", false, "print only the critical path")
	rootCmd.AddCommand(analyzeCmd)

	importCmd := &cobra.Command{
		Use:   "import FILE|DIR...",
		Short: "Parse, store and analyse project files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	rootCmd.AddCommand(importCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored projects",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	rootCmd.AddCommand(listCmd)

	showCmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Analyse a stored project",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	rootCmd.AddCommand(showCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a stored project and its analyses",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}
	rootCmd.AddCommand(deleteCmd)
}

func loadConfig() (*config.Config, error) {
	return config.LoadWithLocalFallback(configPath)
}

func openStore(cfg *config.Config) (*taskstore.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.General.DatabasePath), 0755); err != nil {
		return nil, err
	}
	store, err := taskstore.New(cfg.General.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

func newNotifier(cfg *config.Config) notify.Notifier {
	var notifiers []notify.Notifier
	if cfg.Notifications.Desktop {
		notifiers = append(notifiers, notify.NewDesktopNotifier(true))
	}
	if cfg.Notifications.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notifications.SlackWebhook))
	}
	if len(notifiers) == 0 {
		return notify.NoopNotifier{}
	}
	return notify.NewMultiNotifier(notifiers...)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	results := make([]*cpa.Result, len(args))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range args {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := parser.ParseProjectFile(path)
			if err != nil {
				return err
			}
			r, err := cpa.Analyze(p.Model, p.Root)
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		resp := make([]api.AnalysisResponse, len(results))
		for i, r := range results {
			resp[i] = api.NewAnalysisResponse(r)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if analyzePath {
			fmt.Fprintf(out, "%s: %s\n", r.Project(), strings.Join(criticalPathNames(r), " -> "))
			continue
		}
		printAnalysis(out, r, cfg.General.TimeFormat)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		projects, err := parser.ParseProjectsDir(arg)
		if err != nil {
			return err
		}
		for _, p := range projects {
			files = append(files, p.FilePath)
		}
	}

	runner := &batch.Runner{Store: store}
	out := cmd.OutOrStdout()
	for _, path := range files {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		r, err := runner.RefreshFile(abs, false)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Imported %s: %d tasks, duration %s\n",
			r.Project(), len(r.Tasks()), r.ProjectDuration().Format(cfg.General.TimeFormat))
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	projects, err := store.ListProjects()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tTASKS\tDURATION\tCRITICAL\tANALYSED")
	for _, p := range projects {
		duration, critical, analysed := "-", "-", "never"
		if a := p.LastAnalysis; a != nil {
			duration = a.Duration.Format(cfg.General.TimeFormat)
			critical = fmt.Sprintf("%d", len(a.Critical))
			analysed = humanize.Time(a.AnalyzedAt)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", p.Name, p.Tasks, duration, critical, analysed)
	}
	return w.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	p, err := store.LoadProject(args[0])
	if err != nil {
		return err
	}
	r, err := cpa.Analyze(p.Model, p.Root)
	if err != nil {
		return err
	}
	printAnalysis(cmd.OutOrStdout(), r, cfg.General.TimeFormat)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteProject(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func criticalPathNames(r *cpa.Result) []string {
	var names []string
	for _, id := range r.CriticalPath() {
		t, _ := r.Timing(id)
		names = append(names, t.Name)
	}
	return names
}

func printAnalysis(out io.Writer, r *cpa.Result, style string) {
	fmt.Fprintf(out, "%s: %s (%s -> %s)\n", r.Project(), r.ProjectDuration().Format(style),
		r.PlannedStart(), r.PlannedFinish())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tDURATION\tES\tEF\tLS\tLF\tFLOAT\tWAVE\t")
	for _, t := range r.Tasks() {
		marker := ""
		if t.Critical {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			t.Name, t.Duration.Format(style), t.EarliestStart, t.EarliestFinish,
			t.LatestStart, t.LatestFinish, t.Float.Format(style), t.Wave, marker)
	}
	w.Flush()
	fmt.Fprintf(out, "Critical path: %s\n", strings.Join(criticalPathNames(r), " -> "))
}
