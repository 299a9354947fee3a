package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hochfrequenz/critpath/internal/batch"
	"github.com/hochfrequenz/critpath/internal/config"
)

var scheduleList bool

func init() {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the [[batch]] re-analysis schedule",
		Args:  cobra.NoArgs,
		RunE:  runSchedule,
	}
	scheduleCmd.Flags().BoolVar(&scheduleList, "list", false, "list batches and their next run, then exit")
	rootCmd.AddCommand(scheduleCmd)
}

func newScheduler(cfg *config.Config) (*batch.Scheduler, error) {
	if len(cfg.Batches) == 0 {
		return nil, fmt.Errorf("no [[batch]] entries configured")
	}
	return batch.NewScheduler(cfg.Batches)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sched, err := newScheduler(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BATCH\tCRON\tPROJECT\tNEXT RUN")
	for _, name := range sched.ListBatches() {
		b, _ := sched.GetConfig(name)
		project := b.Project
		if project == "" {
			project = "(all)"
		}
		next := sched.NextRun(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s (%s)\n", b.Name, b.Cron, project,
			next.Format("2006-01-02 15:04"), humanize.Time(next))
	}
	w.Flush()
	if scheduleList {
		return nil
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	runner := newRunner(cfg, store)
	sched.Start(ctx, runner.Run)
	return nil
}
