package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hochfrequenz/critpath/web/api"
)

var (
	servePort  int
	serveWatch bool
)

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default web.port)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "also watch general.projects_dir and push fresh analyses")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	port := servePort
	if port == 0 {
		port = cfg.Web.Port
	}
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, port)

	runner := newRunner(cfg, store)
	server := api.NewServer(store, runner.Observer, addr)
	runner.OnResult = server.Publish

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(ctx) })

	if serveWatch {
		importDir(cfg.General.ProjectsDir, runner)
		watcher, stop, err := startWatcher(cfg, cfg.General.ProjectsDir, runner)
		if err != nil {
			cancel()
			g.Wait()
			return err
		}
		defer stop()
		watcher.Start(ctx)
	}

	if len(cfg.Batches) > 0 {
		sched, err := newScheduler(cfg)
		if err != nil {
			cancel()
			g.Wait()
			return err
		}
		g.Go(func() error {
			sched.Start(ctx, runner.Run)
			return nil
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving API at http://%s\n", addr)
	start := time.Now()
	err = g.Wait()
	fmt.Fprintf(cmd.OutOrStdout(), "Stopped after %s\n", time.Since(start).Round(time.Second))
	return err
}
