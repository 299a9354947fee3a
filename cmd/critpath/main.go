package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "critpath",
		Short: "critpath - critical path analysis for task plans",
		Long: `critpath reads project plans written as markdown files with a task list
in their frontmatter, builds the activity-on-arc network and reports each
task's earliest and latest start, its float and the critical path.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
