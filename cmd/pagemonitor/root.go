package main

import (
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	targetsFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:          "pagemonitor",
		Short:        "Watch web pages, feeds and APIs and report when they change.",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	rootCmd.PersistentFlags().StringVarP(&opts.targetsFile, "targets", "f", "",
		"Path to the target list (CSV, YAML, JSON or one URL per line). Overrides monitor_config.targets_file.")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newCheckCmd(opts),
		newTargetsCmd(opts),
	)
	return rootCmd
}
