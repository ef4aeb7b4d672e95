package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aleister1102/pagemonitor/internal/extractor"
	"github.com/aleister1102/pagemonitor/internal/models"

	"github.com/spf13/cobra"
)

func newTargetsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the parsed target list with the format each target is expected to have.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zLogger, err := loadConfig(opts)
			if err != nil {
				return err
			}
			app := &application{cfg: cfg, logger: zLogger}

			targets, err := app.loadTargets()
			if err != nil {
				return err
			}
			return printTargets(cmd.OutOrStdout(), targets)
		},
	}
}

func printTargets(w io.Writer, targets []models.Target) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFORMAT\tSELECTOR\tKEYWORD\tURL")
	for _, t := range targets {
		// Without a response the classifier only sees the URL and selector.
		format := extractor.Classify(t.URL, "", t.Selector)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.DisplayName(), format, dash(t.Selector), dash(t.Keyword), t.URL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d target(s)\n", len(targets))
	return err
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
