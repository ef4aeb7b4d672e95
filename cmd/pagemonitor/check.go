package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aleister1102/pagemonitor/internal/models"
	"github.com/aleister1102/pagemonitor/internal/monitor"

	"github.com/spf13/cobra"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <target-id>",
		Short: "Fetch one target and show what would be stored, without saving or notifying.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(opts)
			if err != nil {
				return err
			}
			defer app.Close()

			targets, err := app.loadTargets()
			if err != nil {
				return err
			}
			target, ok := findTarget(targets, args[0])
			if !ok {
				return fmt.Errorf("target '%s' not found in %s", args[0], app.cfg.MonitorConfig.TargetsFile)
			}

			result, err := app.service.CheckTarget(cmd.Context(), target)
			if err != nil {
				return err
			}
			printCheckResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func findTarget(targets []models.Target, id string) (models.Target, bool) {
	for _, target := range targets {
		if target.ID == id {
			return target, true
		}
	}
	return models.Target{}, false
}

func printCheckResult(w io.Writer, result *monitor.CheckResult) {
	fmt.Fprintf(w, "Target:      %s (%s)\n", result.Target.DisplayName(), result.Target.URL)
	fmt.Fprintf(w, "Outcome:     %s\n", result.Outcome)
	if result.Err != nil {
		fmt.Fprintf(w, "Error:       %v\n", result.Err)
		return
	}
	fmt.Fprintf(w, "Format:      %s\n", result.Format)
	if result.Fallback != "" {
		fmt.Fprintf(w, "Fallback:    %s\n", result.Fallback)
	}
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)
	fmt.Fprintf(w, "Preview:     %s\n", result.Observation.Preview)
	if len(result.Observation.DetailLines) > 0 {
		fmt.Fprintf(w, "Detail:\n  %s\n", strings.Join(result.Observation.DetailLines, "\n  "))
	}
}
