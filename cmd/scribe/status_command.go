package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scribe/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, dependency, and queue health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "%s%-*s %s\n", statusIndent, statusLabelWidth, "Provider:", cfg.ASR.Provider)
			fmt.Fprintf(out, "%s%-*s %s\n", statusIndent, statusLabelWidth, "Language:", cfg.ASR.Language)
			fmt.Fprintf(out, "%s%-*s %s\n", statusIndent, statusLabelWidth, "Vision fallback:", yesNo(cfg.Vision.Enabled))
			fmt.Fprintf(out, "%s%-*s %s\n", statusIndent, statusLabelWidth, "Output directory:", cfg.Paths.OutputDir)
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, check := range preflight.RunAll(cfg) {
				kind := statusOK
				if !check.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("System dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				kind := statusOK
				detail := dep.Description
				if !dep.Available {
					kind = statusError
					if dep.Optional {
						kind = statusWarn
					}
					detail = dep.Detail
				}
				fmt.Fprintln(out, renderStatusLine(dep.Name, kind, detail, colorize))
			}
			fmt.Fprintln(out)

			for _, line := range renderSectionHeader("Queue", colorize) {
				fmt.Fprintln(out, line)
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			summary, err := store.Summarize(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Total", "Pending", "Processing", "Completed", "Failed", "Review"},
				[][]string{{
					strconv.Itoa(summary.Total),
					strconv.Itoa(summary.Pending),
					strconv.Itoa(summary.Processing),
					strconv.Itoa(summary.Completed),
					strconv.Itoa(summary.Failed),
					strconv.Itoa(summary.Review),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}
