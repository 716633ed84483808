package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scribe/internal/batch"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/preflight"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var keepAudio bool

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Process all pending queue items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			for _, check := range preflight.RunAll(cfg) {
				if !check.Passed {
					return fmt.Errorf("preflight %s: %s", check.Name, check.Detail)
				}
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			batchLogger := logging.WithComponent(logger, "batch")
			p, err := buildPipeline(cfg, logger, keepAudio,
				pipeline.WithStageHook(batch.TranscribingHook(store, batchLogger)))
			if err != nil {
				return err
			}
			runner, err := batch.New(cfg, store, p, batchLogger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stats, err := runner.Run(runCtx)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed %d item(s): %d completed, %d failed\n", stats.Processed, stats.Completed, stats.Failed)
			if err != nil {
				if errors.Is(err, batch.ErrAlreadyRunning) {
					return err
				}
				return fmt.Errorf("batch interrupted: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepAudio, "keep-audio", false, "Keep extracted WAV files in the work directory")
	return cmd
}
