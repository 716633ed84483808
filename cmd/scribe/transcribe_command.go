package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/batch"
	"scribe/internal/document"
	"scribe/internal/pipeline"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var (
		outputDir string
		format    string
		language  string
		summary   string
		keepAudio bool
		toStdout  bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <media-file>",
		Short: "Transcribe a single audio or video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case "json", "markdown", "text":
			default:
				return fmt.Errorf("unknown format %q (expected json, markdown, or text)", format)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var pipelineOpts []pipeline.Option
			if language != "" {
				pipelineOpts = append(pipelineOpts, pipeline.WithLanguage(language))
			}
			if summary != "" {
				pipelineOpts = append(pipelineOpts, pipeline.WithSummary(summary))
			}
			p, err := buildPipeline(cfg, logger, keepAudio, pipelineOpts...)
			if err != nil {
				return err
			}

			result, err := p.TranscribePath(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if toStdout {
				rendered, err := renderDocument(result.Document, format)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, rendered)
				return nil
			}

			targetDir := outputDir
			if targetDir == "" {
				targetDir = cfg.Paths.OutputDir
			}
			if err := os.MkdirAll(targetDir, 0o755); err != nil {
				return fmt.Errorf("ensure output directory: %w", err)
			}
			jsonPath, err := batch.WriteOutputs(targetDir, args[0], result)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Transcript written to %s\n", jsonPath)
			if result.UsedVision {
				fmt.Fprintln(out, "No audio stream found; document contains keyframe descriptions.")
			}
			if keepAudio && result.AudioPath != "" {
				fmt.Fprintf(out, "Extracted audio kept at %s\n", result.AudioPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for transcript output (defaults to configured output_dir)")
	cmd.Flags().StringVar(&format, "format", "json", "Rendering used with --stdout: json, markdown, or text")
	cmd.Flags().StringVar(&language, "language", "", "Language hint for this run (overrides configured asr.language)")
	cmd.Flags().StringVar(&summary, "summary", "", "Summary text placed at the top of the document")
	cmd.Flags().BoolVar(&keepAudio, "keep-audio", false, "Keep the extracted WAV file in the work directory")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print the document to stdout instead of writing files")
	return cmd
}

func renderDocument(doc *document.Document, format string) (string, error) {
	switch format {
	case "markdown":
		return doc.Markdown(), nil
	case "text":
		return doc.PlainText(), nil
	default:
		data, err := doc.JSON()
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
