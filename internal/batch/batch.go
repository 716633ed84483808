// Package batch drains the transcription queue sequentially. A file lock
// keeps concurrent batch runs from fighting over the same queue database.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"scribe/internal/config"
	"scribe/internal/pipeline"
	"scribe/internal/queue"
	"scribe/internal/services"
)

// ErrAlreadyRunning indicates another batch holds the queue lock.
var ErrAlreadyRunning = errors.New("another batch run is already in progress")

// Transcriber runs one media file through the pipeline.
type Transcriber interface {
	TranscribePath(ctx context.Context, path string) (*pipeline.Result, error)
}

// Stats summarizes a batch run.
type Stats struct {
	Processed int
	Completed int
	Failed    int
}

// Runner processes queued items one at a time.
type Runner struct {
	cfg         *config.Config
	store       *queue.Store
	transcriber Transcriber
	logger      *slog.Logger
	lock        *flock.Flock
}

// New constructs a batch runner.
func New(cfg *config.Config, store *queue.Store, transcriber Transcriber, logger *slog.Logger) (*Runner, error) {
	if cfg == nil || store == nil || transcriber == nil {
		return nil, errors.New("batch requires config, store, and transcriber")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return &Runner{
		cfg:         cfg,
		store:       store,
		transcriber: transcriber,
		logger:      logger,
		lock:        flock.New(filepath.Join(cfg.Paths.WorkDir, "scribe-batch.lock")),
	}, nil
}

// Run drains pending items until the queue is empty or the context is
// canceled. In-flight items abandoned by an earlier interrupted run are
// returned to pending first.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	ok, err := r.lock.TryLock()
	if err != nil {
		return Stats{}, fmt.Errorf("acquire batch lock: %w", err)
	}
	if !ok {
		return Stats{}, ErrAlreadyRunning
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release batch lock", "error", err)
		}
	}()

	if reset, err := r.store.ResetStuck(ctx); err != nil {
		return Stats{}, err
	} else if reset > 0 {
		r.logger.Info("returned interrupted items to pending", "count", reset)
	}

	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		item, err := r.store.NextPending(ctx)
		if err != nil {
			return stats, err
		}
		if item == nil {
			r.logger.Info("queue drained", "processed", stats.Processed, "completed", stats.Completed, "failed", stats.Failed)
			return stats, nil
		}

		stats.Processed++
		if r.processItem(ctx, item) {
			stats.Completed++
		} else {
			stats.Failed++
		}
	}
}

// processItem runs one item through the pipeline and persists the outcome.
// Returns true on success.
func (r *Runner) processItem(ctx context.Context, item *queue.Item) bool {
	logger := r.logger.With("item", item.ID, "source", item.SourcePath)
	ctx = services.WithJobID(ctx, item.ID)

	item.Status = queue.StatusExtracting
	item.ErrorMessage = ""
	if err := r.store.Update(ctx, item); err != nil {
		logger.Error("failed to mark item extracting", "error", err)
		return false
	}

	logger.Info("processing queue item")
	result, err := r.transcriber.TranscribePath(ctx, item.SourcePath)
	if err != nil {
		item.Status = services.FailureStatus(err)
		item.ErrorMessage = err.Error()
		logger.Error("item failed", "status", item.Status, "error", err)
		if updateErr := r.store.Update(ctx, item); updateErr != nil {
			logger.Error("failed to persist failure", "error", updateErr)
		}
		return false
	}

	outputPath, err := WriteOutputs(r.cfg.Paths.OutputDir, item.SourcePath, result)
	if err != nil {
		item.Status = queue.StatusFailed
		item.ErrorMessage = err.Error()
		logger.Error("failed to write outputs", "error", err)
		if updateErr := r.store.Update(ctx, item); updateErr != nil {
			logger.Error("failed to persist failure", "error", updateErr)
		}
		return false
	}

	item.Status = queue.StatusCompleted
	item.OutputPath = outputPath
	if err := r.store.Update(ctx, item); err != nil {
		logger.Error("failed to mark item completed", "error", err)
		return false
	}
	logger.Info("item completed", "output", outputPath, "vision", result.UsedVision)
	return true
}

// TranscribingHook returns a pipeline stage hook that advances the current
// queue item to transcribing once audio extraction is done. The item is
// identified by the job ID the runner places on the context.
func TranscribingHook(store *queue.Store, logger *slog.Logger) pipeline.StageHook {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(ctx context.Context, stage string) {
		if stage != "transcribe" {
			return
		}
		id, ok := services.JobIDFromContext(ctx)
		if !ok {
			return
		}
		item, err := store.GetByID(ctx, id)
		if err != nil || item == nil {
			logger.Warn("failed to load item for status update", "item", id, "error", err)
			return
		}
		item.Status = queue.StatusTranscribing
		if err := store.Update(ctx, item); err != nil {
			logger.Warn("failed to mark item transcribing", "item", id, "error", err)
		}
	}
}

// WriteOutputs persists the document as JSON plus a Markdown rendition next
// to it and returns the JSON path.
func WriteOutputs(outputDir, sourcePath string, result *pipeline.Result) (string, error) {
	if result == nil || result.Document == nil {
		return "", errors.New("no document to write")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure output dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	if base == "" {
		base = "transcript"
	}
	jsonPath := filepath.Join(outputDir, base+".transcript.json")

	data, err := result.Document.JSON()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}

	markdownPath := filepath.Join(outputDir, base+".transcript.md")
	if err := os.WriteFile(markdownPath, []byte(result.Document.Markdown()), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}
	return jsonPath, nil
}
