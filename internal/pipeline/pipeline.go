// Package pipeline orchestrates one transcription end to end: validate the
// input, fingerprint it, probe and extract audio, run the speech provider,
// and assemble the structured document. Silent videos fall back to keyframe
// captioning when vision support is enabled.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"scribe/internal/asr"
	"scribe/internal/config"
	"scribe/internal/document"
	"scribe/internal/lang"
	"scribe/internal/media"
	"scribe/internal/media/audio"
	"scribe/internal/media/ffprobe"
	"scribe/internal/media/keyframes"
	"scribe/internal/services"
	"scribe/internal/transcript"
)

// Captioner describes video keyframes when no audio is available.
type Captioner interface {
	Describe(ctx context.Context, frames []keyframes.Frame) ([]transcript.Item, error)
}

// StageHook observes stage transitions during a run. The context carries the
// job and request identifiers of the run entering the stage.
type StageHook func(ctx context.Context, stage string)

// Result is the outcome of one pipeline run.
type Result struct {
	Document *document.Document
	Items    []transcript.Item
	// AudioPath is the extracted WAV location when audio retention is
	// enabled and the run reached extraction.
	AudioPath  string
	UsedVision bool
}

// Pipeline runs media files through extraction and transcription.
type Pipeline struct {
	cfg       *config.Config
	provider  asr.Provider
	captioner Captioner
	logger    *slog.Logger

	probeRunner ffprobe.Runner
	extractor   *audio.Extractor
	keyframer   *keyframes.Extractor
	keepAudio   bool
	language    string
	summary     string
	stageHook   StageHook
}

// Option customizes pipeline construction.
type Option func(*Pipeline)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithCaptioner enables the silent-video fallback.
func WithCaptioner(captioner Captioner) Option {
	return func(p *Pipeline) { p.captioner = captioner }
}

// WithProbeRunner overrides ffprobe execution (for testing).
func WithProbeRunner(runner ffprobe.Runner) Option {
	return func(p *Pipeline) {
		if runner != nil {
			p.probeRunner = runner
		}
	}
}

// WithAudioExtractor overrides the audio extractor (for testing).
func WithAudioExtractor(extractor *audio.Extractor) Option {
	return func(p *Pipeline) {
		if extractor != nil {
			p.extractor = extractor
		}
	}
}

// WithKeyframeExtractor overrides the keyframe extractor (for testing).
func WithKeyframeExtractor(extractor *keyframes.Extractor) Option {
	return func(p *Pipeline) {
		if extractor != nil {
			p.keyframer = extractor
		}
	}
}

// WithKeepAudio retains the extracted WAV and reports its path in the result.
func WithKeepAudio(keep bool) Option {
	return func(p *Pipeline) { p.keepAudio = keep }
}

// WithLanguage overrides the configured language hint for this pipeline.
func WithLanguage(language string) Option {
	return func(p *Pipeline) { p.language = language }
}

// WithSummary sets a summary that leads the assembled document.
func WithSummary(summary string) Option {
	return func(p *Pipeline) { p.summary = summary }
}

// WithStageHook registers a callback invoked as a run enters each stage.
func WithStageHook(hook StageHook) Option {
	return func(p *Pipeline) { p.stageHook = hook }
}

// New builds a pipeline around a speech provider.
func New(cfg *config.Config, provider asr.Provider, opts ...Option) *Pipeline {
	pipeline := &Pipeline{
		cfg:         cfg,
		provider:    provider,
		logger:      slog.New(slog.DiscardHandler),
		probeRunner: ffprobe.Run,
		extractor:   audio.NewExtractor(cfg.FFmpegBinary()),
		keyframer:   keyframes.NewExtractor(cfg.FFmpegBinary()),
	}
	for _, opt := range opts {
		opt(pipeline)
	}
	return pipeline
}

// TranscribePath runs the pipeline against a file on disk.
func (p *Pipeline) TranscribePath(ctx context.Context, path string) (*Result, error) {
	source, err := media.FromPath(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "validate", "input", "", err)
	}
	return p.Run(ctx, source)
}

// TranscribeBytes runs the pipeline against in-memory media.
func (p *Pipeline) TranscribeBytes(ctx context.Context, data []byte, filename string) (*Result, error) {
	source, err := media.FromBytes(data, filename)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "validate", "input", "", err)
	}
	return p.Run(ctx, source)
}

// Run executes the pipeline for a validated source.
func (p *Pipeline) Run(ctx context.Context, source media.Source) (*Result, error) {
	if p.provider == nil {
		return nil, services.Wrap(services.ErrConfiguration, "setup", "provider", "no speech provider configured", nil)
	}
	if err := p.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "setup", "directories", "", err)
	}

	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	logger := p.logger.With("input", source.Filename, "request_id", requestID)
	binaryHash := source.BinaryHash()
	logger.Info("starting transcription", "hash", binaryHash, "provider", p.provider.Name())

	mediaPath, cleanupInput, err := source.Materialize(p.cfg.Paths.WorkDir)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "materialize", "input", "", err)
	}
	defer cleanupInput()

	audioIndex := p.probeAudioIndex(ctx, logger, mediaPath)

	result := &Result{}
	items, audioPath, err := p.extractAndTranscribe(ctx, logger, source, mediaPath, audioIndex)
	switch {
	case err == nil:
		result.AudioPath = audioPath
	case errors.Is(err, audio.ErrNoAudioStream):
		logger.Info("no audio stream, skipping transcription")
		items = nil
	default:
		return nil, err
	}

	// An empty transcript for a video falls back to keyframe captioning when
	// a captioner is available; otherwise the document is built without
	// speech items.
	if len(items) == 0 && source.IsVideo() {
		if visual := p.describeKeyframes(ctx, logger, mediaPath); len(visual) > 0 {
			items = append(items, visual...)
			result.UsedVision = true
		}
	}

	transcript.SortByStart(items)
	result.Items = items
	result.Document = document.Build(source.Filename, source.Mimetype(), binaryHash, items, p.summary)
	logger.Info("transcription complete", "items", len(items), "vision", result.UsedVision)
	return result, nil
}

// probeAudioIndex locates the first audio stream. Probe failures degrade to
// letting ffmpeg pick the default stream.
func (p *Pipeline) probeAudioIndex(ctx context.Context, logger *slog.Logger, mediaPath string) int {
	probe, err := ffprobe.InspectWith(ctx, p.probeRunner, p.cfg.FFprobeBinary(), mediaPath)
	if err != nil {
		logger.Warn("ffprobe failed, deferring stream selection to ffmpeg", "error", err)
		return -1
	}
	index, ok := probe.FirstAudioStream()
	if !ok {
		return -1
	}
	logger.Debug("selected audio stream", "index", index, "streams", len(probe.Streams), "duration", probe.DurationSeconds())
	return index
}

func (p *Pipeline) extractAndTranscribe(ctx context.Context, logger *slog.Logger, source media.Source, mediaPath string, audioIndex int) ([]transcript.Item, string, error) {
	ctx = p.enterStage(ctx, "extract")
	wavPath := filepath.Join(p.cfg.Paths.WorkDir, "audio-"+uuid.NewString()+".wav")
	if err := p.extractor.ExtractWAV(ctx, mediaPath, audioIndex, wavPath); err != nil {
		if errors.Is(err, audio.ErrNoAudioStream) {
			return nil, "", fmt.Errorf("%w: %s", audio.ErrNoAudioStream, source.Filename)
		}
		return nil, "", services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "", err)
	}
	keepAudio := p.keepAudio
	defer func() {
		if !keepAudio {
			_ = os.Remove(wavPath)
		}
	}()

	ctx = p.enterStage(ctx, "transcribe")
	language := p.language
	if language == "" {
		language = p.cfg.ASR.Language
	}
	opts := asr.Options{
		Language:    lang.ToISO1(language, "zh"),
		EnableWords: p.cfg.ASR.EnableWords,
		Diarization: p.cfg.ASR.Diarization,
	}
	logger.Info("transcribing audio", "language", opts.Language)
	items, err := p.provider.TranscribePath(ctx, wavPath, opts)
	if err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "transcribe", p.provider.Name(), "", err)
	}
	if !keepAudio {
		return items, "", nil
	}
	return items, wavPath, nil
}

// describeKeyframes is the empty-transcript fallback for videos: sample
// keyframes and have the vision model narrate them. It is best effort:
// failures are logged and the caller proceeds without visual items.
func (p *Pipeline) describeKeyframes(ctx context.Context, logger *slog.Logger, mediaPath string) []transcript.Item {
	if !p.cfg.Vision.Enabled || p.captioner == nil {
		logger.Debug("keyframe captioning unavailable, building document without speech items")
		return nil
	}

	ctx = p.enterStage(ctx, "vision")
	logger.Info("transcript is empty, describing keyframes", "max_frames", p.cfg.Vision.MaxFrames)
	frames, err := p.keyframer.Extract(ctx, mediaPath, p.cfg.Paths.WorkDir, p.cfg.Vision.MaxFrames, p.cfg.Vision.SceneThreshold)
	if err != nil {
		logger.Warn("keyframe extraction failed", "error", err)
		return nil
	}
	if len(frames) == 0 {
		logger.Info("no keyframes extracted")
		return nil
	}
	defer keyframes.Cleanup(frames)

	items, err := p.captioner.Describe(ctx, frames)
	if err != nil {
		logger.Warn("keyframe captioning failed", "error", err)
		return nil
	}
	return items
}

// enterStage records the stage on the context and notifies the hook.
func (p *Pipeline) enterStage(ctx context.Context, stage string) context.Context {
	if p.stageHook != nil {
		p.stageHook(ctx, stage)
	}
	return services.WithStep(ctx, stage)
}
