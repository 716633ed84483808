package asr

import (
	"context"

	"scribe/internal/transcript"
)

// Options carries per-request transcription settings.
type Options struct {
	// Language is the ISO 639-1 hint passed to the vendor.
	Language string
	// EnableWords requests word-level timing when the vendor supports it.
	EnableWords bool
	// Diarization requests speaker separation when the vendor supports it.
	Diarization bool
}

// Provider is a speech-to-text backend.
type Provider interface {
	// Name identifies the provider for logging.
	Name() string
	// TranscribePath transcribes a normalized WAV file on disk.
	TranscribePath(ctx context.Context, audioPath string, opts Options) ([]transcript.Item, error)
	// TranscribeBytes transcribes in-memory WAV audio.
	TranscribeBytes(ctx context.Context, data []byte, filename string, opts Options) ([]transcript.Item, error)
}
