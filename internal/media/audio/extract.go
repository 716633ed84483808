package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoAudioStream indicates the input media carries no audio stream.
var ErrNoAudioStream = errors.New("no audio stream")

// ffmpeg stderr fragments that mean the input has nothing to extract.
var noAudioMarkers = []string{
	"output file does not contain any stream",
	"stream specifier ':a'",
	"matches no streams",
}

// Runner executes ffmpeg and returns its combined output. Tests inject a
// fake; production code uses Run.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Run executes ffmpeg via os/exec.
func Run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Extractor converts media files to normalized WAV audio.
type Extractor struct {
	binary string
	runner Runner
}

// NewExtractor creates an extractor around the given ffmpeg binary.
func NewExtractor(binary string) *Extractor {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Extractor{binary: binary, runner: Run}
}

// WithRunner sets a custom command runner (for testing).
func (e *Extractor) WithRunner(runner Runner) *Extractor {
	if runner != nil {
		e.runner = runner
	}
	return e
}

// ExtractWAV extracts the audio stream at audioIndex into dest as mono
// 16 kHz pcm_s16le WAV. Pass a negative audioIndex to let ffmpeg pick the
// default audio stream.
func (e *Extractor) ExtractWAV(ctx context.Context, source string, audioIndex int, dest string) error {
	if strings.TrimSpace(source) == "" {
		return errors.New("extract audio: source path required")
	}
	if strings.TrimSpace(dest) == "" {
		return errors.New("extract audio: destination path required")
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
	}
	if audioIndex >= 0 {
		args = append(args, "-map", fmt.Sprintf("0:%d", audioIndex))
	} else {
		args = append(args, "-map", "0:a:0?")
	}
	args = append(args,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	)

	output, err := e.runner(ctx, e.binary, args...)
	if err != nil {
		stderr := strings.TrimSpace(string(output))
		if isNoAudioOutput(stderr) {
			return fmt.Errorf("%w: %s", ErrNoAudioStream, source)
		}
		return fmt.Errorf("ffmpeg extract: %w: %s", err, stderr)
	}
	return nil
}

func isNoAudioOutput(stderr string) bool {
	lowered := strings.ToLower(stderr)
	for _, marker := range noAudioMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
