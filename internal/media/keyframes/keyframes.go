package keyframes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var ptsTimeRE = regexp.MustCompile(`pts_time:([0-9.]+)`)

// Frame is an extracted keyframe with its position in the video.
type Frame struct {
	Path         string
	TimestampSec float64
}

// Runner executes ffmpeg and returns its combined output.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Run executes ffmpeg via os/exec.
func Run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Extractor samples keyframes from video files.
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

// Extract samples up to maxFrames keyframes from source into a fresh
// directory under workDir. Callers own cleanup of the returned frame files.
func (e *Extractor) Extract(ctx context.Context, source, workDir string, maxFrames int, sceneThreshold float64) ([]Frame, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errors.New("extract keyframes: source path required")
	}
	if maxFrames <= 0 {
		return nil, errors.New("extract keyframes: max frames must be positive")
	}

	frameDir := filepath.Join(workDir, "keyframes-"+uuid.NewString())
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure frame dir: %w", err)
	}

	sceneExpr := fmt.Sprintf("select='gt(scene,%g)+eq(n,0)',showinfo", sceneThreshold)
	frames, timestamps, err := e.runPass(ctx, source, frameDir, sceneExpr)
	if err != nil || len(frames) == 0 {
		// Scene detection is best-effort; fall back to uniform sampling.
		removeFrames(frameDir)
		frames, timestamps, err = e.runPass(ctx, source, frameDir, "fps=1,showinfo")
		if err != nil {
			return nil, err
		}
	}
	if len(frames) == 0 {
		return nil, nil
	}

	// showinfo order matches output frame order; truncate on mismatch.
	n := len(frames)
	if len(timestamps) < n {
		n = len(timestamps)
	}

	pairs := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, Frame{Path: frames[i], TimestampSec: timestamps[i]})
	}

	return downsample(pairs, maxFrames), nil
}

func (e *Extractor) runPass(ctx context.Context, source, frameDir, vfExpr string) ([]string, []float64, error) {
	pattern := filepath.Join(frameDir, "frame_%04d.jpg")
	args := []string{
		"-i", source,
		"-vf", vfExpr,
		"-vsync", "vfr",
		"-q:v", "2",
		pattern,
		"-y",
	}
	output, err := e.runner(ctx, e.binary, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("ffmpeg keyframe extraction: %w: %s", err, strings.TrimSpace(string(output)))
	}

	frames, globErr := filepath.Glob(filepath.Join(frameDir, "frame_*.jpg"))
	if globErr != nil {
		return nil, nil, fmt.Errorf("list frames: %w", globErr)
	}
	sort.Strings(frames)
	return frames, ParsePTS(string(output)), nil
}

// ParsePTS extracts pts_time values from showinfo filter output.
func ParsePTS(output string) []float64 {
	var timestamps []float64
	for _, line := range strings.Split(output, "\n") {
		match := ptsTimeRE.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			timestamps = append(timestamps, value)
		}
	}
	return timestamps
}

// downsample keeps order while stepping past the frame budget.
func downsample(frames []Frame, maxFrames int) []Frame {
	if len(frames) <= maxFrames {
		return frames
	}
	step := len(frames) / maxFrames
	if step < 1 {
		step = 1
	}
	sampled := make([]Frame, 0, maxFrames)
	for i := 0; i < len(frames) && len(sampled) < maxFrames; i += step {
		sampled = append(sampled, frames[i])
	}
	return sampled
}

func removeFrames(frameDir string) {
	frames, err := filepath.Glob(filepath.Join(frameDir, "frame_*.jpg"))
	if err != nil {
		return
	}
	for _, frame := range frames {
		_ = os.Remove(frame)
	}
}

// Cleanup removes extracted frame files and their directory.
func Cleanup(frames []Frame) {
	var dir string
	for _, frame := range frames {
		dir = filepath.Dir(frame.Path)
		_ = os.Remove(frame.Path)
	}
	if dir != "" {
		_ = os.Remove(dir)
	}
}
