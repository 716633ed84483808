package audio

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestExtractWAVArgs(t *testing.T) {
	var gotBinary string
	var gotArgs []string
	extractor := NewExtractor("ffmpeg-custom").WithRunner(func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		gotBinary = binary
		gotArgs = args
		return nil, nil
	})

	if err := extractor.ExtractWAV(context.Background(), "in.mp4", 1, "out.wav"); err != nil {
		t.Fatalf("ExtractWAV: %v", err)
	}
	if gotBinary != "ffmpeg-custom" {
		t.Fatalf("binary = %q", gotBinary)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-map 0:1", "-ac 1", "-ar 16000", "-c:a pcm_s16le", "out.wav"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
}

func TestExtractWAVDefaultStream(t *testing.T) {
	var gotArgs []string
	extractor := NewExtractor("").WithRunner(func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		gotArgs = args
		return nil, nil
	})
	if err := extractor.ExtractWAV(context.Background(), "in.mp3", -1, "out.wav"); err != nil {
		t.Fatalf("ExtractWAV: %v", err)
	}
	if !strings.Contains(strings.Join(gotArgs, " "), "-map 0:a:0?") {
		t.Fatalf("default stream selector missing: %v", gotArgs)
	}
}

func TestExtractWAVNoAudioStream(t *testing.T) {
	extractor := NewExtractor("ffmpeg").WithRunner(func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return []byte("Output file does not contain any stream"), errors.New("exit status 1")
	})
	err := extractor.ExtractWAV(context.Background(), "silent.mp4", -1, "out.wav")
	if !errors.Is(err, ErrNoAudioStream) {
		t.Fatalf("expected ErrNoAudioStream, got %v", err)
	}
}

func TestExtractWAVStreamSpecifierError(t *testing.T) {
	extractor := NewExtractor("ffmpeg").WithRunner(func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return []byte("Stream map '0:a:0' matches no streams."), errors.New("exit status 1")
	})
	err := extractor.ExtractWAV(context.Background(), "silent.mp4", -1, "out.wav")
	if !errors.Is(err, ErrNoAudioStream) {
		t.Fatalf("expected ErrNoAudioStream, got %v", err)
	}
}

func TestExtractWAVOtherFailure(t *testing.T) {
	extractor := NewExtractor("ffmpeg").WithRunner(func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return []byte("Invalid data found when processing input"), errors.New("exit status 1")
	})
	err := extractor.ExtractWAV(context.Background(), "corrupt.mp4", -1, "out.wav")
	if err == nil || errors.Is(err, ErrNoAudioStream) {
		t.Fatalf("expected generic failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data") {
		t.Fatalf("stderr not surfaced: %v", err)
	}
}

func TestExtractWAVValidation(t *testing.T) {
	extractor := NewExtractor("ffmpeg")
	if err := extractor.ExtractWAV(context.Background(), "", -1, "out.wav"); err == nil {
		t.Fatal("expected error for empty source")
	}
	if err := extractor.ExtractWAV(context.Background(), "in.mp4", -1, ""); err == nil {
		t.Fatal("expected error for empty destination")
	}
}
