package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scribe/internal/config"
	"scribe/internal/media/keyframes"
	"scribe/internal/transcript"
)

func writeFrames(t *testing.T, count int) []keyframes.Frame {
	t.Helper()
	dir := t.TempDir()
	frames := make([]keyframes.Frame, 0, count)
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, "frame.jpg")
		if count > 1 {
			path = filepath.Join(dir, string(rune('a'+i))+".jpg")
		}
		if err := os.WriteFile(path, []byte("jpegdata"), 0o644); err != nil {
			t.Fatalf("write frame: %v", err)
		}
		frames = append(frames, keyframes.Frame{Path: path, TimestampSec: float64(i) * 2.5})
	}
	return frames
}

func newTestCaptioner(endpoint string) *Captioner {
	cfg := config.Default()
	cfg.Vision.APIKey = "sk-test"
	cfg.Vision.Endpoint = endpoint
	cfg.Vision.Model = "qwen-vl-max"
	cfg.Vision.Prompt = "describe the scene"
	cfg.Vision.Retries = 2
	return New(&cfg, WithBackoffUnit(time.Millisecond))
}

func TestDescribeWrapsCaptionsInMarkers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		var request struct {
			Model string `json:"model"`
			Input struct {
				Messages []struct {
					Content []map[string]string `json:"content"`
				} `json:"messages"`
			} `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if request.Model != "qwen-vl-max" {
			t.Errorf("model = %q", request.Model)
		}
		content := request.Input.Messages[0].Content
		if !strings.HasPrefix(content[0]["image"], "data:image/jpeg;base64,") {
			t.Errorf("image part = %q", content[0]["image"])
		}
		if !strings.Contains(content[1]["text"], "describe the scene") {
			t.Errorf("text part = %q", content[1]["text"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"output": map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": []map[string]any{{"text": "a whiteboard"}}}},
				},
			},
		})
	}))
	defer server.Close()

	frames := writeFrames(t, 2)
	items, err := newTestCaptioner(server.URL).Describe(context.Background(), frames)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}
	first := items[0]
	if !strings.HasPrefix(first.Text, transcript.KeyframePrefix) || !strings.HasSuffix(first.Text, transcript.KeyframeSuffix) {
		t.Fatalf("markers missing: %q", first.Text)
	}
	if !strings.Contains(first.Text, "frame=1;time=0.000s") {
		t.Fatalf("header = %q", first.Text)
	}
	if !strings.Contains(first.Text, "a whiteboard") {
		t.Fatalf("caption missing: %q", first.Text)
	}
	if !strings.Contains(items[1].Text, "frame=2;time=2.500s") {
		t.Fatalf("second header = %q", items[1].Text)
	}
	if items[1].StartMS != 2500 || items[1].EndMS != 2501 {
		t.Fatalf("second item timing = %d-%d", items[1].StartMS, items[1].EndMS)
	}
}

func TestDescribeStringContentAndRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"output": map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "plain caption"}},
				},
			},
		})
	}))
	defer server.Close()

	items, err := newTestCaptioner(server.URL).Describe(context.Background(), writeFrames(t, 1))
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want retry", calls)
	}
	if !strings.Contains(items[0].Text, "plain caption") {
		t.Fatalf("caption = %q", items[0].Text)
	}
}

func TestDescribeSkipsFailedFramesButNotAll(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// 4xx is terminal, so the first frame is skipped without retry.
			http.Error(w, "bad image", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"output": map[string]any{"text": "survivor"},
		})
	}))
	defer server.Close()

	items, err := newTestCaptioner(server.URL).Describe(context.Background(), writeFrames(t, 2))
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if len(items) != 1 || !strings.Contains(items[0].Text, "survivor") {
		t.Fatalf("items = %+v", items)
	}
}

func TestDescribeFailsWhenEveryFrameFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer server.Close()

	if _, err := newTestCaptioner(server.URL).Describe(context.Background(), writeFrames(t, 2)); err == nil {
		t.Fatal("expected error when all captions fail")
	}
}

func TestDescribeEmptyFrameList(t *testing.T) {
	items, err := newTestCaptioner("http://unused.invalid").Describe(context.Background(), nil)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("items = %d", len(items))
	}
}
