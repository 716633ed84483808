package openaiasr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"scribe/internal/asr"
	"scribe/internal/config"
)

func newTestClient(baseURL string) *Client {
	cfg := config.Default()
	cfg.OpenAI.APIKey = "sk-test"
	cfg.OpenAI.BaseURL = baseURL
	cfg.OpenAI.Model = "whisper-1"
	return New(&cfg)
}

func TestTranscribeBytesConvertsSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			t.Errorf("response_format = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"task": "transcribe",
			"text": "hello world",
			"segments": []map[string]any{
				{"id": 0, "start": 0.0, "end": 2.5, "text": " hello "},
				{"id": 1, "start": 2.5, "end": 4.0, "text": "world"},
				{"id": 2, "start": 4.0, "end": 4.1, "text": "   "},
			},
		})
	}))
	defer server.Close()

	items, err := newTestClient(server.URL).TranscribeBytes(context.Background(), []byte("RIFFwav"), "audio.wav", asr.Options{Language: "en"})
	if err != nil {
		t.Fatalf("TranscribeBytes: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want blank segment dropped", len(items))
	}
	if items[0].Text != "hello" || items[0].StartMS != 0 || items[0].EndMS != 2500 {
		t.Fatalf("first item = %+v", items[0])
	}
	if items[1].StartMS != 2500 || items[1].EndMS != 4000 {
		t.Fatalf("second item = %+v", items[1])
	}
}

func TestTranscribeBytesFallsBackToFullText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"text": "  whole transcript  "})
	}))
	defer server.Close()

	items, err := newTestClient(server.URL).TranscribeBytes(context.Background(), []byte("wav"), "a.wav", asr.Options{})
	if err != nil {
		t.Fatalf("TranscribeBytes: %v", err)
	}
	if len(items) != 1 || items[0].Text != "whole transcript" {
		t.Fatalf("items = %+v", items)
	}
	if items[0].HasTiming() {
		t.Fatal("untimed fallback item reports timing")
	}
}

func TestTranscribeBytesPropagatesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).TranscribeBytes(context.Background(), []byte("wav"), "a.wav", asr.Options{}); err == nil {
		t.Fatal("expected API error")
	}
}
