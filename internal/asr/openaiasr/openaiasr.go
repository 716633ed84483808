// Package openaiasr adapts the OpenAI transcription API to the provider
// contract. Segment timing arrives in seconds and is converted to
// milliseconds; the API reports no speaker labels.
package openaiasr

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"scribe/internal/asr"
	"scribe/internal/config"
	"scribe/internal/transcript"
)

// Client wraps an OpenAI API client configured for transcription.
type Client struct {
	api   *openai.Client
	model string
}

// New builds a client from configuration. A non-empty base URL override is
// honored so tests can point the client at a local server.
func New(cfg *config.Config) *Client {
	clientConfig := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.OpenAI.BaseURL, "/")
	}
	return &Client{
		api:   openai.NewClientWithConfig(clientConfig),
		model: cfg.OpenAI.Model,
	}
}

// Name identifies the provider for logging.
func (c *Client) Name() string { return "openai" }

var _ asr.Provider = (*Client)(nil)

// TranscribePath transcribes a WAV file on disk.
func (c *Client) TranscribePath(ctx context.Context, audioPath string, opts asr.Options) ([]transcript.Item, error) {
	request := c.baseRequest(opts)
	request.FilePath = audioPath
	return c.transcribe(ctx, request)
}

// TranscribeBytes transcribes in-memory WAV audio.
func (c *Client) TranscribeBytes(ctx context.Context, data []byte, filename string, opts asr.Options) ([]transcript.Item, error) {
	request := c.baseRequest(opts)
	request.FilePath = filename
	request.Reader = bytes.NewReader(data)
	return c.transcribe(ctx, request)
}

func (c *Client) baseRequest(opts asr.Options) openai.AudioRequest {
	return openai.AudioRequest{
		Model:    c.model,
		Language: opts.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}
}

func (c *Client) transcribe(ctx context.Context, request openai.AudioRequest) ([]transcript.Item, error) {
	response, err := c.api.CreateTranscription(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("openai transcription: %w", err)
	}
	return itemsFromResponse(response), nil
}

func itemsFromResponse(response openai.AudioResponse) []transcript.Item {
	if len(response.Segments) == 0 {
		text := strings.TrimSpace(response.Text)
		if text == "" {
			return nil
		}
		return []transcript.Item{{Text: text, StartMS: transcript.NoTime, EndMS: transcript.NoTime}}
	}
	items := make([]transcript.Item, 0, len(response.Segments))
	for _, segment := range response.Segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		items = append(items, transcript.Item{
			Text:    text,
			StartMS: secondsToMS(segment.Start),
			EndMS:   secondsToMS(segment.End),
		})
	}
	return items
}

func secondsToMS(seconds float64) int64 {
	if seconds < 0 {
		return transcript.NoTime
	}
	return int64(seconds * 1000)
}
