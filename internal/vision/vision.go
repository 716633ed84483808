// Package vision captions extracted video keyframes through the DashScope
// multimodal API. It backs the silent-video fallback: when a file carries no
// audio stream, captioned keyframes stand in for the transcript.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"scribe/internal/config"
	"scribe/internal/media/keyframes"
	"scribe/internal/transcript"
)

const defaultBackoffUnit = time.Second

// Captioner describes keyframes through a multimodal chat endpoint.
type Captioner struct {
	apiKey   string
	endpoint string
	model    string
	prompt   string
	retries  int

	httpClient  *http.Client
	logger      *slog.Logger
	backoffUnit time.Duration
}

// Option customizes captioner construction.
type Option func(*Captioner)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Captioner) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Captioner) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBackoffUnit overrides the retry backoff unit.
func WithBackoffUnit(unit time.Duration) Option {
	return func(c *Captioner) {
		if unit > 0 {
			c.backoffUnit = unit
		}
	}
}

// New builds a captioner from configuration.
func New(cfg *config.Config, opts ...Option) *Captioner {
	timeout := time.Duration(cfg.Vision.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	captioner := &Captioner{
		apiKey:      cfg.Vision.APIKey,
		endpoint:    cfg.Vision.Endpoint,
		model:       cfg.Vision.Model,
		prompt:      cfg.Vision.Prompt,
		retries:     cfg.Vision.Retries,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      slog.New(slog.DiscardHandler),
		backoffUnit: defaultBackoffUnit,
	}
	for _, opt := range opts {
		opt(captioner)
	}
	return captioner
}

// Describe captions each frame and returns transcript items carrying the
// wrapped descriptions. Frames that cannot be read or captioned are skipped
// with a warning rather than failing the whole batch.
func (c *Captioner) Describe(ctx context.Context, frames []keyframes.Frame) ([]transcript.Item, error) {
	items := make([]transcript.Item, 0, len(frames))
	for index, frame := range frames {
		if ctx.Err() != nil {
			return items, ctx.Err()
		}
		caption, err := c.describeFrame(ctx, frame)
		if err != nil {
			c.logger.Warn("keyframe caption failed", "frame", index, "timestamp", frame.TimestampSec, "error", err)
			continue
		}
		items = append(items, wrapCaption(index+1, frame.TimestampSec, caption))
	}
	if len(items) == 0 && len(frames) > 0 {
		return nil, fmt.Errorf("all %d keyframe captions failed", len(frames))
	}
	return items, nil
}

func (c *Captioner) describeFrame(ctx context.Context, frame keyframes.Frame) (string, error) {
	imageData, err := os.ReadFile(frame.Path)
	if err != nil {
		return "", fmt.Errorf("read frame: %w", err)
	}
	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageData)
	prompt := fmt.Sprintf("%s (video timestamp %.3fs)", c.prompt, frame.TimestampSec)

	payload, err := json.Marshal(map[string]any{
		"model": c.model,
		"input": map[string]any{
			"messages": []map[string]any{
				{
					"role": "user",
					"content": []map[string]any{
						{"image": dataURI},
						{"text": prompt},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode caption request: %w", err)
	}

	body, err := c.doWithRetry(ctx, payload)
	if err != nil {
		return "", err
	}
	caption, err := extractCaption(body)
	if err != nil {
		return "", err
	}
	return caption, nil
}

func (c *Captioner) doWithRetry(ctx context.Context, payload []byte) ([]byte, error) {
	attempts := c.retries
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := c.backoffUnit * time.Duration(1<<uint(attempt))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("caption endpoint returned status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("caption endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return body, nil
	}
	return nil, lastErr
}

// extractCaption pulls the generated text out of the response, accepting both
// string content and the content-list shape the multimodal API uses.
func extractCaption(body []byte) (string, error) {
	var envelope struct {
		Output struct {
			Text    string `json:"text"`
			Choices []struct {
				Message struct {
					Content json.RawMessage `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		} `json:"output"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("decode caption response: %w", err)
	}
	if text := strings.TrimSpace(envelope.Output.Text); text != "" {
		return text, nil
	}
	for _, choice := range envelope.Output.Choices {
		if text := contentText(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("caption response carried no text")
}

func contentText(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(content, &asString); err == nil {
		return strings.TrimSpace(asString)
	}
	var parts []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(content, &parts); err != nil {
		return ""
	}
	var texts []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part.Text); trimmed != "" {
			texts = append(texts, trimmed)
		}
	}
	return strings.Join(texts, "\n")
}

// wrapCaption frames a caption in the keyframe markers with the 1-based
// frame number and source timestamp in the header line.
func wrapCaption(number int, timestampSec float64, caption string) transcript.Item {
	startMS := int64(timestampSec * 1000)
	text := fmt.Sprintf("%sframe=%d;time=%.3fs\n%s\n%s",
		transcript.KeyframePrefix, number, timestampSec, caption, transcript.KeyframeSuffix)
	return transcript.Item{
		Text:    text,
		StartMS: startMS,
		EndMS:   startMS + 1,
	}
}
