package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/asr"
	"scribe/internal/config"
	"scribe/internal/transcript"
)

const (
	transcriptionPath = "/services/audio/asr/transcription"
	tasksPath         = "/tasks/"

	defaultPollInterval = 3 * time.Second
	defaultBackoffUnit  = time.Second
	maxPollAttempts     = 200
)

// Client talks to the DashScope transcription API.
type Client struct {
	apiKey         string
	baseURL        string
	endpoint       string
	uploadEndpoint string
	model          string
	retries        int

	httpClient   *http.Client
	logger       *slog.Logger
	pollInterval time.Duration
	backoffUnit  time.Duration
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPollInterval overrides the task polling cadence.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithBackoffUnit overrides the retry backoff unit.
func WithBackoffUnit(unit time.Duration) Option {
	return func(c *Client) {
		if unit > 0 {
			c.backoffUnit = unit
		}
	}
}

// New builds a client from configuration.
func New(cfg *config.Config, opts ...Option) *Client {
	timeout := time.Duration(cfg.ASR.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client := &Client{
		apiKey:         cfg.DashScope.APIKey,
		baseURL:        strings.TrimRight(cfg.DashScope.BaseURL, "/"),
		endpoint:       cfg.DashScope.Endpoint,
		uploadEndpoint: cfg.DashScope.FileUploadEndpoint,
		model:          cfg.DashScope.Model,
		retries:        cfg.ASR.Retries,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         slog.New(slog.DiscardHandler),
		pollInterval:   defaultPollInterval,
		backoffUnit:    defaultBackoffUnit,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name identifies the provider for logging.
func (c *Client) Name() string { return "dashscope" }

var _ asr.Provider = (*Client)(nil)

// TranscribePath transcribes a WAV file on disk.
func (c *Client) TranscribePath(ctx context.Context, audioPath string, opts asr.Options) ([]transcript.Item, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	return c.TranscribeBytes(ctx, data, filepath.Base(audioPath), opts)
}

// TranscribeBytes transcribes in-memory WAV audio. The async upload/poll flow
// is preferred; when it fails and a direct endpoint is configured, the direct
// multipart call is attempted before giving up.
func (c *Client) TranscribeBytes(ctx context.Context, data []byte, filename string, opts asr.Options) ([]transcript.Item, error) {
	items, asyncErr := c.transcribeAsync(ctx, data, filename, opts)
	if asyncErr == nil {
		return items, nil
	}
	if c.endpoint == "" || ctx.Err() != nil {
		return nil, asyncErr
	}
	c.logger.Warn("async transcription failed, trying direct endpoint", "error", asyncErr)
	items, directErr := c.transcribeDirect(ctx, data, filename, opts)
	if directErr != nil {
		return nil, fmt.Errorf("async flow failed (%v); direct endpoint failed: %w", asyncErr, directErr)
	}
	return items, nil
}

func (c *Client) transcribeAsync(ctx context.Context, data []byte, filename string, opts asr.Options) ([]transcript.Item, error) {
	fileURL, err := c.upload(ctx, data, filename)
	if err != nil {
		return nil, err
	}
	taskID, err := c.submitTask(ctx, fileURL, opts)
	if err != nil {
		return nil, err
	}
	c.logger.Info("transcription task submitted", "task_id", taskID)
	resultURLs, err := c.waitForTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	var items []transcript.Item
	for _, resultURL := range resultURLs {
		payload, err := c.download(ctx, resultURL)
		if err != nil {
			return nil, err
		}
		parsed, err := parseTranscriptPayload(payload)
		if err != nil {
			return nil, err
		}
		items = append(items, parsed...)
	}
	return items, nil
}

// upload pushes the audio to the file upload endpoint and returns the
// service-side URL of the stored file.
func (c *Client) upload(ctx context.Context, data []byte, filename string) (string, error) {
	if c.uploadEndpoint == "" {
		return "", fmt.Errorf("file upload endpoint is not configured")
	}

	body, err := c.doWithRetry(ctx, "upload", func() (*http.Request, error) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("files", filename)
		if err != nil {
			return nil, fmt.Errorf("build multipart: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fmt.Errorf("write multipart: %w", err)
		}
		if err := writer.WriteField("model", c.model); err != nil {
			return nil, fmt.Errorf("write multipart field: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("close multipart: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadEndpoint, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}

	fileURL, err := extractFileURL(body)
	if err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	return fileURL, nil
}

// extractFileURL digs the uploaded file URL out of the several response
// shapes the upload endpoint produces.
func extractFileURL(body []byte) (string, error) {
	var envelope struct {
		Output struct {
			FileURLs flexStrings `json:"file_urls"`
		} `json:"output"`
		Data struct {
			FileURLs flexStrings `json:"file_urls"`
			URLs     flexStrings `json:"urls"`
		} `json:"data"`
		FileURLs flexStrings `json:"file_urls"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	for _, urls := range []flexStrings{envelope.Output.FileURLs, envelope.FileURLs, envelope.Data.FileURLs, envelope.Data.URLs} {
		if len(urls) > 0 && urls[0] != "" {
			return urls[0], nil
		}
	}
	return "", fmt.Errorf("upload response carried no file URL")
}

// flexStrings accepts either a JSON string or a list of strings.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = flexStrings{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*f = flexStrings(many)
	return nil
}

type taskRequest struct {
	Model      string         `json:"model"`
	Input      taskInput      `json:"input"`
	Parameters taskParameters `json:"parameters"`
}

type taskInput struct {
	FileURLs []string `json:"file_urls"`
}

type taskParameters struct {
	LanguageHints []string `json:"language_hints,omitempty"`
	EnableWords   bool     `json:"enable_words"`
	Diarization   bool     `json:"diarization_enabled"`
}

func (c *Client) submitTask(ctx context.Context, fileURL string, opts asr.Options) (string, error) {
	request := taskRequest{
		Model: c.model,
		Input: taskInput{FileURLs: []string{fileURL}},
		Parameters: taskParameters{
			EnableWords: opts.EnableWords,
			Diarization: opts.Diarization,
		},
	}
	if opts.Language != "" {
		request.Parameters.LanguageHints = []string{opts.Language}
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("encode task request: %w", err)
	}

	body, err := c.doWithRetry(ctx, "submit task", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcriptionPath, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-DashScope-Async", "enable")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("submit transcription task: %w", err)
	}

	var envelope struct {
		Output struct {
			TaskID string `json:"task_id"`
		} `json:"output"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("decode task response: %w", err)
	}
	if envelope.Output.TaskID == "" {
		return "", fmt.Errorf("task response carried no task_id")
	}
	return envelope.Output.TaskID, nil
}

type taskStatus struct {
	Output struct {
		TaskID     string `json:"task_id"`
		TaskStatus string `json:"task_status"`
		Message    string `json:"message"`
		Results    []struct {
			SubtaskStatus    string `json:"subtask_status"`
			TranscriptionURL string `json:"transcription_url"`
			Message          string `json:"message"`
		} `json:"results"`
	} `json:"output"`
}

// waitForTask polls the task endpoint until the task settles and returns the
// transcription download URLs.
func (c *Client) waitForTask(ctx context.Context, taskID string) ([]string, error) {
	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		body, err := c.doWithRetry(ctx, "poll task", func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tasksPath+taskID, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			return req, nil
		})
		if err != nil {
			return nil, fmt.Errorf("poll task %s: %w", taskID, err)
		}

		var status taskStatus
		if err := json.Unmarshal(body, &status); err != nil {
			return nil, fmt.Errorf("decode task status: %w", err)
		}
		switch strings.ToUpper(status.Output.TaskStatus) {
		case "SUCCEEDED":
			var urls []string
			for _, result := range status.Output.Results {
				if strings.EqualFold(result.SubtaskStatus, "FAILED") {
					c.logger.Warn("transcription subtask failed", "task_id", taskID, "message", result.Message)
					continue
				}
				if result.TranscriptionURL != "" {
					urls = append(urls, result.TranscriptionURL)
				}
			}
			if len(urls) == 0 {
				return nil, fmt.Errorf("task %s succeeded without transcription URLs", taskID)
			}
			return urls, nil
		case "FAILED", "CANCELED", "UNKNOWN":
			message := status.Output.Message
			if message == "" {
				message = "no failure detail"
			}
			return nil, fmt.Errorf("task %s ended %s: %s", taskID, status.Output.TaskStatus, message)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
	return nil, fmt.Errorf("task %s did not settle after %d polls", taskID, maxPollAttempts)
}

// download fetches a transcription result document.
func (c *Client) download(ctx context.Context, resultURL string) ([]byte, error) {
	body, err := c.doWithRetry(ctx, "download transcript", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("download transcript: %w", err)
	}
	return body, nil
}

// transcribeDirect posts the audio to the synchronous ASR endpoint as a
// multipart request with a JSON payload part.
func (c *Client) transcribeDirect(ctx context.Context, data []byte, filename string, opts asr.Options) ([]transcript.Item, error) {
	parameters := map[string]any{
		"enable_words":        opts.EnableWords,
		"diarization_enabled": opts.Diarization,
	}
	if opts.Language != "" {
		parameters["language_hints"] = []string{opts.Language}
	}
	payload, err := json.Marshal(map[string]any{
		"model":      c.model,
		"parameters": parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("encode direct payload: %w", err)
	}

	body, err := c.doWithRetry(ctx, "direct transcription", func() (*http.Request, error) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			return nil, fmt.Errorf("build multipart: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fmt.Errorf("write multipart: %w", err)
		}
		if err := writer.WriteField("payload", string(payload)); err != nil {
			return nil, fmt.Errorf("write multipart field: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("close multipart: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	// The direct endpoint nests the transcript under output when present.
	var envelope struct {
		Output json.RawMessage `json:"output"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Output) > 0 && string(envelope.Output) != "null" {
		return parseTranscriptPayload(envelope.Output)
	}
	return parseTranscriptPayload(body)
}

// doWithRetry executes a request, retrying transport failures and 5xx
// responses with exponential backoff. The request is rebuilt for every
// attempt so the body reader is fresh.
func (c *Client) doWithRetry(ctx context.Context, operation string, build func() (*http.Request, error)) ([]byte, error) {
	attempts := c.retries
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := c.backoffUnit * time.Duration(1<<uint(attempt-1)) * 2
			c.logger.Warn("retrying request", "operation", operation, "attempt", attempt+1, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := build()
		if err != nil {
			return nil, err
		}
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
			lastErr = fmt.Errorf("%s returned status %d: %s", operation, resp.StatusCode, snippet(body))
			continue
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("%s returned status %d: %s", operation, resp.StatusCode, snippet(body))
		}
		return body, nil
	}
	return nil, lastErr
}

func snippet(body []byte) string {
	const limit = 300
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
