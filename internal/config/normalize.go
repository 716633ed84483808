package config

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted for the DashScope API key, in precedence
// order. The Bailian-specific name wins over the generic SDK name.
var dashScopeKeyEnvs = []string{"ALIYUN_BAILIAN_API_KEY", "DASHSCOPE_API_KEY"}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeASR()
	c.normalizeDashScope()
	c.normalizeOpenAI()
	c.normalizeVision()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeASR() {
	c.ASR.Provider = strings.ToLower(strings.TrimSpace(c.ASR.Provider))
	if c.ASR.Provider == "" {
		c.ASR.Provider = defaultASRProvider
	}
	c.ASR.Language = strings.TrimSpace(c.ASR.Language)
	if c.ASR.Language == "" {
		c.ASR.Language = defaultASRLanguage
	}
	if c.ASR.TimeoutSeconds <= 0 {
		c.ASR.TimeoutSeconds = defaultASRTimeout
	}
	if c.ASR.Retries <= 0 {
		c.ASR.Retries = defaultASRRetries
	}
}

func (c *Config) normalizeDashScope() {
	c.DashScope.APIKey = strings.TrimSpace(c.DashScope.APIKey)
	if c.DashScope.APIKey == "" {
		c.DashScope.APIKey = lookupFirstEnv(dashScopeKeyEnvs)
	}
	c.DashScope.BaseURL = strings.TrimSpace(c.DashScope.BaseURL)
	if value, ok := os.LookupEnv("DASHSCOPE_BASE_HTTP_API_URL"); ok && strings.TrimSpace(value) != "" {
		c.DashScope.BaseURL = strings.TrimSpace(value)
	}
	if c.DashScope.BaseURL == "" {
		c.DashScope.BaseURL = defaultDashScopeBaseURL
	}
	c.DashScope.BaseURL = strings.TrimRight(c.DashScope.BaseURL, "/")

	c.DashScope.Endpoint = strings.TrimSpace(c.DashScope.Endpoint)
	if c.DashScope.Endpoint == "" {
		c.DashScope.Endpoint = c.DashScope.BaseURL + "/services/audio/asr/generation"
	}

	c.DashScope.FileUploadEndpoint = strings.TrimSpace(c.DashScope.FileUploadEndpoint)
	if value, ok := os.LookupEnv("DASHSCOPE_FILE_UPLOAD_ENDPOINT"); ok && strings.TrimSpace(value) != "" {
		c.DashScope.FileUploadEndpoint = strings.TrimSpace(value)
	}
	if c.DashScope.FileUploadEndpoint == "" {
		c.DashScope.FileUploadEndpoint = c.DashScope.BaseURL + "/files"
	}

	if strings.TrimSpace(c.DashScope.Model) == "" {
		c.DashScope.Model = defaultDashScopeModel
	}
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.OpenAI.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenAI.BaseURL = strings.TrimSpace(c.OpenAI.BaseURL)
	if strings.TrimSpace(c.OpenAI.Model) == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}
}

func (c *Config) normalizeVision() {
	c.Vision.APIKey = strings.TrimSpace(c.Vision.APIKey)
	if c.Vision.APIKey == "" {
		c.Vision.APIKey = lookupFirstEnv(dashScopeKeyEnvs)
	}
	c.Vision.Endpoint = strings.TrimSpace(c.Vision.Endpoint)
	if value, ok := os.LookupEnv("ALIYUN_VISION_ENDPOINT"); ok && strings.TrimSpace(value) != "" {
		c.Vision.Endpoint = strings.TrimSpace(value)
	}
	if c.Vision.Endpoint == "" {
		c.Vision.Endpoint = defaultVisionEndpoint
	}
	if value, ok := os.LookupEnv("ALIYUN_VISION_MODEL"); ok && strings.TrimSpace(value) != "" {
		c.Vision.Model = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Vision.Model) == "" {
		c.Vision.Model = defaultVisionModel
	}
	if value, ok := os.LookupEnv("ALIYUN_VISION_PROMPT"); ok && strings.TrimSpace(value) != "" {
		c.Vision.Prompt = value
	}
	if strings.TrimSpace(c.Vision.Prompt) == "" {
		c.Vision.Prompt = defaultVisionPrompt
	}
	if c.Vision.TimeoutSeconds <= 0 {
		c.Vision.TimeoutSeconds = defaultVisionTimeout
	}
	if c.Vision.Retries <= 0 {
		c.Vision.Retries = defaultVisionRetries
	}
	if c.Vision.MaxFrames <= 0 {
		c.Vision.MaxFrames = defaultVisionMaxFrames
	}
	if c.Vision.SceneThreshold <= 0 {
		c.Vision.SceneThreshold = defaultVisionSceneThreshold
	}
	// The fallback cannot authenticate without a key; run without it.
	if c.Vision.Enabled && c.Vision.APIKey == "" {
		c.Vision.Enabled = false
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func lookupFirstEnv(names []string) string {
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
