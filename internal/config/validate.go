package config

import (
	"errors"
	"fmt"
)

// Providers recognized by the [asr] section.
const (
	ProviderDashScope = "dashscope"
	ProviderOpenAI    = "openai"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateASR(); err != nil {
		return err
	}
	if err := c.validateVision(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateASR() error {
	switch c.ASR.Provider {
	case ProviderDashScope:
		if c.DashScope.APIKey == "" {
			return fmt.Errorf("dashscope.api_key is required. Set ALIYUN_BAILIAN_API_KEY or DASHSCOPE_API_KEY, or edit %s (create with 'scribe config init')", configHint())
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("openai.api_key is required. Set OPENAI_API_KEY or edit %s (create with 'scribe config init')", configHint())
		}
	default:
		return fmt.Errorf("asr.provider must be %q or %q, got %q", ProviderDashScope, ProviderOpenAI, c.ASR.Provider)
	}
	if c.ASR.TimeoutSeconds <= 0 {
		return errors.New("asr.timeout_seconds must be positive")
	}
	if c.ASR.Retries <= 0 {
		return errors.New("asr.retries must be positive")
	}
	return nil
}

func (c *Config) validateVision() error {
	if !c.Vision.Enabled {
		return nil
	}
	if c.Vision.SceneThreshold <= 0 || c.Vision.SceneThreshold >= 1 {
		return errors.New("vision.scene_threshold must be between 0 and 1")
	}
	if c.Vision.MaxFrames <= 0 {
		return errors.New("vision.max_frames must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

func configHint() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return "~/.config/scribe/config.toml"
	}
	return path
}
