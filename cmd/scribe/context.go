package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"scribe/internal/asr"
	"scribe/internal/asr/dashscope"
	"scribe/internal/asr/openaiasr"
	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/pipeline"
	"scribe/internal/queue"
	"scribe/internal/vision"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// flagPath returns the --config value, or empty when unset.
func (c *commandContext) flagPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		// A .env in the working directory seeds API keys before config
		// normalization reads the environment.
		_ = godotenv.Load()

		cfg, _, _, err := config.Load(c.flagPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openStore() (*queue.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return queue.Open(cfg)
}

func buildProvider(cfg *config.Config, logger *slog.Logger) (asr.Provider, error) {
	switch cfg.ASR.Provider {
	case config.ProviderDashScope:
		return dashscope.New(cfg, dashscope.WithLogger(logging.WithComponent(logger, "dashscope"))), nil
	case config.ProviderOpenAI:
		return openaiasr.New(cfg), nil
	default:
		return nil, fmt.Errorf("unknown speech provider %q", cfg.ASR.Provider)
	}
}

func buildPipeline(cfg *config.Config, logger *slog.Logger, keepAudio bool, extra ...pipeline.Option) (*pipeline.Pipeline, error) {
	provider, err := buildProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	opts := []pipeline.Option{
		pipeline.WithLogger(logging.WithComponent(logger, "pipeline")),
		pipeline.WithKeepAudio(keepAudio),
	}
	if cfg.Vision.Enabled {
		captioner := vision.New(cfg, vision.WithLogger(logging.WithComponent(logger, "vision")))
		opts = append(opts, pipeline.WithCaptioner(captioner))
	}
	opts = append(opts, extra...)
	return pipeline.New(cfg, provider, opts...), nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
