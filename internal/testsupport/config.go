// Package testsupport provides helpers shared by package tests: seeded
// configurations, queue stores, and fixture files.
package testsupport

import (
	"path/filepath"
	"testing"

	"scribe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.DashScope.APIKey = "sk-test"
	// Vision needs credentials; tests opt in through WithVision.
	cfg.Vision.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithProvider switches the speech provider on the test config.
func WithProvider(provider string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.ASR.Provider = provider
		if provider == config.ProviderOpenAI {
			cfg.OpenAI.APIKey = "sk-test"
		}
	}
}

// WithVision enables the keyframe captioning fallback on the test config.
func WithVision() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Vision.Enabled = true
		cfg.Vision.APIKey = "sk-test"
	}
}
