// Package preflight validates the environment before a transcription run:
// working directories, external binaries, and provider credentials.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"scribe/internal/config"
	"scribe/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks only run when the corresponding feature is enabled.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckProviderCredentials(cfg),
	}
	if cfg.Vision.Enabled {
		results = append(results, CheckVisionCredentials(cfg))
	}
	return results
}

// CheckProviderCredentials verifies the configured speech provider has an
// API key.
func CheckProviderCredentials(cfg *config.Config) Result {
	name := fmt.Sprintf("Speech provider (%s)", cfg.ASR.Provider)
	switch cfg.ASR.Provider {
	case config.ProviderDashScope:
		if cfg.DashScope.APIKey == "" {
			return Result{Name: name, Detail: "API key missing (set ALIYUN_BAILIAN_API_KEY or DASHSCOPE_API_KEY)"}
		}
	case config.ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return Result{Name: name, Detail: "API key missing (set OPENAI_API_KEY)"}
		}
	default:
		return Result{Name: name, Detail: "unknown provider"}
	}
	return Result{Name: name, Passed: true, Detail: "credentials present"}
}

// CheckVisionCredentials verifies the keyframe captioning fallback has an
// API key.
func CheckVisionCredentials(cfg *config.Config) Result {
	const name = "Vision captioning"
	if cfg.Vision.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	return Result{Name: name, Passed: true, Detail: "credentials present"}
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries the pipeline needs. Both
// the status command and the batch runner use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio extraction and keyframe sampling",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
	})
}
