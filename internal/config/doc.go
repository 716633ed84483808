// Package config loads, normalizes, and validates the TOML configuration for
// scribe.
//
// Configuration sections by subsystem:
//   - Paths: working, output, and log directories
//   - ASR: provider selection plus transcription options
//   - DashScope: Aliyun Bailian / DashScope ASR connection settings
//   - OpenAI: OpenAI speech-to-text connection settings
//   - Vision: keyframe captioning fallback for silent videos
//   - Logging: log format and level
//
// API keys may come from the config file or the environment
// (ALIYUN_BAILIAN_API_KEY / DASHSCOPE_API_KEY / OPENAI_API_KEY).
package config
