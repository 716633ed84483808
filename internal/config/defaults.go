package config

const (
	defaultWorkDir   = "~/.local/share/scribe/work"
	defaultOutputDir = "~/.local/share/scribe/output"
	defaultLogDir    = "~/.local/share/scribe/logs"

	defaultASRProvider    = "dashscope"
	defaultASRLanguage    = "zh"
	defaultASRTimeout     = 120
	defaultASRRetries     = 3
	defaultASREnableWords = true

	defaultDashScopeBaseURL  = "https://dashscope.aliyuncs.com/api/v1"
	defaultDashScopeEndpoint = defaultDashScopeBaseURL + "/services/audio/asr/generation"
	defaultDashScopeModel    = "fun-asr"

	defaultOpenAIModel = "whisper-1"

	defaultVisionEndpoint       = defaultDashScopeBaseURL + "/services/aigc/multimodal-generation/generation"
	defaultVisionModel          = "qwen-vl-max"
	defaultVisionPrompt         = "请用中文详细描述这张关键帧的场景、主体、动作、文字以及潜在含义。"
	defaultVisionTimeout        = 120
	defaultVisionRetries        = 3
	defaultVisionMaxFrames      = 16
	defaultVisionSceneThreshold = 0.3

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		ASR: ASR{
			Provider:       defaultASRProvider,
			Language:       defaultASRLanguage,
			EnableWords:    defaultASREnableWords,
			TimeoutSeconds: defaultASRTimeout,
			Retries:        defaultASRRetries,
		},
		DashScope: DashScope{
			BaseURL:  defaultDashScopeBaseURL,
			Endpoint: defaultDashScopeEndpoint,
			Model:    defaultDashScopeModel,
		},
		OpenAI: OpenAI{
			Model: defaultOpenAIModel,
		},
		Vision: Vision{
			Enabled:        true,
			Endpoint:       defaultVisionEndpoint,
			Model:          defaultVisionModel,
			Prompt:         defaultVisionPrompt,
			TimeoutSeconds: defaultVisionTimeout,
			Retries:        defaultVisionRetries,
			MaxFrames:      defaultVisionMaxFrames,
			SceneThreshold: defaultVisionSceneThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
