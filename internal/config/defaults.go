package config

const (
	defaultOutputDir       = "~/.local/share/papercast/output"
	defaultLogDir          = "~/.local/share/papercast/logs"
	defaultAPIBind         = "127.0.0.1:7823"
	defaultLLMBackend      = "groq"
	defaultLLMTimeout      = 120
	defaultMaxSectionChars = 6000
	defaultTTSBackend      = "edge"
	defaultTTSCommand      = "edge-tts"
	defaultHostVoice       = "en-US-JennyNeural"
	defaultExpertVoice     = "en-US-GuyNeural"
	defaultSilenceMillis   = 600
	defaultAudioFormat     = "wav"
	defaultStreamBuffer    = 16
	defaultDownloadTimeout = 60
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

var builtinLLMBackends = map[string]LLMBackend{
	"groq": {
		BaseURL: "https://api.groq.com/openai/v1/chat/completions",
		Model:   "llama-3.3-70b-versatile",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1/chat/completions",
		Model:   "gpt-4o-mini",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1/chat/completions",
		Model:   "google/gemini-3-flash-preview",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1/chat/completions",
		Model:   "mistral",
	},
}

// TextBackends lists the recognized text backend names.
func TextBackends() []string {
	return []string{"groq", "openai", "openrouter", "ollama"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		LLM: LLM{
			Backend:         defaultLLMBackend,
			TimeoutSeconds:  defaultLLMTimeout,
			MaxSectionChars: defaultMaxSectionChars,
		},
		TTS: TTS{
			Backend:       defaultTTSBackend,
			Command:       defaultTTSCommand,
			HostVoice:     defaultHostVoice,
			ExpertVoice:   defaultExpertVoice,
			SilenceMillis: defaultSilenceMillis,
			Format:        defaultAudioFormat,
		},
		Workflow: Workflow{
			StreamBuffer:           defaultStreamBuffer,
			DownloadTimeoutSeconds: defaultDownloadTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
