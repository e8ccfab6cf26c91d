package config

const (
	defaultDataDir                = "~/.local/share/facecast"
	defaultLogDir                 = "~/.local/share/facecast/logs"
	defaultAPIBind                = "127.0.0.1:7823"
	defaultElevenLabsBaseURL      = "https://api.elevenlabs.io"
	defaultElevenLabsModelID      = "eleven_multilingual_v2"
	defaultElevenLabsTimeout      = 120
	defaultLipsyncBaseURL         = "https://api.sync.so"
	defaultLipsyncModel           = "lipsync-2"
	defaultLipsyncPollInterval    = 5
	defaultLipsyncTimeout         = 600
	defaultStoreBackend           = "memory"
	defaultTTSTimeout             = 180
	defaultLipsyncStageTimeout    = 900
	defaultRetentionHours         = 24
	defaultJanitorInterval        = 300
	defaultNotifyRequestTimeout   = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		ElevenLabs: ElevenLabs{
			BaseURL:        defaultElevenLabsBaseURL,
			DefaultModelID: defaultElevenLabsModelID,
			RequestTimeout: defaultElevenLabsTimeout,
		},
		Lipsync: Lipsync{
			BaseURL:        defaultLipsyncBaseURL,
			Model:          defaultLipsyncModel,
			PollInterval:   defaultLipsyncPollInterval,
			RequestTimeout: defaultLipsyncTimeout,
		},
		Store: Store{
			Backend: defaultStoreBackend,
		},
		Workflow: Workflow{
			TTSTimeout:      defaultTTSTimeout,
			LipsyncTimeout:  defaultLipsyncStageTimeout,
			RetentionHours:  defaultRetentionHours,
			JanitorInterval: defaultJanitorInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			JobCompleted:   true,
			JobFailed:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
