package config

// Adapter and backend mode values.
const (
	ModeMock   = "mock"
	ModeOpenAI = "openai"

	BackendLocal = "local"
	BackendS3    = "s3"
)

const (
	defaultDataDir             = "~/.local/share/murmur/data"
	defaultLogDir              = "~/.local/share/murmur/logs"
	defaultAudioDir            = "~/.local/share/murmur/audio"
	defaultAPIBind             = "127.0.0.1:7910"
	defaultAIMode              = ModeMock
	defaultAIBaseURL           = ""
	defaultChatModel           = "gpt-4o-mini"
	defaultTranscribeModel     = "whisper-1"
	defaultAITimeoutSeconds    = 60
	defaultAudioBackend        = BackendLocal
	defaultMinAudioSize        = 4096
	defaultMaxAudioMiB         = 50
	defaultLeaseSeconds        = 300
	defaultMaxAttempts         = 5
	defaultWorkers             = 2
	defaultPollInterval        = 5
	defaultErrorRetryInterval  = 10
	defaultHeartbeatInterval   = 15
	defaultStageRetryAttempts  = 3
	defaultStageRetryBaseMS    = 500
	defaultReconcileSchedule   = "@every 1m"
	defaultPendingAgeSeconds   = 120
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			AudioDir: defaultAudioDir,
			APIBind:  defaultAPIBind,
		},
		AI: AI{
			Mode:            defaultAIMode,
			BaseURL:         defaultAIBaseURL,
			ChatModel:       defaultChatModel,
			TranscribeModel: defaultTranscribeModel,
			TimeoutSeconds:  defaultAITimeoutSeconds,
		},
		AudioStore: AudioStore{
			Backend:      defaultAudioBackend,
			MinAudioSize: defaultMinAudioSize,
			MaxAudioMiB:  defaultMaxAudioMiB,
		},
		Queue: Queue{
			LeaseSeconds: defaultLeaseSeconds,
			MaxAttempts:  defaultMaxAttempts,
		},
		Pipeline: Pipeline{
			Workers:            defaultWorkers,
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			StageRetryAttempts: defaultStageRetryAttempts,
			StageRetryBaseMS:   defaultStageRetryBaseMS,
		},
		Reconcile: Reconcile{
			Schedule:          defaultReconcileSchedule,
			PendingAgeSeconds: defaultPendingAgeSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Processed:      true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
