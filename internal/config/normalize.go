package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAI()
	c.normalizeAudioStore()
	c.normalizeQueue()
	c.normalizePipeline()
	c.normalizeReconcile()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.AudioDir, err = expandPath(c.Paths.AudioDir); err != nil {
		return fmt.Errorf("paths.audio_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeAI() {
	c.AI.Mode = strings.ToLower(strings.TrimSpace(c.AI.Mode))
	if c.AI.Mode == "" {
		c.AI.Mode = defaultAIMode
	}
	if key := strings.TrimSpace(os.Getenv("MURMUR_AI_API_KEY")); key != "" && c.AI.APIKey == "" {
		c.AI.APIKey = key
	}
	c.AI.APIKey = strings.TrimSpace(c.AI.APIKey)
	c.AI.BaseURL = strings.TrimSpace(c.AI.BaseURL)
	if strings.TrimSpace(c.AI.ChatModel) == "" {
		c.AI.ChatModel = defaultChatModel
	}
	if strings.TrimSpace(c.AI.TranscribeModel) == "" {
		c.AI.TranscribeModel = defaultTranscribeModel
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = defaultAITimeoutSeconds
	}
}

func (c *Config) normalizeAudioStore() {
	c.AudioStore.Backend = strings.ToLower(strings.TrimSpace(c.AudioStore.Backend))
	if c.AudioStore.Backend == "" {
		c.AudioStore.Backend = defaultAudioBackend
	}
	if c.AudioStore.MinAudioSize <= 0 {
		c.AudioStore.MinAudioSize = defaultMinAudioSize
	}
	if c.AudioStore.MaxAudioMiB <= 0 {
		c.AudioStore.MaxAudioMiB = defaultMaxAudioMiB
	}
}

func (c *Config) normalizeQueue() {
	if c.Queue.LeaseSeconds <= 0 {
		c.Queue.LeaseSeconds = defaultLeaseSeconds
	}
	if c.Queue.MaxAttempts <= 0 {
		c.Queue.MaxAttempts = defaultMaxAttempts
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultWorkers
	}
	if c.Pipeline.PollInterval <= 0 {
		c.Pipeline.PollInterval = defaultPollInterval
	}
	if c.Pipeline.ErrorRetryInterval <= 0 {
		c.Pipeline.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Pipeline.HeartbeatInterval <= 0 {
		c.Pipeline.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.Pipeline.StageRetryAttempts <= 0 {
		c.Pipeline.StageRetryAttempts = defaultStageRetryAttempts
	}
	if c.Pipeline.StageRetryBaseMS <= 0 {
		c.Pipeline.StageRetryBaseMS = defaultStageRetryBaseMS
	}
}

func (c *Config) normalizeReconcile() {
	if strings.TrimSpace(c.Reconcile.Schedule) == "" {
		c.Reconcile.Schedule = defaultReconcileSchedule
	}
	if c.Reconcile.PendingAgeSeconds <= 0 {
		c.Reconcile.PendingAgeSeconds = defaultPendingAgeSeconds
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
