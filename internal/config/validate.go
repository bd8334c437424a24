package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAI(); err != nil {
		return err
	}
	if err := c.validateAudioStore(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAI() error {
	switch c.AI.Mode {
	case ModeMock:
		return nil
	case ModeOpenAI:
		if c.AI.APIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/murmur/config.toml"
			}
			return fmt.Errorf("ai.api_key is required when ai.mode is %q. Set MURMUR_AI_API_KEY env var or edit %s (create with 'murmur config init')", ModeOpenAI, defaultPath)
		}
		return nil
	default:
		return fmt.Errorf("ai.mode must be %q or %q, got %q", ModeMock, ModeOpenAI, c.AI.Mode)
	}
}

func (c *Config) validateAudioStore() error {
	switch c.AudioStore.Backend {
	case BackendLocal:
		if strings.TrimSpace(c.Paths.AudioDir) == "" {
			return errors.New("paths.audio_dir must be set when audio_store.backend is \"local\"")
		}
	case BackendS3:
		if strings.TrimSpace(c.AudioStore.S3Bucket) == "" {
			return errors.New("audio_store.s3_bucket must be set when audio_store.backend is \"s3\"")
		}
		if strings.TrimSpace(c.AudioStore.S3Region) == "" {
			return errors.New("audio_store.s3_region must be set when audio_store.backend is \"s3\"")
		}
	default:
		return fmt.Errorf("audio_store.backend must be %q or %q, got %q", BackendLocal, BackendS3, c.AudioStore.Backend)
	}
	if c.AudioStore.MinAudioSize >= c.MaxAudioBytes() {
		return errors.New("audio_store.min_audio_size must be smaller than the max audio size")
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.LeaseSeconds < c.Pipeline.HeartbeatInterval*2 {
		return errors.New("queue.lease_seconds must be at least twice pipeline.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateReconcile() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Reconcile.Schedule); err != nil {
		return fmt.Errorf("reconcile.schedule: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
