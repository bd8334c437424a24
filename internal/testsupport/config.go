package testsupport

import (
	"path/filepath"
	"testing"

	"murmur/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.AudioDir = filepath.Join(base, "audio")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.AudioStore.MinAudioSize = 8

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAIMode sets the AI adapter mode on the test config.
func WithAIMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.AI.Mode = mode
	}
}

// WithMinAudioSize overrides the minimum accepted audio size in bytes.
func WithMinAudioSize(size int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.AudioStore.MinAudioSize = size
	}
}

// WithLeaseSeconds overrides the dispatch lease duration.
func WithLeaseSeconds(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Queue.LeaseSeconds = seconds
	}
}

// WithMaxAttempts overrides the dispatch dead-letter threshold.
func WithMaxAttempts(attempts int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Queue.MaxAttempts = attempts
	}
}
