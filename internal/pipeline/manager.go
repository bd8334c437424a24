package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"murmur/internal/ai"
	"murmur/internal/audiostore"
	"murmur/internal/config"
	"murmur/internal/dispatch"
	"murmur/internal/journal"
	"murmur/internal/notify"
)

// Manager runs the worker pool that drains the dispatch queue and moves
// journal entries through the transcribe, summarize, and classify stages.
type Manager struct {
	cfg      *config.Config
	store    *journal.Store
	queue    *dispatch.Queue
	audio    audiostore.Store
	suite    ai.Suite
	logger   *slog.Logger
	notifier notify.Service

	workers            int
	pollInterval       time.Duration
	errorRetryInterval time.Duration
	heartbeatInterval  time.Duration
	stageRetryAttempts int
	stageRetryBase     time.Duration

	mu      sync.Mutex
	running bool
	cancel  func()
	wg      sync.WaitGroup
	lastErr error
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithNotifier overrides the notification service (used in tests).
func WithNotifier(notifier notify.Service) ManagerOption {
	return func(m *Manager) {
		if notifier != nil {
			m.notifier = notifier
		}
	}
}

// WithPollInterval overrides how long idle workers wait between queue checks.
func WithPollInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		if interval > 0 {
			m.pollInterval = interval
		}
	}
}

// WithStageRetry overrides the in-run stage retry policy.
func WithStageRetry(attempts int, baseDelay time.Duration) ManagerOption {
	return func(m *Manager) {
		if attempts > 0 {
			m.stageRetryAttempts = attempts
		}
		if baseDelay >= 0 {
			m.stageRetryBase = baseDelay
		}
	}
}

// NewManager constructs a pipeline manager from configuration.
func NewManager(
	cfg *config.Config,
	store *journal.Store,
	queue *dispatch.Queue,
	audio audiostore.Store,
	suite ai.Suite,
	logger *slog.Logger,
	opts ...ManagerOption,
) *Manager {
	m := &Manager{
		cfg:                cfg,
		store:              store,
		queue:              queue,
		audio:              audio,
		suite:              suite,
		logger:             logger,
		notifier:           notify.NewService(cfg),
		workers:            cfg.Pipeline.Workers,
		pollInterval:       time.Duration(cfg.Pipeline.PollInterval) * time.Second,
		errorRetryInterval: time.Duration(cfg.Pipeline.ErrorRetryInterval) * time.Second,
		heartbeatInterval:  time.Duration(cfg.Pipeline.HeartbeatInterval) * time.Second,
		stageRetryAttempts: cfg.Pipeline.StageRetryAttempts,
		stageRetryBase:     time.Duration(cfg.Pipeline.StageRetryBaseMS) * time.Millisecond,
	}
	if m.workers <= 0 {
		m.workers = 1
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LastError returns the most recent processing error, for status surfaces.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
