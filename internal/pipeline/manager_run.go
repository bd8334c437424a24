package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"murmur/internal/logging"
)

// Start begins background processing with the configured worker count.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("pipeline already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(m.workers)
	m.mu.Unlock()

	for i := 0; i < m.workers; i++ {
		go m.runWorker(runCtx, i)
	}
	return nil
}

// Stop terminates background processing and waits for workers to drain.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()

	logger := m.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String("worker", fmt.Sprintf("worker-%d", id)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		message, err := m.queue.Dequeue(ctx)
		if err != nil {
			m.handleDequeueError(ctx, logger, err)
			continue
		}
		if message == nil {
			m.waitForWorkOrShutdown(ctx)
			continue
		}

		if err := m.processDelivery(ctx, logger, message); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
		}
	}
}

// ProcessOne claims and settles at most one dispatch message, reporting
// whether a message was handled. Useful for synchronous draining without the
// worker pool.
func (m *Manager) ProcessOne(ctx context.Context) (bool, error) {
	message, err := m.queue.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if message == nil {
		return false, nil
	}

	logger := m.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := m.processDelivery(ctx, logger, message); err != nil {
		return true, err
	}
	return true, nil
}

func (m *Manager) handleDequeueError(ctx context.Context, logger *slog.Logger, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	m.setLastError(err)
	logger.Error("failed to fetch next dispatch message",
		logging.Error(err),
		logging.String(logging.FieldEventType, "dispatch_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check dispatch database access"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(m.errorRetryInterval):
	}
}

func (m *Manager) waitForWorkOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}
