package pipeline

import (
	"context"
	"log/slog"
	"time"

	"murmur/internal/logging"
	"murmur/internal/services"
)

// runStage executes a single stage with the configured in-run retry budget.
// Only errors the taxonomy marks retryable are attempted again; the backoff
// doubles from the configured base each attempt.
func (m *Manager) runStage(ctx context.Context, logger *slog.Logger, stage string, fn func(context.Context) (string, error)) (string, error) {
	attempts := m.stageRetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	stageCtx := services.WithStage(ctx, stage)
	delay := m.stageRetryBase
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(stageCtx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == attempts || !services.IsRetryable(err) || ctx.Err() != nil {
			break
		}
		logger.Warn("stage attempt failed; retrying",
			logging.Error(err),
			logging.String(logging.FieldStage, stage),
			logging.Int(logging.FieldAttempt, attempt),
			logging.Duration("backoff", delay),
		)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return "", lastErr
}
