package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"murmur/internal/logging"
)

// keepLease extends the dispatch lease for an in-flight message until the
// stage work finishes or the context is canceled. Without it, long
// transcriptions would outlive their visibility window and be redelivered
// mid-run.
func (m *Manager) keepLease(ctx context.Context, wg *sync.WaitGroup, logger *slog.Logger, messageID int64) {
	defer wg.Done()
	if m.heartbeatInterval <= 0 {
		return
	}

	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			extended, err := m.queue.ExtendLease(ctx, messageID)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				logger.Warn("lease extension failed",
					logging.Error(err),
					logging.Int64(logging.FieldMessageID, messageID),
				)
				continue
			}
			if !extended {
				logger.Warn("lease no longer held",
					logging.Int64(logging.FieldMessageID, messageID),
				)
				return
			}
		}
	}
}
