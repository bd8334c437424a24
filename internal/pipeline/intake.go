package pipeline

import (
	"context"
	"fmt"

	"murmur/internal/audiostore"
	"murmur/internal/journal"
	"murmur/internal/logging"
	"murmur/internal/services"
)

// Submit stores a new recording, creates its journal entry, and dispatches it
// for processing. The entry is returned in pending state; processing happens
// asynchronously.
func (m *Manager) Submit(ctx context.Context, ownerID, fileName string, audio []byte) (*journal.Entry, error) {
	size := int64(len(audio))
	if size == 0 {
		return nil, services.Wrap(services.ErrValidation, "intake", "check audio", "empty recording", nil)
	}
	if maxBytes := m.cfg.MaxAudioBytes(); maxBytes > 0 && size > maxBytes {
		return nil, services.Wrap(services.ErrValidation, "intake", "check audio",
			fmt.Sprintf("recording exceeds %d bytes", maxBytes), nil)
	}

	ref := audiostore.NewRef(ownerID, fileName)
	if err := m.audio.Save(ctx, ref, audio); err != nil {
		return nil, fmt.Errorf("store recording: %w", err)
	}

	entry, err := m.store.Create(ctx, ownerID, ref)
	if err != nil {
		return nil, err
	}

	if _, err := m.queue.Enqueue(ctx, entry.ID); err != nil {
		// The entry is durable either way; the reconciler re-dispatches
		// pending entries whose enqueue was lost. The caller still sees a
		// retryable error so it knows processing is deferred.
		if m.logger != nil {
			m.logger.Warn("enqueue after intake failed; reconciler will recover",
				logging.Error(err),
				logging.String(logging.FieldEntryID, entry.ID),
				logging.String(logging.FieldEventType, "enqueue_failed"),
			)
		}
		return entry, services.Wrap(services.ErrTransient, "intake", "enqueue",
			"entry stored but not dispatched", err)
	}
	return entry, nil
}

// Reprocess moves a failed entry back to pending and dispatches it again.
func (m *Manager) Reprocess(ctx context.Context, entryID string) (*journal.Entry, error) {
	entry, err := m.store.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, services.Wrap(services.ErrNotFound, "reprocess", "load entry", entryID, nil)
	}
	if entry.Status != journal.StatusFailed {
		return nil, services.Wrap(services.ErrValidation, "reprocess", "check status",
			fmt.Sprintf("entry is %s, only failed entries can be reprocessed", entry.Status), nil)
	}

	moved, err := m.store.CompareAndSetStatus(ctx, entry.ID, journal.StatusPending, journal.StatusFailed)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, services.Wrap(services.ErrValidation, "reprocess", "transition", "entry changed state concurrently", nil)
	}
	if _, err := m.queue.Enqueue(ctx, entry.ID); err != nil {
		return nil, fmt.Errorf("enqueue reprocess: %w", err)
	}
	return m.store.GetByID(ctx, entry.ID)
}

// RetryAllFailed reprocesses every failed entry and reports how many were
// dispatched.
func (m *Manager) RetryAllFailed(ctx context.Context) (int, error) {
	failed, err := m.store.List(ctx, journal.StatusFailed)
	if err != nil {
		return 0, err
	}
	retried := 0
	for _, entry := range failed {
		moved, err := m.store.CompareAndSetStatus(ctx, entry.ID, journal.StatusPending, journal.StatusFailed)
		if err != nil {
			return retried, err
		}
		if !moved {
			continue
		}
		if _, err := m.queue.Enqueue(ctx, entry.ID); err != nil {
			return retried, fmt.Errorf("enqueue reprocess: %w", err)
		}
		retried++
	}
	return retried, nil
}
