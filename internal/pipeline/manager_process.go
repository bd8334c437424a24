package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"murmur/internal/dispatch"
	"murmur/internal/journal"
	"murmur/internal/logging"
	"murmur/internal/services"
)

// stageFailure carries the outcome of a failed stage along with whether a
// redelivery could plausibly succeed.
type stageFailure struct {
	reason    string
	err       error
	retryable bool
}

func (m *Manager) processDelivery(ctx context.Context, workerLogger *slog.Logger, message *dispatch.Message) error {
	entry, err := m.store.GetByID(ctx, message.EntryID)
	if err != nil {
		return fmt.Errorf("load entry %s: %w", message.EntryID, err)
	}
	if entry == nil {
		workerLogger.Warn("dispatch message references missing entry",
			logging.Int64(logging.FieldMessageID, message.ID),
			logging.String(logging.FieldEntryID, message.EntryID),
		)
		return m.queue.Ack(ctx, message.ID)
	}

	claimed, err := m.store.CompareAndSetStatus(ctx, entry.ID, journal.StatusProcessing, journal.StartableStatuses()...)
	if err != nil {
		return fmt.Errorf("claim entry %s: %w", entry.ID, err)
	}
	if !claimed {
		workerLogger.Debug("duplicate delivery for settled or in-flight entry",
			logging.Int64(logging.FieldMessageID, message.ID),
			logging.String(logging.FieldEntryID, entry.ID),
			logging.String(logging.FieldEventType, "duplicate_delivery"),
		)
		return m.queue.Ack(ctx, message.ID)
	}

	runCtx := services.WithEntryID(ctx, entry.ID)
	runCtx = services.WithRequestID(runCtx, uuid.NewString())
	logger := logging.WithContext(runCtx, workerLogger).With(
		logging.Int64(logging.FieldMessageID, message.ID),
		logging.Int(logging.FieldAttempt, message.Attempts),
	)

	leaseCtx, cancelLease := context.WithCancel(runCtx)
	var leaseWG sync.WaitGroup
	leaseWG.Add(1)
	go m.keepLease(leaseCtx, &leaseWG, logger, message.ID)

	start := time.Now()
	logger.Info("entry processing started",
		logging.String(logging.FieldEventType, "entry_start"),
	)
	failure := m.runStages(runCtx, logger, entry)
	cancelLease()
	leaseWG.Wait()

	if runCtx.Err() != nil {
		// Shutdown mid-run. The entry stays in processing; once its lease
		// lapses the reconciler moves it back to pending for redelivery.
		logger.Debug("processing interrupted by shutdown")
		return context.Canceled
	}

	if failure == nil {
		if _, err := m.store.MarkProcessed(ctx, entry.ID); err != nil {
			return fmt.Errorf("mark entry %s processed: %w", entry.ID, err)
		}
		if err := m.queue.Ack(ctx, message.ID); err != nil {
			return err
		}
		logger.Info("entry processing completed",
			logging.String(logging.FieldEventType, "entry_complete"),
			logging.Duration("processing_duration", time.Since(start)),
		)
		refreshed, err := m.store.GetByID(ctx, entry.ID)
		if err == nil && refreshed != nil {
			if notifyErr := m.notifier.NotifyEntryProcessed(ctx, entry.ID, refreshed.Summary); notifyErr != nil {
				logger.Warn("processed notification failed", logging.Error(notifyErr))
			}
		}
		return nil
	}

	return m.handleStageFailure(ctx, logger, entry, message, failure)
}

func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, entry *journal.Entry, message *dispatch.Message, failure *stageFailure) error {
	logger.Error("entry processing failed",
		logging.Error(failure.err),
		logging.String(logging.FieldEventType, "entry_failed"),
		logging.String(logging.FieldErrorKind, services.Kind(failure.err)),
		logging.String("failure_reason", failure.reason),
		logging.Bool("retryable", failure.retryable),
	)

	if _, err := m.store.MarkFailed(ctx, entry.ID, failure.reason); err != nil {
		return fmt.Errorf("mark entry %s failed: %w", entry.ID, err)
	}

	if !failure.retryable {
		if err := m.queue.Ack(ctx, message.ID); err != nil {
			return err
		}
		if notifyErr := m.notifier.NotifyEntryFailed(ctx, entry.ID, failure.reason); notifyErr != nil {
			logger.Warn("failure notification failed", logging.Error(notifyErr))
		}
		return failure.err
	}

	next, err := m.queue.Nack(ctx, message.ID, failure.reason)
	if err != nil {
		return err
	}
	if next == dispatch.StatusDead {
		logger.Error("dispatch message dead lettered",
			logging.Int64(logging.FieldMessageID, message.ID),
			logging.String(logging.FieldEventType, "dead_letter"),
			logging.String(logging.FieldErrorHint, "inspect with 'murmur deadletter list' and requeue when resolved"),
			logging.Alert("dead_letter"),
		)
		if notifyErr := m.notifier.NotifyDeadLetter(ctx, entry.ID, failure.reason); notifyErr != nil {
			logger.Warn("dead letter notification failed", logging.Error(notifyErr))
		}
	} else if notifyErr := m.notifier.NotifyEntryFailed(ctx, entry.ID, failure.reason); notifyErr != nil {
		logger.Warn("failure notification failed", logging.Error(notifyErr))
	}
	return failure.err
}

// runStages executes transcription and then the two enrichment stages. A nil
// return means the entry can be marked processed; enrichment failures are
// tolerated as long as the transcript was produced.
func (m *Manager) runStages(ctx context.Context, logger *slog.Logger, entry *journal.Entry) *stageFailure {
	audio, failure := m.loadAudio(ctx, entry)
	if failure != nil {
		return failure
	}

	transcript, err := m.runStage(ctx, logger, "transcribe", func(stageCtx context.Context) (string, error) {
		return m.suite.Transcriber.Transcribe(stageCtx, audio, entry.AudioRef)
	})
	if err != nil {
		if ctx.Err() != nil {
			return &stageFailure{reason: "shutdown", err: ctx.Err(), retryable: true}
		}
		return &stageFailure{
			reason:    "transcription failed: " + err.Error(),
			err:       err,
			retryable: services.IsRetryable(err),
		}
	}
	if err := m.store.SetTranscript(ctx, entry.ID, transcript); err != nil {
		return &stageFailure{reason: "persist transcript failed", err: err, retryable: true}
	}

	// Summarize and classify run concurrently; both consume the transcript
	// and neither blocks the entry from completing.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		summary, err := m.runStage(ctx, logger, "summarize", func(stageCtx context.Context) (string, error) {
			return m.suite.Summarizer.Summarize(stageCtx, transcript)
		})
		if err != nil {
			logger.Warn("summarize stage failed; entry completes without summary",
				logging.Error(err),
				logging.String(logging.FieldStage, "summarize"),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
			)
			return
		}
		if err := m.store.SetSummary(ctx, entry.ID, summary); err != nil {
			logger.Warn("persist summary failed", logging.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		emotion, err := m.runStage(ctx, logger, "emotion", func(stageCtx context.Context) (string, error) {
			return m.suite.Classifier.Classify(stageCtx, transcript)
		})
		if err != nil {
			logger.Warn("emotion stage failed; entry completes without emotion",
				logging.Error(err),
				logging.String(logging.FieldStage, "emotion"),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
			)
			return
		}
		if err := m.store.SetEmotion(ctx, entry.ID, emotion); err != nil {
			logger.Warn("persist emotion failed", logging.Error(err))
		}
	}()
	wg.Wait()

	if ctx.Err() != nil {
		return &stageFailure{reason: "shutdown", err: ctx.Err(), retryable: true}
	}
	return nil
}

func (m *Manager) loadAudio(ctx context.Context, entry *journal.Entry) ([]byte, *stageFailure) {
	audio, err := m.audio.Read(ctx, entry.AudioRef)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, &stageFailure{reason: "audio unavailable: " + entry.AudioRef, err: err, retryable: false}
		}
		return nil, &stageFailure{reason: "audio read failed", err: err, retryable: true}
	}

	size := int64(len(audio))
	if size < m.cfg.AudioStore.MinAudioSize {
		return nil, &stageFailure{
			reason:    journal.ReasonTooShort,
			err:       services.Wrap(services.ErrValidation, "transcribe", "check audio", journal.ReasonTooShort, nil),
			retryable: false,
		}
	}
	if maxBytes := m.cfg.MaxAudioBytes(); maxBytes > 0 && size > maxBytes {
		return nil, &stageFailure{
			reason:    "recording too large",
			err:       services.Wrap(services.ErrValidation, "transcribe", "check audio", "recording too large", nil),
			retryable: false,
		}
	}
	return audio, nil
}
