package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"murmur/internal/config"
	"murmur/internal/dispatch"
	"murmur/internal/journal"
	"murmur/internal/logging"
)

// Reconciler periodically repairs drift between the journal and the dispatch
// queue: expired leases are reclaimed, entries stranded in processing by a
// dead worker are returned to pending, and pending entries that lost their
// dispatch message are re-enqueued.
type Reconciler struct {
	store      *journal.Store
	queue      *dispatch.Queue
	logger     *slog.Logger
	schedule   string
	pendingAge time.Duration
	cron       *cron.Cron
}

// New constructs a reconciler from configuration.
func New(cfg *config.Config, store *journal.Store, queue *dispatch.Queue, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{
		store:      store,
		queue:      queue,
		logger:     logger.With(logging.String("component", "reconciler")),
		schedule:   cfg.Reconcile.Schedule,
		pendingAge: time.Duration(cfg.Reconcile.PendingAgeSeconds) * time.Second,
	}
}

// Start registers the sweep on the configured cron schedule and begins
// running it in the background.
func (r *Reconciler) Start() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	scheduler := cron.New(cron.WithParser(parser))
	if _, err := scheduler.AddFunc(r.schedule, func() {
		if err := r.Sweep(context.Background()); err != nil {
			r.logger.Error("reconcile sweep failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "reconcile_failed"),
			)
		}
	}); err != nil {
		return err
	}
	r.cron = scheduler
	scheduler.Start()
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (r *Reconciler) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.cron = nil
}

// Sweep performs one reconciliation pass.
func (r *Reconciler) Sweep(ctx context.Context) error {
	reclaimed, err := r.queue.ReclaimExpired(ctx)
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		r.logger.Info("reclaimed expired leases",
			logging.Int64("messages", reclaimed),
			logging.String(logging.FieldEventType, "leases_reclaimed"),
		)
	}

	recovered, err := r.recoverOrphanedProcessing(ctx)
	if err != nil {
		return err
	}
	if recovered > 0 {
		r.logger.Info("recovered orphaned processing entries",
			logging.Int("entries", recovered),
			logging.String(logging.FieldEventType, "processing_recovered"),
		)
	}

	redispatched, err := r.redispatchStalePending(ctx)
	if err != nil {
		return err
	}
	if redispatched > 0 {
		r.logger.Info("re-dispatched stale pending entries",
			logging.Int("entries", redispatched),
			logging.String(logging.FieldEventType, "pending_redispatched"),
		)
	}
	return nil
}

// recoverOrphanedProcessing finds processing entries whose dispatch message is
// gone and moves them back to pending for redelivery. A worker that dies
// mid-run leaves its entry here once the redelivery of its reclaimed message
// was acked as a duplicate. Entries whose message already dead-lettered are
// marked failed instead, so the attempt budget keeps its meaning.
func (r *Reconciler) recoverOrphanedProcessing(ctx context.Context) (int, error) {
	entries, err := r.store.List(ctx, journal.StatusProcessing)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, entry := range entries {
		active, err := r.queue.HasActive(ctx, entry.ID)
		if err != nil {
			return recovered, err
		}
		if active {
			continue
		}

		dead, err := r.queue.DeadLetterForEntry(ctx, entry.ID)
		if err != nil {
			return recovered, err
		}
		if dead != nil {
			reason := dead.LastError
			if reason == "" {
				reason = "processing attempts exhausted"
			}
			if _, err := r.store.MarkFailed(ctx, entry.ID, reason); err != nil {
				return recovered, err
			}
			r.logger.Warn("orphaned processing entry marked failed",
				logging.String(logging.FieldEntryID, entry.ID),
				logging.String("failure_reason", reason),
			)
			continue
		}

		moved, err := r.store.CompareAndSetStatus(ctx, entry.ID, journal.StatusPending, journal.StatusProcessing)
		if err != nil {
			return recovered, err
		}
		if !moved {
			continue
		}
		if _, err := r.queue.Enqueue(ctx, entry.ID); err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}

// redispatchStalePending finds pending entries older than the configured age
// and ensures each has an active dispatch message. Enqueue dedupes against
// live messages, so entries already queued are left alone.
func (r *Reconciler) redispatchStalePending(ctx context.Context) (int, error) {
	if r.pendingAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-r.pendingAge)
	stale, err := r.store.PendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, entry := range stale {
		if _, err := r.queue.Enqueue(ctx, entry.ID); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}
