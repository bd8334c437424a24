package reconcile

import (
	"bytes"
	"context"
	"testing"
	"time"

	"murmur/internal/ai"
	"murmur/internal/audiostore"
	"murmur/internal/journal"
	"murmur/internal/logging"
	"murmur/internal/pipeline"
	"murmur/internal/testsupport"
)

func TestSweepReclaimsExpiredLeases(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLeaseSeconds(0))
	store := testsupport.MustOpenStore(t, cfg)
	queue := testsupport.MustOpenQueue(t, cfg)
	ctx := context.Background()

	entry := testsupport.NewEntry(t, store, "owner-1", "users/owner-1/a.m4a")
	if _, err := queue.Enqueue(ctx, entry.ID); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	message, err := queue.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if message == nil {
		t.Fatal("expected a leased message")
	}

	// Lease duration is zero, so the claim expires immediately.
	time.Sleep(5 * time.Millisecond)

	r := New(cfg, store, queue, logging.NewNop())
	if err := r.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	stats, err := queue.QueueStats(ctx)
	if err != nil {
		t.Fatalf("QueueStats failed: %v", err)
	}
	if stats.Ready != 1 || stats.Leased != 0 {
		t.Fatalf("expected message back in ready, got %#v", stats)
	}
}

func TestSweepRedispatchesStalePendingEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	queue := testsupport.MustOpenQueue(t, cfg)
	ctx := context.Background()

	entry := testsupport.NewEntry(t, store, "owner-1", "users/owner-1/a.m4a")

	r := New(cfg, store, queue, logging.NewNop())
	r.pendingAge = time.Nanosecond
	time.Sleep(time.Millisecond)

	if err := r.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	stats, err := queue.QueueStats(ctx)
	if err != nil {
		t.Fatalf("QueueStats failed: %v", err)
	}
	if stats.Ready != 1 {
		t.Fatalf("expected re-dispatched message, got %#v", stats)
	}

	// A second sweep must not duplicate the message.
	if err := r.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	stats, err = queue.QueueStats(ctx)
	if err != nil {
		t.Fatalf("QueueStats failed: %v", err)
	}
	if stats.Ready != 1 {
		t.Fatalf("expected dedupe to hold, got %#v", stats)
	}

	current, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if current.Status != journal.StatusPending {
		t.Fatalf("sweep must not change entry status, got %s", current.Status)
	}
}

func TestSweepSkipsRedispatchWhenDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	queue := testsupport.MustOpenQueue(t, cfg)
	ctx := context.Background()

	testsupport.NewEntry(t, store, "owner-1", "users/owner-1/a.m4a")

	r := New(cfg, store, queue, logging.NewNop())
	r.pendingAge = 0

	if err := r.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	stats, err := queue.QueueStats(ctx)
	if err != nil {
		t.Fatalf("QueueStats failed: %v", err)
	}
	if stats.Ready != 0 {
		t.Fatalf("expected no dispatch, got %#v", stats)
	}
}

func TestSweepRecoversOrphanedProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	queue := testsupport.MustOpenQueue(t, cfg)
	ctx := context.Background()

	// A worker claimed the entry and died after its message was acked.
	entry := testsupport.NewEntry(t, store, "owner-1", "users/owner-1/a.m4a")
	if _, err := store.CompareAndSetStatus(ctx, entry.ID, journal.StatusProcessing, journal.StatusPending); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	r := New(cfg, store, queue, logging.NewNop())
	if err := r.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	current, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if current.Status != journal.StatusPending {
		t.Fatalf("expected orphan back in pending, got %s", current.Status)
	}
	stats, err := queue.QueueStats(ctx)
	if err != nil {
		t.Fatalf("QueueStats failed: %v", err)
	}
	if stats.Ready != 1 {
		t.Fatalf("expected re-dispatched message, got %#v", stats)
	}

	// A second sweep leaves the freshly queued entry alone.
	if err := r.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	stats, err = queue.QueueStats(ctx)
	if err != nil {
		t.Fatalf("QueueStats failed: %v", err)
	}
	if stats.Ready != 1 {
		t.Fatalf("expected dedupe to hold, got %#v", stats)
	}
}

func TestSweepFailsOrphanWithDeadLetter(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxAttempts(1))
	store := testsupport.MustOpenStore(t, cfg)
	queue := testsupport.MustOpenQueue(t, cfg)
	ctx := context.Background()

	entry := testsupport.NewEntry(t, store, "owner-1", "users/owner-1/a.m4a")
	if _, err := queue.Enqueue(ctx, entry.ID); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	message, err := queue.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if _, err := store.CompareAndSetStatus(ctx, entry.ID, journal.StatusProcessing, journal.StatusPending); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := queue.Nack(ctx, message.ID, "transcription unavailable"); err != nil {
		t.Fatalf("Nack failed: %v", err)
	}

	r := New(cfg, store, queue, logging.NewNop())
	if err := r.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	current, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if current.Status != journal.StatusFailed || current.FailureReason != "transcription unavailable" {
		t.Fatalf("expected failed entry carrying the dead letter cause, got %#v", current)
	}
	stats, err := queue.QueueStats(ctx)
	if err != nil {
		t.Fatalf("QueueStats failed: %v", err)
	}
	if stats.Ready != 0 || stats.Dead != 1 {
		t.Fatalf("expected dead letter left for manual requeue, got %#v", stats)
	}
}

func TestLeaseExpiryRecoveryCompletesEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLeaseSeconds(0))
	store := testsupport.MustOpenStore(t, cfg)
	queue := testsupport.MustOpenQueue(t, cfg)
	audio, err := audiostore.NewLocal(cfg.Paths.AudioDir)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	manager := pipeline.NewManager(cfg, store, queue, audio, ai.MockSuite(), logging.NewNop(),
		pipeline.WithPollInterval(5*time.Millisecond),
		pipeline.WithStageRetry(1, 0),
	)
	ctx := context.Background()

	entry, err := manager.Submit(ctx, "owner-1", "walk.m4a", bytes.Repeat([]byte{0x42}, 64))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// The first worker claims the delivery and the entry, then stalls past
	// the lease without acknowledging.
	if message, err := queue.Dequeue(ctx); err != nil || message == nil {
		t.Fatalf("Dequeue failed: %v (message=%v)", err, message)
	}
	if _, err := store.CompareAndSetStatus(ctx, entry.ID, journal.StatusProcessing, journal.StatusPending); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	r := New(cfg, store, queue, logging.NewNop())
	if err := r.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	// The redelivery finds the entry still owned and settles without running
	// stages; the next sweep hands the orphan back out.
	if handled, err := manager.ProcessOne(ctx); err != nil || !handled {
		t.Fatalf("ProcessOne failed: %v (handled=%v)", err, handled)
	}
	if err := r.Sweep(ctx); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if handled, err := manager.ProcessOne(ctx); err != nil || !handled {
		t.Fatalf("ProcessOne failed: %v (handled=%v)", err, handled)
	}

	final, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if final.Status != journal.StatusProcessed || final.Transcript == "" {
		t.Fatalf("expected completed entry, got %#v", final)
	}

	// A late write from the presumed-dead worker cannot clobber the result.
	clobbered, err := store.MarkFailed(ctx, entry.ID, "late write")
	if err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	if clobbered {
		t.Fatal("expected late failure write to be fenced")
	}
	after, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if after.Status != journal.StatusProcessed || after.Transcript != final.Transcript {
		t.Fatalf("expected finalized entry untouched, got %#v", after)
	}

	stats, err := queue.QueueStats(ctx)
	if err != nil {
		t.Fatalf("QueueStats failed: %v", err)
	}
	if stats.Ready != 0 || stats.Leased != 0 || stats.Dead != 0 {
		t.Fatalf("expected drained queue, got %#v", stats)
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	queue := testsupport.MustOpenQueue(t, cfg)

	r := New(cfg, store, queue, logging.NewNop())
	r.schedule = "not a schedule"
	if err := r.Start(); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
