package dispatch_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"murmur/internal/dispatch"
	"murmur/internal/testsupport"
)

func TestEnqueueDequeueAck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	queue := testsupport.MustOpenQueue(t, cfg)

	ctx := context.Background()
	message, err := queue.Enqueue(ctx, "entry-1")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if message.Status != dispatch.StatusReady || message.Attempts != 0 {
		t.Fatalf("unexpected enqueued message: %#v", message)
	}

	claimed, err := queue.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if claimed == nil || claimed.EntryID != "entry-1" {
		t.Fatalf("unexpected claimed message: %#v", claimed)
	}
	if claimed.Status != dispatch.StatusLeased || claimed.Attempts != 1 {
		t.Fatalf("expected leased message with one attempt, got %#v", claimed)
	}
	if claimed.LeasedUntil == nil || !claimed.LeasedUntil.After(time.Now().UTC()) {
		t.Fatalf("expected future lease expiry, got %v", claimed.LeasedUntil)
	}

	empty, err := queue.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if empty != nil {
		t.Fatalf("expected empty queue while message leased, got %#v", empty)
	}

	if err := queue.Ack(ctx, claimed.ID); err != nil {
		t.Fatalf("Ack failed: %v", err)
	}
	gone, err := queue.GetByID(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected acked message to be removed, got %#v", gone)
	}

	// Duplicate ack is a no-op.
	if err := queue.Ack(ctx, claimed.ID); err != nil {
		t.Fatalf("duplicate Ack failed: %v", err)
	}
}

func TestEnqueueDeduplicatesActiveEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	queue := testsupport.MustOpenQueue(t, cfg)

	ctx := context.Background()
	first, err := queue.Enqueue(ctx, "entry-1")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	second, err := queue.Enqueue(ctx, "entry-1")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected duplicate enqueue to return existing message %d, got %d", first.ID, second.ID)
	}

	stats, err := queue.QueueStats(ctx)
	if err != nil {
		t.Fatalf("QueueStats failed: %v", err)
	}
	if stats.Ready != 1 {
		t.Fatalf("expected single ready message, got %#v", stats)
	}
}

func TestNackReturnsToReadyThenDeadLetters(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxAttempts(2))
	queue := testsupport.MustOpenQueue(t, cfg)

	ctx := context.Background()
	if _, err := queue.Enqueue(ctx, "entry-1"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	claimed, err := queue.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	status, err := queue.Nack(ctx, claimed.ID, "transcription unavailable")
	if err != nil {
		t.Fatalf("Nack failed: %v", err)
	}
	if status != dispatch.StatusReady {
		t.Fatalf("expected first nack to return message to ready, got %s", status)
	}

	claimed, err = queue.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if claimed.Attempts != 2 {
		t.Fatalf("expected second attempt, got %d", claimed.Attempts)
	}
	status, err = queue.Nack(ctx, claimed.ID, "transcription unavailable")
	if err != nil {
		t.Fatalf("Nack failed: %v", err)
	}
	if status != dispatch.StatusDead {
		t.Fatalf("expected exhausted message to dead letter, got %s", status)
	}

	dead, err := queue.DeadLetters(ctx)
	if err != nil {
		t.Fatalf("DeadLetters failed: %v", err)
	}
	if len(dead) != 1 || dead[0].LastError != "transcription unavailable" {
		t.Fatalf("unexpected dead letters: %#v", dead)
	}
}

func TestExtendLease(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	queue := testsupport.MustOpenQueue(t, cfg)

	ctx := context.Background()
	if _, err := queue.Enqueue(ctx, "entry-1"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	claimed, err := queue.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}

	extended, err := queue.ExtendLease(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("ExtendLease failed: %v", err)
	}
	if !extended {
		t.Fatal("expected lease extension to apply")
	}

	refreshed, err := queue.GetByID(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if refreshed.LeasedUntil == nil || refreshed.LeasedUntil.Before(*claimed.LeasedUntil) {
		t.Fatalf("expected lease to move forward, got %v then %v", claimed.LeasedUntil, refreshed.LeasedUntil)
	}

	if err := queue.Ack(ctx, claimed.ID); err != nil {
		t.Fatalf("Ack failed: %v", err)
	}
	extended, err = queue.ExtendLease(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("ExtendLease failed: %v", err)
	}
	if extended {
		t.Fatal("expected extension of removed message to report false")
	}
}

func TestReclaimExpiredLeases(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLeaseSeconds(0), testsupport.WithMaxAttempts(1))
	queue := testsupport.MustOpenQueue(t, cfg)

	ctx := context.Background()
	if _, err := queue.Enqueue(ctx, "entry-1"); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	claimed, err := queue.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	reclaimed, err := queue.ReclaimExpired(ctx)
	if err != nil {
		t.Fatalf("ReclaimExpired failed: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected one reclaimed message, got %d", reclaimed)
	}

	// Single allowed attempt was spent, so the reclaim dead letters it.
	message, err := queue.GetByID(ctx, claimed.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if message.Status != dispatch.StatusDead {
		t.Fatalf("expected dead letter after exhausted reclaim, got %s", message.Status)
	}
}

func TestRequeueResetsAttempts(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxAttempts(1))
	queue := testsupport.MustOpenQueue(t, cfg)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := queue.Enqueue(ctx, fmt.Sprintf("entry-%d", i)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		claimed, err := queue.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if _, err := queue.Nack(ctx, claimed.ID, "boom"); err != nil {
			t.Fatalf("Nack failed: %v", err)
		}
	}

	dead, err := queue.DeadLetters(ctx)
	if err != nil {
		t.Fatalf("DeadLetters failed: %v", err)
	}
	if len(dead) != 2 {
		t.Fatalf("expected two dead letters, got %d", len(dead))
	}

	count, err := queue.Requeue(ctx, dead[0].ID)
	if err != nil {
		t.Fatalf("Requeue failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one requeued message, got %d", count)
	}

	revived, err := queue.GetByID(ctx, dead[0].ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if revived.Status != dispatch.StatusReady || revived.Attempts != 0 || revived.LastError != "" {
		t.Fatalf("expected reset ready message, got %#v", revived)
	}

	count, err = queue.Requeue(ctx)
	if err != nil {
		t.Fatalf("Requeue failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected remaining dead letter requeued, got %d", count)
	}
}

func TestDequeueOrdersOldestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	queue := testsupport.MustOpenQueue(t, cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := queue.Enqueue(ctx, fmt.Sprintf("entry-%d", i)); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	for i := 0; i < 3; i++ {
		claimed, err := queue.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if claimed == nil || claimed.EntryID != fmt.Sprintf("entry-%d", i) {
			t.Fatalf("expected entry-%d next, got %#v", i, claimed)
		}
	}
}
