package journal_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"murmur/internal/journal"
	"murmur/internal/testsupport"
)

func TestCreateAndFetch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	entry, err := store.Create(ctx, "owner-1", "audio/owner-1/morning.m4a")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if entry.ID == "" {
		t.Fatal("expected entry ID to be assigned")
	}
	if entry.Status != journal.StatusPending {
		t.Fatalf("expected new entry to be pending, got %s", entry.Status)
	}

	fetched, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.AudioRef != "audio/owner-1/morning.m4a" {
		t.Fatalf("unexpected fetched entry: %#v", fetched)
	}

	scoped, err := store.GetForOwner(ctx, "owner-2", entry.ID)
	if err != nil {
		t.Fatalf("GetForOwner failed: %v", err)
	}
	if scoped != nil {
		t.Fatal("expected owner scoping to hide the entry")
	}
}

func TestCreateRequiresOwnerAndAudioRef(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.Create(ctx, "", "audio/x.m4a"); err == nil {
		t.Fatal("expected error when owner missing")
	}
	if _, err := store.Create(ctx, "owner-1", "  "); err == nil {
		t.Fatal("expected error when audio ref missing")
	}
}

func TestCompareAndSetStatusGuardsDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	entry := testsupport.NewEntry(t, store, "owner-1", "audio/a.m4a")

	claimed, err := store.CompareAndSetStatus(ctx, entry.ID, journal.StatusProcessing, journal.StartableStatuses()...)
	if err != nil {
		t.Fatalf("CompareAndSetStatus failed: %v", err)
	}
	if !claimed {
		t.Fatal("expected first claim to succeed")
	}

	again, err := store.CompareAndSetStatus(ctx, entry.ID, journal.StatusProcessing, journal.StartableStatuses()...)
	if err != nil {
		t.Fatalf("CompareAndSetStatus failed: %v", err)
	}
	if again {
		t.Fatal("expected duplicate claim to be rejected")
	}
}

func TestCompareAndSetStatusSingleWinnerUnderContention(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	entry := testsupport.NewEntry(t, store, "owner-1", "audio/a.m4a")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.CompareAndSetStatus(ctx, entry.ID, journal.StatusProcessing, journal.StartableStatuses()...)
			if err != nil {
				t.Errorf("CompareAndSetStatus failed: %v", err)
				return
			}
			if claimed {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
}

func TestMarkProcessedOnlyFromProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	entry := testsupport.NewEntry(t, store, "owner-1", "audio/a.m4a")

	done, err := store.MarkProcessed(ctx, entry.ID)
	if err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}
	if done {
		t.Fatal("expected MarkProcessed to refuse a pending entry")
	}

	if _, err := store.CompareAndSetStatus(ctx, entry.ID, journal.StatusProcessing, journal.StatusPending); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := store.SetTranscript(ctx, entry.ID, "Today was a good day."); err != nil {
		t.Fatalf("SetTranscript failed: %v", err)
	}
	if err := store.SetSummary(ctx, entry.ID, "A good day."); err != nil {
		t.Fatalf("SetSummary failed: %v", err)
	}
	if err := store.SetEmotion(ctx, entry.ID, "happy"); err != nil {
		t.Fatalf("SetEmotion failed: %v", err)
	}

	done, err = store.MarkProcessed(ctx, entry.ID)
	if err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}
	if !done {
		t.Fatal("expected MarkProcessed to succeed from processing")
	}

	fetched, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != journal.StatusProcessed {
		t.Fatalf("expected processed status, got %s", fetched.Status)
	}
	if fetched.Transcript == "" || fetched.Summary == "" || fetched.Emotion != "happy" {
		t.Fatalf("expected stage results to persist, got %#v", fetched)
	}
}

func TestMarkFailedRecordsReason(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	entry := testsupport.NewEntry(t, store, "owner-1", "audio/a.m4a")

	if _, err := store.CompareAndSetStatus(ctx, entry.ID, journal.StatusProcessing, journal.StatusPending); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	failed, err := store.MarkFailed(ctx, entry.ID, journal.ReasonTooShort)
	if err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	if !failed {
		t.Fatal("expected MarkFailed to apply")
	}

	fetched, err := store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != journal.StatusFailed || fetched.FailureReason != journal.ReasonTooShort {
		t.Fatalf("unexpected failed entry: %#v", fetched)
	}
}

func TestRetryFailedClearsReason(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var failedIDs []string
	for i := 0; i < 3; i++ {
		entry := testsupport.NewEntry(t, store, "owner-1", fmt.Sprintf("audio/%d.m4a", i))
		if _, err := store.CompareAndSetStatus(ctx, entry.ID, journal.StatusProcessing, journal.StatusPending); err != nil {
			t.Fatalf("claim failed: %v", err)
		}
		if _, err := store.MarkFailed(ctx, entry.ID, "transcription unavailable"); err != nil {
			t.Fatalf("MarkFailed failed: %v", err)
		}
		failedIDs = append(failedIDs, entry.ID)
	}
	processed := testsupport.NewEntry(t, store, "owner-1", "audio/done.m4a")
	if _, err := store.CompareAndSetStatus(ctx, processed.ID, journal.StatusProcessing, journal.StatusPending); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := store.MarkProcessed(ctx, processed.ID); err != nil {
		t.Fatalf("MarkProcessed failed: %v", err)
	}

	count, err := store.RetryFailed(ctx, failedIDs[0])
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one entry retried, got %d", count)
	}

	count, err = store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected remaining failed entries retried, got %d", count)
	}

	retried, err := store.GetByID(ctx, failedIDs[0])
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retried.Status != journal.StatusPending || retried.FailureReason != "" {
		t.Fatalf("expected cleared pending entry, got %#v", retried)
	}

	final, err := store.GetByID(ctx, processed.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if final.Status != journal.StatusProcessed {
		t.Fatalf("expected processed entry untouched, got %s", final.Status)
	}
}

func TestListForOwnerOrdersNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		testsupport.NewEntry(t, store, "owner-1", fmt.Sprintf("audio/%d.m4a", i))
		time.Sleep(2 * time.Millisecond)
	}
	testsupport.NewEntry(t, store, "owner-2", "audio/other.m4a")

	entries, err := store.ListForOwner(ctx, "owner-1", 10, 0)
	if err != nil {
		t.Fatalf("ListForOwner failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Fatal("expected newest-first ordering")
		}
	}

	page, err := store.ListForOwner(ctx, "owner-1", 2, 2)
	if err != nil {
		t.Fatalf("ListForOwner failed: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("expected one entry on final page, got %d", len(page))
	}
}

func TestPendingOlderThan(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stale := testsupport.NewEntry(t, store, "owner-1", "audio/stale.m4a")
	testsupport.NewEntry(t, store, "owner-1", "audio/fresh.m4a")

	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now().UTC()

	fresh := testsupport.NewEntry(t, store, "owner-1", "audio/later.m4a")

	entries, err := store.PendingOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("PendingOlderThan failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 stale entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.ID == fresh.ID {
			t.Fatal("expected fresh entry to be excluded")
		}
	}
	if entries[0].ID != stale.ID {
		t.Fatalf("expected oldest entry first, got %s", entries[0].ID)
	}
}

func TestSummaryCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewEntry(t, store, "owner-1", "audio/p.m4a")
	working := testsupport.NewEntry(t, store, "owner-1", "audio/w.m4a")
	if _, err := store.CompareAndSetStatus(ctx, working.ID, journal.StatusProcessing, journal.StatusPending); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Total != 2 || summary.Pending != 1 || summary.Processing != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}
