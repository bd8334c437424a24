package testsupport

import (
	"context"
	"testing"

	"murmur/internal/config"
	"murmur/internal/dispatch"
	"murmur/internal/journal"
)

// MustOpenStore opens a journal.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenQueue opens a dispatch.Queue for tests and registers cleanup.
func MustOpenQueue(t testing.TB, cfg *config.Config) *dispatch.Queue {
	t.Helper()

	queue, err := dispatch.Open(cfg)
	if err != nil {
		t.Fatalf("dispatch.Open: %v", err)
	}
	t.Cleanup(func() {
		queue.Close()
	})
	return queue
}

// NewEntry creates a pending journal entry for tests using the provided store.
func NewEntry(t testing.TB, store *journal.Store, ownerID, audioRef string) *journal.Entry {
	t.Helper()

	entry, err := store.Create(context.Background(), ownerID, audioRef)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return entry
}
