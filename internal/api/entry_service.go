package api

import (
	"context"

	"murmur/internal/journal"
)

// EntryReader abstracts journal persistence interactions needed for API queries.
type EntryReader interface {
	List(ctx context.Context, statuses ...journal.Status) ([]*journal.Entry, error)
	ListForOwner(ctx context.Context, ownerID string, limit, offset int) ([]*journal.Entry, error)
	GetByID(ctx context.Context, id string) (*journal.Entry, error)
	Summary(ctx context.Context) (journal.HealthSummary, error)
}

// EntryService exposes read-only journal operations returning API DTOs.
type EntryService struct {
	store EntryReader
}

// NewEntryService constructs an EntryService around the provided reader.
func NewEntryService(store EntryReader) *EntryService {
	if store == nil {
		return nil
	}
	return &EntryService{store: store}
}

// List returns entries filtered by status.
func (s *EntryService) List(ctx context.Context, statuses ...journal.Status) ([]Entry, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	entries, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromEntries(entries), nil
}

// ListForOwner returns an owner's entries newest first.
func (s *EntryService) ListForOwner(ctx context.Context, ownerID string, limit, offset int) ([]Entry, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	entries, err := s.store.ListForOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return FromEntries(entries), nil
}

// Describe fetches a single entry.
func (s *EntryService) Describe(ctx context.Context, id string) (*Entry, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	entry, err := s.store.GetByID(ctx, id)
	if err != nil || entry == nil {
		return nil, err
	}
	dto := FromEntry(entry)
	return &dto, nil
}

// Health returns journal entry counts keyed by status string.
func (s *EntryService) Health(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	summary, err := s.store.Summary(ctx)
	if err != nil {
		return nil, err
	}
	return EntryCounts(summary), nil
}
