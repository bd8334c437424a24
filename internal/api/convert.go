package api

import (
	"time"

	"murmur/internal/dispatch"
	"murmur/internal/journal"
)

// FromEntry converts a journal record to its API representation.
func FromEntry(entry *journal.Entry) Entry {
	if entry == nil {
		return Entry{}
	}
	dto := Entry{
		ID:            entry.ID,
		OwnerID:       entry.OwnerID,
		AudioRef:      entry.AudioRef,
		Status:        string(entry.Status),
		Transcript:    entry.Transcript,
		Summary:       entry.Summary,
		Emotion:       entry.Emotion,
		FailureReason: entry.FailureReason,
	}
	dto.CreatedAt = FormatTime(entry.CreatedAt)
	dto.UpdatedAt = FormatTime(entry.UpdatedAt)
	return dto
}

// FromEntries converts a slice of journal records into API DTOs.
func FromEntries(entries []*journal.Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromEntry(entry))
	}
	return out
}

// FromMessage converts a dispatch record to its API representation.
func FromMessage(message *dispatch.Message) DispatchMessage {
	if message == nil {
		return DispatchMessage{}
	}
	dto := DispatchMessage{
		ID:        message.ID,
		EntryID:   message.EntryID,
		Status:    string(message.Status),
		Attempts:  message.Attempts,
		LastError: message.LastError,
	}
	if message.LeasedUntil != nil {
		dto.LeasedUntil = FormatTime(*message.LeasedUntil)
	}
	dto.CreatedAt = FormatTime(message.CreatedAt)
	dto.UpdatedAt = FormatTime(message.UpdatedAt)
	return dto
}

// FromMessages converts a slice of dispatch records into API DTOs.
func FromMessages(messages []*dispatch.Message) []DispatchMessage {
	if len(messages) == 0 {
		return nil
	}
	out := make([]DispatchMessage, 0, len(messages))
	for _, message := range messages {
		out = append(out, FromMessage(message))
	}
	return out
}

// EntryCounts produces a string-keyed representation of journal health counts.
func EntryCounts(summary journal.HealthSummary) map[string]int {
	return map[string]int{
		string(journal.StatusPending):    summary.Pending,
		string(journal.StatusProcessing): summary.Processing,
		string(journal.StatusProcessed):  summary.Processed,
		string(journal.StatusFailed):     summary.Failed,
	}
}

// QueueCounts produces a string-keyed representation of dispatch stats.
func QueueCounts(stats dispatch.Stats) map[string]int {
	return map[string]int{
		string(dispatch.StatusReady):  stats.Ready,
		string(dispatch.StatusLeased): stats.Leased,
		string(dispatch.StatusDead):   stats.Dead,
	}
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
