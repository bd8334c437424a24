package journal

import (
	"strings"
	"time"
)

// Status represents the processing lifecycle of a journal entry.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// ReasonTooShort is the failure reason recorded when a recording is rejected
// before transcription for being below the minimum audio size.
const ReasonTooShort = "recording too short"

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusProcessed,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// StartableStatuses are the statuses from which a worker may claim an entry.
// An entry in processing belongs to another delivery and is never claimed; a
// crashed worker strands its entry there until the reconciler finds it with
// no live dispatch message and moves it back to pending.
func StartableStatuses() []Status {
	return []Status{StatusPending, StatusFailed}
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends a processing attempt.
func (s Status) IsTerminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// Entry represents a journal entry persisted in SQLite.
//
// Transcript, Summary, and Emotion are nullable in storage; the empty string
// stands in for NULL here. They are written exclusively by the pipeline, one
// at a time as stages succeed.
type Entry struct {
	ID            string
	OwnerID       string
	AudioRef      string
	Transcript    string
	Summary       string
	Emotion       string
	Status        Status
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HealthSummary describes aggregated entry counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Processed  int
	Failed     int
}
