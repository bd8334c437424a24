package dispatch

import "time"

// MessageStatus tracks a message through the dispatch lifecycle.
type MessageStatus string

const (
	// StatusReady marks a message available for a worker to claim.
	StatusReady MessageStatus = "ready"
	// StatusLeased marks a message claimed by a worker until its lease expires.
	StatusLeased MessageStatus = "leased"
	// StatusDead marks a message that exhausted its delivery attempts.
	StatusDead MessageStatus = "dead"
)

// Message is a durable unit of work pointing at a journal entry. A message is
// delivered at least once; consumers must tolerate duplicates.
type Message struct {
	ID          int64
	EntryID     string
	Attempts    int
	Status      MessageStatus
	LeasedUntil *time.Time
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Stats summarizes queue depth per message state.
type Stats struct {
	Ready  int
	Leased int
	Dead   int
}
