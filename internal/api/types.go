package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Entry describes a journal entry in a transport-friendly format.
type Entry struct {
	ID            string `json:"id"`
	OwnerID       string `json:"ownerId"`
	AudioRef      string `json:"audioRef"`
	Status        string `json:"status"`
	Transcript    string `json:"transcript,omitempty"`
	Summary       string `json:"summary,omitempty"`
	Emotion       string `json:"emotion,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// DispatchMessage describes a dispatch queue message for API consumers.
type DispatchMessage struct {
	ID          int64  `json:"id"`
	EntryID     string `json:"entryId"`
	Status      string `json:"status"`
	Attempts    int    `json:"attempts"`
	LeasedUntil string `json:"leasedUntil,omitempty"`
	LastError   string `json:"lastError,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// PipelineStatus summarizes pipeline execution state.
type PipelineStatus struct {
	Running     bool           `json:"running"`
	EntryCounts map[string]int `json:"entryCounts"`
	QueueCounts map[string]int `json:"queueCounts"`
	LastError   string         `json:"lastError,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running        bool           `json:"running"`
	PID            int            `json:"pid"`
	JournalDBPath  string         `json:"journalDbPath"`
	DispatchDBPath string         `json:"dispatchDbPath"`
	LockFilePath   string         `json:"lockFilePath"`
	Pipeline       PipelineStatus `json:"pipeline"`
}

// EntryListResponse wraps a collection of entries for API responses.
type EntryListResponse struct {
	Entries []Entry `json:"entries"`
}

// EntryResponse wraps a single entry.
type EntryResponse struct {
	Entry Entry `json:"entry"`
}

// DeadLetterListResponse wraps the dead-letter queue contents.
type DeadLetterListResponse struct {
	Messages []DispatchMessage `json:"messages"`
}

// RequeueResponse reports how many dead letters were returned to the queue.
type RequeueResponse struct {
	Requeued int64 `json:"requeued"`
}

// RetryResponse reports how many failed entries were re-dispatched.
type RetryResponse struct {
	Retried int `json:"retried"`
}
