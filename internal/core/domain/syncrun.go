package domain

import "time"

// SyncRun records the outcome of one reconciliation cycle.
type SyncRun struct {
	// ID uniquely identifies the cycle.
	ID string

	// StartedAt is when the cycle started.
	StartedAt time.Time

	// EndedAt is when the cycle finished or was abandoned.
	EndedAt time.Time

	// Success is false when the cycle was abandoned on an error.
	Success bool

	// Error holds the message of the error that abandoned the cycle.
	Error string

	// Archived is the number of read documents archived and removed.
	Archived int

	// Downloaded is the number of articles converted successfully.
	Downloaded int

	// Uploaded is the number of documents uploaded to the destination.
	Uploaded int
}

// Duration returns how long the cycle took.
func (r SyncRun) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// SyncRunHistoryLimit is the number of cycles kept in history.
const SyncRunHistoryLimit = 100
