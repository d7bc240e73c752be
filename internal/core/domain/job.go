package domain

// Job is a conversion request tracked by the conversion service.
// Jobs are never persisted; a crash simply retries the article next cycle.
type Job struct {
	// ID is the opaque identifier returned on submission.
	ID string `json:"id"`

	// Message is the human-readable status.
	Message string `json:"message"`

	// Progress is the completion percentage (0-100).
	Progress int `json:"progress"`
}

// Done reports whether the conversion has finished.
func (j Job) Done() bool {
	return j.Progress == 100
}
