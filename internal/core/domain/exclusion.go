package domain

import "time"

// Exclusion marks an article as known to be unconvertible.
// Exclusions are keyed by title because the sanitised title is the only
// identifier that survives on the destination side.
type Exclusion struct {
	// Title is the sanitised article title.
	Title string

	// Reason is a short explanation recorded at invalidation time.
	Reason string

	// ExcludedAt is when the article was excluded.
	ExcludedAt time.Time
}
