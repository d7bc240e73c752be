package domain

import (
	"regexp"
	"strings"
)

// Article is an unread bookmark on the read-later source.
type Article struct {
	// ID is the source-side identifier used for archiving.
	ID string

	// URL is the resolved location handed to the conversion service.
	URL string

	// Title is the sanitised title. It doubles as the document name on
	// the destination and as the exclusion key.
	Title string
}

// NewArticle creates an Article with a sanitised title.
func NewArticle(id, url, title string) Article {
	return Article{
		ID:    id,
		URL:   url,
		Title: SanitizeTitle(title),
	}
}

var (
	quoteChars   = regexp.MustCompile("[‘’\"]")
	illegalChars = regexp.MustCompile(`[/?<>*.|\\]`)
	spaceRuns    = regexp.MustCompile(`\s+`)
)

// SanitizeTitle turns a title into a name that is safe on every system
// involved. It is idempotent.
//
//	SanitizeTitle("A: B/C?") == "A - B C"
func SanitizeTitle(title string) string {
	s := quoteChars.ReplaceAllString(title, "'")
	s = strings.ReplaceAll(s, ":", " -")
	s = illegalChars.ReplaceAllString(s, " ")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
