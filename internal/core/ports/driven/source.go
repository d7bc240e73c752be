package driven

import (
	"context"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

// ArticleSource is the read-later service holding unread bookmarks.
type ArticleSource interface {
	// Unread returns unread articles, newest first.
	Unread(ctx context.Context) ([]domain.Article, error)

	// Archive marks the article with the given id as read.
	Archive(ctx context.Context, id string) error
}

// NetworkProbe checks whether the internet is reachable.
type NetworkProbe interface {
	Probe(ctx context.Context) error
}
