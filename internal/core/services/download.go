package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driving"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// ArticleConverter converts a single article into a local artifact.
type ArticleConverter interface {
	Convert(ctx context.Context, article domain.Article, dir string) (string, error)
}

// DownloadCoordinator drives conversions over a batch of candidates.
// It is the only writer of the exclusion cache.
type DownloadCoordinator struct {
	converter ArticleConverter
	cache     driving.ExclusionCache
	dir       string
}

// NewDownloadCoordinator creates a coordinator that stores artifacts in dir.
func NewDownloadCoordinator(converter ArticleConverter, cache driving.ExclusionCache, dir string) *DownloadCoordinator {
	return &DownloadCoordinator{
		converter: converter,
		cache:     cache,
		dir:       dir,
	}
}

// Dir returns the working directory.
func (d *DownloadCoordinator) Dir() string {
	return d.dir
}

// Download converts candidates in order until limit artifacts have been
// produced. Excluded titles are skipped; failed titles are excluded.
func (d *DownloadCoordinator) Download(ctx context.Context, candidates []domain.Article, limit int) []string {
	if limit <= 0 {
		return nil
	}
	total := min(len(candidates), limit)
	logger.Info("Downloading %d unread article(s) from Pocket (%d in total).", total, len(candidates))

	var paths []string
	for _, article := range candidates {
		if len(paths) >= limit || ctx.Err() != nil {
			break
		}
		if !d.cache.IsValid(article.Title) {
			logger.Debug("Skipping excluded article '%s'.", article.Title)
			continue
		}
		logger.Info("(%d/%d) Downloading: '%s'.", len(paths)+1, total, article.Title)

		path, err := d.converter.Convert(ctx, article, d.dir)
		if err != nil {
			// Cancelled conversions are retried next cycle.
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				logger.Info("Download of '%s' interrupted.", article.Title)
				break
			}
			logger.Error("Failed to download article: %v.", err)
			d.cache.Invalidate(ctx, article.Title, exclusionReason(err))
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

// ClearDownloads removes artifacts left over from an interrupted cycle.
func (d *DownloadCoordinator) ClearDownloads() error {
	matches, err := filepath.Glob(filepath.Join(d.dir, "*.epub"))
	if err != nil {
		return fmt.Errorf("list downloads: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", filepath.Base(m), err)
		}
	}
	return nil
}

// exclusionReason classifies a conversion failure for the exclusion list.
// Every failure excludes the article; the reason only tells them apart.
func exclusionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrConversionTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrInvalidContent):
		return "invalid content"
	default:
		return "error: " + err.Error()
	}
}
