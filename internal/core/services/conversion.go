package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/remarkable-pocket/internal/clock"
	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// ConversionConfig controls job polling and content validation.
type ConversionConfig struct {
	// PollAttempts is the total number of status requests per job.
	PollAttempts int

	// PollInterval is the delay between status requests.
	PollInterval time.Duration

	// MinContentLength is the number of characters the main content
	// resource must exceed.
	MinContentLength int
}

// ConversionConfigFrom extracts the conversion settings from cfg.
func ConversionConfigFrom(cfg domain.Config) ConversionConfig {
	return ConversionConfig{
		PollAttempts:     cfg.PollAttempts,
		PollInterval:     cfg.PollInterval,
		MinContentLength: cfg.MinContentLength,
	}
}

// ConversionPipeline turns one article into a formatted EPUB file.
type ConversionPipeline struct {
	service   driven.ConversionService
	formatter driven.DocumentFormatter
	clock     clock.Clock
	config    ConversionConfig
}

// NewConversionPipeline creates a conversion pipeline.
func NewConversionPipeline(
	service driven.ConversionService,
	formatter driven.DocumentFormatter,
	clk clock.Clock,
	config ConversionConfig,
) *ConversionPipeline {
	if config.PollAttempts <= 0 {
		config.PollAttempts = 1
	}
	return &ConversionPipeline{
		service:   service,
		formatter: formatter,
		clock:     clk,
		config:    config,
	}
}

// Convert submits article for conversion, waits for the job, downloads
// the result into dir and formats it. Returns the artifact path.
// On failure no file is left behind.
func (p *ConversionPipeline) Convert(ctx context.Context, article domain.Article, dir string) (string, error) {
	// 1. Submit, hiding the source id in the publisher field
	jobID, err := p.service.Submit(ctx, driven.ConversionRequest{
		Author:    article.URL,
		Publisher: domain.EncodeSourceID(article.ID),
		URLs:      []string{article.URL},
	})
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}

	// 2. Poll until ready
	if err := p.waitUntilReady(ctx, jobID); err != nil {
		return "", err
	}

	// 3. Download
	path := filepath.Join(dir, article.Title+".epub")
	if err := p.download(ctx, jobID, path); err != nil {
		return "", p.discard(path, fmt.Errorf("download: %w", err))
	}

	// 4. Rewrite packaging
	if err := p.formatter.Format(path, article.Title); err != nil {
		return "", p.discard(path, fmt.Errorf("format: %w", err))
	}

	// 5. Validate content length
	text, err := p.formatter.ContentText(path)
	if err != nil {
		return "", p.discard(path, fmt.Errorf("read content: %w", err))
	}
	if n := utf8.RuneCountInString(text); n <= p.config.MinContentLength {
		logger.Warn("Downloaded article is invalid. See https://github.com/nov1n/RemarkablePocket#limitations for possible causes.")
		return "", p.discard(path, fmt.Errorf("%w: %d characters", domain.ErrInvalidContent, n))
	}

	return path, nil
}

// waitUntilReady makes exactly PollAttempts status requests, sleeping
// PollInterval between them. Transport errors count as attempts.
func (p *ConversionPipeline) waitUntilReady(ctx context.Context, jobID string) error {
	var lastErr error
	for attempt := 1; attempt <= p.config.PollAttempts; attempt++ {
		job, err := p.service.Status(ctx, jobID)
		switch {
		case err != nil:
			lastErr = err
			logger.Debug("Status request %d/%d failed: %v", attempt, p.config.PollAttempts, err)
		case job.Done():
			return nil
		default:
			lastErr = nil
			logger.Debug("Status: %s progress: %d%%", job.Message, job.Progress)
		}

		if attempt == p.config.PollAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.clock.After(p.config.PollInterval):
		}
	}

	if lastErr != nil {
		return fmt.Errorf("%w: job %s after %d attempts: %w", domain.ErrConversionTimeout, jobID, p.config.PollAttempts, lastErr)
	}
	return fmt.Errorf("%w: job %s after %d attempts", domain.ErrConversionTimeout, jobID, p.config.PollAttempts)
}

func (p *ConversionPipeline) download(ctx context.Context, jobID, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := p.service.Download(ctx, jobID, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// discard removes a partial artifact and returns cause.
func (p *ConversionPipeline) discard(path string, cause error) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debug("Failed to remove partial artifact %s: %v", path, err)
	}
	return cause
}
