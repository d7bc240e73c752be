package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/remarkable-pocket/internal/clock"
	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driving"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// Ensure ReconciliationEngine implements the interfaces.
var (
	_ driving.Reconciler  = (*ReconciliationEngine)(nil)
	_ driving.SyncHistory = (*ReconciliationEngine)(nil)
)

// ReconcilerConfig holds the settings of a reconciliation cycle.
type ReconcilerConfig struct {
	// ArticleLimit is the maximum number of documents on the destination.
	ArticleLimit int

	// ArchiveRead archives and removes fully read documents.
	ArchiveRead bool
}

// ReconciliationEngine runs reconciliation cycles between the source and
// the destination.
type ReconciliationEngine struct {
	source      driven.ArticleSource
	destination driven.Destination
	inspector   *MetadataInspector
	coordinator *DownloadCoordinator
	cache       driving.ExclusionCache
	runs        driven.SyncRunStore
	clock       clock.Clock
	config      ReconcilerConfig
}

// NewReconciliationEngine creates an engine. runs may be nil to disable
// cycle history.
func NewReconciliationEngine(
	source driven.ArticleSource,
	destination driven.Destination,
	inspector *MetadataInspector,
	coordinator *DownloadCoordinator,
	cache driving.ExclusionCache,
	runs driven.SyncRunStore,
	clk clock.Clock,
	config ReconcilerConfig,
) *ReconciliationEngine {
	return &ReconciliationEngine{
		source:      source,
		destination: destination,
		inspector:   inspector,
		coordinator: coordinator,
		cache:       cache,
		runs:        runs,
		clock:       clk,
		config:      config,
	}
}

// Sync runs one cycle. The returned run is never nil; a non-nil error
// means the cycle was abandoned.
func (e *ReconciliationEngine) Sync(ctx context.Context) (*domain.SyncRun, error) {
	run := &domain.SyncRun{
		ID:        uuid.NewString(),
		StartedAt: e.clock.Now(),
	}
	logger.Info("Starting sync...")

	err := e.reconcile(ctx, run)

	run.EndedAt = e.clock.Now()
	run.Success = err == nil
	if err != nil {
		run.Error = err.Error()
	}
	e.record(ctx, run)

	if err != nil {
		return run, err
	}
	logger.Info("Completed sync in %s.", HumanDuration(run.Duration()))
	return run, nil
}

// History returns recent cycles, newest first.
func (e *ReconciliationEngine) History(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if e.runs == nil {
		return nil, nil
	}
	return e.runs.History(ctx, limit)
}

func (e *ReconciliationEngine) reconcile(ctx context.Context, run *domain.SyncRun) error {
	// 1. Archive read documents
	if e.config.ArchiveRead {
		archived, err := e.archiveRead(ctx)
		run.Archived = archived
		if err != nil {
			return err
		}
	}

	// 2. Check capacity
	names, err := e.destination.List(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(names) >= e.config.ArticleLimit {
		logger.Info("No new articles synced. Remarkable already has %d article(s).", len(names))
		return nil
	}

	// 3. Diff against the source
	articles, err := e.source.Unread(ctx)
	if err != nil {
		return fmt.Errorf("fetch unread articles: %w", err)
	}
	candidates := unsynced(articles, names)

	// 4. Nothing to do
	if len(candidates) == 0 {
		logger.Info("All Pocket articles are synced with Remarkable.")
		return nil
	}

	// 5. Clear leftovers
	if err := e.coordinator.ClearDownloads(); err != nil {
		return fmt.Errorf("clear downloads: %w", err)
	}

	// 6. Download
	paths := e.coordinator.Download(ctx, candidates, e.config.ArticleLimit-len(names))
	run.Downloaded = len(paths)

	// 7. Upload
	uploaded, err := e.upload(ctx, paths)
	run.Uploaded = uploaded
	return err
}

// archiveRead archives every fully read document on the source, then
// removes it from the destination. A document is only removed once its
// archive succeeded. Corrupt documents are evicted and excluded; any other
// metadata failure leaves the document in place.
func (e *ReconciliationEngine) archiveRead(ctx context.Context) (int, error) {
	names, err := e.destination.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	var read []*domain.DocumentMetadata
	for _, name := range names {
		meta, err := e.inspector.GetMetadata(ctx, name)
		if err != nil && ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if err != nil && !errors.Is(err, domain.ErrCorruptRemoteState) {
			logger.Warn("Failed to read metadata of '%s': %v. Skipping it this cycle.", name, err)
			continue
		}
		if err != nil {
			logger.Error("Failed to read metadata of '%s': %v. Removing it from Remarkable.", name, err)
			if err := e.destination.Delete(ctx, name); err != nil {
				logger.Error("Failed to delete '%s': %v", name, err)
			}
			e.cache.Invalidate(ctx, name, "unreadable document")
			continue
		}
		if meta.IsRead() {
			read = append(read, meta)
		}
	}

	n := len(read)
	logger.Info("Found %d read article(s) on Remarkable.", n)

	archived := 0
	for i, meta := range read {
		name := meta.Document.Name
		logger.Info("(%d/%d) Marking '%s' as read on Pocket...", i+1, n, name)
		if err := e.source.Archive(ctx, meta.SourceID); err != nil {
			logger.Error("Failed to archive '%s': %v. Keeping it on Remarkable.", name, err)
			continue
		}
		logger.Info("(%d/%d) Deleting '%s' from Remarkable...", i+1, n, name)
		if err := e.destination.Delete(ctx, name); err != nil {
			return archived, fmt.Errorf("delete %s: %w", name, err)
		}
		archived++
	}
	return archived, nil
}

func (e *ReconciliationEngine) upload(ctx context.Context, paths []string) (int, error) {
	total := len(paths)
	for i, path := range paths {
		logger.Info("(%d/%d) Uploading: '%s'.", i+1, total, documentName(path))
		if err := e.destination.Upload(ctx, path); err != nil {
			return i, fmt.Errorf("upload %s: %w", documentName(path), err)
		}
	}
	return total, nil
}

func (e *ReconciliationEngine) record(ctx context.Context, run *domain.SyncRun) {
	if e.runs == nil {
		return
	}
	if err := e.runs.Record(ctx, run); err != nil {
		logger.Debug("Failed to record sync run: %v", err)
		return
	}
	if err := e.runs.Prune(ctx, domain.SyncRunHistoryLimit); err != nil {
		logger.Debug("Failed to prune sync history: %v", err)
	}
}

// unsynced returns the articles without a destination document of the
// same name, keeping source order. Only the first article of each title
// is kept since the title names the artifact.
func unsynced(articles []domain.Article, names []string) []domain.Article {
	seen := make(map[string]struct{}, len(names)+len(articles))
	for _, n := range names {
		seen[n] = struct{}{}
	}
	var result []domain.Article
	for _, a := range articles {
		if _, ok := seen[a.Title]; ok {
			continue
		}
		seen[a.Title] = struct{}{}
		result = append(result, a)
	}
	return result
}

func documentName(path string) string {
	base := path[strings.LastIndexAny(path, `/\`)+1:]
	return strings.TrimSuffix(base, ".epub")
}

// HumanDuration formats d as "1h 30m 5s", truncated to seconds.
func HumanDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d <= 0 {
		return "0s"
	}
	var parts []string
	if h := d / time.Hour; h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
		d -= h * time.Hour
	}
	if m := d / time.Minute; m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
		d -= m * time.Minute
	}
	if s := d / time.Second; s > 0 {
		parts = append(parts, fmt.Sprintf("%ds", s))
	}
	return strings.Join(parts, " ")
}
