package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// MetadataInspector recovers page count and source id of destination
// documents from their stored artifacts.
type MetadataInspector struct {
	destination driven.Destination
	formatter   driven.DocumentFormatter
	dir         string
}

// NewMetadataInspector creates an inspector that downloads into dir.
func NewMetadataInspector(destination driven.Destination, formatter driven.DocumentFormatter, dir string) *MetadataInspector {
	return &MetadataInspector{
		destination: destination,
		formatter:   formatter,
		dir:         dir,
	}
}

// GetMetadata returns the metadata of the named document. Documents the
// destination converted to a fallback format fail with
// domain.ErrCorruptRemoteState.
func (m *MetadataInspector) GetMetadata(ctx context.Context, name string) (*domain.DocumentMetadata, error) {
	doc, err := m.destination.Stat(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if doc.Name == "" {
		doc.Name = name
	}

	path, err := m.destination.Download(ctx, name, m.dir)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Debug("Failed to remove %s: %v", path, err)
		}
	}()

	info, err := m.formatter.Inspect(path)
	if err != nil {
		return nil, fmt.Errorf("inspect: %w", err)
	}

	sourceID, err := domain.DecodeSourceID(info.Publisher)
	if err != nil {
		return nil, err
	}

	return &domain.DocumentMetadata{
		Document:  *doc,
		PageCount: info.PageCount,
		SourceID:  sourceID,
	}, nil
}
