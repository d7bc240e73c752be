package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

// ConversionRequest asks the conversion service to build one document.
type ConversionRequest struct {
	// Author is shown as the document author.
	Author string `json:"author"`

	// Publisher carries the encoded source id.
	Publisher string `json:"publisher"`

	// URLs are the pages to include.
	URLs []string `json:"urls"`
}

// ConversionService converts web pages into EPUB documents asynchronously.
type ConversionService interface {
	// Submit starts a job and returns its id.
	Submit(ctx context.Context, req ConversionRequest) (string, error)

	// Status returns the job's current progress.
	Status(ctx context.Context, jobID string) (domain.Job, error)

	// Download streams the finished document into w.
	Download(ctx context.Context, jobID string, w io.Writer) error
}
