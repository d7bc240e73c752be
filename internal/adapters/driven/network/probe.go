// Package network checks internet connectivity.
package network

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 10 * time.Second

// Ensure Probe implements the interface.
var _ driven.NetworkProbe = (*Probe)(nil)

// Probe sends a HEAD request to a well-known URL. Any HTTP response
// counts as connected.
type Probe struct {
	url    string
	client *http.Client
}

// NewProbe creates a probe for url.
func NewProbe(url string) *Probe {
	return &Probe{
		url: url,
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Probe returns domain.ErrTransientNetwork when the URL is unreachable.
func (p *Probe) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTransientNetwork, err)
	}
	_ = resp.Body.Close()
	return nil
}
