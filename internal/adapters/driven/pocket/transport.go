package pocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

const (
	// DefaultBaseURL is the Pocket API root.
	DefaultBaseURL = "https://getpocket.com"

	// ConsumerKey identifies this application to Pocket.
	ConsumerKey = "99428-51e4648a4528a1faa799c738"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// HourlyLimit is Pocket's per-user request quota.
	HourlyLimit = 320
)

// transport posts JSON to the Pocket API under a shared rate limit.
type transport struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func newTransport(baseURL string) *transport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &transport{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Hour/HourlyLimit), 10),
	}
}

// post sends body to path and decodes the JSON response into out.
func (t *transport) post(ctx context.Context, path string, body, out any) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	url := t.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Accept", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrTransientNetwork, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		code, _ := strconv.Atoi(resp.Header.Get("X-Error-Code"))
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       code,
			Message:    resp.Header.Get("X-Error"),
			URL:        url,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
