// Package epubpress implements driven.ConversionService on the epub.press
// book API.
package epubpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the epub.press books endpoint.
	DefaultBaseURL = "https://epub.press/api/v1/books"

	// DefaultTimeout bounds a single request. Downloads of large books
	// can take a while.
	DefaultTimeout = 2 * time.Minute

	maxErrorBody = 4 * 1024
)

// Ensure Client implements the interface.
var _ driven.ConversionService = (*Client)(nil)

// HTTPError is a response with status >= 400.
type HTTPError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("epubpress: HTTP %d (URL: %s)", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("epubpress: HTTP %d: %s (URL: %s)", e.StatusCode, e.Body, e.URL)
}

// Unwrap reports server-side failures as transient.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError {
		return domain.ErrTransientNetwork
	}
	return nil
}

// Client talks to epub.press.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client for baseURL. An empty baseURL uses
// DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

// Submit starts a book job.
func (c *Client) Submit(ctx context.Context, req driven.ConversionRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("submit: decode response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("submit: response has no job id")
	}
	return out.ID, nil
}

// Status reports job progress.
func (c *Client) Status(ctx context.Context, jobID string) (domain.Job, error) {
	resp, err := c.do(ctx, http.MethodGet, c.jobURL(jobID, "status"), http.NoBody)
	if err != nil {
		return domain.Job{}, fmt.Errorf("status %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	job := domain.Job{ID: jobID}
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return domain.Job{}, fmt.Errorf("status %s: decode response: %w", jobID, err)
	}
	job.ID = jobID
	return job, nil
}

// Download streams the finished book into w.
func (c *Client) Download(ctx context.Context, jobID string, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodGet, c.jobURL(jobID, "download"), http.NoBody)
	if err != nil {
		return fmt.Errorf("download %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%w: download %s: %w", domain.ErrTransientNetwork, jobID, err)
	}
	return nil
}

func (c *Client) jobURL(jobID, action string) string {
	return c.baseURL + "/" + url.PathEscape(jobID) + "/" + action
}

// do sends a request and returns the response when its status is < 400.
func (c *Client) do(ctx context.Context, method, target string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json, application/epub+zip")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransientNetwork, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data)), URL: target}
	}
	return resp, nil
}
