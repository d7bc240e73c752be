package pocket

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

// APIError is a non-2xx Pocket response.
type APIError struct {
	StatusCode int
	// Code is the X-Error-Code header, 0 when absent.
	Code    int
	Message string
	URL     string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != 0 {
		return fmt.Sprintf("pocket: API error %d (code %d): %s (URL: %s)", e.StatusCode, e.Code, msg, e.URL)
	}
	return fmt.Sprintf("pocket: API error %d: %s (URL: %s)", e.StatusCode, msg, e.URL)
}

// Unwrap maps the status onto the domain sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return domain.ErrAuthRequired
	case e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError:
		return domain.ErrTransientNetwork
	}
	return nil
}

// IsUnauthorized reports whether err is a rejected access token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
