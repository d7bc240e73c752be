// Package remarkable exchanges the long-lived device token for a
// short-lived user token against the reMarkable cloud.
package remarkable

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
)

const (
	// DefaultTokenURL issues user tokens for a paired device.
	DefaultTokenURL = "https://webapp-prod.cloud.remarkable.engineering/token/json/2/user/new"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	maxTokenSize = 64 * 1024
)

// Ensure Exchanger implements the interface.
var _ driven.TokenExchanger = (*Exchanger)(nil)

// Exchanger implements driven.TokenExchanger.
type Exchanger struct {
	tokenURL string
}

// NewExchanger creates an exchanger for tokenURL. An empty tokenURL uses
// DefaultTokenURL.
func NewExchanger(tokenURL string) *Exchanger {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &Exchanger{tokenURL: tokenURL}
}

// UserToken requests a new user token, sending the device token as the
// bearer credential. The response body is the token itself.
func (e *Exchanger) UserToken(ctx context.Context, deviceToken string) (string, error) {
	if deviceToken == "" {
		return "", fmt.Errorf("%w: empty device token", domain.ErrAuthRequired)
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: deviceToken,
		TokenType:   "Bearer",
	}))
	client.Timeout = DefaultTimeout

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request user token: %w", domain.ErrTransientNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenSize))
	if err != nil {
		return "", fmt.Errorf("%w: read user token: %w", domain.ErrTransientNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: device token rejected (%d), pair the device again with --reset",
			domain.ErrAuthRequired, resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", fmt.Errorf("%w: user token request failed with status %d", domain.ErrTransientNetwork, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("user token request failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	token := strings.TrimSpace(string(body))
	if token == "" {
		return "", fmt.Errorf("%w: empty user token response", domain.ErrCredentialExpiry)
	}
	return token, nil
}
