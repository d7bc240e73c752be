package driven

import (
	"context"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
)

// TokenExchanger trades the long-lived device token for a bearer token.
type TokenExchanger interface {
	UserToken(ctx context.Context, deviceToken string) (string, error)
}

// ClientConfig manages the destination client's configuration files.
type ClientConfig interface {
	// DeviceToken returns the paired device token.
	// Returns domain.ErrAuthRequired when the client is not paired.
	DeviceToken() (string, error)

	// WriteSession writes a config file for the given tokens and returns
	// its path. Every call produces a new file.
	WriteSession(deviceToken, userToken string) (string, error)

	// Path is the client's primary config file.
	Path() string
}

// SessionProvider exposes the current credential snapshot.
type SessionProvider interface {
	// Current returns the live session, or nil before the first refresh.
	Current() *domain.Session
}

// CredentialsStore persists the source service's access token.
type CredentialsStore interface {
	PocketAccessToken() string
	SetPocketAccessToken(token string) error
}
