package domain

import "time"

// Session is an immutable snapshot of the destination credentials.
// A refresh produces a new Session; existing values are never mutated,
// so in-flight operations keep a consistent view.
type Session struct {
	// DeviceToken is the long-lived pairing token.
	DeviceToken string

	// UserToken is the short-lived bearer token (a JWT).
	UserToken string

	// Expiry is the user token's expiry claim.
	Expiry time.Time

	// ConfigPath is the client config file written for this session.
	ConfigPath string
}

// Valid reports whether the user token is still usable at now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.UserToken != "" && now.Before(s.Expiry)
}
