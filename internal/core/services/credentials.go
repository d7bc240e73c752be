package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/remarkable-pocket/internal/clock"
	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// Ensure CredentialManager implements the interface.
var _ driven.SessionProvider = (*CredentialManager)(nil)

// RefreshRetryInterval is the delay before retrying a refresh that failed
// on the network.
const RefreshRetryInterval = time.Minute

// CredentialManager keeps the destination bearer token fresh. Each refresh
// publishes a new immutable Session; readers never see a partial update
// and processes already started keep the config file they were given.
type CredentialManager struct {
	config    driven.ClientConfig
	exchanger driven.TokenExchanger
	clock     clock.Clock
	margin    time.Duration

	session atomic.Pointer[domain.Session]

	// refreshMu serialises refreshes from the timer and from Refresh.
	refreshMu sync.Mutex

	mu      sync.Mutex
	ctx     context.Context
	timer   *clock.Timer
	stopped bool
	retired string
	err     error
	failed  chan struct{}
}

// NewCredentialManager creates a manager renewing tokens margin before
// they expire.
func NewCredentialManager(
	config driven.ClientConfig,
	exchanger driven.TokenExchanger,
	clk clock.Clock,
	margin time.Duration,
) *CredentialManager {
	return &CredentialManager{
		config:    config,
		exchanger: exchanger,
		clock:     clk,
		margin:    margin,
		failed:    make(chan struct{}),
	}
}

// Start performs the first refresh and schedules the next one. ctx bounds
// every later refresh.
func (m *CredentialManager) Start(ctx context.Context) error {
	m.mu.Lock()
	m.ctx = ctx
	m.stopped = false
	m.mu.Unlock()

	return m.refresh()
}

// Refresh renews the token now and reschedules. Used when the device
// pairing changes underneath a running process.
func (m *CredentialManager) Refresh() error {
	err := m.refresh()
	m.handle(err)
	return err
}

// Current returns the live session, or nil before Start succeeded.
func (m *CredentialManager) Current() *domain.Session {
	return m.session.Load()
}

// Failed is closed when a scheduled refresh fails for a reason other than
// the network. The refresh chain stops at that point.
func (m *CredentialManager) Failed() <-chan struct{} {
	return m.failed
}

// Err returns the error that stopped the refresh chain.
func (m *CredentialManager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Stop cancels the pending refresh.
func (m *CredentialManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *CredentialManager) refresh() error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	deviceToken, err := m.config.DeviceToken()
	if err != nil {
		return fmt.Errorf("load device token: %w", err)
	}

	userToken, err := m.exchanger.UserToken(ctx, deviceToken)
	if err != nil {
		return fmt.Errorf("%w: exchange device token: %w", domain.ErrCredentialExpiry, err)
	}

	expiry, err := TokenExpiry(userToken)
	if err != nil {
		return err
	}
	delay := expiry.Sub(m.clock.Now()) - m.margin
	if delay <= 0 {
		return fmt.Errorf("%w: token expires at %s, within the refresh margin", domain.ErrCredentialExpiry,
			expiry.Format(time.RFC3339))
	}

	path, err := m.config.WriteSession(deviceToken, userToken)
	if err != nil {
		return fmt.Errorf("write session config: %w", err)
	}

	previous := m.session.Swap(&domain.Session{
		DeviceToken: deviceToken,
		UserToken:   userToken,
		Expiry:      expiry,
		ConfigPath:  path,
	})
	m.retire(previous)
	m.schedule(delay)

	logger.Debug("Refreshed Remarkable token, next refresh in %s.", HumanDuration(delay))
	return nil
}

// retire deletes the config file of the session before previous. The file
// of previous itself may still be in use by a running process.
func (m *CredentialManager) retire(previous *domain.Session) {
	if previous == nil {
		return
	}
	m.mu.Lock()
	stale := m.retired
	m.retired = previous.ConfigPath
	m.mu.Unlock()

	if stale == "" || stale == previous.ConfigPath {
		return
	}
	if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debug("Failed to remove stale session config %s: %v", stale, err)
	}
}

func (m *CredentialManager) schedule(delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = m.clock.AfterFunc(delay, func() {
		m.handle(m.refresh())
	})
}

// handle keeps the refresh chain alive through network failures. Any
// other error ends it.
func (m *CredentialManager) handle(err error) {
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrTransientNetwork):
		logger.Warn("Failed to refresh Remarkable token: %v. Retrying in %s.", err, HumanDuration(RefreshRetryInterval))
		m.schedule(RefreshRetryInterval)
	default:
		m.fail(err)
	}
}

func (m *CredentialManager) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return
	}
	m.err = err
	logger.Error("Failed to refresh Remarkable token: %v", err)
	close(m.failed)
}

// TokenExpiry decodes the exp claim of a JWT without verifying it.
func TokenExpiry(token string) (time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: token is not a JWT", domain.ErrCredentialExpiry)
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: decode token payload: %w", domain.ErrCredentialExpiry, err)
	}

	var claims struct {
		Exp json.Number `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: parse token claims: %w", domain.ErrCredentialExpiry, err)
	}
	exp, err := claims.Exp.Int64()
	if err != nil || exp <= 0 {
		return time.Time{}, fmt.Errorf("%w: token has no expiry claim", domain.ErrCredentialExpiry)
	}
	return time.Unix(exp, 0), nil
}
