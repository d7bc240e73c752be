package cli

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driving/oauth"
)

// mockAuthorizer implements pocketAuthorizer. Its authorize URL is the
// redirect URI itself, so "visiting" it completes the flow.
type mockAuthorizer struct {
	redirectURI  string
	requestErr   error
	accessErr    error
	exchangedFor string
}

func (m *mockAuthorizer) RequestToken(_ context.Context, redirectURI string) (string, error) {
	m.redirectURI = redirectURI
	if m.requestErr != nil {
		return "", m.requestErr
	}
	return "request-token", nil
}

func (m *mockAuthorizer) AuthorizeURL(_, redirectURI string) string {
	return redirectURI
}

func (m *mockAuthorizer) AccessToken(_ context.Context, requestToken string) (string, string, error) {
	m.exchangedFor = requestToken
	if m.accessErr != nil {
		return "", "", m.accessErr
	}
	return "access-token", "reader", nil
}

// setupBrowser replaces the browser with fn.
func setupBrowser(t *testing.T, fn func(string) error) {
	t.Helper()
	oldOpen, oldTimeout := openBrowser, pocketAuthTimeout
	openBrowser = fn
	t.Cleanup(func() {
		openBrowser = oldOpen
		pocketAuthTimeout = oldTimeout
	})
}

// visit simulates the user approving access in a browser.
func visit(target string) error {
	go func() {
		resp, err := http.Get(target) //nolint:noctx // test helper
		if err == nil {
			_ = resp.Body.Close()
		}
	}()
	return nil
}

func TestAuthorizePocket_StoresToken(t *testing.T) {
	setupRootTest(t)
	setupBrowser(t, visit)
	auth := &mockAuthorizer{}
	credentials := memory.NewCredentialsStore()

	err := authorizePocket(context.Background(), auth, credentials, 0)

	require.NoError(t, err)
	assert.Equal(t, "access-token", credentials.PocketAccessToken())
	assert.Equal(t, "request-token", auth.exchangedFor)
	assert.True(t, strings.HasPrefix(auth.redirectURI, "http://localhost:"))
	assert.Contains(t, auth.redirectURI, oauth.RedirectPath+"?state=")
}

func TestAuthorizePocket_RequestTokenFails(t *testing.T) {
	setupRootTest(t)
	opened := false
	setupBrowser(t, func(string) error {
		opened = true
		return nil
	})
	auth := &mockAuthorizer{requestErr: errors.New("consumer key rejected")}
	credentials := memory.NewCredentialsStore()

	err := authorizePocket(context.Background(), auth, credentials, 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "consumer key rejected")
	assert.False(t, opened)
	assert.Empty(t, credentials.PocketAccessToken())
}

func TestAuthorizePocket_AccessTokenFails(t *testing.T) {
	setupRootTest(t)
	setupBrowser(t, visit)
	auth := &mockAuthorizer{accessErr: errors.New("user rejected")}
	credentials := memory.NewCredentialsStore()

	err := authorizePocket(context.Background(), auth, credentials, 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "user rejected")
	assert.Empty(t, credentials.PocketAccessToken())
}

func TestAuthorizePocket_Timeout(t *testing.T) {
	setupRootTest(t)
	setupBrowser(t, func(string) error { return errors.New("no browser") })
	pocketAuthTimeout = 50 * time.Millisecond
	credentials := memory.NewCredentialsStore()

	err := authorizePocket(context.Background(), &mockAuthorizer{}, credentials, 0)

	require.Error(t, err)
	assert.True(t, errors.Is(err, oauth.ErrTimeout))
	assert.Empty(t, credentials.PocketAccessToken())
}

// mockChain implements credentialChain.
type mockChain struct {
	failed chan struct{}
	err    error
}

func newMockChain() *mockChain {
	return &mockChain{failed: make(chan struct{})}
}

func (m *mockChain) Failed() <-chan struct{} { return m.failed }
func (m *mockChain) Err() error              { return m.err }

func TestRunUntilFailed_LoopReturns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := runUntilFailed(ctx, cancel, func(context.Context) error { return nil }, newMockChain())

	assert.NoError(t, err)
}

func TestRunUntilFailed_LoopError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loopErr := errors.New("network gone")

	err := runUntilFailed(ctx, cancel, func(context.Context) error { return loopErr }, newMockChain())

	assert.ErrorIs(t, err, loopErr)
}

func TestRunUntilFailed_CredentialFailureStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chain := newMockChain()
	chain.err = errors.New("token endpoint returned 401")

	stopped := make(chan struct{})
	loop := func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	}
	go close(chain.failed)

	err := runUntilFailed(ctx, cancel, loop, chain)

	require.Error(t, err)
	assert.ErrorIs(t, err, chain.err)
	assert.Contains(t, err.Error(), "reMarkable credentials")
	select {
	case <-stopped:
	default:
		t.Fatal("loop still running")
	}
}
