//nolint:noctx // Test file uses http.Get for convenience; context not required in tests
package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, state string) *CallbackServer {
	t.Helper()
	server := NewCallbackServer(0, state)
	require.NoError(t, server.Start())
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

func TestNewCallbackServer(t *testing.T) {
	server := NewCallbackServer(65112, "state-1")

	require.NotNil(t, server)
	assert.Equal(t, 65112, server.Port())
	assert.Nil(t, server.server)
}

func TestCallbackServer_RedirectURI(t *testing.T) {
	server := NewCallbackServer(65112, "a b")

	u, err := url.Parse(server.RedirectURI())
	require.NoError(t, err)
	assert.Equal(t, "localhost:65112", u.Host)
	assert.Equal(t, RedirectPath, u.Path)
	assert.Equal(t, "a b", u.Query().Get("state"))
}

func TestCallbackServer_StartRandomPort(t *testing.T) {
	server := startServer(t, "s")
	assert.NotZero(t, server.Port())
}

func TestCallbackServer_PortInUse(t *testing.T) {
	first := startServer(t, "s")

	second := NewCallbackServer(first.Port(), "s")
	err := second.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestCallbackServer_Redirect(t *testing.T) {
	server := startServer(t, "state-abc")

	resp, err := http.Get(server.RedirectURI())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))

	assert.NoError(t, server.WaitForRedirect(context.Background(), time.Second))
}

func TestCallbackServer_StateMismatch(t *testing.T) {
	server := startServer(t, "expected")

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d%s?state=wrong", server.Port(), RedirectPath))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	err = server.WaitForRedirect(context.Background(), time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state mismatch")
	assert.Contains(t, err.Error(), "wrong")
}

func TestCallbackServer_Timeout(t *testing.T) {
	server := NewCallbackServer(0, "s")

	err := server.WaitForRedirect(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestCallbackServer_Cancelled(t *testing.T) {
	server := NewCallbackServer(0, "s")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := server.WaitForRedirect(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallbackServer_RepeatedRedirects(t *testing.T) {
	server := startServer(t, "s")

	for i := 0; i < 3; i++ {
		resp, err := http.Get(server.RedirectURI())
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.NoError(t, server.WaitForRedirect(context.Background(), time.Second))
}

func TestCallbackServer_StopTwice(t *testing.T) {
	server := NewCallbackServer(0, "s")
	assert.NoError(t, server.Stop())

	require.NoError(t, server.Start())
	assert.NoError(t, server.Stop())
	assert.NoError(t, server.Stop())
}

func TestWritePage_EscapesText(t *testing.T) {
	rec := httptest.NewRecorder()

	writePage(rec, http.StatusOK, "<b>done</b>", "a & b")

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "&lt;b&gt;done&lt;/b&gt;")
	assert.Contains(t, body, "a &amp; b")
	assert.NotContains(t, body, "<b>done</b>")
}

func TestGenerateState(t *testing.T) {
	a, b := GenerateState(), GenerateState()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
