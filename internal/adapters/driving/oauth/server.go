// Package oauth provides the local redirect server used while the user
// authorizes this application on Pocket, plus browser utilities.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// RedirectPath is the path Pocket redirects the browser to.
const RedirectPath = "/redirect"

// ErrTimeout indicates the user did not complete authorization in time.
var ErrTimeout = errors.New("timeout waiting for authorization callback")

// CallbackServer waits for the browser redirect that ends an
// authorization. Pocket appends nothing to the redirect, so the request
// state is carried in the redirect URI's query and checked on arrival.
type CallbackServer struct {
	mu     sync.Mutex
	port   int
	state  string
	server *http.Server

	// result receives the first outcome; later ones are dropped.
	result chan error
}

// NewCallbackServer creates a redirect server on port. Port 0 picks a
// free port on Start.
func NewCallbackServer(port int, state string) *CallbackServer {
	return &CallbackServer{
		port:   port,
		state:  state,
		result: make(chan error, 1),
	}
}

// Start listens on the loopback interface and serves in the background.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(s.port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	mux := http.NewServeMux()
	mux.HandleFunc(RedirectPath, s.handleRedirect)
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	s.server = server

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.deliver(fmt.Errorf("callback server: %w", err))
		}
	}()
	return nil
}

func (s *CallbackServer) handleRedirect(w http.ResponseWriter, r *http.Request) {
	if got := r.URL.Query().Get("state"); got != s.state {
		s.deliver(fmt.Errorf("state mismatch: expected %s, got %s", s.state, got))
		writePage(w, http.StatusBadRequest, "Authorization failed", "The request did not come from this application.")
		return
	}
	s.deliver(nil)
	writePage(w, http.StatusOK, "Authorization completed!", "You can close this window.")
}

func (s *CallbackServer) deliver(err error) {
	select {
	case s.result <- err:
	default:
	}
}

// WaitForRedirect blocks until the redirect arrives, ctx is done or
// timeout elapses.
func (s *CallbackServer) WaitForRedirect(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-s.result:
		return err
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts the server down. Stopping a stopped server is a no-op.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// Port returns the port the server listens on.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// RedirectURI returns the URI to register with the authorization request.
func (s *CallbackServer) RedirectURI() string {
	u := url.URL{
		Scheme:   "http",
		Host:     net.JoinHostPort("localhost", strconv.Itoa(s.Port())),
		Path:     RedirectPath,
		RawQuery: url.Values{"state": {s.state}}.Encode(),
	}
	return u.String()
}
