package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driven/config/file"
	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driven/epub"
	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driven/epubpress"
	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driven/network"
	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driven/pocket"
	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driven/remarkable"
	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driven/rmapi"
	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driving/oauth"
	"github.com/custodia-labs/remarkable-pocket/internal/clock"
	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
	"github.com/custodia-labs/remarkable-pocket/internal/core/services"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// DownloadsDirName is the working directory for artifacts, inside the
// config dir.
const DownloadsDirName = "downloads"

// syncApp runs the sync loop for a validated config.
var syncApp = runApp

// runApp wires the adapters and blocks in the scheduler until it stops
// or the reMarkable credentials can no longer be refreshed.
func runApp(ctx context.Context, cfg domain.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	clk := clock.Real()

	credentials, err := file.NewCredentialsStore(cfg.ConfigDir)
	if err != nil {
		return fmt.Errorf("open credentials: %w", err)
	}
	store, err := sqlite.NewStore(cfg.ConfigDir)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer store.Close()

	// 1. Pocket authorization
	if credentials.PocketAccessToken() == "" {
		authenticator := pocket.NewAuthenticator(pocket.DefaultBaseURL)
		if err := authorizePocket(ctx, authenticator, credentials, cfg.CallbackPort); err != nil {
			return err
		}
	}

	// 2. reMarkable pairing
	clientConfig := rmapi.NewConfigFile(cfg.ConfigDir)
	manager := services.NewCredentialManager(
		clientConfig,
		remarkable.NewExchanger(remarkable.DefaultTokenURL),
		clk,
		cfg.RefreshMargin,
	)
	destination := rmapi.NewClient(rmapi.NewRunner(manager, clientConfig.Path()), rmapiExecutable, cfg.StorageDir)
	if err := destination.Login(ctx, clientConfig); err != nil {
		return fmt.Errorf("rmapi login: %w", err)
	}

	// 3. Token refresh
	if err := clientConfig.ClearSessions(); err != nil {
		logger.Debug("Failed to clear old rmapi sessions: %v", err)
	}
	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("refresh reMarkable token: %w", err)
	}
	defer manager.Stop()

	err = clientConfig.Watch(ctx, func() {
		logger.Info("rmapi config changed, refreshing reMarkable token.")
		_ = manager.Refresh()
	})
	if err != nil {
		logger.Warn("Not watching %s for changes: %v", clientConfig.Path(), err)
	}

	// 4. Storage dir
	if err := destination.EnsureDir(ctx); err != nil {
		return fmt.Errorf("create %s on reMarkable: %w", cfg.StorageDir, err)
	}

	// 5. Engine
	workDir := filepath.Join(cfg.ConfigDir, DownloadsDirName)
	if err := os.MkdirAll(workDir, 0o700); err != nil {
		return fmt.Errorf("create downloads dir: %w", err)
	}

	formatter := epub.NewFormatter()
	cache := services.NewExclusionCache(ctx, store.ExclusionStore(), clk.Now)
	pipeline := services.NewConversionPipeline(
		epubpress.NewClient(epubpress.DefaultBaseURL),
		formatter,
		clk,
		services.ConversionConfigFrom(cfg),
	)
	engine := services.NewReconciliationEngine(
		pocket.NewClient(pocket.DefaultBaseURL, credentials, cfg.TagFilter),
		destination,
		services.NewMetadataInspector(destination, formatter, workDir),
		services.NewDownloadCoordinator(pipeline, cache, workDir),
		cache,
		store.SyncRunStore(),
		clk,
		services.ReconcilerConfig{ArticleLimit: cfg.ArticleLimit, ArchiveRead: cfg.ArchiveRead},
	)
	scheduler := services.NewScheduler(
		engine,
		services.NewConnectivityChecker(network.NewProbe(cfg.ConnectivityURL), clk, cfg.ConnectivityRetry),
		clk,
		services.SchedulerConfig{Interval: cfg.Interval, RunOnce: cfg.RunOnce},
	)

	// 6. Run
	return runUntilFailed(ctx, cancel, scheduler.Run, manager)
}

// credentialChain reports when token refreshes have stopped for good.
type credentialChain interface {
	Failed() <-chan struct{}
	Err() error
}

// runUntilFailed runs loop until it returns or chain fails. On failure
// the loop is cancelled and awaited before returning.
func runUntilFailed(
	ctx context.Context,
	cancel context.CancelFunc,
	loop func(context.Context) error,
	chain credentialChain,
) error {
	done := make(chan error, 1)
	go func() {
		done <- loop(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-chain.Failed():
		cancel()
		<-done
		return fmt.Errorf("reMarkable credentials: %w", chain.Err())
	}
}

// pocketAuthorizer is the browser-based Pocket authorization flow.
type pocketAuthorizer interface {
	RequestToken(ctx context.Context, redirectURI string) (string, error)
	AuthorizeURL(requestToken, redirectURI string) string
	AccessToken(ctx context.Context, requestToken string) (string, string, error)
}

// pocketAuthTimeout bounds the wait for the user's approval.
var pocketAuthTimeout = 5 * time.Minute

// openBrowser is replaced in tests.
var openBrowser = oauth.OpenBrowser

// authorizePocket obtains an access token through a local redirect and
// stores it.
func authorizePocket(
	ctx context.Context,
	auth pocketAuthorizer,
	credentials driven.CredentialsStore,
	port int,
) error {
	server := oauth.NewCallbackServer(port, oauth.GenerateState())
	if err := server.Start(); err != nil {
		return fmt.Errorf("start callback server: %w", err)
	}
	defer func() { _ = server.Stop() }()

	redirectURI := server.RedirectURI()
	requestToken, err := auth.RequestToken(ctx, redirectURI)
	if err != nil {
		return fmt.Errorf("pocket authorization: %w", err)
	}

	authURL := auth.AuthorizeURL(requestToken, redirectURI)
	logger.Info("Visit %s and authorize this application.", authURL)
	if err := openBrowser(authURL); err != nil {
		logger.Debug("Could not open a browser: %v", err)
	}

	if err := server.WaitForRedirect(ctx, pocketAuthTimeout); err != nil {
		return fmt.Errorf("pocket authorization: %w", err)
	}

	token, username, err := auth.AccessToken(ctx, requestToken)
	if err != nil {
		return fmt.Errorf("pocket authorization: %w", err)
	}
	if err := credentials.SetPocketAccessToken(token); err != nil {
		return fmt.Errorf("store pocket token: %w", err)
	}
	logger.Info("Authorized Pocket account '%s'.", username)
	return nil
}
