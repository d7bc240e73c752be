package rmapi

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// DefaultExecutable is looked up in PATH.
const DefaultExecutable = "rmapi"

// Ensure Client implements the interface.
var _ driven.Destination = (*Client)(nil)

// Client implements driven.Destination on top of rmapi.
type Client struct {
	runner     *Runner
	executable string
	storageDir string
}

// NewClient creates a client keeping documents in storageDir, which must
// be absolute with a trailing slash.
func NewClient(runner *Runner, executable, storageDir string) *Client {
	if executable == "" {
		executable = DefaultExecutable
	}
	return &Client{runner: runner, executable: executable, storageDir: storageDir}
}

// command builds a non-interactive rmapi stage.
func (c *Client) command(args ...string) Stage {
	return Command(c.executable, append([]string{"-ni"}, args...)...)
}

// List returns the names of the documents in the storage directory.
func (c *Client) List(ctx context.Context) ([]string, error) {
	entries, err := c.entries(ctx, c.storageDir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.storageDir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.dir {
			names = append(names, e.name)
		}
	}
	return names, nil
}

// Stat returns the reading state of a document.
func (c *Client) Stat(ctx context.Context, name string) (*domain.RemoteDocument, error) {
	var doc domain.RemoteDocument
	if err := c.runner.RunJSON(ctx, &doc, c.command("stat", c.storageDir+name)); err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	return &doc, nil
}

// Download fetches the document archive into dir.
func (c *Client) Download(ctx context.Context, name, dir string) (string, error) {
	if _, err := c.runner.RunIn(ctx, dir, c.command("get", c.storageDir+name)); err != nil {
		return "", fmt.Errorf("get %s: %w", name, err)
	}
	path := filepath.Join(dir, name+".rmdoc")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: get %s produced no archive: %w", domain.ErrProcessFailure, name, err)
	}
	return path, nil
}

// Upload stores the file at path in the storage directory.
func (c *Client) Upload(ctx context.Context, path string) error {
	if _, err := c.runner.Run(ctx, c.command("put", path, c.storageDir)); err != nil {
		return fmt.Errorf("put %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Delete removes a document from the storage directory.
func (c *Client) Delete(ctx context.Context, name string) error {
	if _, err := c.runner.Run(ctx, c.command("rm", c.storageDir+name)); err != nil {
		return fmt.Errorf("rm %s: %w", name, err)
	}
	return nil
}

// EnsureDir creates every missing segment of the storage directory, one
// mkdir per segment.
func (c *Client) EnsureDir(ctx context.Context) error {
	parts := strings.Split(strings.Trim(c.storageDir, "/"), "/")
	parent := "/"
	for _, part := range parts {
		entries, err := c.entries(ctx, parent)
		if err != nil {
			return fmt.Errorf("list %s: %w", parent, err)
		}
		path := parent + part
		if !hasDir(entries, part) {
			logger.Debug("Creating directory %s on Remarkable.", path)
			if _, err := c.runner.Run(ctx, c.command("mkdir", path)); err != nil {
				return fmt.Errorf("mkdir %s: %w", path, err)
			}
		}
		parent = path + "/"
	}
	return nil
}

// Login pairs the device on first use. Pairing asks for a one-time code,
// so it needs a terminal.
func (c *Client) Login(ctx context.Context, config driven.ClientConfig) error {
	if _, err := config.DeviceToken(); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrAuthRequired) {
		return err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("%w: reMarkable pairing needs an interactive terminal", domain.ErrAuthRequired)
	}
	logger.Info("Pairing with the reMarkable cloud. Get a one-time code at https://my.remarkable.com/device/browser/connect.")
	if err := c.runner.RunInteractive(ctx, Command(c.executable, "account")); err != nil {
		return fmt.Errorf("%w: could not connect to the reMarkable cloud: %w", domain.ErrAuthRequired, err)
	}
	_, err := config.DeviceToken()
	return err
}

type entry struct {
	name string
	dir  bool
}

func (c *Client) entries(ctx context.Context, dir string) ([]entry, error) {
	lines, err := c.runner.Run(ctx, c.command("ls", dir))
	if err != nil {
		return nil, err
	}
	return parseEntries(lines), nil
}

// parseEntries reads rmapi ls output: "[f]\tname" for documents and
// "[d]\tname" for directories. Other lines are ignored.
func parseEntries(lines []string) []entry {
	var result []entry
	for _, line := range lines {
		if len(line) < 5 {
			continue
		}
		var isDir bool
		switch line[:3] {
		case "[f]":
		case "[d]":
			isDir = true
		default:
			continue
		}
		result = append(result, entry{name: line[4:], dir: isDir})
	}
	return result
}

func hasDir(entries []entry, name string) bool {
	for _, e := range entries {
		if e.dir && e.name == name {
			return true
		}
	}
	return false
}
