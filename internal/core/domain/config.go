package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Config holds process-wide settings. It is built once at startup and
// passed to constructors; nothing reads it as global state.
type Config struct {
	// ConfigDir holds credentials, client config and the state database.
	ConfigDir string

	// StorageDir is the destination folder documents are kept in.
	// Always absolute with a trailing slash.
	StorageDir string

	// ArticleLimit is the maximum number of documents kept on the
	// destination.
	ArticleLimit int

	// ArchiveRead archives fully read documents on the source.
	ArchiveRead bool

	// TagFilter restricts source articles to a tag. Empty means all.
	TagFilter string

	// Interval is the delay between the end of a cycle and the next one.
	Interval time.Duration

	// RunOnce exits after the first cycle.
	RunOnce bool

	// CallbackPort is the port of the one-time authorization callback.
	CallbackPort int

	// Conversion settings.
	PollAttempts     int
	PollInterval     time.Duration
	MinContentLength int

	// RefreshMargin is how long before expiry the bearer token is renewed.
	RefreshMargin time.Duration

	// ConnectivityURL is probed before every cycle.
	ConnectivityURL string

	// ConnectivityRetry is the delay between connectivity probes.
	ConnectivityRetry time.Duration
}

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		StorageDir:        "/Pocket/",
		ArticleLimit:      10,
		ArchiveRead:       true,
		Interval:          60 * time.Minute,
		CallbackPort:      65112,
		PollAttempts:      5,
		PollInterval:      5 * time.Second,
		MinContentLength:  4000,
		RefreshMargin:     10 * time.Minute,
		ConnectivityURL:   "http://www.google.com",
		ConnectivityRetry: 5 * time.Second,
	}
}

var storageDirPattern = regexp.MustCompile(`^/([^:/\\*"?|<>.']+/)+$`)

// NormalizeStorageDir appends the trailing slash and validates the
// destination folder.
func NormalizeStorageDir(dir string) (string, error) {
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	if !storageDirPattern.MatchString(dir) {
		return "", fmt.Errorf("%w: storage dir %q, a valid example is '/Articles/Pocket/'", ErrInvalidInput, dir)
	}
	return dir, nil
}

// Validate normalises StorageDir and checks numeric settings.
func (c *Config) Validate() error {
	dir, err := NormalizeStorageDir(c.StorageDir)
	if err != nil {
		return err
	}
	c.StorageDir = dir

	if c.ArticleLimit <= 0 {
		return fmt.Errorf("%w: article limit must be positive, got %d", ErrInvalidInput, c.ArticleLimit)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidInput, c.Interval)
	}
	if c.PollAttempts <= 0 {
		return fmt.Errorf("%w: poll attempts must be positive, got %d", ErrInvalidInput, c.PollAttempts)
	}
	if c.ConfigDir == "" {
		return fmt.Errorf("%w: config dir is required", ErrInvalidInput)
	}
	return nil
}
