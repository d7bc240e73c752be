// Package cli provides the cobra command tree of remarkable-pocket.
// The root command runs the sync loop; subcommands inspect its state.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/remarkable-pocket/internal/adapters/driven/rmapi"
	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// DefaultConfigDirName is created in the user's home directory.
const DefaultConfigDirName = ".remarkable-pocket"

// Flag values.
var (
	runOnce         bool
	resetConfig     bool
	tagFilter       string
	noArchive       bool
	articleLimit    int
	interval        time.Duration
	storageDir      string
	configDir       string
	verbose         bool
	callbackPort    int
	rmapiExecutable string
)

var rootCmd = &cobra.Command{
	Use:   "remarkable-pocket",
	Short: "Sync unread Pocket articles to a reMarkable tablet",
	Long: `Keeps a folder on your reMarkable filled with your most recent unread
Pocket articles. Articles are converted to EPUB by epub.press and uploaded
with rmapi. Articles you finish reading are archived on Pocket and removed
from the tablet.

On first run you are asked to authorize Pocket in a browser and to pair
rmapi with your reMarkable account.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	RunE: runRoot,
}

func init() {
	defaults := domain.DefaultConfig()

	flags := rootCmd.Flags()
	flags.BoolVarP(&runOnce, "run-once", "o", false, "Run a single sync and exit")
	flags.BoolVarP(&resetConfig, "reset", "r", false, "Forget stored credentials and state before starting")
	flags.StringVarP(&tagFilter, "tag-filter", "f", "", "Only sync Pocket articles with this tag")
	flags.BoolVarP(&noArchive, "no-archive", "n", false, "Do not archive read articles on Pocket")
	flags.IntVarP(&articleLimit, "article-limit", "l", defaults.ArticleLimit,
		"Maximum number of articles kept on the reMarkable")
	flags.DurationVarP(&interval, "interval", "i", defaults.Interval, "Time between syncs")
	flags.StringVarP(&storageDir, "storage-dir", "d", defaults.StorageDir,
		"Folder on the reMarkable to store articles in")
	flags.IntVarP(&callbackPort, "port", "p", defaults.CallbackPort, "Port of the Pocket authorization callback")
	flags.StringVar(&rmapiExecutable, "rmapi", rmapi.DefaultExecutable, "Path to the rmapi executable")
	_ = flags.MarkHidden("port")
	_ = flags.MarkHidden("rmapi")

	persistent := rootCmd.PersistentFlags()
	persistent.StringVarP(&configDir, "config-dir", "a", defaultConfigDir(), "Directory holding credentials and state")
	persistent.BoolVarP(&verbose, "verbose", "v", false, "Print debug logs")
	_ = persistent.MarkHidden("config-dir")
}

// Execute runs the root command.
func Execute() error {
	rootCmd.Version = version
	return rootCmd.Execute()
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if resetConfig {
		if err := resetConfigDir(cfg.ConfigDir); err != nil {
			return fmt.Errorf("reset %s: %w", cfg.ConfigDir, err)
		}
		logger.Info("Removed stored credentials and state from %s.", cfg.ConfigDir)
	}

	if syncApp == nil {
		return errors.New("sync service not configured")
	}
	return syncApp(cmd.Context(), cfg)
}

// buildConfig assembles and validates the process config from flags.
func buildConfig() (domain.Config, error) {
	cfg := domain.DefaultConfig()
	cfg.ConfigDir = expandHome(configDir)
	cfg.StorageDir = storageDir
	cfg.ArticleLimit = articleLimit
	cfg.ArchiveRead = !noArchive
	cfg.TagFilter = tagFilter
	cfg.Interval = interval
	cfg.RunOnce = runOnce
	cfg.CallbackPort = callbackPort

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// resetConfigDir deletes the regular files in dir and the rmapi session
// snapshots. Subdirectories are left alone.
func resetConfigDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		logger.Debug("Removed %s.", e.Name())
	}
	return rmapi.NewConfigFile(dir).ClearSessions()
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigDirName
	}
	return filepath.Join(home, DefaultConfigDirName)
}

// expandHome replaces a leading "~/" with the home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
