package rmapi

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// ConfigFileName is the rmapi config file in the config dir.
const ConfigFileName = ".rmapi"

// SessionsDirName holds per-session config snapshots.
const SessionsDirName = "sessions"

// Ensure ConfigFile implements the interface.
var _ driven.ClientConfig = (*ConfigFile)(nil)

// clientConfig is rmapi's YAML layout.
type clientConfig struct {
	DeviceToken string `yaml:"devicetoken"`
	UserToken   string `yaml:"usertoken,omitempty"`
}

// ConfigFile manages rmapi configuration files under a config dir.
type ConfigFile struct {
	path        string
	sessionsDir string
}

// NewConfigFile creates a ConfigFile for configDir.
func NewConfigFile(configDir string) *ConfigFile {
	return &ConfigFile{
		path:        filepath.Join(configDir, ConfigFileName),
		sessionsDir: filepath.Join(configDir, SessionsDirName),
	}
}

// Path returns the primary config file.
func (c *ConfigFile) Path() string {
	return c.path
}

// SessionsDir returns the directory of session snapshots.
func (c *ConfigFile) SessionsDir() string {
	return c.sessionsDir
}

// DeviceToken reads the device token from the primary config file.
func (c *ConfigFile) DeviceToken() (string, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s not found", domain.ErrAuthRequired, c.path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", c.path, err)
	}

	var cfg clientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("parse %s: %w", c.path, err)
	}
	if cfg.DeviceToken == "" {
		return "", fmt.Errorf("%w: %s has no device token", domain.ErrAuthRequired, c.path)
	}
	return cfg.DeviceToken, nil
}

// WriteSession writes a new snapshot holding both tokens.
func (c *ConfigFile) WriteSession(deviceToken, userToken string) (string, error) {
	if err := os.MkdirAll(c.sessionsDir, 0700); err != nil {
		return "", fmt.Errorf("create sessions dir: %w", err)
	}
	data, err := yaml.Marshal(clientConfig{DeviceToken: deviceToken, UserToken: userToken})
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(c.sessionsDir, "session-*.yaml")
	if err != nil {
		return "", fmt.Errorf("create session config: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write session config: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// ClearSessions removes all session snapshots.
func (c *ConfigFile) ClearSessions() error {
	return os.RemoveAll(c.sessionsDir)
}

// Watch calls onChange whenever the primary config file is written or
// created, until ctx is done. The parent directory is watched so that
// editors replacing the file are seen too.
func (c *ConfigFile) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(c.path), err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(c.path) {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					logger.Debug("rmapi config changed: %s", event.Op)
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Debug("rmapi config watcher error: %v", err)
			}
		}
	}()
	return nil
}
