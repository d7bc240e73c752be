package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
)

// CredentialsFileName is the name of the credentials file in the config dir.
const CredentialsFileName = "credentials.toml"

// Ensure CredentialsStore implements the interface.
var _ driven.CredentialsStore = (*CredentialsStore)(nil)

// credentialsFile is the on-disk layout.
type credentialsFile struct {
	Pocket struct {
		AccessToken string `toml:"access_token"`
	} `toml:"pocket"`
}

// CredentialsStore is a file-based implementation of driven.CredentialsStore using TOML.
type CredentialsStore struct {
	mu       sync.RWMutex
	filePath string
	data     credentialsFile
}

// NewCredentialsStore opens the credentials file in configDir, creating
// the directory if needed. A missing file is an empty store.
func NewCredentialsStore(configDir string) (*CredentialsStore, error) {
	if configDir == "" {
		return nil, fmt.Errorf("config directory is required")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &CredentialsStore{
		filePath: filepath.Join(configDir, CredentialsFileName),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// PocketAccessToken returns the stored Pocket token, or "" if unset.
func (s *CredentialsStore) PocketAccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Pocket.AccessToken
}

// SetPocketAccessToken stores the Pocket token and persists immediately.
func (s *CredentialsStore) SetPocketAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Pocket.AccessToken = token
	return s.save()
}

// save writes the credentials file (caller must hold lock).
func (s *CredentialsStore) save() error {
	data, err := toml.Marshal(s.data)
	if err != nil {
		return err
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads the credentials file.
func (s *CredentialsStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = credentialsFile{}
			return nil
		}
		return err
	}

	var loaded credentialsFile
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", CredentialsFileName, err)
	}
	s.data = loaded
	return nil
}

// Path returns the credentials file path.
func (s *CredentialsStore) Path() string {
	return s.filePath
}
