package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Settings is the small per-user document persisted between sessions so the
// application can reconnect to the last repository on startup.
type Settings struct {
	RepoURL             string `json:"repoURL"`
	LocalRepoPath       string `json:"localRepoPath"`
	SyncIntervalSeconds int    `json:"syncIntervalSeconds,omitempty"`
}

// SettingsFile reads and writes the settings document at a fixed path.
type SettingsFile struct {
	path string
}

// NewSettingsFile creates a store at path.
func NewSettingsFile(path string) *SettingsFile {
	return &SettingsFile{path: path}
}

// DefaultSettingsPath returns the per-user settings location, e.g.
// ~/.config/notesyncd/settings.json on Linux.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "notesyncd", "settings.json"), nil
}

// Load reads the settings document. A missing file yields zero settings, not
// an error.
func (s *SettingsFile) Load() (Settings, error) {
	var settings Settings

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return settings, err
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Save writes the settings document, creating parent directories as needed.
// The file may reference credentials indirectly, so keep it user-only.
func (s *SettingsFile) Save(settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
