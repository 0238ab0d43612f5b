package config

import (
	"os"
	"strconv"
)

// Config holds process configuration, read from the environment.
type Config struct {
	Port                string
	RepoURL             string
	LocalRepoPath       string
	SyncIntervalSeconds int
	LogFile             string
	CommitAuthorName    string
	CommitAuthorEmail   string
	SecretsBackend      string // "keyring" (default) or "memory"
}

// Load reads configuration from the environment with defaults.
func Load() (*Config, error) {
	syncInterval, err := strconv.Atoi(getEnv("SYNC_INTERVAL_SECONDS", "300"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		RepoURL:             getEnv("REPO_URL", ""),
		LocalRepoPath:       getEnv("LOCAL_REPO_PATH", ""),
		SyncIntervalSeconds: syncInterval,
		LogFile:             getEnv("LOG_FILE", ""),
		CommitAuthorName:    getEnv("COMMIT_AUTHOR_NAME", "notesyncd"),
		CommitAuthorEmail:   getEnv("COMMIT_AUTHOR_EMAIL", "notesyncd@localhost"),
		SecretsBackend:      getEnv("SECRETS_BACKEND", "keyring"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
