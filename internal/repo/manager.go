// Package repo manages the working-copy lifecycle: opening or cloning the
// local repository, validating connection details, and handing a ready VCS
// client to the sync layer.
package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/sirupsen/logrus"

	apperrors "github.com/notegit/notesyncd/internal/errors"
	"github.com/notegit/notesyncd/internal/gitrepo"
	"github.com/notegit/notesyncd/internal/secrets"
)

// Manager owns the single repository connection of a session. All file and
// sync operations elsewhere must check IsConnected first.
type Manager struct {
	mu     sync.Mutex
	store  secrets.Store
	author gitrepo.Author

	remoteURL string
	localPath string
	client    *gitrepo.Client
	connected bool
}

// NewManager creates a disconnected Manager backed by the given secret
// store.
func NewManager(store secrets.Store, author gitrepo.Author) *Manager {
	return &Manager{store: store, author: author}
}

// Connect opens the working copy at localPath if one exists, otherwise
// clones remoteURL into it. A non-empty credential is persisted to the
// secret store first; when empty, a previously stored credential is used if
// available. Missing credentials are a warning, not an error.
func (m *Manager) Connect(ctx context.Context, remoteURL, localPath, credential string) error {
	if remoteURL == "" {
		return apperrors.NewPreconditionError("connect_repository", "repository URL is required")
	}
	if localPath == "" {
		return apperrors.NewPreconditionError("connect_repository", "local path is required")
	}

	logger := logrus.WithFields(logrus.Fields{
		"repository": remoteURL,
		"local_path": localPath,
		"action":     "connect_repository",
	})

	if credential != "" {
		if err := m.store.Set(remoteURL, credential); err != nil {
			return apperrors.Classify("store_credentials", err)
		}
	}

	var client *gitrepo.Client
	if _, err := os.Stat(filepath.Join(localPath, ".git")); err == nil {
		logger.Info("Opening existing working copy")
		client, err = gitrepo.Open(localPath, remoteURL, m.store, m.author)
		if err != nil {
			return err
		}
	} else {
		token := credential
		if token == "" {
			stored, err := m.store.Get(remoteURL)
			if err != nil {
				if !errors.Is(err, secrets.ErrNotFound) {
					logger.WithError(err).Warn("Unable to read credential store")
				}
				logger.Warn("No stored credentials, cloning unauthenticated")
			} else {
				token = stored
			}
		}

		logger.Info("Cloning repository")
		var err error
		client, err = gitrepo.Clone(ctx, localPath, remoteURL, token, m.store, m.author)
		if err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.remoteURL = remoteURL
	m.localPath = localPath
	m.client = client
	m.connected = true
	m.mu.Unlock()

	logger.Info("Repository connected")
	return nil
}

// ValidateConnection probes remoteURL with a shallow, checkout-less,
// single-branch clone into a throwaway directory. The temporary directory is
// removed regardless of outcome and no persistent state changes.
func (m *Manager) ValidateConnection(ctx context.Context, remoteURL, credential string) error {
	if remoteURL == "" {
		return apperrors.NewPreconditionError("validate_connection", "repository URL is required")
	}

	tempDir, err := os.MkdirTemp("", "notesyncd-validate-*")
	if err != nil {
		return apperrors.Classify("validate_connection", err)
	}
	defer os.RemoveAll(tempDir)

	var auth = gitrepo.BasicAuth(credential)
	_, err = git.PlainCloneContext(ctx, tempDir, false, &git.CloneOptions{
		URL:          remoteURL,
		Auth:         auth,
		Depth:        1,
		SingleBranch: true,
		NoCheckout:   true,
		Tags:         git.NoTags,
		RemoteName:   "origin",
	})
	if err != nil {
		return apperrors.Classify("validate_connection", err)
	}

	return nil
}

// IsConnected reports whether a working copy is open.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Client returns the VCS client for the connected working copy, or nil when
// disconnected.
func (m *Manager) Client() *gitrepo.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

// RemoteURL returns the connected remote, empty when disconnected.
func (m *Manager) RemoteURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remoteURL
}

// LocalPath returns the working copy root, empty when disconnected.
func (m *Manager) LocalPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.localPath
}

// Disconnect drops the current connection so a later Connect can target a
// different repository. The working copy on disk is left untouched.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = nil
	m.connected = false
	m.remoteURL = ""
	m.localPath = ""
}
