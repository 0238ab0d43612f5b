// Package service aggregates the connection manager and the sync manager
// behind the single surface the API layer consumes.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notegit/notesyncd/internal/config"
	apperrors "github.com/notegit/notesyncd/internal/errors"
	"github.com/notegit/notesyncd/internal/models"
	"github.com/notegit/notesyncd/internal/repo"
	syncmgr "github.com/notegit/notesyncd/internal/sync"
)

// Facade wires the connection manager to the sync manager. A sync manager
// exists only while a repository is connected; reconnecting replaces it.
type Facade struct {
	mu       sync.Mutex
	repos    *repo.Manager
	syncer   *syncmgr.Manager
	settings *config.SettingsFile
}

// New creates a Facade. settings may be nil when nothing should be
// persisted.
func New(repos *repo.Manager, settings *config.SettingsFile) *Facade {
	return &Facade{repos: repos, settings: settings}
}

// Connect opens or clones the repository and constructs a fresh sync manager
// for it. Connection details are persisted so the next start can reconnect.
func (f *Facade) Connect(ctx context.Context, remoteURL, localPath, credential string) error {
	if err := f.repos.Connect(ctx, remoteURL, localPath, credential); err != nil {
		return err
	}

	f.mu.Lock()
	if f.syncer != nil {
		f.syncer.Close()
	}
	f.syncer = syncmgr.NewManager(f.repos.Client())
	f.mu.Unlock()

	if f.settings != nil {
		if err := f.settings.Save(config.Settings{
			RepoURL:       remoteURL,
			LocalRepoPath: localPath,
		}); err != nil {
			logrus.WithError(err).Warn("Failed to persist connection settings")
		}
	}

	return nil
}

// ValidateConnection probes the remote without mutating local state.
func (f *Facade) ValidateConnection(ctx context.Context, remoteURL, credential string) error {
	return f.repos.ValidateConnection(ctx, remoteURL, credential)
}

// IsConnected reports whether a repository connection is open.
func (f *Facade) IsConnected() bool {
	return f.repos.IsConnected()
}

// manager returns the live sync manager or a not-connected precondition
// error. Checked synchronously before any I/O.
func (f *Facade) manager(op string) (*syncmgr.Manager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.syncer == nil || !f.repos.IsConnected() {
		return nil, apperrors.NewPreconditionError(op, "not connected to a repository")
	}
	return f.syncer, nil
}

// TriggerManualSync runs one sync pass and reports the resulting status.
func (f *Facade) TriggerManualSync() (string, error) {
	m, err := f.manager("trigger_sync")
	if err != nil {
		return "", err
	}
	return m.TriggerManualSync()
}

// GetSyncStatus returns the current status. Safe to poll at any time,
// including before a connection exists.
func (f *Facade) GetSyncStatus() *models.SyncStatus {
	f.mu.Lock()
	m := f.syncer
	f.mu.Unlock()

	if m == nil {
		return &models.SyncStatus{Phase: models.PhaseIdle}
	}
	return m.GetSyncStatus()
}

// GetSyncHistory returns the history of the current connection, newest
// last.
func (f *Facade) GetSyncHistory() []models.HistoryEntry {
	f.mu.Lock()
	m := f.syncer
	f.mu.Unlock()

	if m == nil {
		return nil
	}
	return m.GetSyncHistory()
}

// StartAutomaticSync begins the periodic loop; non-positive seconds use the
// default interval.
func (f *Facade) StartAutomaticSync(seconds int) error {
	m, err := f.manager("start_auto_sync")
	if err != nil {
		return err
	}
	return m.StartAutomaticSync(time.Duration(seconds) * time.Second)
}

// StopAutomaticSync halts the periodic loop; a no-op when not running or not
// connected.
func (f *Facade) StopAutomaticSync() {
	f.mu.Lock()
	m := f.syncer
	f.mu.Unlock()

	if m != nil {
		m.StopAutomaticSync()
	}
}

// IsAutoSyncActive reports whether the periodic loop is running.
func (f *Facade) IsAutoSyncActive() bool {
	f.mu.Lock()
	m := f.syncer
	f.mu.Unlock()

	return m != nil && m.IsAutoSyncActive()
}

// DetectConflicts scans for conflicted files.
func (f *Facade) DetectConflicts() ([]string, error) {
	m, err := f.manager("detect_conflicts")
	if err != nil {
		return nil, err
	}
	return m.DetectConflicts()
}

// GetConflictDetails describes the current conflict state.
func (f *Facade) GetConflictDetails() models.ConflictDetails {
	f.mu.Lock()
	m := f.syncer
	f.mu.Unlock()

	if m == nil {
		return models.ConflictDetails{HasConflicts: false}
	}
	return m.GetConflictDetails()
}

// SetConflictResolutionStrategy validates and stores the strategy.
func (f *Facade) SetConflictResolutionStrategy(strategy string) error {
	m, err := f.manager("set_conflict_strategy")
	if err != nil {
		return err
	}
	return m.SetConflictStrategy(models.ConflictStrategy(strategy))
}

// ResolveConflictsWithStrategy resolves current conflicts with a non-manual
// strategy.
func (f *Facade) ResolveConflictsWithStrategy(strategy string) error {
	m, err := f.manager("resolve_conflicts")
	if err != nil {
		return err
	}
	return m.ResolveConflictsWithStrategy(models.ConflictStrategy(strategy))
}

// AbortSync aborts a conflicted or failed sync.
func (f *Facade) AbortSync() error {
	m, err := f.manager("abort_sync")
	if err != nil {
		return err
	}
	return m.AbortSync()
}

// LastErrorDetails returns the most recent classified error for the UI.
func (f *Facade) LastErrorDetails() string {
	f.mu.Lock()
	m := f.syncer
	f.mu.Unlock()

	if m == nil {
		return "No error information available"
	}
	return m.LastErrorDetails()
}

// Close stops background work. The repository connection itself has no
// resources to release.
func (f *Facade) Close() {
	f.mu.Lock()
	m := f.syncer
	f.mu.Unlock()

	if m != nil {
		m.Close()
	}
}
