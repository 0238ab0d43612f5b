// Package sync owns the synchronization state machine: it sequences
// stage, commit, pull and push against the working copy, tracks status and
// history, and runs the automatic sync loop.
package sync

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/notegit/notesyncd/internal/errors"
	"github.com/notegit/notesyncd/internal/gitrepo"
	"github.com/notegit/notesyncd/internal/models"
)

const (
	// DefaultAutoSyncInterval is used when the caller passes a non-positive
	// interval.
	DefaultAutoSyncInterval = 300 * time.Second

	maxHistoryEntries = 100
)

// Manager sequences sync passes over a single working copy. At most one pass
// runs at a time; a second trigger is rejected, never queued. All state is
// guarded by mu and no I/O happens while it is held.
type Manager struct {
	vcs VCSClient

	mu         sync.Mutex
	phase      models.Phase
	lastSyncAt time.Time
	history    []models.HistoryEntry
	strategy   models.ConflictStrategy
	conflicts  []string
	lastErr    *apperrors.SyncError
	running    bool

	// ctx is the manager-scoped cancellation handle. Abort cancels it and a
	// fresh one is issued; a cancelled handle is never reused.
	ctx    context.Context
	cancel context.CancelFunc

	autoOn   bool
	autoDone chan struct{}
}

// NewManager creates a Manager in the Idle state with the manual conflict
// strategy.
func NewManager(vcs VCSClient) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		vcs:      vcs,
		phase:    models.PhaseIdle,
		strategy: models.StrategyManual,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// updateStatus records a phase transition and appends a history entry,
// evicting the oldest entry past capacity. Conflict entries carry a copy of
// the conflicted file list.
func (m *Manager) updateStatus(runID string, phase models.Phase, message string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.phase = phase

	// Only a completed pass reports Success, so this is the time of the last
	// full sync. Resolution transitions never use this phase.
	if phase == models.PhaseSuccess {
		m.lastSyncAt = time.Now()
	}

	// Conflicts are tracked only while the status says Conflict; DetectConflicts
	// repopulates the set on demand.
	if phase != models.PhaseConflict && phase != models.PhaseResolving {
		m.conflicts = nil
	}

	if err != nil {
		var se *apperrors.SyncError
		if stderrors.As(err, &se) {
			m.lastErr = se
		}
	}

	entry := models.HistoryEntry{
		RunID:     runID,
		Timestamp: time.Now(),
		Phase:     phase,
		Message:   message,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if phase == models.PhaseConflict && len(m.conflicts) > 0 {
		entry.ConflictFiles = append([]string(nil), m.conflicts...)
	}

	m.history = append(m.history, entry)
	if len(m.history) > maxHistoryEntries {
		m.history = m.history[len(m.history)-maxHistoryEntries:]
	}
}

// updateRunStatus is updateStatus for transitions reported by a running pass.
// Once the pass's context is cancelled (abort, shutdown) the run may no
// longer touch status or history: abort has already reset both.
func (m *Manager) updateRunStatus(ctx context.Context, runID string, phase models.Phase, message string, err error) {
	if ctx.Err() != nil {
		return
	}
	m.updateStatus(runID, phase, message, err)
}

// recordError retains a classified error for later retrieval without adding
// a history entry.
func (m *Manager) recordError(err error) {
	var se *apperrors.SyncError
	if stderrors.As(err, &se) {
		m.mu.Lock()
		m.lastErr = se
		m.mu.Unlock()
	}
}

// TriggerManualSync runs one sequencing pass. The pass executes in its own
// goroutine; the caller blocks until it completes or the manager-scoped
// cancellation fires. A trigger while a pass is in flight is rejected with a
// SyncInProgress error.
func (m *Manager) TriggerManualSync() (string, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return m.StatusString(), apperrors.NewSyncInProgressError("trigger_sync")
	}
	m.running = true
	managerCtx := m.ctx
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(managerCtx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		errCh <- m.performSync(runCtx, runID)
	}()

	select {
	case err := <-errCh:
		return m.StatusString(), err
	case <-managerCtx.Done():
		return "Sync cancelled", managerCtx.Err()
	}
}

// performSync executes one pass of the state machine:
// Checking -> [Staging -> Committing] -> Pulling -> Pushing -> Success, with
// Conflict and Error as side exits. Cancellation is checked between every
// phase.
func (m *Manager) performSync(ctx context.Context, runID string) error {
	logger := logrus.WithFields(logrus.Fields{
		"action": "sync",
		"run_id": runID,
	})

	m.updateRunStatus(ctx, runID, models.PhaseChecking, "Checking for local changes", nil)
	if err := ctx.Err(); err != nil {
		return err
	}

	dirty, err := m.vcs.HasLocalChanges(ctx)
	if err != nil {
		m.updateRunStatus(ctx, runID, models.PhaseError, "Failed to check for local changes", err)
		return err
	}

	if dirty {
		m.updateRunStatus(ctx, runID, models.PhaseStaging, "Staging local changes", nil)
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.vcs.StageAll(ctx); err != nil {
			m.updateRunStatus(ctx, runID, models.PhaseError, "Failed to stage changes", err)
			return err
		}

		m.updateRunStatus(ctx, runID, models.PhaseCommit, "Committing local changes", nil)
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.vcs.Commit(ctx, ""); err != nil {
			m.updateRunStatus(ctx, runID, models.PhaseError, "Failed to commit changes", err)
			return err
		}
	}

	m.updateRunStatus(ctx, runID, models.PhasePulling, "Pulling changes from remote", nil)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.vcs.Pull(ctx); err != nil {
		if !apperrors.IsMergeConflict(err) {
			m.updateRunStatus(ctx, runID, models.PhaseError, "Failed to pull changes", err)
			return err
		}

		conflicts, detectErr := m.scanConflicts(ctx, runID)
		if detectErr != nil {
			m.updateRunStatus(ctx, runID, models.PhaseError, "Failed to detect conflicts", detectErr)
			return detectErr
		}

		if len(conflicts) > 0 {
			strategy := m.GetConflictStrategy()
			if strategy == models.StrategyManual {
				// Manual resolution happens outside the pipeline; stop here,
				// keeping the classified error retrievable.
				m.recordError(err)
				return fmt.Errorf("merge conflicts detected: %w", err)
			}

			logger.WithFields(logrus.Fields{
				"strategy":  strategy,
				"conflicts": len(conflicts),
			}).Info("Auto-resolving conflicts")
			if resolveErr := m.resolve(ctx, runID, strategy); resolveErr != nil {
				m.updateRunStatus(ctx, runID, models.PhaseError, "Failed to auto-resolve conflicts", resolveErr)
				return resolveErr
			}
		}
	}

	// Regardless of how the pull went, never push over remaining conflicts.
	remaining, err := m.scanConflicts(ctx, runID)
	if err != nil {
		m.updateRunStatus(ctx, runID, models.PhaseError, "Failed to re-check conflicts", err)
		return err
	}
	if len(remaining) > 0 {
		conflictErr := apperrors.New("sync", apperrors.KindMergeConflict,
			"Resolve the conflicted files or pick a strategy, then sync again.",
			fmt.Errorf("unresolved merge conflicts in %d files", len(remaining)))
		m.recordError(conflictErr)
		return conflictErr
	}

	m.updateRunStatus(ctx, runID, models.PhasePushing, "Pushing local changes to remote", nil)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.vcs.Push(ctx); err != nil {
		m.updateRunStatus(ctx, runID, models.PhaseError, "Failed to push changes", err)
		return err
	}

	m.updateRunStatus(ctx, runID, models.PhaseSuccess, "Synchronization completed successfully", nil)
	logger.Info("Sync completed")
	return nil
}

// scanConflicts refreshes the conflicted-file set and moves the status to
// Conflict when files are found. An empty scan while in Conflict returns the
// status to Idle so the conflict invariant holds.
func (m *Manager) scanConflicts(ctx context.Context, runID string) ([]string, error) {
	conflicts, err := m.vcs.ConflictedFiles(ctx)
	if err != nil {
		return nil, err
	}
	// A cancelled run must not repopulate state abort just cleared.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(conflicts) > 0 {
		m.mu.Lock()
		m.conflicts = append([]string(nil), conflicts...)
		m.mu.Unlock()
		m.updateRunStatus(ctx, runID, models.PhaseConflict,
			fmt.Sprintf("Detected %d files with conflicts", len(conflicts)), nil)
	} else {
		m.mu.Lock()
		m.conflicts = nil
		if m.phase == models.PhaseConflict {
			m.phase = models.PhaseIdle
		}
		m.mu.Unlock()
	}

	return conflicts, nil
}

// DetectConflicts scans the working copy for conflict markers, updating the
// status to Conflict when any are found.
func (m *Manager) DetectConflicts() ([]string, error) {
	return m.scanConflicts(m.currentCtx(), "")
}

// resolve applies strategy to the current conflicted files and commits the
// resolution.
func (m *Manager) resolve(ctx context.Context, runID string, strategy models.ConflictStrategy) error {
	if !strategy.Resolves() {
		return apperrors.NewInvalidStrategyError("resolve_conflicts", string(strategy))
	}

	m.updateRunStatus(ctx, runID, models.PhaseResolving,
		"Resolving conflicts with strategy: "+string(strategy), nil)

	files, err := m.vcs.ConflictedFiles(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		m.updateRunStatus(ctx, runID, models.PhaseIdle, "No conflicts to resolve", nil)
		return nil
	}

	if err := m.vcs.ResolveFiles(ctx, files, strategy); err != nil {
		return err
	}
	if err := m.vcs.Commit(ctx, gitrepo.ResolutionMessage(strategy)); err != nil {
		return err
	}

	// Resolution is not a completed sync: the Idle transition clears the
	// conflict set without moving the last sync time.
	m.updateRunStatus(ctx, runID, models.PhaseIdle,
		fmt.Sprintf("Conflicts resolved using '%s' strategy", strategy), nil)
	return nil
}

// ResolveConflictsWithStrategy resolves the currently detected conflicts
// using a non-manual strategy. Invalid strategies are rejected without
// mutating any state.
func (m *Manager) ResolveConflictsWithStrategy(strategy models.ConflictStrategy) error {
	if !strategy.Resolves() {
		return apperrors.NewInvalidStrategyError("resolve_conflicts", string(strategy))
	}

	runID := uuid.NewString()
	ctx := m.currentCtx()
	if err := m.resolve(ctx, runID, strategy); err != nil {
		m.updateRunStatus(ctx, runID, models.PhaseError,
			fmt.Sprintf("Failed to resolve conflicts using strategy %s", strategy), err)
		return err
	}
	return nil
}

// SetConflictStrategy validates and stores the strategy used by future
// passes. The previous value is kept on rejection.
func (m *Manager) SetConflictStrategy(strategy models.ConflictStrategy) error {
	if !strategy.Valid() {
		return apperrors.NewInvalidStrategyError("set_conflict_strategy", string(strategy))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategy = strategy
	return nil
}

// GetConflictStrategy returns the configured strategy.
func (m *Manager) GetConflictStrategy() models.ConflictStrategy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.strategy
}

// GetConflictDetails describes the current conflict state for the UI.
func (m *Manager) GetConflictDetails() models.ConflictDetails {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.conflicts) == 0 {
		return models.ConflictDetails{HasConflicts: false}
	}

	return models.ConflictDetails{
		HasConflicts:        true,
		Count:               len(m.conflicts),
		Files:               append([]string(nil), m.conflicts...),
		CurrentStrategy:     string(m.strategy),
		AvailableStrategies: models.AvailableStrategies(),
	}
}

// AbortSync cancels the in-flight pass, clears the conflict set and returns
// the status to Idle. It is only valid in the Conflict or Error states.
//
// The abort is in-memory only: the working copy is left as the failed pull
// left it. Restoring the pre-pull worktree would need merge-abort plumbing
// the VCS layer does not expose.
func (m *Manager) AbortSync() error {
	m.mu.Lock()

	if m.phase != models.PhaseConflict && m.phase != models.PhaseError {
		m.mu.Unlock()
		return apperrors.NewPreconditionError("abort_sync",
			"cannot abort sync: no conflict or error to resolve")
	}

	// Cancellation handles are single-use: fire this one and issue a fresh
	// one for future passes.
	m.cancel()
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.conflicts = nil
	m.mu.Unlock()

	m.updateStatus("", models.PhaseIdle, "Sync aborted and conflicts cleared", nil)
	return nil
}

// currentCtx returns the live manager-scoped context.
func (m *Manager) currentCtx() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx
}

// GetSyncStatus returns a copy of the current status.
func (m *Manager) GetSyncStatus() *models.SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := &models.SyncStatus{
		Phase:      m.phase,
		LastSyncAt: m.lastSyncAt,
		IsSyncing:  m.running,
		AutoSync:   m.autoOn,
	}
	if m.lastErr != nil {
		status.LastError = m.lastErr.Error()
	}
	if len(m.conflicts) > 0 {
		status.ConflictFiles = append([]string(nil), m.conflicts...)
	}
	return status
}

// StatusString renders the current status for polling consumers.
func (m *Manager) StatusString() string {
	return m.GetSyncStatus().String()
}

// LastErrorDetails returns the most recent classified error, kept for
// retrieval after the synchronous error return has been consumed.
func (m *Manager) LastErrorDetails() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastErr == nil {
		return "No error information available"
	}
	return m.lastErr.Error()
}

// GetSyncHistory returns a copy of the history, newest last.
func (m *Manager) GetSyncHistory() []models.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := make([]models.HistoryEntry, len(m.history))
	copy(history, m.history)
	return history
}

// StartAutomaticSync begins periodic sync passes. A non-positive interval
// falls back to the default. Starting while already running is a no-op.
func (m *Manager) StartAutomaticSync(interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultAutoSyncInterval
	}

	m.mu.Lock()
	if m.autoOn {
		m.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	m.autoDone = done
	m.autoOn = true
	m.mu.Unlock()

	logger := logrus.WithFields(logrus.Fields{
		"action":   "auto_sync",
		"interval": interval.String(),
	})
	logger.Info("Automatic sync started")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				logger.Info("Automatic sync stopped")
				return
			case <-ticker.C:
				// Pass failures are recorded in history; the timer keeps
				// ticking.
				if _, err := m.TriggerManualSync(); err != nil {
					if apperrors.IsSyncInProgress(err) {
						continue
					}
					logger.WithError(err).Warn("Automatic sync pass failed")
				}
			}
		}
	}()

	return nil
}

// StopAutomaticSync halts the periodic loop. Safe to call when not running.
func (m *Manager) StopAutomaticSync() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.autoOn {
		return
	}
	close(m.autoDone)
	m.autoDone = nil
	m.autoOn = false
}

// IsAutoSyncActive reports whether the periodic loop is running.
func (m *Manager) IsAutoSyncActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoOn
}

// Close stops the automatic loop and cancels any in-flight pass.
func (m *Manager) Close() {
	m.StopAutomaticSync()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancel()
	m.ctx, m.cancel = context.WithCancel(context.Background())
}
