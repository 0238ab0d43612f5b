package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Phase represents the current stage of the sync pipeline.
type Phase string

const (
	PhaseIdle      Phase = "Idle"
	PhaseChecking  Phase = "Checking for changes"
	PhaseStaging   Phase = "Staging changes"
	PhaseCommit    Phase = "Committing changes"
	PhasePulling   Phase = "Pulling from remote"
	PhasePushing   Phase = "Pushing to remote"
	PhaseResolving Phase = "Resolving conflicts"
	PhaseSuccess   Phase = "Sync completed successfully"
	PhaseConflict  Phase = "Conflict detected"
	PhaseError     Phase = "Sync error"
)

// SyncStatus is a snapshot of the sync manager state, safe to hand to the API
// layer for polling.
type SyncStatus struct {
	Phase         Phase     `json:"phase"`
	LastSyncAt    time.Time `json:"last_sync_at,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
	ConflictFiles []string  `json:"conflict_files,omitempty"`
	IsSyncing     bool      `json:"is_syncing"`
	AutoSync      bool      `json:"auto_sync"`
}

// String renders the status the way the UI displays it: current phase, last
// successful sync time, then error or conflict detail when present.
func (s *SyncStatus) String() string {
	var b strings.Builder
	b.WriteString(string(s.Phase))

	if !s.LastSyncAt.IsZero() {
		fmt.Fprintf(&b, " (Last sync: %s)", s.LastSyncAt.Format("Jan 2 15:04:05"))
	}

	if s.Phase == PhaseError && s.LastError != "" {
		fmt.Fprintf(&b, " - %s", s.LastError)
	}

	if s.Phase == PhaseConflict && len(s.ConflictFiles) > 0 {
		fmt.Fprintf(&b, " - %d files with conflicts", len(s.ConflictFiles))
		if len(s.ConflictFiles) <= 3 {
			fmt.Fprintf(&b, ": %s", strings.Join(s.ConflictFiles, ", "))
		}
	}

	return b.String()
}

// MarshalJSON includes the rendered string so polling clients don't have to
// rebuild it.
func (s *SyncStatus) MarshalJSON() ([]byte, error) {
	type alias SyncStatus
	return json.Marshal(struct {
		*alias
		Display string `json:"display"`
	}{(*alias)(s), s.String()})
}
