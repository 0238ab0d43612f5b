package models

import "time"

// HistoryEntry records one observed phase transition of a sync run. Entries
// are immutable once appended; slices inside are always copied.
type HistoryEntry struct {
	RunID         string    `json:"run_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Phase         Phase     `json:"phase"`
	Message       string    `json:"message"`
	Error         string    `json:"error,omitempty"`
	ConflictFiles []string  `json:"conflict_files,omitempty"`
}
