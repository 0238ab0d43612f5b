package errors

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the category of a sync error.
type Kind string

const (
	KindAuthenticationFailed Kind = "AUTHENTICATION_FAILED"
	KindNetworkIssue         Kind = "NETWORK_ISSUE"
	KindMergeConflict        Kind = "MERGE_CONFLICT"
	KindRemoteNotFound       Kind = "REMOTE_NOT_FOUND"
	KindLocalChanges         Kind = "LOCAL_CHANGES_BLOCKING"
	KindPrecondition         Kind = "PRECONDITION_VIOLATION"
	KindInvalidStrategy      Kind = "INVALID_STRATEGY"
	KindSyncInProgress       Kind = "SYNC_IN_PROGRESS"
	KindUnknown              Kind = "UNKNOWN"
)

// SyncError is a classified failure from the VCS boundary or a precondition
// check. It carries the operation that failed and a remediation hint for the
// UI.
type SyncError struct {
	Op        string
	Kind      Kind
	Hint      string
	Cause     error
	Timestamp time.Time
}

func (e *SyncError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s failed: %v (%s)", e.Op, e.Cause, e.Hint)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
}

func (e *SyncError) Unwrap() error {
	return e.Cause
}

// New creates a SyncError with the given kind.
func New(op string, kind Kind, hint string, cause error) *SyncError {
	return &SyncError{
		Op:        op,
		Kind:      kind,
		Hint:      hint,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// NewPreconditionError reports an operation rejected before any I/O, such as
// a missing required field or a call against a disconnected repository.
func NewPreconditionError(op, message string) *SyncError {
	return New(op, KindPrecondition, message, errors.New(message))
}

// NewInvalidStrategyError reports an unknown conflict resolution strategy.
func NewInvalidStrategyError(op, strategy string) *SyncError {
	return New(op, KindInvalidStrategy,
		"Choose one of: manual, ours, theirs, both.",
		fmt.Errorf("invalid conflict resolution strategy: %s", strategy))
}

// NewSyncInProgressError reports a trigger rejected because a pass is already
// running. Second triggers are rejected, never queued.
func NewSyncInProgressError(op string) *SyncError {
	return New(op, KindSyncInProgress,
		"Wait for the current sync to finish or abort it.",
		errors.New("sync already in progress"))
}

// IsKind reports whether err is (or wraps) a SyncError of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// IsMergeConflict reports whether err was classified as a merge conflict.
func IsMergeConflict(err error) bool { return IsKind(err, KindMergeConflict) }

// IsPrecondition reports whether err is a precondition violation.
func IsPrecondition(err error) bool { return IsKind(err, KindPrecondition) }

// IsInvalidStrategy reports whether err is an invalid-strategy rejection.
func IsInvalidStrategy(err error) bool { return IsKind(err, KindInvalidStrategy) }

// IsSyncInProgress reports whether err is a rejected concurrent trigger.
func IsSyncInProgress(err error) bool { return IsKind(err, KindSyncInProgress) }

// IsAuthenticationFailed reports whether err is a credential rejection.
func IsAuthenticationFailed(err error) bool { return IsKind(err, KindAuthenticationFailed) }
