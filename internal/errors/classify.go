package errors

import (
	"errors"
	"strings"
)

// Classify maps a raw VCS-layer failure into the closed taxonomy by
// inspecting its message. Most git libraries surface transport and merge
// failures as plain strings, so this is best-effort pattern matching, not a
// guarantee; it runs exactly once at the boundary and the result is never
// re-classified downstream.
func Classify(op string, err error) *SyncError {
	if err == nil {
		return nil
	}

	var se *SyncError
	if errors.As(err, &se) {
		return se
	}

	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "authentication required"),
		strings.Contains(msg, "authentication failed"),
		strings.Contains(msg, "invalid credentials"),
		strings.Contains(msg, "401"):
		return New(op, KindAuthenticationFailed,
			"Authentication failed. Check your personal access token.", err)

	case strings.Contains(msg, "connect:"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "tls"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "network"):
		return New(op, KindNetworkIssue,
			"Network issue detected. Check your internet connection.", err)

	case strings.Contains(msg, "conflict"):
		return New(op, KindMergeConflict,
			"Merge conflict detected. Resolve the conflicted files or pick a strategy.", err)

	case strings.Contains(msg, "repository not found"),
		strings.Contains(msg, "404"):
		return New(op, KindRemoteNotFound,
			"Remote repository not found. Check the repository URL.", err)

	case strings.Contains(msg, "local changes"),
		strings.Contains(msg, "uncommitted changes"),
		strings.Contains(msg, "worktree contains unstaged changes"):
		return New(op, KindLocalChanges,
			"Local changes prevent this operation. Commit or stash them first.", err)
	}

	return New(op, KindUnknown, "", err)
}
