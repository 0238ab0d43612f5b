package sync

import (
	"context"

	"github.com/notegit/notesyncd/internal/models"
)

// VCSClient is the capability surface the sync manager drives. It is
// satisfied by gitrepo.Client; tests substitute mocks.
type VCSClient interface {
	// HasLocalChanges reports whether the working copy has uncommitted
	// changes.
	HasLocalChanges(ctx context.Context) (bool, error)

	// StageAll stages every change in the working copy.
	StageAll(ctx context.Context) error

	// Commit commits staged changes; an empty message gets a timestamped
	// default.
	Commit(ctx context.Context, message string) error

	// Pull integrates remote changes; "already up to date" is success.
	Pull(ctx context.Context) error

	// Push publishes local commits; "already up to date" is success.
	Push(ctx context.Context) error

	// ConflictedFiles returns the relative paths of files carrying conflict
	// markers.
	ConflictedFiles(ctx context.Context) ([]string, error)

	// ResolveFiles resolves and stages the given conflicted paths with a
	// non-manual strategy.
	ResolveFiles(ctx context.Context, files []string, strategy models.ConflictStrategy) error
}
