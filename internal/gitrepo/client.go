// Package gitrepo wraps go-git with the narrow capability surface the sync
// pipeline needs: stage, commit, pull, push, status and conflict handling
// against a single working copy.
package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/sirupsen/logrus"

	apperrors "github.com/notegit/notesyncd/internal/errors"
	"github.com/notegit/notesyncd/internal/models"
	"github.com/notegit/notesyncd/internal/secrets"
)

// Author identifies the committer used for automatic commits.
type Author struct {
	Name  string
	Email string
}

// DefaultAuthor is used when no committer identity is configured.
var DefaultAuthor = Author{Name: "notesyncd", Email: "notesyncd@localhost"}

// Client performs VCS operations against one working copy. It is not safe
// for concurrent writes; the sync manager guarantees at most one pass
// touches the working copy at a time.
type Client struct {
	path    string
	repoURL string
	repo    *git.Repository
	store   secrets.Store
	author  Author
}

// Open opens an existing working copy at path.
func Open(path, repoURL string, store secrets.Store, author Author) (*Client, error) {
	if path == "" {
		return nil, apperrors.NewPreconditionError("open_repository", "repository path is required")
	}

	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, apperrors.Classify("open_repository", err)
	}

	return newClient(path, repoURL, repo, store, author), nil
}

// Clone clones repoURL into path and returns a client for the fresh copy.
// token may be empty for public remotes.
func Clone(ctx context.Context, path, repoURL, token string, store secrets.Store, author Author) (*Client, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.Classify("clone_repository", err)
	}

	repo, err := git.PlainCloneContext(ctx, path, false, &git.CloneOptions{
		URL:  repoURL,
		Auth: BasicAuth(token),
	})
	if err != nil {
		return nil, apperrors.Classify("clone_repository", err)
	}

	return newClient(path, repoURL, repo, store, author), nil
}

func newClient(path, repoURL string, repo *git.Repository, store secrets.Store, author Author) *Client {
	if author.Name == "" {
		author = DefaultAuthor
	}
	return &Client{
		path:    path,
		repoURL: repoURL,
		repo:    repo,
		store:   store,
		author:  author,
	}
}

// Path returns the working copy root.
func (c *Client) Path() string { return c.path }

// BasicAuth builds token-based transport credentials, nil when the token is
// empty.
func BasicAuth(token string) *githttp.BasicAuth {
	if token == "" {
		return nil
	}
	// Username is arbitrary when authenticating with a token.
	return &githttp.BasicAuth{Username: "git-token", Password: token}
}

// auth resolves transport credentials from the secret store. A missing
// credential is not fatal; public remotes work unauthenticated.
func (c *Client) auth() *githttp.BasicAuth {
	token, err := c.store.Get(c.repoURL)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"repository": c.repoURL,
			"action":     "resolve_credentials",
		}).WithError(err).Warn("Proceeding without stored credentials")
		return nil
	}
	return BasicAuth(token)
}

// HasLocalChanges reports whether the worktree has uncommitted changes.
func (c *Client) HasLocalChanges(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	w, err := c.repo.Worktree()
	if err != nil {
		return false, apperrors.Classify("check_changes", err)
	}

	status, err := w.Status()
	if err != nil {
		return false, apperrors.Classify("check_changes", err)
	}

	return !status.IsClean(), nil
}

// StageAll stages every change in the worktree.
func (c *Client) StageAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w, err := c.repo.Worktree()
	if err != nil {
		return apperrors.Classify("stage_changes", err)
	}

	if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return apperrors.Classify("stage_changes", err)
	}

	return nil
}

// Commit commits the staged changes. An empty message gets a timestamped
// default.
func (c *Client) Commit(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w, err := c.repo.Worktree()
	if err != nil {
		return apperrors.Classify("commit_changes", err)
	}

	if message == "" {
		message = fmt.Sprintf("Auto-commit by notesyncd at %s", time.Now().Format(time.RFC3339))
	}

	_, err = w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  c.author.Name,
			Email: c.author.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return apperrors.Classify("commit_changes", err)
	}

	return nil
}

// Pull fetches and integrates remote changes on the default branch.
// "Already up to date" is success.
func (c *Client) Pull(ctx context.Context) error {
	w, err := c.repo.Worktree()
	if err != nil {
		return apperrors.Classify("pull_changes", err)
	}

	err = w.PullContext(ctx, &git.PullOptions{
		Auth:       c.auth(),
		RemoteName: "origin",
	})
	if err == git.NoErrAlreadyUpToDate {
		return nil
	}
	if err != nil {
		return apperrors.Classify("pull_changes", err)
	}

	return nil
}

// Push publishes local commits. "Already up to date" is success.
func (c *Client) Push(ctx context.Context) error {
	err := c.repo.PushContext(ctx, &git.PushOptions{
		Auth:       c.auth(),
		RemoteName: "origin",
	})
	if err == git.NoErrAlreadyUpToDate {
		return nil
	}
	if err != nil {
		return apperrors.Classify("push_changes", err)
	}

	return nil
}

// ConflictedFiles scans status-dirty files for conflict markers and returns
// their worktree-relative paths, sorted.
func (c *Client) ConflictedFiles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, err := c.repo.Worktree()
	if err != nil {
		return nil, apperrors.Classify("detect_conflicts", err)
	}

	status, err := w.Status()
	if err != nil {
		return nil, apperrors.Classify("detect_conflicts", err)
	}

	var conflicted []string
	for filePath := range status {
		content, err := os.ReadFile(filepath.Join(c.path, filePath))
		if err != nil {
			// Deleted or unreadable files cannot carry markers.
			continue
		}
		if HasConflictMarkers(content) {
			conflicted = append(conflicted, filePath)
		}
	}

	sort.Strings(conflicted)
	return conflicted, nil
}

// ResolveFiles resolves each conflicted path according to strategy and stages
// the result. "ours"/"theirs" rewrite the file keeping one side of every
// conflict hunk; "both" stages the file untouched, markers preserved, so
// neither side is lost. The caller commits afterwards.
func (c *Client) ResolveFiles(ctx context.Context, files []string, strategy models.ConflictStrategy) error {
	if !strategy.Resolves() {
		return apperrors.NewInvalidStrategyError("resolve_conflicts", string(strategy))
	}

	w, err := c.repo.Worktree()
	if err != nil {
		return apperrors.Classify("resolve_conflicts", err)
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		if strategy != models.StrategyBoth {
			full := filepath.Join(c.path, file)
			content, err := os.ReadFile(full)
			if err != nil {
				return apperrors.Classify("resolve_conflicts", err)
			}

			resolved, err := ResolveMarkers(content, strategy)
			if err != nil {
				return apperrors.Classify("resolve_conflicts",
					fmt.Errorf("%s: %w", file, err))
			}

			if err := os.WriteFile(full, resolved, 0o644); err != nil {
				return apperrors.Classify("resolve_conflicts", err)
			}
		}

		if _, err := w.Add(file); err != nil {
			return apperrors.Classify("resolve_conflicts",
				fmt.Errorf("failed to stage %s: %w", file, err))
		}
	}

	return nil
}

// ResolutionMessage builds the commit message for an automatic resolution.
func ResolutionMessage(strategy models.ConflictStrategy) string {
	if strategy == models.StrategyBoth {
		return "Keep both changes (conflict markers preserved)"
	}
	return fmt.Sprintf("Resolve conflicts using '%s' strategy", strings.ToLower(string(strategy)))
}
