package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/notegit/notesyncd/internal/errors"
	"github.com/notegit/notesyncd/internal/models"
	"github.com/notegit/notesyncd/internal/secrets"
)

func initTestRepo(t *testing.T) (*Client, string) {
	t.Helper()

	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	client, err := Open(dir, "https://example.com/notes.git", secrets.NewMemoryStore(), Author{})
	require.NoError(t, err)
	return client, dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("", "https://example.com/notes.git", secrets.NewMemoryStore(), Author{})
	assert.True(t, apperrors.IsPrecondition(err))
}

func TestOpenNonRepository(t *testing.T) {
	_, err := Open(t.TempDir(), "https://example.com/notes.git", secrets.NewMemoryStore(), Author{})
	assert.Error(t, err)
}

func TestHasLocalChanges(t *testing.T) {
	client, dir := initTestRepo(t)
	ctx := context.Background()

	dirty, err := client.HasLocalChanges(ctx)
	require.NoError(t, err)
	assert.False(t, dirty)

	writeFile(t, dir, "notes/a.md", "hello\n")

	dirty, err = client.HasLocalChanges(ctx)
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestStageAndCommit(t *testing.T) {
	client, dir := initTestRepo(t)
	ctx := context.Background()

	writeFile(t, dir, "notes/a.md", "hello\n")
	require.NoError(t, client.StageAll(ctx))
	require.NoError(t, client.Commit(ctx, "add note"))

	dirty, err := client.HasLocalChanges(ctx)
	require.NoError(t, err)
	assert.False(t, dirty, "worktree should be clean after commit")
}

func TestCommitDefaultMessage(t *testing.T) {
	client, dir := initTestRepo(t)
	ctx := context.Background()

	writeFile(t, dir, "a.md", "x\n")
	require.NoError(t, client.StageAll(ctx))
	// An empty message falls back to the timestamped default instead of
	// failing.
	require.NoError(t, client.Commit(ctx, ""))
}

func TestConflictedFiles(t *testing.T) {
	client, dir := initTestRepo(t)
	ctx := context.Background()

	writeFile(t, dir, "clean.md", "no conflicts here\n")
	writeFile(t, dir, "notes/a.md", conflicted)

	files, err := client.ConflictedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes/a.md"}, files)
}

func TestResolveFilesOurs(t *testing.T) {
	client, dir := initTestRepo(t)
	ctx := context.Background()

	writeFile(t, dir, "notes/a.md", conflicted)
	require.NoError(t, client.ResolveFiles(ctx, []string{"notes/a.md"}, models.StrategyOurs))

	content, err := os.ReadFile(filepath.Join(dir, "notes", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Shopping\n- apples\n- oranges\n- milk\n", string(content))

	require.NoError(t, client.Commit(ctx, ResolutionMessage(models.StrategyOurs)))

	files, err := client.ConflictedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestResolveFilesBothKeepsMarkers(t *testing.T) {
	client, dir := initTestRepo(t)
	ctx := context.Background()

	writeFile(t, dir, "notes/a.md", conflicted)
	require.NoError(t, client.ResolveFiles(ctx, []string{"notes/a.md"}, models.StrategyBoth))

	content, err := os.ReadFile(filepath.Join(dir, "notes", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, conflicted, string(content), "both strategy must not rewrite the file")
}

func TestResolveFilesRejectsManual(t *testing.T) {
	client, _ := initTestRepo(t)

	err := client.ResolveFiles(context.Background(), []string{"a.md"}, models.StrategyManual)
	assert.True(t, apperrors.IsInvalidStrategy(err))
}

func TestOperationsHonorCancellation(t *testing.T) {
	client, _ := initTestRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.HasLocalChanges(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, client.StageAll(ctx), context.Canceled)
	assert.ErrorIs(t, client.Commit(ctx, "m"), context.Canceled)
}
