package gitrepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notegit/notesyncd/internal/models"
)

const conflicted = `# Shopping
<<<<<<< HEAD
- apples
- oranges
=======
- bananas
>>>>>>> origin/main
- milk
`

func TestHasConflictMarkers(t *testing.T) {
	assert.True(t, HasConflictMarkers([]byte(conflicted)))
	assert.False(t, HasConflictMarkers([]byte("# Shopping\n- milk\n")))
	// All three sequences are required.
	assert.False(t, HasConflictMarkers([]byte("<<<<<<< HEAD\n=======\n")))
}

func TestResolveMarkersOurs(t *testing.T) {
	got, err := ResolveMarkers([]byte(conflicted), models.StrategyOurs)
	require.NoError(t, err)
	assert.Equal(t, "# Shopping\n- apples\n- oranges\n- milk\n", string(got))
}

func TestResolveMarkersTheirs(t *testing.T) {
	got, err := ResolveMarkers([]byte(conflicted), models.StrategyTheirs)
	require.NoError(t, err)
	assert.Equal(t, "# Shopping\n- bananas\n- milk\n", string(got))
}

func TestResolveMarkersMultipleHunks(t *testing.T) {
	content := "a\n<<<<<<< HEAD\nl1\n=======\nr1\n>>>>>>> ref\nb\n<<<<<<< HEAD\nl2\n=======\nr2\n>>>>>>> ref\nc\n"

	got, err := ResolveMarkers([]byte(content), models.StrategyTheirs)
	require.NoError(t, err)
	assert.Equal(t, "a\nr1\nb\nr2\nc\n", string(got))
}

func TestResolveMarkersNoConflicts(t *testing.T) {
	content := "plain file\nno markers\n"
	got, err := ResolveMarkers([]byte(content), models.StrategyOurs)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestResolveMarkersUnterminatedHunk(t *testing.T) {
	_, err := ResolveMarkers([]byte("<<<<<<< HEAD\nours\n=======\n"), models.StrategyOurs)
	assert.Error(t, err)
}

func TestResolveMarkersRejectsNonRewritingStrategies(t *testing.T) {
	for _, s := range []models.ConflictStrategy{models.StrategyManual, models.StrategyBoth, "bogus"} {
		_, err := ResolveMarkers([]byte(conflicted), s)
		assert.Error(t, err, "strategy %s", s)
	}
}

func TestResolutionMessage(t *testing.T) {
	assert.Equal(t, "Resolve conflicts using 'ours' strategy", ResolutionMessage(models.StrategyOurs))
	assert.Equal(t, "Keep both changes (conflict markers preserved)", ResolutionMessage(models.StrategyBoth))
}
