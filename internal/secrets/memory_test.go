package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get("https://github.com/user/notes")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set("https://github.com/user/notes", "ghp_token"))

	secret, err := store.Get("https://github.com/user/notes")
	require.NoError(t, err)
	assert.Equal(t, "ghp_token", secret)

	require.NoError(t, store.Delete("https://github.com/user/notes"))
	_, err = store.Get("https://github.com/user/notes")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDeleteMissingIsNoop(t *testing.T) {
	store := NewMemoryStore()
	assert.NoError(t, store.Delete("never-stored"))
}
