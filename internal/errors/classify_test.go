package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"auth required", errors.New("authentication required"), KindAuthenticationFailed},
		{"http 401", errors.New("unexpected client error: 401 Unauthorized"), KindAuthenticationFailed},
		{"connection refused", errors.New("dial tcp 10.0.0.1:443: connect: connection refused"), KindNetworkIssue},
		{"timeout", errors.New("context deadline exceeded: i/o timeout"), KindNetworkIssue},
		{"tls handshake", errors.New("remote error: tls: handshake failure"), KindNetworkIssue},
		{"no such host", errors.New("dial tcp: lookup example.invalid: no such host"), KindNetworkIssue},
		{"merge conflict", errors.New("worktree contains conflict markers"), KindMergeConflict},
		{"not found", errors.New("repository not found"), KindRemoteNotFound},
		{"http 404", errors.New("unexpected client error: 404 Not Found"), KindRemoteNotFound},
		{"unstaged changes", errors.New("worktree contains unstaged changes"), KindLocalChanges},
		{"fallback", errors.New("object not found"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("pull", tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, "pull", got.Op)
			assert.True(t, errors.Is(got, tt.err), "original error must stay reachable")
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify("push", nil))
}

func TestClassifyPreservesExistingClassification(t *testing.T) {
	orig := NewSyncInProgressError("trigger_sync")
	wrapped := fmt.Errorf("facade: %w", orig)

	got := Classify("trigger_sync", wrapped)
	assert.Equal(t, KindSyncInProgress, got.Kind)
	assert.Same(t, orig, got)
}

func TestClassifyPreservesMessageOnUnknown(t *testing.T) {
	err := errors.New("something nobody anticipated")
	got := Classify("stage", err)
	assert.Equal(t, KindUnknown, got.Kind)
	assert.Contains(t, got.Error(), "something nobody anticipated")
	assert.Empty(t, got.Hint)
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsPrecondition(NewPreconditionError("sync", "not connected to a repository")))
	assert.True(t, IsInvalidStrategy(NewInvalidStrategyError("set_strategy", "bogus")))
	assert.True(t, IsSyncInProgress(fmt.Errorf("wrap: %w", NewSyncInProgressError("sync"))))
	assert.False(t, IsMergeConflict(errors.New("plain")))
}
