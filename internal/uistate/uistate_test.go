package uistate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uistate.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestExpandedDefaultsToTrue(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	expanded, err := s.Expanded(ctx, "never-recorded")
	require.NoError(t, err)
	assert.True(t, expanded)
}

func TestSetExpandedRoundTrip(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetExpanded(ctx, "f1", false))
	expanded, err := s.Expanded(ctx, "f1")
	require.NoError(t, err)
	assert.False(t, expanded)

	// Upsert: the same frame can flip back.
	require.NoError(t, s.SetExpanded(ctx, "f1", true))
	expanded, err = s.Expanded(ctx, "f1")
	require.NoError(t, err)
	assert.True(t, expanded)
}

func TestListReturnsRecordedState(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetExpanded(ctx, "f1", false))
	require.NoError(t, s.SetExpanded(ctx, "f2", true))

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"f1": false, "f2": true}, all)
}

func TestPruneDropsDeletedFrames(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetExpanded(ctx, "f1", false))
	require.NoError(t, s.SetExpanded(ctx, "f2", false))
	require.NoError(t, s.SetExpanded(ctx, "f3", true))

	require.NoError(t, s.Prune(ctx, []string{"f1", "f3"}))
	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"f1": false, "f3": true}, all)

	// An empty live set clears everything.
	require.NoError(t, s.Prune(ctx, nil))
	all, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReopenPreservesState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "uistate.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetExpanded(ctx, "f1", false))
	require.NoError(t, s.Close())

	// Opening an existing database re-applies schema idempotently.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	expanded, err := s.Expanded(ctx, "f1")
	require.NoError(t, err)
	assert.False(t, expanded)
}
