package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAddAndRecent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Add(Entry{
		ConnectionName: "prod",
		Query:          "SELECT 1",
		Duration:       42 * time.Millisecond,
		RowCount:       1,
		Success:        true,
	}))
	require.NoError(t, store.Add(Entry{
		ConnectionName: "prod",
		Query:          "SELECT 2",
		Success:        true,
	}))

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "SELECT 2", entries[0].Query)
	assert.Equal(t, "SELECT 1", entries[1].Query)
	assert.NotEmpty(t, entries[0].ID)
}

func TestAddDeduplicates(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Add(Entry{ConnectionName: "prod", Query: "SELECT 1", Success: true}))
	require.NoError(t, store.Add(Entry{ConnectionName: "prod", Query: "SELECT 2", Success: true}))
	// Re-running the first statement bumps it back to the top.
	require.NoError(t, store.Add(Entry{ConnectionName: "prod", Query: "SELECT 1", Success: true}))

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "SELECT 1", entries[0].Query)
}

func TestDedupIsPerConnection(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Add(Entry{ConnectionName: "prod", Query: "SELECT 1", Success: true}))
	require.NoError(t, store.Add(Entry{ConnectionName: "dev", Query: "SELECT 1", Success: true}))

	entries, err := store.Recent(10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSearch(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Add(Entry{ConnectionName: "prod", Query: "SELECT * FROM users", Success: true}))
	require.NoError(t, store.Add(Entry{ConnectionName: "prod", Query: "DELETE FROM sessions", Success: false, ErrorMessage: "permission denied"}))

	entries, err := store.Search("users", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SELECT * FROM users", entries[0].Query)

	entries, err = store.Search("sessions", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "permission denied", entries[0].ErrorMessage)
}

func TestPrune(t *testing.T) {
	store := newTestStore(t)

	for _, q := range []string{"SELECT 1", "SELECT 2", "SELECT 3", "SELECT 4"} {
		require.NoError(t, store.Add(Entry{ConnectionName: "prod", Query: q, Success: true}))
	}
	require.NoError(t, store.Prune(2))

	entries, err := store.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "SELECT 4", entries[0].Query)
	assert.Equal(t, "SELECT 3", entries[1].Query)
}
