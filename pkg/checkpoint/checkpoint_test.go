package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/storefeed/pkg/datescope"
)

func rangeScope(t *testing.T) datescope.Scope {
	t.Helper()
	scope, err := datescope.Range(
		time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 23, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return scope
}

func TestFilenameFor(t *testing.T) {
	single := datescope.Single(time.Date(2025, time.December, 24, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "processed_stores_20251224.json", FilenameFor(single))
	assert.Equal(t, "processed_stores.json", FilenameFor(rangeScope(t)))
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(t.TempDir(), rangeScope(t))
	set, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir(), rangeScope(t))

	set := NewSet("store-b", "store-a", "store-c")
	require.NoError(t, store.Save(ctx, set))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"store-a", "store-b", "store-c"}, loaded.Sorted())

	// Record on disk is a sorted JSON array.
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `["store-a","store-b","store-c"]`, string(data))
}

func TestStore_CorruptRecordIsEmpty(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, rangeScope(t))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0644))

	set, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestStore_SaveOverwritesWholeRecord(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir(), rangeScope(t))

	require.NoError(t, store.Save(ctx, NewSet("store-a", "store-b")))
	require.NoError(t, store.Save(ctx, NewSet("store-c")))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"store-c"}, loaded.Sorted())

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir(), rangeScope(t))

	// Clearing an absent record is fine.
	require.NoError(t, store.Clear(ctx))

	require.NoError(t, store.Save(ctx, NewSet("store-a")))
	require.NoError(t, store.Clear(ctx))

	_, err := os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestSet_Operations(t *testing.T) {
	universe := NewSet("a", "b", "c", "d")
	done := NewSet("b", "d")

	assert.Equal(t, []string{"a", "c"}, universe.Diff(done))
	assert.Empty(t, done.Diff(universe))

	done.Union(NewSet("a", "c"))
	assert.Empty(t, universe.Diff(done))
	assert.True(t, done.Has("a"))
	assert.False(t, done.Has("zzz"))
}
