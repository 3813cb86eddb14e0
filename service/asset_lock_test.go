package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardbet/config"
	"cardbet/storage"
)

func newTestLockManager(t *testing.T) (*AssetLockManager, *storage.FreezeStore) {
	t.Helper()
	config.Set(config.NewTestConfig())

	store, err := storage.NewFreezeStore(t.TempDir())
	require.NoError(t, err)

	var mu sync.Mutex
	return NewAssetLockManager(store, &mu), store
}

func TestThawDuration(t *testing.T) {
	cfg := config.NewTestConfig()

	// Rarity duration plus per-card bonus.
	assert.Equal(t, 8*time.Hour+10*time.Minute, ThawDuration(cfg, "epic", 10))

	// Unknown rarities fall back to the default floor.
	assert.Equal(t, cfg.DefaultThaw, ThawDuration(cfg, "mythic", 0))

	// A rarity configured below the floor is raised to it.
	cfg.RarityThaw["paper"] = time.Minute
	assert.Equal(t, cfg.DefaultThaw, ThawDuration(cfg, "paper", 0))
}

func TestAssetLockManager_FreezeAndQuery(t *testing.T) {
	manager, _ := newTestLockManager(t)

	frozen, err := manager.IsFrozen("123")
	require.NoError(t, err)
	assert.False(t, frozen)

	require.NoError(t, manager.Freeze("123", "common", 1))

	frozen, err = manager.IsFrozen("123")
	require.NoError(t, err)
	assert.True(t, frozen)
}

func TestAssetLockManager_RefreezeKeepsOriginalThaw(t *testing.T) {
	manager, store := newTestLockManager(t)

	require.NoError(t, manager.Freeze("123", "common", 0))
	originalStart, originalThaw, ok, err := store.Get("123")
	require.NoError(t, err)
	require.True(t, ok)

	// Freezing again, even with deeper holdings, must not extend the lock.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, manager.Freeze("123", "legendary", 50))

	start, thaw, ok, err := store.Get("123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, originalThaw, thaw)
	assert.True(t, start.Equal(originalStart))
}

func TestAssetLockManager_LazyThawOnAccess(t *testing.T) {
	manager, store := newTestLockManager(t)

	require.NoError(t, manager.Freeze("123", "common", 0)) // one hour lock

	// Jump the manager's clock past the thaw instant.
	manager.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	frozen, err := manager.IsFrozen("123")
	require.NoError(t, err)
	assert.False(t, frozen)

	// The record was removed, not just ignored.
	_, _, ok, err := store.Get("123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAssetLockManager_ThawIfDue(t *testing.T) {
	manager, _ := newTestLockManager(t)

	require.NoError(t, manager.Freeze("123", "common", 0))

	unfrozen, err := manager.ThawIfDue("123")
	require.NoError(t, err)
	assert.False(t, unfrozen)

	manager.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	unfrozen, err = manager.ThawIfDue("123")
	require.NoError(t, err)
	assert.True(t, unfrozen)
}

func TestAssetLockManager_CountFrozen(t *testing.T) {
	manager, _ := newTestLockManager(t)

	require.NoError(t, manager.Freeze("1", "common", 0))
	require.NoError(t, manager.Freeze("2", "rare", 0))

	count, err := manager.CountFrozen([]string{"1", "2", "3"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
