package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardbet/models"
)

func TestWalletStore_LoadMissingOwner(t *testing.T) {
	store, err := NewWalletStore(t.TempDir())
	require.NoError(t, err)

	set, ok, err := store.Load("alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, set)
}

func TestWalletStore_SaveAndLoad(t *testing.T) {
	store, err := NewWalletStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(&models.WalletSet{
		Owner:   "alice",
		Wallets: []string{"alice", "alice-vault"},
	}))

	set, ok, err := store.Load("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", set.Owner)
	assert.Equal(t, []string{"alice", "alice-vault"}, set.Wallets)
	assert.True(t, set.Has("alice-vault"))
	assert.False(t, set.Has("mallory"))
}

func TestWalletStore_SaveReplacesWholesale(t *testing.T) {
	store, err := NewWalletStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(&models.WalletSet{Owner: "alice", Wallets: []string{"a", "b"}}))
	require.NoError(t, store.Save(&models.WalletSet{Owner: "alice", Wallets: []string{"c"}}))

	set, ok, err := store.Load("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"c"}, set.Wallets)
}
