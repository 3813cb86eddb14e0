package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountStore_LoadMissingAccount(t *testing.T) {
	store, err := NewAccountStore(t.TempDir())
	require.NoError(t, err)

	balance, ok, err := store.Load("0xabc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, balance.IsZero())
}

func TestAccountStore_SaveAndLoad(t *testing.T) {
	store, err := NewAccountStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("0xabc", decimal.RequireFromString("123.45")))

	balance, ok, err := store.Load("0xabc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, balance.Equal(decimal.RequireFromString("123.45")))
}

func TestAccountStore_SaveReplacesWholesale(t *testing.T) {
	store, err := NewAccountStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("0xabc", decimal.RequireFromString("100")))
	require.NoError(t, store.Save("0xabc", decimal.RequireFromString("7")))

	balance, ok, err := store.Load("0xabc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, balance.Equal(decimal.RequireFromString("7")))
}

func TestAccountStore_Exists(t *testing.T) {
	store, err := NewAccountStore(t.TempDir())
	require.NoError(t, err)

	exists, err := store.Exists("0xabc")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save("0xabc", decimal.Zero))

	exists, err = store.Exists("0xabc")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAccountStore_FilenamesAreHashed(t *testing.T) {
	dir := t.TempDir()
	store, err := NewAccountStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save("0xdeadbeef", decimal.Zero))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "deadbeef")

	// No staged temp files left behind
	matches, err := filepath.Glob(filepath.Join(dir, ".staged-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
