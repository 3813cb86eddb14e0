package storage

import (
	"path/filepath"

	"cardbet/models"
)

// WalletStore persists one owner-to-wallets record per owner identity.
// Filenames are derived from a hash of the owner id.
type WalletStore struct {
	dir string
}

// NewWalletStore creates the store rooted at dir.
func NewWalletStore(dir string) (*WalletStore, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &WalletStore{dir: dir}, nil
}

func (s *WalletStore) path(owner string) string {
	return filepath.Join(s.dir, hashName(owner))
}

// Load returns the wallet set for owner. The second return value is false
// when the owner has never been seen.
func (s *WalletStore) Load(owner string) (*models.WalletSet, bool, error) {
	var set models.WalletSet
	ok, err := readJSON(s.path(owner), &set)
	if err != nil || !ok {
		return nil, false, err
	}
	return &set, true, nil
}

// Save replaces the owner's record wholesale.
func (s *WalletStore) Save(set *models.WalletSet) error {
	return writeJSONAtomic(s.path(set.Owner), set)
}
