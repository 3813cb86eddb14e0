package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// accountRecord is the durable per-account ledger record.
type accountRecord struct {
	Balance string `json:"balance"`
}

// AccountStore persists one balance record per managed account. Filenames are
// derived from a hash of the account address, never the raw address.
type AccountStore struct {
	dir string
}

// NewAccountStore creates the store rooted at dir.
func NewAccountStore(dir string) (*AccountStore, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &AccountStore{dir: dir}, nil
}

func (s *AccountStore) path(address string) string {
	return filepath.Join(s.dir, hashName(address))
}

// Load returns the persisted balance for address. The second return value is
// false when the account has never been persisted.
func (s *AccountStore) Load(address string) (decimal.Decimal, bool, error) {
	var record accountRecord
	ok, err := readJSON(s.path(address), &record)
	if err != nil {
		return decimal.Zero, false, err
	}
	if !ok {
		return decimal.Zero, false, nil
	}
	balance, err := decimal.NewFromString(record.Balance)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("corrupt balance record for account: %w", err)
	}
	return balance, true, nil
}

// Save replaces the account's record wholesale with the given balance.
func (s *AccountStore) Save(address string, balance decimal.Decimal) error {
	return writeJSONAtomic(s.path(address), accountRecord{Balance: balance.String()})
}

// Exists reports whether a durable record exists for address.
func (s *AccountStore) Exists(address string) (bool, error) {
	_, err := os.Stat(s.path(address))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat account record: %w", err)
	}
	return true, nil
}
