package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// freezeRecord is the durable frozen-asset record. The file's modification
// time is the freeze-start instant; the record is written once and never
// rewritten, so the mtime stays stable for the life of the freeze.
type freezeRecord struct {
	ThawTimeMs int64  `json:"thawTimeMs"`
	Rarity     string `json:"rarity"`
}

// FreezeStore persists one record per frozen card asset, keyed by asset id.
type FreezeStore struct {
	dir string
}

// NewFreezeStore creates the store rooted at dir.
func NewFreezeStore(dir string) (*FreezeStore, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &FreezeStore{dir: dir}, nil
}

// Asset ids are numeric mint identifiers, so they are used as filenames
// directly.
func (s *FreezeStore) path(assetID string) string {
	return filepath.Join(s.dir, assetID)
}

// Put records a freeze for assetID. Putting over an existing record is a
// no-op, which keeps the original freeze-start instant.
func (s *FreezeStore) Put(assetID string, thaw time.Duration, rarity string) error {
	path := s.path(assetID)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat freeze record: %w", err)
	}
	return writeJSONAtomic(path, freezeRecord{
		ThawTimeMs: thaw.Milliseconds(),
		Rarity:     rarity,
	})
}

// Get returns the freeze-start instant and thaw duration for assetID. The
// third return value is false when the asset has no freeze record.
func (s *FreezeStore) Get(assetID string) (time.Time, time.Duration, bool, error) {
	path := s.path(assetID)
	var record freezeRecord
	ok, err := readJSON(path, &record)
	if err != nil || !ok {
		return time.Time{}, 0, false, err
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		// Removed between read and stat; treat as thawed.
		return time.Time{}, 0, false, nil
	}
	if err != nil {
		return time.Time{}, 0, false, fmt.Errorf("failed to stat freeze record: %w", err)
	}
	return info.ModTime(), time.Duration(record.ThawTimeMs) * time.Millisecond, true, nil
}

// Delete removes the freeze record for assetID. Deleting a missing record is
// not an error.
func (s *FreezeStore) Delete(assetID string) error {
	err := os.Remove(s.path(assetID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete freeze record: %w", err)
	}
	return nil
}
