package service

import (
	"fmt"
	"sync"
	"time"

	"cardbet/config"
)

// AssetLockManager tracks the frozen state of card assets. A freeze record's
// existence means the asset cannot trigger a win; expiry is evaluated lazily
// whenever the asset is consulted, never by a per-asset timer. Frozen counts
// can therefore be momentarily stale for already-expired locks until the next
// access.
type AssetLockManager struct {
	mu    *sync.Mutex // shared with the balance ledger serialization point
	store FreezeStore
	now   func() time.Time
}

// NewAssetLockManager creates the manager over the given store. The mutex
// must be the same one the balance ledger serializes on.
func NewAssetLockManager(store FreezeStore, mu *sync.Mutex) *AssetLockManager {
	return &AssetLockManager{
		mu:    mu,
		store: store,
		now:   time.Now,
	}
}

// ThawDuration computes how long a freeze lasts for a card of the given
// rarity held by a player with ownedCount cards in total. Deeper holdings
// face longer cooldowns on any one asset, which discourages reusing the same
// asset as a repeated free win trigger.
func ThawDuration(cfg *config.Config, rarity string, ownedCount int) time.Duration {
	duration := cfg.RarityThaw[rarity]
	if duration < cfg.DefaultThaw {
		duration = cfg.DefaultThaw
	}
	return duration + time.Duration(ownedCount)*cfg.PerCardThawBonus
}

// Freeze records a freeze for assetID. Freezing an already frozen asset is a
// no-op and keeps the original thaw instant.
func (m *AssetLockManager) Freeze(assetID, rarity string, ownedCount int) error {
	thaw := ThawDuration(config.Get(), rarity, ownedCount)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Put(assetID, thaw, rarity); err != nil {
		return fmt.Errorf("failed to freeze asset %s: %w", assetID, err)
	}
	return nil
}

// IsFrozen reports whether assetID is currently frozen, removing the record
// first if its thaw instant has passed.
func (m *AssetLockManager) IsFrozen(assetID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isFrozenLocked(assetID)
}

// ThawIfDue removes the freeze record if it has expired. Returns true when
// the asset ends up unfrozen.
func (m *AssetLockManager) ThawIfDue(assetID string) (bool, error) {
	frozen, err := m.IsFrozen(assetID)
	if err != nil {
		return false, err
	}
	return !frozen, nil
}

// CountFrozen returns how many of the given assets are currently frozen.
func (m *AssetLockManager) CountFrozen(assetIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, id := range assetIDs {
		frozen, err := m.isFrozenLocked(id)
		if err != nil {
			return 0, err
		}
		if frozen {
			count++
		}
	}
	return count, nil
}

func (m *AssetLockManager) isFrozenLocked(assetID string) (bool, error) {
	start, thaw, ok, err := m.store.Get(assetID)
	if err != nil {
		return false, fmt.Errorf("failed to read freeze record for asset %s: %w", assetID, err)
	}
	if !ok {
		return false, nil
	}
	if !m.now().Before(start.Add(thaw)) {
		if err := m.store.Delete(assetID); err != nil {
			return false, fmt.Errorf("failed to thaw asset %s: %w", assetID, err)
		}
		return false, nil
	}
	return true, nil
}
