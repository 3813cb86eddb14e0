package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cardbet/config"
	"cardbet/models"

	"golang.org/x/sync/singleflight"
)

// OwnershipCache is a time-bounded cache of each owner's currently held card
// assets, aggregated across the owner's wallet set. It exists to bound
// external registry call volume at the cost of a bounded staleness window.
// A miss triggers exactly one registry fetch per owner regardless of how many
// callers race on it; entries are never proactively evicted.
type OwnershipCache struct {
	registry CardRegistry
	wallets  WalletStore

	mu      sync.RWMutex
	entries map[string]*models.OwnershipSnapshot
	group   singleflight.Group
	now     func() time.Time
}

// NewOwnershipCache creates the cache over the registry and wallet store.
func NewOwnershipCache(registry CardRegistry, wallets WalletStore) *OwnershipCache {
	return &OwnershipCache{
		registry: registry,
		wallets:  wallets,
		entries:  make(map[string]*models.OwnershipSnapshot),
		now:      time.Now,
	}
}

// GetOwnedCards returns the owner's current holdings, refreshing from the
// registry when the cached snapshot's TTL has elapsed. Expiry is checked on
// access only.
func (c *OwnershipCache) GetOwnedCards(ctx context.Context, owner string) (*models.OwnershipSnapshot, error) {
	ttl := config.Get().OwnershipTTL

	c.mu.RLock()
	snapshot, ok := c.entries[owner]
	c.mu.RUnlock()
	if ok && c.now().Sub(snapshot.FetchedAt) < ttl {
		return snapshot, nil
	}

	v, err, _ := c.group.Do(owner, func() (any, error) {
		// Another caller may have refreshed while we waited on the flight.
		c.mu.RLock()
		current, ok := c.entries[owner]
		c.mu.RUnlock()
		if ok && c.now().Sub(current.FetchedAt) < ttl {
			return current, nil
		}

		fresh, err := c.refresh(ctx, owner)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[owner] = fresh
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.OwnershipSnapshot), nil
}

// AddWallet attaches an additional wallet to the owner and invalidates the
// cached snapshot so the next access sees the aggregated holdings.
func (c *OwnershipCache) AddWallet(owner, wallet string) error {
	set, err := c.walletSet(owner)
	if err != nil {
		return err
	}
	if set.Has(wallet) {
		return nil
	}
	set.Wallets = append(set.Wallets, wallet)
	if err := c.wallets.Save(set); err != nil {
		return fmt.Errorf("failed to persist wallet set for owner: %w", err)
	}

	c.mu.Lock()
	delete(c.entries, owner)
	c.mu.Unlock()
	return nil
}

func (c *OwnershipCache) refresh(ctx context.Context, owner string) (*models.OwnershipSnapshot, error) {
	cfg := config.Get()

	set, err := c.walletSet(owner)
	if err != nil {
		return nil, err
	}

	var assets []models.Asset
	for _, wallet := range set.Wallets {
		callCtx, cancel := context.WithTimeout(ctx, cfg.ExternalTimeout)
		owned, err := c.registry.FetchOwnedAssets(callCtx, wallet)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch assets for wallet %s: %w", wallet, err)
		}
		assets = append(assets, owned...)
	}

	return &models.OwnershipSnapshot{
		Owner:     owner,
		Assets:    assets,
		FetchedAt: c.now(),
	}, nil
}

// walletSet loads the owner's wallet set, self-registering the owner as its
// own sole wallet on first sight.
func (c *OwnershipCache) walletSet(owner string) (*models.WalletSet, error) {
	set, ok, err := c.wallets.Load(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet set for owner: %w", err)
	}
	if ok {
		return set, nil
	}
	set = &models.WalletSet{Owner: owner, Wallets: []string{owner}}
	if err := c.wallets.Save(set); err != nil {
		return nil, fmt.Errorf("failed to register owner wallet set: %w", err)
	}
	return set, nil
}

// partitionHoldings splits a snapshot's assets per template into frozen and
// unfrozen id lists, thawing expired locks as a side effect of the lookups.
func partitionHoldings(snapshot *models.OwnershipSnapshot, locks *AssetLockManager) (map[int64]*models.TemplateHolding, error) {
	holdings := make(map[int64]*models.TemplateHolding)
	for _, asset := range snapshot.Assets {
		holding := holdings[asset.TemplateID]
		if holding == nil {
			holding = &models.TemplateHolding{TemplateID: asset.TemplateID, Rarity: asset.Rarity}
			holdings[asset.TemplateID] = holding
		}
		frozen, err := locks.IsFrozen(asset.ID)
		if err != nil {
			return nil, err
		}
		if frozen {
			holding.Frozen = append(holding.Frozen, asset.ID)
		} else {
			holding.Unfrozen = append(holding.Unfrozen, asset.ID)
		}
	}
	return holdings, nil
}
