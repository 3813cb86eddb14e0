package service

import (
	"context"
	"time"

	"cardbet/events"
	"cardbet/models"

	"github.com/shopspring/decimal"
)

// ChainClient defines the interface to the external distributed-ledger
// network. It moves real currency and verifies replay-resistant login nonces;
// this system only caches balances derived from it.
type ChainClient interface {
	// AccountBalance returns the on-network balance of an account
	AccountBalance(ctx context.Context, account string) (decimal.Decimal, error)

	// CollectDeposits pulls the inbound transfers addressed to a pool account
	// that have not been collected yet
	CollectDeposits(ctx context.Context, pool string) ([]models.Deposit, error)

	// SubmitTransfer moves currency out on the external network and returns
	// the network transaction id
	SubmitTransfer(ctx context.Context, to string, amount decimal.Decimal, memo string) (string, error)

	// VerifyNonce checks a replay-resistant login nonce for an owner
	VerifyNonce(ctx context.Context, owner, nonce, kind string) error
}

// CardRegistry defines the interface to the NFT registry that supplies the
// card template catalog and per-wallet holdings.
type CardRegistry interface {
	// FetchTemplates returns the full template catalog
	FetchTemplates(ctx context.Context) ([]models.Template, error)

	// FetchOwnedAssets returns the card assets currently held by a wallet
	FetchOwnedAssets(ctx context.Context, wallet string) ([]models.Asset, error)
}

// AccountStore defines the interface for durable per-account balance records
type AccountStore interface {
	// Load returns the persisted balance; ok is false for unknown accounts
	Load(address string) (balance decimal.Decimal, ok bool, err error)

	// Save replaces the account's record wholesale
	Save(address string, balance decimal.Decimal) error

	// Exists reports whether a durable record exists for the account
	Exists(address string) (bool, error)
}

// FreezeStore defines the interface for durable frozen-asset records
type FreezeStore interface {
	// Put records a freeze; putting over an existing record is a no-op
	Put(assetID string, thaw time.Duration, rarity string) error

	// Get returns the freeze-start instant and thaw duration; ok is false
	// when the asset has no record
	Get(assetID string) (start time.Time, thaw time.Duration, ok bool, err error)

	// Delete removes the record; deleting a missing record is not an error
	Delete(assetID string) error
}

// WalletStore defines the interface for durable owner-to-wallets records
type WalletStore interface {
	// Load returns the owner's wallet set; ok is false for unseen owners
	Load(owner string) (set *models.WalletSet, ok bool, err error)

	// Save replaces the owner's record wholesale
	Save(set *models.WalletSet) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event)
}
