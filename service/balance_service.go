package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cardbet/events"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInsufficientFunds is returned when a debit would take an account below zero
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned when a mutation amount is not positive
	ErrInvalidAmount = errors.New("amount must be positive")
)

// BalanceService is the custody ledger. It caches one balance per managed
// account and serializes every mutation behind a single lock, so no mutation
// is ever observable as partially applied. Durable state is one record per
// account, replaced wholesale on every write; there is no write-ahead log,
// so a crash between compute and persist loses that one update and is
// reconciled externally.
type BalanceService struct {
	mu      *sync.Mutex
	store   AccountStore
	cache   map[string]decimal.Decimal
	reserve string
	events  EventPublisher
}

// NewBalanceService creates the ledger. The mutex is shared with the asset
// lock manager: freezes are always issued in the same settlement step as a
// balance mutation and the two must not interleave with a concurrent
// settlement for the same owner.
func NewBalanceService(store AccountStore, mu *sync.Mutex, reserve string, publisher EventPublisher) *BalanceService {
	return &BalanceService{
		mu:      mu,
		store:   store,
		cache:   make(map[string]decimal.Decimal),
		reserve: reserve,
		events:  publisher,
	}
}

// GetBalance returns the cached balance for account, creating the account
// lazily with a zero balance on first sight.
func (s *BalanceService) GetBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(account)
}

// Credit adds amount to the account's balance.
func (s *BalanceService) Credit(ctx context.Context, account string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.loadLocked(account)
	if err != nil {
		return err
	}
	return s.writeLocked(ctx, account, balance, balance.Add(amount), "credit")
}

// Debit removes amount from the account's balance, failing with
// ErrInsufficientFunds if the balance cannot cover it.
func (s *BalanceService) Debit(ctx context.Context, account string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.loadLocked(account)
	if err != nil {
		return err
	}
	if balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return s.writeLocked(ctx, account, balance, balance.Sub(amount), "debit")
}

// Transfer atomically debits from and credits to. Either both accounts move
// by exactly amount or neither does.
func (s *BalanceService) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if from == to {
		return fmt.Errorf("cannot transfer an account to itself")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	fromBalance, err := s.loadLocked(from)
	if err != nil {
		return err
	}
	toBalance, err := s.loadLocked(to)
	if err != nil {
		return err
	}
	if fromBalance.LessThan(amount) {
		return ErrInsufficientFunds
	}

	if err := s.writeLocked(ctx, from, fromBalance, fromBalance.Sub(amount), "transfer_out"); err != nil {
		return err
	}
	if err := s.writeLocked(ctx, to, toBalance, toBalance.Add(amount), "transfer_in"); err != nil {
		// Roll the debit leg back so the transfer is all-or-nothing.
		if restoreErr := s.writeLocked(ctx, from, fromBalance.Sub(amount), fromBalance, "transfer_rollback"); restoreErr != nil {
			log.WithFields(log.Fields{
				"account": from,
				"error":   restoreErr,
			}).Error("Failed to roll back debit leg of transfer; flagged for reconciliation")
		}
		return err
	}
	return nil
}

// Deposit credits an externally received amount. Untracked accounts have no
// local cache to keep consistent, so their deposits route to the designated
// reserve account; the credited account is returned.
func (s *BalanceService) Deposit(ctx context.Context, account string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tracked, err := s.isTrackedLocked(account)
	if err != nil {
		return "", err
	}
	if !tracked {
		account = s.reserve
	}

	balance, err := s.loadLocked(account)
	if err != nil {
		return "", err
	}
	if err := s.writeLocked(ctx, account, balance, balance.Add(amount), "deposit"); err != nil {
		return "", err
	}
	return account, nil
}

// IsTracked reports whether the account's balance is managed locally.
func (s *BalanceService) IsTracked(account string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isTrackedLocked(account)
}

func (s *BalanceService) isTrackedLocked(account string) (bool, error) {
	if _, ok := s.cache[account]; ok {
		return true, nil
	}
	exists, err := s.store.Exists(account)
	if err != nil {
		return false, fmt.Errorf("failed to check account record: %w", err)
	}
	return exists, nil
}

// loadLocked returns the cached balance, falling back to the durable record.
// First sight of an account persists a zero record, which is what marks the
// account as managed.
func (s *BalanceService) loadLocked(account string) (decimal.Decimal, error) {
	if balance, ok := s.cache[account]; ok {
		return balance, nil
	}
	balance, ok, err := s.store.Load(account)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load account record: %w", err)
	}
	if !ok {
		balance = decimal.Zero
		if err := s.store.Save(account, balance); err != nil {
			return decimal.Zero, fmt.Errorf("failed to create account record: %w", err)
		}
	}
	s.cache[account] = balance
	return balance, nil
}

// writeLocked persists the new balance and updates the cache. The durable
// record is committed before the cache so a failed write leaves both at the
// old value.
func (s *BalanceService) writeLocked(ctx context.Context, account string, oldBalance, newBalance decimal.Decimal, operation string) error {
	if err := s.store.Save(account, newBalance); err != nil {
		return fmt.Errorf("failed to persist %s for account: %w", operation, err)
	}
	s.cache[account] = newBalance
	if s.events != nil {
		s.events.Emit(ctx, events.BalanceChangeEvent{
			Account:    account,
			OldBalance: oldBalance,
			NewBalance: newBalance,
			Operation:  operation,
		})
	}
	return nil
}
