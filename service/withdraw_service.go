package service

import (
	"context"
	"errors"
	"fmt"

	"cardbet/config"
	"cardbet/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// WithdrawService moves cached balance back out to an external wallet: the
// managed account is debited first, then the transfer is submitted on the
// external network. A failed submission re-credits the account.
type WithdrawService struct {
	ledger   *BalanceService
	chain    ChainClient
	resolver *AccountResolver
}

// NewWithdrawService creates a new withdraw service.
func NewWithdrawService(ledger *BalanceService, chain ChainClient, resolver *AccountResolver) *WithdrawService {
	return &WithdrawService{
		ledger:   ledger,
		chain:    chain,
		resolver: resolver,
	}
}

// Withdraw executes one withdraw request.
func (s *WithdrawService) Withdraw(ctx context.Context, req *models.WithdrawRequest) (*models.WithdrawResult, error) {
	cfg := config.Get()

	if req.Owner == "" || req.Nonce == "" || req.Account == "" || req.Amount == "" {
		return &models.WithdrawResult{Message: "owner, nonce, account and amount are required"}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.ExternalTimeout)
	err := s.chain.VerifyNonce(callCtx, req.Owner, req.Nonce, "withdraw")
	cancel()
	if err != nil {
		return &models.WithdrawResult{Message: "login nonce rejected"}, nil
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return &models.WithdrawResult{Message: "malformed amount"}, nil
	}

	account := s.resolver.Resolve(req.Owner)
	if err := s.ledger.Debit(ctx, account, amount); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return &models.WithdrawResult{Message: "insufficient balance"}, nil
		}
		return nil, fmt.Errorf("failed to debit withdrawal: %w", err)
	}

	callCtx, cancel = context.WithTimeout(ctx, cfg.ExternalTimeout)
	txID, err := s.chain.SubmitTransfer(callCtx, req.Account, amount, req.Owner)
	cancel()
	if err != nil {
		// Put the cached funds back; nothing left the network.
		if creditErr := s.ledger.Credit(ctx, account, amount); creditErr != nil {
			log.WithFields(log.Fields{
				"account": account,
				"amount":  amount.String(),
				"error":   creditErr,
			}).Error("Failed to restore balance after withdrawal failure; flagged for reconciliation")
		}
		return &models.WithdrawResult{Message: "external ledger unavailable, try again later"}, nil
	}

	return &models.WithdrawResult{
		Success: true,
		Message: fmt.Sprintf("withdrawal submitted: %s", txID),
	}, nil
}
