package service

import (
	"context"
	"sync"

	"cardbet/config"
	"cardbet/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SweepService folds inbound external deposits into the balance ledger. It
// only ever writes to the ledger; settlement never depends on it having run.
type SweepService struct {
	ledger *BalanceService
	chain  ChainClient
	events EventPublisher

	mu   sync.Mutex
	seen map[string]struct{} // chain tx ids already folded in this process
}

// NewSweepService creates a new deposit sweeper.
func NewSweepService(ledger *BalanceService, chain ChainClient, publisher EventPublisher) *SweepService {
	return &SweepService{
		ledger: ledger,
		chain:  chain,
		events: publisher,
		seen:   make(map[string]struct{}),
	}
}

// SweepOnce pulls the pending deposits from every configured pool account and
// credits them, deduplicating by chain transaction id. Pool failures are
// logged and retried on the next run; the first error is returned for the
// caller's logging.
func (s *SweepService) SweepOnce(ctx context.Context) error {
	cfg := config.Get()

	var firstErr error
	for _, pool := range cfg.PoolAccounts {
		callCtx, cancel := context.WithTimeout(ctx, cfg.ExternalTimeout)
		deposits, err := s.chain.CollectDeposits(callCtx, pool)
		cancel()
		if err != nil {
			log.WithFields(log.Fields{
				"pool":  pool,
				"error": err,
			}).Warn("Deposit collection failed, will retry on next sweep")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for _, deposit := range deposits {
			if !s.markSeen(deposit.TxID) {
				continue
			}
			credited, err := s.ledger.Deposit(ctx, deposit.Account, deposit.Amount)
			if err != nil {
				s.unmarkSeen(deposit.TxID)
				log.WithFields(log.Fields{
					"txId":  deposit.TxID,
					"error": err,
				}).Error("Failed to fold deposit into ledger")
				if firstErr == nil {
					firstErr = err
				}
				continue
			}

			ref := uuid.New().String()
			log.WithFields(log.Fields{
				"pool":    pool,
				"account": credited,
				"amount":  deposit.Amount.String(),
				"txId":    deposit.TxID,
				"ref":     ref,
			}).Info("Deposit swept")
			s.events.Emit(ctx, events.DepositSweptEvent{
				Pool:    pool,
				Account: credited,
				Amount:  deposit.Amount,
				TxID:    deposit.TxID,
				Ref:     ref,
			})
		}
	}
	return firstErr
}

func (s *SweepService) markSeen(txID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[txID]; ok {
		return false
	}
	s.seen[txID] = struct{}{}
	return true
}

func (s *SweepService) unmarkSeen(txID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, txID)
}
