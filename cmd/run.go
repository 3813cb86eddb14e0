package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"cardbet/config"
	"cardbet/events"
	"cardbet/infrastructure"
	"cardbet/service"
	"cardbet/storage"

	log "github.com/sirupsen/logrus"
)

// App exposes the wired services for the transport layer hosting this engine.
type App struct {
	Settlement *service.SettlementService
	Withdraw   *service.WithdrawService
	Ownership  *service.OwnershipCache
}

// Run initializes and starts the wager engine, blocking until ctx is
// cancelled.
func Run(ctx context.Context, ready func(*App)) error {
	log.Info("Starting wager engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize durable stores
	log.Info("Opening record stores...")
	accountStore, err := storage.NewAccountStore(filepath.Join(cfg.DataDir, "accounts"))
	if err != nil {
		return fmt.Errorf("failed to open account store: %w", err)
	}
	freezeStore, err := storage.NewFreezeStore(filepath.Join(cfg.DataDir, "freezes"))
	if err != nil {
		return fmt.Errorf("failed to open freeze store: %w", err)
	}
	walletStore, err := storage.NewWalletStore(filepath.Join(cfg.DataDir, "wallets"))
	if err != nil {
		return fmt.Errorf("failed to open wallet store: %w", err)
	}

	// Initialize event bus
	eventBus := events.NewBus()
	eventBus.Subscribe(events.EventTypeSettlementResolved, logSettlement)
	eventBus.Subscribe(events.EventTypeDepositSwept, logDeposit)

	// Initialize external collaborators
	log.Info("Initializing external clients...")
	chain := infrastructure.NewChainClient(cfg.ChainURL, cfg.ExternalTimeout, cfg.MaxResponseBytes)
	registry := infrastructure.NewRegistryClient(cfg.RegistryURL, cfg.ExternalTimeout, cfg.MaxResponseBytes)

	// Initialize services. The ledger and the asset lock manager share one
	// serialization point.
	log.Info("Initializing services...")
	resolver := service.NewAccountResolver(cfg.MasterSeed)
	var ledgerMu sync.Mutex
	ledger := service.NewBalanceService(accountStore, &ledgerMu, resolver.ReserveAccount(), eventBus)
	locks := service.NewAssetLockManager(freezeStore, &ledgerMu)
	ownership := service.NewOwnershipCache(registry, walletStore)
	catalog := service.NewCatalogService(registry)
	settlement := service.NewSettlementService(ledger, locks, ownership, catalog, resolver, chain, eventBus)
	withdraw := service.NewWithdrawService(ledger, chain, resolver)
	sweeper := service.NewSweepService(ledger, chain, eventBus)
	log.Info("Services initialized successfully")

	// Start background workers; both run once immediately
	stopSweep := service.StartDepositSweepWorker(ctx, sweeper)
	stopCatalog := service.StartCatalogRefreshWorker(ctx, catalog)

	if ready != nil {
		ready(&App{Settlement: settlement, Withdraw: withdraw, Ownership: ownership})
	}

	// Wait for context cancellation
	log.Infof("Wager engine is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down wager engine...")
	stopSweep()
	stopCatalog()

	// Give in-flight settlements time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	select {
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Info("Shutdown completed")
	}

	return nil
}

func logSettlement(_ context.Context, event events.Event) {
	resolved, ok := event.(events.SettlementResolvedEvent)
	if !ok {
		return
	}
	log.WithFields(log.Fields{
		"owner":  resolved.Owner,
		"bet":    resolved.Bet.String(),
		"payout": resolved.Payout.String(),
		"won":    resolved.Won,
	}).Info("Settlement resolved")
}

func logDeposit(_ context.Context, event events.Event) {
	swept, ok := event.(events.DepositSweptEvent)
	if !ok {
		return
	}
	log.WithFields(log.Fields{
		"account": swept.Account,
		"amount":  swept.Amount.String(),
		"txId":    swept.TxID,
	}).Info("Deposit folded into ledger")
}
