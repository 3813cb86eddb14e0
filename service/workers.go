package service

import (
	"context"
	"time"

	"cardbet/config"

	log "github.com/sirupsen/logrus"
)

// StartDepositSweepWorker starts the background deposit sweeper.
// Returns a cleanup function to stop the worker gracefully.
func StartDepositSweepWorker(ctx context.Context, sweeper *SweepService) func() {
	ticker := time.NewTicker(config.Get().DepositSweepInterval)
	stopChan := make(chan struct{})

	sweep := func() {
		if err := sweeper.SweepOnce(ctx); err != nil {
			log.Warnf("Deposit sweep failed, will retry on next tick: %v", err)
		}
	}

	go func() {
		log.Info("Deposit sweep worker started")

		// Run immediately on startup
		sweep()

		for {
			select {
			case <-ctx.Done():
				log.Info("Deposit sweep worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Deposit sweep worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(stopChan)
	}
}

// StartCatalogRefreshWorker starts the background template catalog refresher.
// Returns a cleanup function to stop the worker gracefully.
func StartCatalogRefreshWorker(ctx context.Context, catalog *CatalogService) func() {
	ticker := time.NewTicker(config.Get().CatalogRefreshInterval)
	stopChan := make(chan struct{})

	refresh := func() {
		if err := catalog.Refresh(ctx); err != nil {
			log.Warnf("Catalog refresh failed, will retry on next tick: %v", err)
		}
	}

	go func() {
		log.Info("Catalog refresh worker started")

		// Run immediately on startup
		refresh()

		for {
			select {
			case <-ctx.Done():
				log.Info("Catalog refresh worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Catalog refresh worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				refresh()
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(stopChan)
	}
}
