package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"cardbet/config"
	"cardbet/models"
)

// ErrCatalogNotReady is returned before the first successful catalog refresh
var ErrCatalogNotReady = errors.New("card catalog not loaded yet")

// CatalogService holds the current card template catalog. A refresh replaces
// the catalog wholesale, so readers take the current reference without any
// locking and never observe a partial update.
type CatalogService struct {
	registry CardRegistry
	current  atomic.Value // *models.Catalog
}

// NewCatalogService creates the service over the registry.
func NewCatalogService(registry CardRegistry) *CatalogService {
	return &CatalogService{registry: registry}
}

// Refresh fetches the full template list from the registry and swaps it in.
func (s *CatalogService) Refresh(ctx context.Context) error {
	cfg := config.Get()
	callCtx, cancel := context.WithTimeout(ctx, cfg.ExternalTimeout)
	defer cancel()

	templates, err := s.registry.FetchTemplates(callCtx)
	if err != nil {
		return fmt.Errorf("failed to fetch template catalog: %w", err)
	}
	s.current.Store(&models.Catalog{
		Templates: templates,
		FetchedAt: time.Now(),
	})
	return nil
}

// Current returns the catalog, or nil before the first successful refresh.
func (s *CatalogService) Current() *models.Catalog {
	catalog, _ := s.current.Load().(*models.Catalog)
	return catalog
}

// Ready reports whether a catalog has been loaded.
func (s *CatalogService) Ready() bool {
	return s.Current() != nil
}
