package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"cardbet/config"
	"cardbet/events"
	"cardbet/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Reject reasons surfaced to the caller. Every rejection is terminal and
// happens before any ledger mutation.
const (
	RejectMaintenance   = "maintenance in progress"
	RejectCatalog       = "card catalog not ready"
	RejectMissingFields = "owner and nonce are required"
	RejectNonce         = "login nonce rejected"
	RejectHoldings      = "card holdings unavailable"
	RejectBadBet        = "malformed bet amount"
	RejectLowBalance    = "insufficient balance for this bet"
	RejectBelowMinimum  = "bet below the minimum"
	RejectAboveMaximum  = "bet above the maximum"
	RejectHouseCover    = "house cannot cover the worst-case payout"
)

const drawSlots = 3

const scoreboardSize = 20

// SettlementService drives the per-request state machine: validate, draw,
// resolve, settle. It is the only component that commands both the balance
// ledger and the asset lock manager.
type SettlementService struct {
	ledger    *BalanceService
	locks     *AssetLockManager
	ownership *OwnershipCache
	catalog   *CatalogService
	resolver  *AccountResolver
	chain     ChainClient
	events    EventPublisher

	rngMu sync.Mutex
	rng   *rand.Rand

	scoreMu sync.Mutex
	score   []string // most recent winning draws, newest first
}

// NewSettlementService creates the orchestrator.
func NewSettlementService(
	ledger *BalanceService,
	locks *AssetLockManager,
	ownership *OwnershipCache,
	catalog *CatalogService,
	resolver *AccountResolver,
	chain ChainClient,
	publisher EventPublisher,
) *SettlementService {
	return &SettlementService{
		ledger:    ledger,
		locks:     locks,
		ownership: ownership,
		catalog:   catalog,
		resolver:  resolver,
		chain:     chain,
		events:    publisher,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the draw source. Intended for tests.
func (s *SettlementService) SetRand(rng *rand.Rand) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng = rng
}

func (s *SettlementService) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

// Play executes one settlement request end to end.
func (s *SettlementService) Play(ctx context.Context, req *models.SettlementRequest) (*models.SettlementResponse, error) {
	cfg := config.Get()

	// Terminal rejects: no ledger mutation has happened yet.
	if cfg.Maintenance {
		return reject(RejectMaintenance), nil
	}
	if !s.catalog.Ready() {
		return reject(RejectCatalog), nil
	}
	if req.Owner == "" || req.Nonce == "" {
		return reject(RejectMissingFields), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.ExternalTimeout)
	err := s.chain.VerifyNonce(callCtx, req.Owner, req.Nonce, req.NonceKind)
	cancel()
	if err != nil {
		return reject(RejectNonce), nil
	}

	account := s.resolver.Resolve(req.Owner)
	houseAccount := s.resolver.HouseAccount()

	snapshot, err := s.ownership.GetOwnedCards(ctx, req.Owner)
	if err != nil {
		log.WithFields(log.Fields{
			"owner": req.Owner,
			"error": err,
		}).Warn("Ownership lookup failed; settlement not ready")
		return reject(RejectHoldings), nil
	}
	holdings, err := partitionHoldings(snapshot, s.locks)
	if err != nil {
		return nil, fmt.Errorf("failed to partition holdings: %w", err)
	}

	catalog := s.catalog.Current()
	playable := catalog.Playable()
	if len(playable) == 0 {
		return reject(RejectCatalog), nil
	}
	winProbability := ComputeOdds(countUnfrozenTemplates(playable, holdings), len(playable))

	playerBalance, err := s.ledger.GetBalance(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to load player balance: %w", err)
	}
	houseBalance, err := s.ledger.GetBalance(ctx, houseAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to load house balance: %w", err)
	}

	// Quote-only: no bet submitted, return state without drawing or mutating.
	if req.Bet == "" {
		return s.buildResponse(ctx, req, account, houseAccount, snapshot, holdings, playable, winProbability, false, nil, decimal.Zero), nil
	}

	bet, err := decimal.NewFromString(req.Bet)
	if err != nil || bet.IsNegative() {
		return reject(RejectBadBet), nil
	}

	// Validate the bet. Zero bets are the free-win special case and skip the
	// minimum and limit checks.
	maxBet := ComputeMaxBet(cfg, ComputeBetTiers(cfg, houseBalance))
	if bet.IsPositive() {
		if playerBalance.LessThan(bet) {
			return reject(RejectLowBalance), nil
		}
		if bet.LessThan(cfg.MinimumBet) {
			return reject(RejectBelowMinimum), nil
		}
		if bet.GreaterThan(maxBet) {
			return reject(RejectAboveMaximum), nil
		}
	}

	// The house must be able to cover the worst case before the draw is made.
	// This is a point-in-time check, not a reservation; the narrow race where
	// two concurrent winners both pass it is caught again at transfer time.
	worstCase := WinPayment(cfg, bet, winProbability)
	if worstCase.GreaterThan(houseBalance) {
		return reject(RejectHouseCover), nil
	}

	drawn := s.draw(bet, playable, holdings)

	won := false
	for _, template := range drawn {
		if holding := holdings[template.ID]; holding != nil && len(holding.Unfrozen) > 0 {
			won = true
			break
		}
	}

	payout := decimal.Zero
	if won {
		payout = s.settleWin(ctx, req, account, houseAccount, bet, winProbability, drawn, holdings, len(snapshot.Assets))
	} else {
		if bet.IsPositive() {
			if err := s.ledger.Transfer(ctx, account, houseAccount, bet); err != nil {
				// The balance precheck passed, so only a concurrent settlement
				// for the same player can land here.
				s.flagReconciliation(ctx, account, "loss_collection", bet, err)
			}
		}
		s.events.Emit(ctx, events.SettlementResolvedEvent{
			Owner:   req.Owner,
			Account: account,
			Bet:     bet,
			Payout:  decimal.Zero,
			Won:     false,
		})
	}

	return s.buildResponse(ctx, req, account, houseAccount, snapshot, holdings, playable, winProbability, won, drawn, payout), nil
}

// draw picks the three outcome templates. A zero bet from a player with at
// least one unfrozen card forces the first slot to the player's best unfrozen
// template; every other slot is an independent uniform pick.
func (s *SettlementService) draw(bet decimal.Decimal, playable []models.Template, holdings map[int64]*models.TemplateHolding) []models.Template {
	drawn := make([]models.Template, 0, drawSlots)
	if bet.IsZero() {
		if best := bestUnfrozenTemplate(playable, holdings); best != nil {
			drawn = append(drawn, *best)
		}
	}
	for len(drawn) < drawSlots {
		drawn = append(drawn, playable[s.intn(len(playable))])
	}
	return drawn
}

// settleWin freezes one unfrozen asset per winning slot, then pays the player
// and, when named, the referrer. Transfer failures after the freezes are
// flagged for reconciliation rather than rolled back: freezing is idempotent
// and safe to leave applied.
func (s *SettlementService) settleWin(
	ctx context.Context,
	req *models.SettlementRequest,
	account, houseAccount string,
	bet decimal.Decimal,
	winProbability float64,
	drawn []models.Template,
	holdings map[int64]*models.TemplateHolding,
	ownedCount int,
) decimal.Decimal {
	cfg := config.Get()

	templateNames := make([]string, 0, len(drawn))
	for _, template := range drawn {
		templateNames = append(templateNames, template.Name)

		holding := holdings[template.ID]
		if holding == nil || len(holding.Unfrozen) == 0 {
			continue
		}
		// First matching asset id for this slot.
		assetID := holding.Unfrozen[0]
		if err := s.locks.Freeze(assetID, holding.Rarity, ownedCount); err != nil {
			log.WithFields(log.Fields{
				"assetId": assetID,
				"error":   err,
			}).Error("Failed to freeze winning asset")
			continue
		}
		holding.Unfrozen = holding.Unfrozen[1:]
		holding.Frozen = append(holding.Frozen, assetID)
	}

	payout := WinPayment(cfg, bet, winProbability)
	if payout.IsPositive() {
		if err := s.ledger.Transfer(ctx, houseAccount, account, payout); err != nil {
			s.flagReconciliation(ctx, account, "win_payout", payout, err)
		}
	}

	if req.ReferredBy != "" && req.ReferredBy != req.Owner {
		referrer := s.resolver.Resolve(req.ReferredBy)
		cut := payout.Mul(cfg.ReferralPercent).Truncate(cfg.TierDecimalPlaces)
		if cut.IsPositive() {
			if err := s.ledger.Transfer(ctx, houseAccount, referrer, cut); err != nil {
				s.flagReconciliation(ctx, referrer, "referral_bonus", cut, err)
			}
		}
	}

	s.recordWin(req.Owner, payout, templateNames)
	s.events.Emit(ctx, events.SettlementResolvedEvent{
		Owner:     req.Owner,
		Account:   account,
		Bet:       bet,
		Payout:    payout,
		Won:       true,
		Templates: templateNames,
	})
	return payout
}

func (s *SettlementService) flagReconciliation(ctx context.Context, account, operation string, amount decimal.Decimal, err error) {
	log.WithFields(log.Fields{
		"account":   account,
		"operation": operation,
		"amount":    amount.String(),
		"error":     err,
	}).Error("Settlement leg failed; flagged for reconciliation")
	s.events.Emit(ctx, events.ReconciliationEvent{
		Account:   account,
		Operation: operation,
		Amount:    amount,
		Reason:    err.Error(),
	})
}

// recordWin keeps a bounded scoreboard of the most recent winning draws.
func (s *SettlementService) recordWin(owner string, payout decimal.Decimal, templates []string) {
	entry := fmt.Sprintf("%s won %s on %v", owner, payout.String(), templates)

	s.scoreMu.Lock()
	defer s.scoreMu.Unlock()
	s.score = append([]string{entry}, s.score...)
	if len(s.score) > scoreboardSize {
		s.score = s.score[:scoreboardSize]
	}
}

func (s *SettlementService) scoreboard() []string {
	s.scoreMu.Lock()
	defer s.scoreMu.Unlock()
	return append([]string(nil), s.score...)
}

// buildResponse assembles the outbound settlement state: recomputed balances
// and tiers, per-template card display state, and the scoreboard.
func (s *SettlementService) buildResponse(
	ctx context.Context,
	req *models.SettlementRequest,
	account, houseAccount string,
	snapshot *models.OwnershipSnapshot,
	holdings map[int64]*models.TemplateHolding,
	playable []models.Template,
	winProbability float64,
	won bool,
	drawn []models.Template,
	payout decimal.Decimal,
) *models.SettlementResponse {
	cfg := config.Get()

	playerBalance, err := s.ledger.GetBalance(ctx, account)
	if err != nil {
		log.WithField("account", account).Warnf("Failed to reload player balance: %v", err)
	}
	houseBalance, err := s.ledger.GetBalance(ctx, houseAccount)
	if err != nil {
		log.WithField("account", houseAccount).Warnf("Failed to reload house balance: %v", err)
	}

	// The on-network balance is advisory display state; fall back to the
	// cache when the network is unavailable.
	networkBalance := playerBalance
	callCtx, cancel := context.WithTimeout(ctx, cfg.ExternalTimeout)
	if chainBalance, err := s.chain.AccountBalance(callCtx, account); err == nil {
		networkBalance = chainBalance
	}
	cancel()

	cards := make([]models.CardView, 0, len(playable))
	for _, template := range playable {
		view := models.CardView{
			Name:      template.Name,
			IPFS:      template.IPFS,
			Grayscale: true,
		}
		if holding := holdings[template.ID]; holding != nil {
			view.TotalCardCount = len(holding.Unfrozen) + len(holding.Frozen)
			view.FrozenCardCount = len(holding.Frozen)
			view.Frozen = view.FrozenCardCount > 0
			view.Grayscale = len(holding.Unfrozen) == 0
		}
		cards = append(cards, view)
	}

	tiers := ComputeBetTiers(cfg, houseBalance)
	bets := make(map[string]string, len(tiers))
	for label, amount := range tiers {
		bets[label] = amount.String()
	}

	drawnNames := make([]string, 0, len(drawn))
	for _, template := range drawn {
		drawnNames = append(drawnNames, template.Name)
	}

	return &models.SettlementResponse{
		Ready:               true,
		Account:             account,
		HouseAccount:        houseAccount,
		Cards:               cards,
		Score:               s.scoreboard(),
		CardCount:           len(snapshot.Assets),
		TemplateCount:       len(playable),
		Drawn:               drawnNames,
		Won:                 won,
		PayoutAmount:        payout.String(),
		PayoutMultiplier:    cfg.PayoutMultiplier.String(),
		BalanceDecimal:      networkBalance.String(),
		CacheBalanceDecimal: playerBalance.String(),
		HouseBalanceDecimal: houseBalance.String(),
		Bets:                bets,
		MaxBet:              ComputeMaxBet(cfg, tiers).String(),
	}
}

func reject(reason string) *models.SettlementResponse {
	return &models.SettlementResponse{
		Ready:        false,
		Reason:       reason,
		PayoutAmount: "0",
	}
}

func countUnfrozenTemplates(playable []models.Template, holdings map[int64]*models.TemplateHolding) int {
	count := 0
	for _, template := range playable {
		if holding := holdings[template.ID]; holding != nil && len(holding.Unfrozen) > 0 {
			count++
		}
	}
	return count
}

// bestUnfrozenTemplate is the rarest playable template the player can still
// win on: lowest max supply, catalog order breaking ties.
func bestUnfrozenTemplate(playable []models.Template, holdings map[int64]*models.TemplateHolding) *models.Template {
	var best *models.Template
	for i := range playable {
		template := &playable[i]
		holding := holdings[template.ID]
		if holding == nil || len(holding.Unfrozen) == 0 {
			continue
		}
		if best == nil || template.MaxSupply < best.MaxSupply {
			best = template
		}
	}
	return best
}
