package service

import (
	"cardbet/config"

	"github.com/shopspring/decimal"
)

// ComputeOdds returns the win probability for a player holding distinctOwned
// of totalTemplates distinct playable templates, bounded to [0, 1].
func ComputeOdds(distinctOwned, totalTemplates int) float64 {
	if totalTemplates <= 0 {
		return 0
	}
	probability := float64(distinctOwned) / float64(totalTemplates)
	if probability < 0 {
		return 0
	}
	if probability > 1 {
		return 1
	}
	return probability
}

// ComputePayoutUnit returns the flat unit multiplier applied on a win: 1 when
// the player has any winning chance at all, 0 otherwise. Payouts scale with
// the bet and the configured multiplier rather than inverse odds, which keeps
// variance bounded.
func ComputePayoutUnit(winProbability float64) decimal.Decimal {
	if winProbability > 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.Zero
}

// ComputeBetTiers derives the tier amounts from the capped house balance.
// Tiers are recomputed on every settlement request because the house balance
// moves with every transaction.
func ComputeBetTiers(cfg *config.Config, houseBalance decimal.Decimal) map[string]decimal.Decimal {
	capped := houseBalance
	if capped.GreaterThan(cfg.HouseBalanceCap) {
		capped = cfg.HouseBalanceCap
	}
	tiers := make(map[string]decimal.Decimal, len(cfg.BetTierPercents))
	for label, percent := range cfg.BetTierPercents {
		tiers[label] = capped.Mul(percent).Truncate(cfg.TierDecimalPlaces)
	}
	return tiers
}

// ComputeMaxBet returns the largest tier amount scaled up by the configured
// safety margin.
func ComputeMaxBet(cfg *config.Config, tiers map[string]decimal.Decimal) decimal.Decimal {
	largest := decimal.Zero
	for _, amount := range tiers {
		if amount.GreaterThan(largest) {
			largest = amount
		}
	}
	return largest.Mul(cfg.MaxBetMargin)
}

// WinPayment is the amount the house pays on a winning draw:
// bet * winProbability * multiplier + bonus.
func WinPayment(cfg *config.Config, bet decimal.Decimal, winProbability float64) decimal.Decimal {
	probability := decimal.NewFromFloat(winProbability)
	return bet.Mul(probability).Mul(cfg.PayoutMultiplier).Add(cfg.WinBonus)
}
