package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cardbet/config"
)

func TestComputeOdds(t *testing.T) {
	assert.Equal(t, 0.0, ComputeOdds(0, 50))
	assert.Equal(t, 1.0, ComputeOdds(50, 50))
	assert.Equal(t, 0.2, ComputeOdds(10, 50))

	// Degenerate inputs clamp instead of panicking.
	assert.Equal(t, 0.0, ComputeOdds(10, 0))
	assert.Equal(t, 0.0, ComputeOdds(-3, 50))
	assert.Equal(t, 1.0, ComputeOdds(60, 50))
}

func TestComputePayoutUnit(t *testing.T) {
	assert.True(t, ComputePayoutUnit(0.2).Equal(decimal.NewFromInt(1)))
	assert.True(t, ComputePayoutUnit(1).Equal(decimal.NewFromInt(1)))
	assert.True(t, ComputePayoutUnit(0).IsZero())
}

func TestComputeBetTiers_CapsHouseBalance(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.BetTierPercents = map[string]decimal.Decimal{
		"small": decimal.RequireFromString("0.01"),
	}

	// House holds 1000 but the cap is 500, so the tier is 500 * 0.01.
	tiers := ComputeBetTiers(cfg, decimal.RequireFromString("1000"))
	assert.Equal(t, "5", tiers["small"].String())

	// Below the cap the real balance is used.
	tiers = ComputeBetTiers(cfg, decimal.RequireFromString("200"))
	assert.Equal(t, "2", tiers["small"].String())
}

func TestComputeBetTiers_TruncatesPrecision(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.BetTierPercents = map[string]decimal.Decimal{
		"odd": decimal.RequireFromString("0.0333333"),
	}

	tiers := ComputeBetTiers(cfg, decimal.RequireFromString("100"))
	assert.Equal(t, "3.3333", tiers["odd"].String())
}

func TestComputeMaxBet(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.BetTierPercents = map[string]decimal.Decimal{
		"small": decimal.RequireFromString("0.01"),
	}

	tiers := ComputeBetTiers(cfg, decimal.RequireFromString("1000"))
	maxBet := ComputeMaxBet(cfg, tiers)
	assert.Equal(t, "5.05", maxBet.String())
}

func TestComputeMaxBet_NoTiers(t *testing.T) {
	cfg := config.NewTestConfig()
	assert.True(t, ComputeMaxBet(cfg, nil).IsZero())
}

func TestWinPayment(t *testing.T) {
	cfg := config.NewTestConfig()

	payment := WinPayment(cfg, decimal.RequireFromString("1"), 0.2)
	assert.Equal(t, "0.2", payment.String())

	payment = WinPayment(cfg, decimal.RequireFromString("10"), 0.5)
	assert.Equal(t, "5", payment.String())

	// The flat bonus is added on top of the scaled payment.
	cfg.WinBonus = decimal.RequireFromString("0.25")
	payment = WinPayment(cfg, decimal.Zero, 1)
	assert.Equal(t, "0.25", payment.String())
}
