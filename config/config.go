package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Storage configuration
	DataDir string // root directory for durable account/freeze/wallet records

	// Identity configuration
	MasterSeed string // secret seed for deterministic account derivation; never logged

	// Betting configuration
	MinimumBet        decimal.Decimal            // smallest accepted non-zero bet
	BetTierPercents   map[string]decimal.Decimal // tier label -> percent of capped house balance
	MaxBetMargin      decimal.Decimal            // max bet = largest tier * margin
	HouseBalanceCap   decimal.Decimal            // house balance is capped here before tier math
	PayoutMultiplier  decimal.Decimal            // scales bet * winProbability on a win
	WinBonus          decimal.Decimal            // flat bonus added to every win payment
	ReferralPercent   decimal.Decimal            // share of the win payment paid to a referrer
	TierDecimalPlaces int32                      // tier amounts are truncated to this precision

	// Freeze configuration
	RarityThaw       map[string]time.Duration // per-rarity thaw durations
	DefaultThaw      time.Duration            // floor for any freeze
	PerCardThawBonus time.Duration            // added per card the player holds

	// Cache configuration
	OwnershipTTL time.Duration // ownership snapshot time-to-live

	// External network configuration
	ChainURL         string        // base URL of the distributed-ledger network API
	RegistryURL      string        // base URL of the NFT registry API
	ExternalTimeout  time.Duration // hard timeout on every external call
	MaxResponseBytes int64         // cap on external response size

	// Background worker configuration
	DepositSweepInterval   time.Duration
	CatalogRefreshInterval time.Duration
	PoolAccounts           []string // external pool addresses swept for deposits

	// Maintenance flag: when set, settlement rejects every request
	Maintenance bool

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// Set replaces the global configuration instance. Intended for tests.
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// NewTestConfig returns a configuration with every default filled in and no
// environment requirements, suitable for unit tests.
func NewTestConfig() *Config {
	cfg := defaults()
	cfg.MasterSeed = "test-seed"
	cfg.DataDir = os.TempDir()
	cfg.Environment = "test"
	return cfg
}

func defaults() *Config {
	return &Config{
		DataDir: "data",

		MinimumBet: decimal.RequireFromString("1"),
		BetTierPercents: map[string]decimal.Decimal{
			"small":  decimal.RequireFromString("0.01"),
			"medium": decimal.RequireFromString("0.02"),
			"large":  decimal.RequireFromString("0.05"),
		},
		MaxBetMargin:      decimal.RequireFromString("1.01"),
		HouseBalanceCap:   decimal.RequireFromString("500"),
		PayoutMultiplier:  decimal.RequireFromString("1"),
		WinBonus:          decimal.Zero,
		ReferralPercent:   decimal.RequireFromString("0.05"),
		TierDecimalPlaces: 4,

		RarityThaw: map[string]time.Duration{
			"common":    1 * time.Hour,
			"uncommon":  2 * time.Hour,
			"rare":      4 * time.Hour,
			"epic":      8 * time.Hour,
			"legendary": 12 * time.Hour,
		},
		DefaultThaw:      1 * time.Hour,
		PerCardThawBonus: 1 * time.Minute,

		OwnershipTTL: 2 * time.Minute,

		ExternalTimeout:  10 * time.Second,
		MaxResponseBytes: 1 << 20,

		DepositSweepInterval:   1 * time.Minute,
		CatalogRefreshInterval: 10 * time.Minute,

		Environment: "development",
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := defaults()

	config.DataDir = envString("DATA_DIR", config.DataDir)
	config.MasterSeed = os.Getenv("MASTER_SEED")
	config.Environment = envString("ENVIRONMENT", config.Environment)
	config.Maintenance = os.Getenv("MAINTENANCE") == "true"

	config.MinimumBet = envDecimal("MINIMUM_BET", config.MinimumBet)
	config.MaxBetMargin = envDecimal("MAX_BET_MARGIN", config.MaxBetMargin)
	config.HouseBalanceCap = envDecimal("HOUSE_BALANCE_CAP", config.HouseBalanceCap)
	config.PayoutMultiplier = envDecimal("PAYOUT_MULTIPLIER", config.PayoutMultiplier)
	config.WinBonus = envDecimal("WIN_BONUS", config.WinBonus)
	config.ReferralPercent = envDecimal("REFERRAL_PERCENT", config.ReferralPercent)

	if places := os.Getenv("TIER_DECIMAL_PLACES"); places != "" {
		if parsed, err := strconv.ParseInt(places, 10, 32); err == nil {
			config.TierDecimalPlaces = int32(parsed)
		}
	}

	// Tier percentages, e.g. "small:0.01,medium:0.02,large:0.05"
	if tiers := os.Getenv("BET_TIER_PERCENTS"); tiers != "" {
		parsed := make(map[string]decimal.Decimal)
		for _, pair := range strings.Split(tiers, ",") {
			parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
			if len(parts) != 2 {
				continue
			}
			if pct, err := decimal.NewFromString(parts[1]); err == nil {
				parsed[parts[0]] = pct
			}
		}
		if len(parsed) > 0 {
			config.BetTierPercents = parsed
		}
	}

	// Per-rarity thaw durations, e.g. "common:1h,rare:4h"
	if thaws := os.Getenv("RARITY_THAW"); thaws != "" {
		parsed := make(map[string]time.Duration)
		for _, pair := range strings.Split(thaws, ",") {
			parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
			if len(parts) != 2 {
				continue
			}
			if d, err := time.ParseDuration(parts[1]); err == nil {
				parsed[parts[0]] = d
			}
		}
		if len(parsed) > 0 {
			config.RarityThaw = parsed
		}
	}

	config.ChainURL = envString("CHAIN_URL", config.ChainURL)
	config.RegistryURL = envString("REGISTRY_URL", config.RegistryURL)

	config.DefaultThaw = envDuration("DEFAULT_THAW", config.DefaultThaw)
	config.PerCardThawBonus = envDuration("PER_CARD_THAW_BONUS", config.PerCardThawBonus)
	config.OwnershipTTL = envDuration("OWNERSHIP_TTL", config.OwnershipTTL)
	config.ExternalTimeout = envDuration("EXTERNAL_TIMEOUT", config.ExternalTimeout)
	config.DepositSweepInterval = envDuration("DEPOSIT_SWEEP_INTERVAL", config.DepositSweepInterval)
	config.CatalogRefreshInterval = envDuration("CATALOG_REFRESH_INTERVAL", config.CatalogRefreshInterval)

	if bytes := os.Getenv("MAX_RESPONSE_BYTES"); bytes != "" {
		if parsed, err := strconv.ParseInt(bytes, 10, 64); err == nil {
			config.MaxResponseBytes = parsed
		}
	}

	if pools := os.Getenv("POOL_ACCOUNTS"); pools != "" {
		for _, pool := range strings.Split(pools, ",") {
			pool = strings.TrimSpace(pool)
			if pool != "" {
				config.PoolAccounts = append(config.PoolAccounts, pool)
			}
		}
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.MasterSeed == "" {
			return nil, fmt.Errorf("MASTER_SEED is required")
		}
		if config.ChainURL == "" {
			return nil, fmt.Errorf("CHAIN_URL is required")
		}
		if config.RegistryURL == "" {
			return nil, fmt.Errorf("REGISTRY_URL is required")
		}
	}

	return config, nil
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
