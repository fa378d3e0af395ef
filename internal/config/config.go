// Package config loads process configuration from the environment once at
// startup. Values are immutable after load; changes require a restart.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrInvalidPointsPerPurchase = errors.New("invalid_points_per_purchase")
	ErrInvalidRewardThreshold   = errors.New("invalid_reward_threshold")
	ErrInvalidRewardExpiryDays  = errors.New("invalid_reward_expiry_days")
)

// Loyalty holds the reward thresholds threaded through the accrual pipeline.
// Already-issued rewards are never rewritten when these change.
type Loyalty struct {
	PointsPerPurchase  int
	PointsForFreeDrink int
	RewardExpiryDays   int
}

// RewardExpiry returns the configured expiry window as a duration.
func (l Loyalty) RewardExpiry() time.Duration {
	return time.Duration(l.RewardExpiryDays) * 24 * time.Hour
}

// Mail configures the outbound email relay adapter.
type Mail struct {
	RelayURL    string
	APIKey      string
	FromAddress string
	SendTimeout time.Duration
}

// Config is the full process configuration.
type Config struct {
	Environment string
	HTTPAddr    string
	DatabaseDSN string

	Loyalty Loyalty
	Mail    Mail

	SweepInterval    time.Duration
	DispatchInterval time.Duration
}

// IsProduction reports whether the process runs with production safeguards.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment. A local .env file is applied
// first when present so development setups match deployed ones.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: envString("PERKA_ENV", "development"),
		HTTPAddr:    envString("HTTP_ADDR", ":8080"),
		DatabaseDSN: envString("DATABASE_DSN", ""),
		Loyalty: Loyalty{
			PointsPerPurchase:  envInt("POINTS_PER_PURCHASE", 1),
			PointsForFreeDrink: envInt("POINTS_FOR_FREE_DRINK", 10),
			RewardExpiryDays:   envInt("REWARD_EXPIRY_DAYS", 30),
		},
		Mail: Mail{
			RelayURL:    envString("MAIL_RELAY_URL", ""),
			APIKey:      envString("MAIL_RELAY_API_KEY", ""),
			FromAddress: envString("MAIL_FROM_ADDRESS", "rewards@perka.local"),
			SendTimeout: envDuration("MAIL_SEND_TIMEOUT", 10*time.Second),
		},
		SweepInterval:    envDuration("REWARD_SWEEP_INTERVAL", time.Minute),
		DispatchInterval: envDuration("MAIL_DISPATCH_INTERVAL", 2*time.Second),
	}

	if err := cfg.Loyalty.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l Loyalty) validate() error {
	if l.PointsPerPurchase <= 0 {
		return ErrInvalidPointsPerPurchase
	}
	if l.PointsForFreeDrink <= 0 {
		return ErrInvalidRewardThreshold
	}
	if l.RewardExpiryDays <= 0 {
		return ErrInvalidRewardExpiryDays
	}
	return nil
}

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
