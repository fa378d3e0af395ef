package domain

import (
	"context"
	"errors"
	"time"

	"github.com/brewtab/perka/internal/policy"
	"github.com/bwmarrin/snowflake"
)

var (
	ErrRewardNotFound    = errors.New("reward_not_found")
	ErrRewardAlreadyUsed = errors.New("reward_already_used")
	ErrRewardExpired     = errors.New("reward_expired")
	ErrInvalidID         = errors.New("invalid_reward_id")
)

// Service issues and transitions rewards.
type Service interface {
	// Issue creates the reward for a threshold crossing. It is idempotent
	// per (customer, threshold multiple): a repeat call returns the reward
	// issued the first time, regardless of its current state.
	Issue(ctx context.Context, customerID snowflake.ID, decision policy.Decision) (*Reward, error)

	// Redeem flips an unused, unexpired reward to used.
	Redeem(ctx context.Context, rewardID string) (*Reward, error)

	// ExpireDue transitions every unused reward whose expiry has passed and
	// returns the rewards transitioned by this call. Safe to run repeatedly.
	ExpireDue(ctx context.Context, now time.Time) ([]Reward, error)

	GetByID(ctx context.Context, rewardID string) (*Reward, error)
	ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]Reward, error)
}
