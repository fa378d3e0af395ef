package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/brewtab/perka/internal/clock"
	"github.com/brewtab/perka/internal/config"
	"github.com/brewtab/perka/internal/events"
	"github.com/brewtab/perka/internal/policy"
	rewarddomain "github.com/brewtab/perka/internal/reward/domain"
	rewardservice "github.com/brewtab/perka/internal/reward/service"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSweeperTest(t *testing.T) (*gorm.DB, *Sweeper, *clock.Fixed, rewarddomain.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&rewarddomain.Reward{}, &events.LoyaltyEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(8)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	clk := &clock.Fixed{Instant: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rewards := rewardservice.NewService(rewardservice.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Loyalty: config.Loyalty{
			PointsPerPurchase:  1,
			PointsForFreeDrink: 10,
			RewardExpiryDays:   30,
		},
	})

	sweeper := NewSweeper(Params{
		Log:     zap.NewNop(),
		Rewards: rewards,
		Outbox:  events.NewOutbox(db, node),
		Clock:   clk,
	})
	return db, sweeper, clk, rewards
}

func TestSweepExpiresDueRewards(t *testing.T) {
	db, sweeper, clk, rewards := setupSweeperTest(t)

	customerID := snowflake.ID(11)
	if _, err := rewards.Issue(context.Background(), customerID, policy.Decision{
		ThresholdMultiple: 10,
		PointsAtDecision:  10,
	}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	clk.Advance(31 * 24 * time.Hour)

	expired, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(expired) != 1 {
		t.Fatalf("expected 1 expired reward, got %d", len(expired))
	}

	var reward rewarddomain.Reward
	if err := db.First(&reward).Error; err != nil {
		t.Fatalf("load reward: %v", err)
	}
	if reward.Status != rewarddomain.RewardStatusExpired {
		t.Fatalf("expected expired status, got %s", reward.Status)
	}

	var eventCount int64
	err = db.Model(&events.LoyaltyEvent{}).
		Where("event_type = ?", events.EventRewardExpired).
		Count(&eventCount).Error
	if err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("expected 1 reward.expired event, got %d", eventCount)
	}
}

func TestSweepSecondRunFindsNothing(t *testing.T) {
	db, sweeper, clk, rewards := setupSweeperTest(t)

	customerID := snowflake.ID(11)
	if _, err := rewards.Issue(context.Background(), customerID, policy.Decision{
		ThresholdMultiple: 10,
		PointsAtDecision:  10,
	}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	clk.Advance(31 * 24 * time.Hour)

	if _, err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	expired, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(expired) != 0 {
		t.Fatalf("expected empty second sweep, got %d", len(expired))
	}

	var eventCount int64
	if err := db.Model(&events.LoyaltyEvent{}).Count(&eventCount).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("expected a single expiry event, got %d", eventCount)
	}
}

func TestSweepLeavesUnexpiredRewardsAlone(t *testing.T) {
	db, sweeper, _, rewards := setupSweeperTest(t)

	if _, err := rewards.Issue(context.Background(), snowflake.ID(11), policy.Decision{
		ThresholdMultiple: 10,
		PointsAtDecision:  10,
	}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	expired, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(expired) != 0 {
		t.Fatalf("expected nothing to expire, got %d", len(expired))
	}

	var reward rewarddomain.Reward
	if err := db.First(&reward).Error; err != nil {
		t.Fatalf("load reward: %v", err)
	}
	if reward.Status != rewarddomain.RewardStatusUnused {
		t.Fatalf("expected unused status, got %s", reward.Status)
	}
}
