// Package service builds the back-office dashboard summary. Reads are cached
// briefly because the POS UI polls them on every screen refresh.
package service

import (
	"context"
	"time"

	"github.com/brewtab/perka/internal/cache"
	customerdomain "github.com/brewtab/perka/internal/customer/domain"
	rewarddomain "github.com/brewtab/perka/internal/reward/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	summaryCacheKey  = "dashboard_summary"
	summaryCacheTTL  = 15 * time.Second
	topCustomerRows  = 10
	recentRewardRows = 10
)

// Summary is the aggregate view the back office renders.
type Summary struct {
	TotalCustomers  int64                     `json:"total_customers"`
	TotalPointsHeld int64                     `json:"total_points_held"`
	UnusedRewards   int64                     `json:"unused_rewards"`
	TopCustomers    []customerdomain.Customer `json:"top_customers"`
	RecentRewards   []rewarddomain.Reward     `json:"recent_rewards"`
	GeneratedAt     time.Time                 `json:"generated_at"`
}

// Service exposes dashboard reads.
type Service interface {
	Summary(ctx context.Context) (*Summary, error)
}

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	cache cache.Cache[string, *Summary]
}

func NewService(p ServiceParam) Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("dashboard.service"),
		cache: cache.NewTTLCache[string, *Summary](),
	}
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	if cached, ok := s.cache.Get(summaryCacheKey); ok {
		return cached, nil
	}

	summary := &Summary{GeneratedAt: time.Now().UTC()}

	err := s.db.WithContext(ctx).
		Model(&customerdomain.Customer{}).
		Where("archived_at IS NULL").
		Count(&summary.TotalCustomers).Error
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Model(&customerdomain.Customer{}).
		Where("archived_at IS NULL").
		Select("COALESCE(SUM(loyalty_points), 0)").
		Scan(&summary.TotalPointsHeld).Error
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Model(&rewarddomain.Reward{}).
		Where("status = ?", rewarddomain.RewardStatusUnused).
		Count(&summary.UnusedRewards).Error
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Where("archived_at IS NULL").
		Order("loyalty_points DESC, id ASC").
		Limit(topCustomerRows).
		Find(&summary.TopCustomers).Error
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Order("earned_at DESC, id DESC").
		Limit(recentRewardRows).
		Find(&summary.RecentRewards).Error
	if err != nil {
		return nil, err
	}

	s.cache.Set(summaryCacheKey, summary, summaryCacheTTL)
	return summary, nil
}
