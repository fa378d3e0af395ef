package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brewtab/perka/internal/clock"
	"github.com/brewtab/perka/internal/config"
	"github.com/brewtab/perka/internal/policy"
	rewarddomain "github.com/brewtab/perka/internal/reward/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Loyalty config.Loyalty
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID   *snowflake.Node
	clock   clock.Clock
	loyalty config.Loyalty
}

func NewService(p ServiceParam) rewarddomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("reward.service"),

		genID:   p.GenID,
		clock:   p.Clock,
		loyalty: p.Loyalty,
	}
}

// Issue inserts the reward behind the (customer_id, threshold_multiple)
// unique index and reads back whichever row won. The conflict target, not a
// point re-evaluation, is what makes re-invocation a no-op.
func (s *Service) Issue(ctx context.Context, customerID snowflake.ID, decision policy.Decision) (*rewarddomain.Reward, error) {
	if customerID == 0 {
		return nil, rewarddomain.ErrInvalidID
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.loyalty.RewardExpiry())
	record := rewarddomain.Reward{
		ID:                s.genID.Generate(),
		CustomerID:        customerID,
		ThresholdMultiple: decision.ThresholdMultiple,
		RewardType:        rewarddomain.RewardTypeFreeDrink,
		Description:       fmt.Sprintf("Free drink for reaching %d loyalty points", decision.ThresholdMultiple),
		Status:            rewarddomain.RewardStatusUnused,
		EarnedAt:          now,
		ExpiresAt:         &expiresAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.db.WithContext(ctx).Exec(
		`INSERT INTO rewards (id, customer_id, threshold_multiple, reward_type, description, status, earned_at, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (customer_id, threshold_multiple) DO NOTHING`,
		record.ID,
		record.CustomerID,
		record.ThresholdMultiple,
		record.RewardType,
		record.Description,
		record.Status,
		record.EarnedAt,
		record.ExpiresAt,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
	if err != nil {
		return nil, err
	}

	var issued rewarddomain.Reward
	err = s.db.WithContext(ctx).
		Where("customer_id = ? AND threshold_multiple = ?", customerID, decision.ThresholdMultiple).
		First(&issued).Error
	if err != nil {
		return nil, err
	}
	if issued.ID != record.ID {
		s.log.Debug("reward already issued for crossing",
			zap.String("customer_id", customerID.String()),
			zap.Int("threshold_multiple", decision.ThresholdMultiple),
		)
	}
	return &issued, nil
}

// Redeem transitions Unused -> Used behind a guarded UPDATE so a concurrent
// redemption or sweep can never double-apply.
func (s *Service) Redeem(ctx context.Context, rewardID string) (*rewarddomain.Reward, error) {
	id, err := parseID(rewardID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var redeemed *rewarddomain.Reward
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.WithContext(ctx).Exec(
			`UPDATE rewards
			 SET status = ?, used_at = ?, updated_at = ?
			 WHERE id = ? AND status = ? AND expires_at > ?`,
			rewarddomain.RewardStatusUsed,
			now,
			now,
			id,
			rewarddomain.RewardStatusUnused,
			now,
		)
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			record, err := loadTx(ctx, tx, id)
			if err != nil {
				return err
			}
			switch {
			case record.Status == rewarddomain.RewardStatusUsed:
				return rewarddomain.ErrRewardAlreadyUsed
			case record.ExpiredBy(now):
				return rewarddomain.ErrRewardExpired
			default:
				return rewarddomain.ErrRewardNotFound
			}
		}

		record, err := loadTx(ctx, tx, id)
		if err != nil {
			return err
		}
		redeemed = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return redeemed, nil
}

// ExpireDue sweeps unused rewards past their expiry. Rewards already expired
// by an earlier sweep fail the status guard and are skipped, so running the
// sweep twice over the same instant returns nothing the second time.
func (s *Service) ExpireDue(ctx context.Context, now time.Time) ([]rewarddomain.Reward, error) {
	var expired []rewarddomain.Reward
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidates []rewarddomain.Reward
		if err := tx.WithContext(ctx).
			Where("status = ? AND expires_at <= ?", rewarddomain.RewardStatusUnused, now).
			Order("expires_at ASC").
			Find(&candidates).Error; err != nil {
			return err
		}

		for _, candidate := range candidates {
			update := tx.WithContext(ctx).Exec(
				`UPDATE rewards
				 SET status = ?, updated_at = ?
				 WHERE id = ? AND status = ?`,
				rewarddomain.RewardStatusExpired,
				now,
				candidate.ID,
				rewarddomain.RewardStatusUnused,
			)
			if update.Error != nil {
				return update.Error
			}
			if update.RowsAffected == 0 {
				continue
			}
			candidate.Status = rewarddomain.RewardStatusExpired
			candidate.UpdatedAt = now
			expired = append(expired, candidate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func (s *Service) GetByID(ctx context.Context, rewardID string) (*rewarddomain.Reward, error) {
	id, err := parseID(rewardID)
	if err != nil {
		return nil, err
	}
	return loadTx(ctx, s.db, id)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID snowflake.ID) ([]rewarddomain.Reward, error) {
	var records []rewarddomain.Reward
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("earned_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func loadTx(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*rewarddomain.Reward, error) {
	var record rewarddomain.Reward
	err := tx.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, rewarddomain.ErrRewardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, rewarddomain.ErrInvalidID
	}
	return id, nil
}
