// Package scheduler runs the reward expiry sweep. Unused rewards whose expiry
// has passed transition to expired on a fixed cadence, and each transition is
// announced once through the outbox.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/brewtab/perka/internal/clock"
	"github.com/brewtab/perka/internal/events"
	rewarddomain "github.com/brewtab/perka/internal/reward/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Rewards rewarddomain.Service
	Outbox  *events.Outbox
	Clock   clock.Clock
	Config  Config `optional:"true"`
}

type Sweeper struct {
	log     *zap.Logger
	rewards rewarddomain.Service
	outbox  *events.Outbox
	clock   clock.Clock
	cfg     Config
}

func NewSweeper(p Params) *Sweeper {
	return &Sweeper{
		log:     p.Log.Named("reward.sweeper"),
		rewards: p.Rewards,
		outbox:  p.Outbox,
		clock:   p.Clock,
		cfg:     p.Config.withDefaults(),
	}
}

func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(); err != nil {
			s.log.Warn("reward expiry sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) RunOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()

	_, err := s.Sweep(ctx)
	return err
}

// Sweep expires every due reward and publishes one reward.expired event per
// transition. ExpireDue only reports rewards this call transitioned, so a
// repeat run publishes nothing.
func (s *Sweeper) Sweep(ctx context.Context) ([]rewarddomain.Reward, error) {
	now := s.clock.Now()
	expired, err := s.rewards.ExpireDue(ctx, now)
	if err != nil {
		return nil, err
	}

	for _, reward := range expired {
		err := s.outbox.Publish(ctx, events.Event{
			CustomerID: reward.CustomerID,
			Type:       events.EventRewardExpired,
			Payload: map[string]any{
				"reward_id":          reward.ID.String(),
				"customer_id":        reward.CustomerID.String(),
				"threshold_multiple": reward.ThresholdMultiple,
			},
			DedupeKey: fmt.Sprintf("%s:%s", events.EventRewardExpired, reward.ID),
		})
		if err != nil {
			s.log.Warn("failed to publish reward expiry",
				zap.String("reward_id", reward.ID.String()),
				zap.Error(err),
			)
		}
	}

	if len(expired) > 0 {
		s.log.Info("rewards expired", zap.Int("count", len(expired)))
	}
	return expired, nil
}
