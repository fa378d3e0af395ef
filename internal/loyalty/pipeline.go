// Package loyalty runs the order-to-reward pipeline. Each completed order is
// applied under a per-customer lock so the before/after point snapshot driving
// threshold detection is consistent, while orders for different customers
// proceed in parallel.
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brewtab/perka/internal/config"
	customerdomain "github.com/brewtab/perka/internal/customer/domain"
	"github.com/brewtab/perka/internal/events"
	notificationdomain "github.com/brewtab/perka/internal/notification/domain"
	"github.com/brewtab/perka/internal/policy"
	rewarddomain "github.com/brewtab/perka/internal/reward/domain"
	"github.com/brewtab/perka/pkg/keylock"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidOrderID = errors.New("invalid_order_id")
)

// OrderCompleted is the event the external order subsystem delivers for every
// finished sale.
type OrderCompleted struct {
	CustomerID  snowflake.ID
	OrderID     string
	PointsDelta int
	OccurredAt  time.Time
}

// Result reports what a single order produced.
type Result struct {
	Customer      customerdomain.Customer `json:"customer"`
	RewardsIssued []rewarddomain.Reward   `json:"rewards_issued"`
}

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Customers     customerdomain.Service
	Rewards       rewarddomain.Service
	Notifications notificationdomain.Service
	Outbox        *events.Outbox
	Loyalty       config.Loyalty
}

// Pipeline is the only consumer of order-completion events.
type Pipeline struct {
	db            *gorm.DB
	log           *zap.Logger
	customers     customerdomain.Service
	rewards       rewarddomain.Service
	notifications notificationdomain.Service
	outbox        *events.Outbox
	loyalty       config.Loyalty
	locks         *keylock.KeyedMutex[snowflake.ID]
}

func NewPipeline(p Params) *Pipeline {
	return &Pipeline{
		db:            p.DB,
		log:           p.Log.Named("loyalty.pipeline"),
		customers:     p.Customers,
		rewards:       p.Rewards,
		notifications: p.Notifications,
		outbox:        p.Outbox,
		loyalty:       p.Loyalty,
		locks:         keylock.New[snowflake.ID](),
	}
}

// ProcessOrder applies one completed order: accrue points, evaluate the
// threshold ladder, issue rewards, and record notifications. Email leaves
// through the outbox after commit; nothing here waits on the relay.
func (p *Pipeline) ProcessOrder(ctx context.Context, order OrderCompleted) (*Result, error) {
	if order.CustomerID == 0 {
		return nil, customerdomain.ErrInvalidID
	}
	if strings.TrimSpace(order.OrderID) == "" {
		return nil, ErrInvalidOrderID
	}
	occurredAt := order.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	p.locks.Lock(order.CustomerID)
	defer p.locks.Unlock(order.CustomerID)

	accrual, err := p.customers.Accrue(ctx, order.CustomerID, order.PointsDelta, occurredAt)
	if err != nil {
		return nil, err
	}

	decisions := policy.Evaluate(accrual.Before.LoyaltyPoints, accrual.After.LoyaltyPoints, p.loyalty)

	issued := make([]rewarddomain.Reward, 0, len(decisions))
	for _, decision := range decisions {
		reward, err := p.rewards.Issue(ctx, order.CustomerID, decision)
		if err != nil {
			return nil, err
		}
		issued = append(issued, *reward)

		if err := p.recordRewardEarned(ctx, accrual.After, *reward); err != nil {
			return nil, err
		}
	}

	if err := p.recordPointsAdded(ctx, accrual.After, order); err != nil {
		return nil, err
	}

	p.log.Info("order processed",
		zap.String("customer_id", order.CustomerID.String()),
		zap.String("order_id", order.OrderID),
		zap.Int("points_delta", order.PointsDelta),
		zap.Int("point_total", accrual.After.LoyaltyPoints),
		zap.Int("rewards_issued", len(issued)),
	)

	result := &Result{Customer: accrual.After, RewardsIssued: issued}
	return result, nil
}

// recordRewardEarned commits the in-app notification and the outbox event for
// one issued reward in a single transaction. Both carry the reward ID as the
// dedup key, so a replayed order adds nothing.
func (p *Pipeline) recordRewardEarned(ctx context.Context, customer customerdomain.Customer, reward rewarddomain.Reward) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := p.notifications.NotifyTx(ctx, tx, notificationdomain.Event{
			CustomerID: customer.ID,
			Type:       notificationdomain.NotificationTypeRewardEarned,
			CausingID:  reward.ID.String(),
			Message:    fmt.Sprintf("%s earned a free drink at %d points!", customer.Name, reward.ThresholdMultiple),
		})
		if err != nil {
			return err
		}

		payload := events.RewardEarnedPayload{
			RewardID:          reward.ID.String(),
			CustomerID:        customer.ID.String(),
			CustomerName:      customer.Name,
			CustomerEmail:     customer.Email,
			ThresholdMultiple: reward.ThresholdMultiple,
			PointTotal:        customer.LoyaltyPoints,
		}
		return p.outbox.PublishTx(ctx, tx, events.Event{
			CustomerID: customer.ID,
			Type:       events.EventRewardEarned,
			Payload:    payload.ToMap(),
			DedupeKey:  fmt.Sprintf("%s:%s", events.EventRewardEarned, reward.ID),
		})
	})
}

func (p *Pipeline) recordPointsAdded(ctx context.Context, customer customerdomain.Customer, order OrderCompleted) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := p.notifications.NotifyTx(ctx, tx, notificationdomain.Event{
			CustomerID: customer.ID,
			Type:       notificationdomain.NotificationTypePointsAdded,
			CausingID:  order.OrderID,
			Message:    fmt.Sprintf("%d points added, %d total", order.PointsDelta, customer.LoyaltyPoints),
		})
		if err != nil {
			return err
		}

		payload := events.PointsAccruedPayload{
			CustomerID:  customer.ID.String(),
			OrderID:     order.OrderID,
			PointsDelta: order.PointsDelta,
			PointTotal:  customer.LoyaltyPoints,
		}
		return p.outbox.PublishTx(ctx, tx, events.Event{
			CustomerID: customer.ID,
			Type:       events.EventPointsAccrued,
			Payload:    payload.ToMap(),
			DedupeKey:  fmt.Sprintf("%s:%s", events.EventPointsAccrued, order.OrderID),
		})
	})
}
