// Package dispatch drains reward.earned outbox events into outbound email.
// Delivery happens outside every per-customer critical section: the pipeline
// commits first, this worker sends later.
package dispatch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brewtab/perka/internal/events"
	mailerdomain "github.com/brewtab/perka/internal/mailer/domain"
	"github.com/brewtab/perka/internal/mailer/render"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Mailer mailerdomain.Mailer
	Config Config `optional:"true"`
}

type Worker struct {
	db     *gorm.DB
	log    *zap.Logger
	mailer mailerdomain.Mailer
	cfg    Config
}

func NewWorker(p Params) *Worker {
	cfg := p.Config.withDefaults()
	return &Worker{
		db:     p.DB,
		log:    p.Log.Named("mailer.dispatch"),
		mailer: p.Mailer,
		cfg:    cfg,
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(); err != nil {
			w.log.Warn("mail dispatch run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.RunTimeout)
	defer cancel()

	_, err := w.processBatch(ctx, w.cfg.BatchSize)
	return err
}

// processBatch claims pending reward.earned events and sends one email each.
// The claim is a guarded UPDATE on published, so an event is dispatched at
// most once even with concurrent workers; a failed send records the error on
// the claimed event and is not retried here.
func (w *Worker) processBatch(ctx context.Context, limit int) (int, error) {
	if w.db == nil || w.mailer == nil {
		return 0, errors.New("dispatch_worker_unavailable")
	}
	if limit <= 0 {
		limit = w.cfg.BatchSize
	}

	var pending []events.LoyaltyEvent
	err := w.db.WithContext(ctx).
		Where("published = ? AND event_type = ?", false, events.EventRewardEarned).
		Order("id ASC").
		Limit(limit).
		Find(&pending).Error
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, event := range pending {
		now := time.Now().UTC()
		claim := w.db.WithContext(ctx).Exec(
			`UPDATE loyalty_events
			 SET published = true, published_at = ?
			 WHERE id = ? AND published = false`,
			now,
			event.ID,
		)
		if claim.Error != nil {
			return processed, claim.Error
		}
		if claim.RowsAffected == 0 {
			continue
		}
		processed++

		if err := w.dispatch(ctx, event); err != nil {
			w.recordError(ctx, event, err)
		}
	}
	return processed, nil
}

func (w *Worker) dispatch(ctx context.Context, event events.LoyaltyEvent) error {
	recipient := stringValue(event.Payload, "customer_email")
	if recipient == "" {
		// Customers without an email address still get the in-app
		// notification; there is nothing to deliver.
		return nil
	}

	input := render.RewardEarnedInput{
		CustomerName:      stringValue(event.Payload, "customer_name"),
		ThresholdMultiple: intValue(event.Payload, "threshold_multiple"),
		PointTotal:        intValue(event.Payload, "point_total"),
		RewardDescription: "a free drink",
	}
	body, err := render.RewardEarnedHTML(input)
	if err != nil {
		return err
	}

	messageID, err := w.mailer.Send(ctx, mailerdomain.Message{
		To:       recipient,
		Subject:  render.RewardEarnedSubject(input),
		HTMLBody: body,
	})
	if err != nil {
		return err
	}

	w.log.Info("reward email dispatched",
		zap.String("event_id", event.ID.String()),
		zap.String("message_id", messageID),
	)
	return nil
}

func (w *Worker) recordError(ctx context.Context, event events.LoyaltyEvent, sendErr error) {
	var deliveryErr *mailerdomain.DeliveryError
	if errors.As(sendErr, &deliveryErr) {
		w.log.Warn("reward email delivery failed",
			zap.String("event_id", event.ID.String()),
			zap.Int("status_code", deliveryErr.StatusCode),
			zap.Error(sendErr),
		)
	} else {
		w.log.Warn("reward email dispatch failed",
			zap.String("event_id", event.ID.String()),
			zap.Error(sendErr),
		)
	}

	message := sendErr.Error()
	if err := w.db.WithContext(ctx).Exec(
		`UPDATE loyalty_events SET last_error = ? WHERE id = ?`,
		message,
		event.ID,
	).Error; err != nil {
		w.log.Warn("failed to record dispatch error", zap.String("event_id", event.ID.String()), zap.Error(err))
	}
}

func stringValue(payload map[string]any, key string) string {
	value, _ := payload[key].(string)
	return strings.TrimSpace(value)
}

func intValue(payload map[string]any, key string) int {
	switch value := payload[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	default:
		return 0
	}
}
