package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brewtab/perka/internal/clock"
	notificationdomain "github.com/brewtab/perka/internal/notification/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p ServiceParam) notificationdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("notification.service"),

		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Notify(ctx context.Context, event notificationdomain.Event) (*notificationdomain.Notification, error) {
	return s.NotifyTx(ctx, s.db, event)
}

// NotifyTx creates the notification inside an existing transaction so the
// pipeline commits it together with the ledger and reward writes. The insert
// goes through the dedupe-key unique index; a conflict means the event was
// already notified and yields (nil, nil).
func (s *Service) NotifyTx(ctx context.Context, tx *gorm.DB, event notificationdomain.Event) (*notificationdomain.Notification, error) {
	if tx == nil {
		tx = s.db
	}
	if event.CustomerID == 0 || strings.TrimSpace(event.CausingID) == "" || event.Type == "" {
		return nil, notificationdomain.ErrInvalidEvent
	}

	record := notificationdomain.Notification{
		ID:         s.genID.Generate(),
		CustomerID: event.CustomerID,
		Type:       event.Type,
		Message:    strings.TrimSpace(event.Message),
		DedupeKey:  event.DedupeKey(),
		CreatedAt:  s.clock.Now(),
	}

	insert := tx.WithContext(ctx).Exec(
		`INSERT INTO notifications (id, customer_id, type, message, dedupe_key, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, false, ?)
		 ON CONFLICT (dedupe_key) DO NOTHING`,
		record.ID,
		record.CustomerID,
		record.Type,
		record.Message,
		record.DedupeKey,
		record.CreatedAt,
	)
	if insert.Error != nil {
		return nil, insert.Error
	}
	if insert.RowsAffected == 0 {
		s.log.Debug("duplicate notification suppressed", zap.String("dedupe_key", record.DedupeKey))
		return nil, nil
	}
	return &record, nil
}

func (s *Service) ListUnread(ctx context.Context, customerID *snowflake.ID) ([]notificationdomain.Notification, error) {
	query := s.db.WithContext(ctx).
		Where("is_read = ? AND archived_at IS NULL", false).
		Order("created_at DESC")
	if customerID != nil && *customerID != 0 {
		query = query.Where("customer_id = ?", *customerID)
	}

	var records []notificationdomain.Notification
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// MarkRead acknowledges a notification. Acknowledging twice is a no-op that
// returns the already-read record.
func (s *Service) MarkRead(ctx context.Context, id string) (*notificationdomain.Notification, error) {
	notificationID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	update := s.db.WithContext(ctx).Exec(
		`UPDATE notifications
		 SET is_read = true, read_at = ?
		 WHERE id = ? AND is_read = false`,
		now,
		notificationID,
	)
	if update.Error != nil {
		return nil, update.Error
	}

	var record notificationdomain.Notification
	err = s.db.WithContext(ctx).Where("id = ?", notificationID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notificationdomain.ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ArchiveOlderThan hides read notifications created before the cutoff. They
// remain queryable for reporting; nothing is deleted.
func (s *Service) ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	update := s.db.WithContext(ctx).Exec(
		`UPDATE notifications
		 SET archived_at = ?
		 WHERE is_read = true AND archived_at IS NULL AND created_at < ?`,
		s.clock.Now(),
		cutoff,
	)
	if update.Error != nil {
		return 0, update.Error
	}
	return update.RowsAffected, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, notificationdomain.ErrInvalidID
	}
	return id, nil
}
