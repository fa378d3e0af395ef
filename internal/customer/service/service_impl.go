package service

import (
	"context"
	"errors"
	"strings"
	"time"

	customerdomain "github.com/brewtab/perka/internal/customer/domain"
	"github.com/brewtab/perka/pkg/db/option"
	"github.com/brewtab/perka/pkg/db/pagination"
	"github.com/brewtab/perka/pkg/repository"
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
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID        *snowflake.Node
	customerrepo repository.Repository[customerdomain.Customer]
}

func NewService(p ServiceParam) customerdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("customer.service"),

		genID:        p.GenID,
		customerrepo: repository.ProvideStore[customerdomain.Customer](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (*customerdomain.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, customerdomain.ErrInvalidName
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return nil, customerdomain.ErrInvalidPhone
	}

	now := time.Now().UTC()
	record := &customerdomain.Customer{
		ID:        s.genID.Generate(),
		Name:      name,
		Phone:     phone,
		Email:     strings.TrimSpace(req.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.customerrepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*customerdomain.Customer, error) {
	customerID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.loadActive(ctx, customerID)
}

func (s *Service) List(ctx context.Context, req customerdomain.ListCustomerRequest) (customerdomain.ListCustomerResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	filter := &customerdomain.Customer{
		Name:  strings.TrimSpace(req.Name),
		Phone: strings.TrimSpace(req.Phone),
	}
	items, err := s.customerrepo.Find(ctx, filter,
		option.ApplyPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  int(pageSize),
		}),
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	)
	if err != nil {
		return customerdomain.ListCustomerResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(record *customerdomain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        record.ID.String(),
			CreatedAt: record.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	records := make([]customerdomain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil || item.ArchivedAt != nil {
			continue
		}
		records = append(records, *item)
	}

	resp := customerdomain.ListCustomerResponse{Customers: records}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) ListEligible(ctx context.Context, threshold int) ([]customerdomain.Customer, error) {
	var records []customerdomain.Customer
	err := s.db.WithContext(ctx).
		Where("loyalty_points >= ? AND archived_at IS NULL", threshold).
		Order("loyalty_points DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Accrue applies a single point accrual and returns the before/after
// snapshot. Callers serialize accruals per customer; the increment itself is
// still expressed in SQL so the balance never loses an update.
func (s *Service) Accrue(ctx context.Context, customerID snowflake.ID, pointsDelta int, occurredAt time.Time) (customerdomain.AccrualResult, error) {
	if pointsDelta <= 0 {
		return customerdomain.AccrualResult{}, customerdomain.ErrInvalidPointsDelta
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	var result customerdomain.AccrualResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := loadActiveTx(ctx, tx, customerID)
		if err != nil {
			return err
		}
		result.Before = *before

		now := time.Now().UTC()
		update := tx.WithContext(ctx).Exec(
			`UPDATE customers
			 SET loyalty_points = loyalty_points + ?,
			     total_purchases = total_purchases + 1,
			     last_purchase_at = ?,
			     updated_at = ?
			 WHERE id = ? AND archived_at IS NULL`,
			pointsDelta,
			occurredAt,
			now,
			customerID,
		)
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return customerdomain.ErrCustomerNotFound
		}

		after, err := loadActiveTx(ctx, tx, customerID)
		if err != nil {
			return err
		}
		result.After = *after
		return nil
	})
	if err != nil {
		return customerdomain.AccrualResult{}, err
	}
	return result, nil
}

// Redeem decrements the balance by exactly points. The balance guard lives in
// the UPDATE itself so a concurrent redemption can never drive it negative.
func (s *Service) Redeem(ctx context.Context, customerID snowflake.ID, points int) (*customerdomain.Customer, error) {
	if points <= 0 {
		return nil, customerdomain.ErrInvalidPointsDelta
	}

	var redeemed *customerdomain.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.WithContext(ctx).Exec(
			`UPDATE customers
			 SET loyalty_points = loyalty_points - ?, updated_at = ?
			 WHERE id = ? AND archived_at IS NULL AND loyalty_points >= ?`,
			points,
			time.Now().UTC(),
			customerID,
			points,
		)
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			// Distinguish an unknown customer from a balance that is too low.
			if _, err := loadActiveTx(ctx, tx, customerID); err != nil {
				return err
			}
			return customerdomain.ErrInsufficientPoints
		}

		record, err := loadActiveTx(ctx, tx, customerID)
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

func (s *Service) Archive(ctx context.Context, id string) error {
	customerID, err := parseID(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	update := s.db.WithContext(ctx).Exec(
		`UPDATE customers
		 SET archived_at = ?, updated_at = ?
		 WHERE id = ? AND archived_at IS NULL`,
		now,
		now,
		customerID,
	)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return customerdomain.ErrCustomerNotFound
	}
	return nil
}

func (s *Service) loadActive(ctx context.Context, customerID snowflake.ID) (*customerdomain.Customer, error) {
	return loadActiveTx(ctx, s.db, customerID)
}

func loadActiveTx(ctx context.Context, tx *gorm.DB, customerID snowflake.ID) (*customerdomain.Customer, error) {
	var record customerdomain.Customer
	err := tx.WithContext(ctx).
		Where("id = ?", customerID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, customerdomain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	if record.ArchivedAt != nil {
		return nil, customerdomain.ErrCustomerArchived
	}
	return &record, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, customerdomain.ErrInvalidID
	}
	return id, nil
}
