package domain

import (
	"context"
	"errors"
	"time"

	"github.com/brewtab/perka/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
)

var (
	ErrCustomerNotFound   = errors.New("customer_not_found")
	ErrCustomerArchived   = errors.New("customer_archived")
	ErrInsufficientPoints = errors.New("insufficient_points")
	ErrInvalidID          = errors.New("invalid_customer_id")
	ErrInvalidName        = errors.New("invalid_customer_name")
	ErrInvalidPhone       = errors.New("invalid_customer_phone")
	ErrInvalidPointsDelta = errors.New("invalid_points_delta")
)

type CreateCustomerRequest struct {
	Name  string
	Phone string
	Email string
}

type ListCustomerRequest struct {
	PageToken string
	PageSize  int32
	Name      string
	Phone     string
}

type ListCustomerResponse struct {
	Customers []Customer          `json:"customers"`
	PageInfo  pagination.PageInfo `json:"page_info"`
}

// AccrualResult carries the before/after ledger snapshot a single accrual
// produced. Threshold-crossing detection depends on both sides.
type AccrualResult struct {
	Before Customer
	After  Customer
}

// Service is the only writer of customer point balances.
type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context, req ListCustomerRequest) (ListCustomerResponse, error)
	ListEligible(ctx context.Context, threshold int) ([]Customer, error)
	Accrue(ctx context.Context, customerID snowflake.ID, pointsDelta int, occurredAt time.Time) (AccrualResult, error)
	Redeem(ctx context.Context, customerID snowflake.ID, points int) (*Customer, error)
	Archive(ctx context.Context, id string) error
}
