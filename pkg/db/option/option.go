// Package option provides composable gorm query modifiers.
package option

import (
	"strings"

	"github.com/brewtab/perka/pkg/db/pagination"
	"gorm.io/gorm"
)

// Option mutates a gorm query before execution.
type Option func(*gorm.DB) *gorm.DB

// QuerySortBy restricts sortable columns to an allow list.
type QuerySortBy struct {
	Field string
	Desc  bool
	Allow map[string]bool
}

// WithSortBy orders the query by an allowed column, newest first by default.
func WithSortBy(sort QuerySortBy) Option {
	return func(tx *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(sort.Field)
		if field == "" || !sort.Allow[field] {
			field = "created_at"
		}
		direction := "ASC"
		if sort.Desc || field == "created_at" {
			direction = "DESC"
		}
		return tx.Order(field + " " + direction)
	}
}

// ApplyPagination over-fetches one row beyond the page size so callers can
// detect whether more records follow, and seeks past the cursor when a page
// token is supplied.
func ApplyPagination(page pagination.Pagination) Option {
	return func(tx *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = 50
		}
		tx = tx.Limit(size + 1)

		if strings.TrimSpace(page.PageToken) == "" {
			return tx
		}
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return tx
		}
		return tx.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
}
