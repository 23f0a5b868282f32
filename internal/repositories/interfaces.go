package repositories

import (
	"context"
	"time"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
)

// OrderListFilter narrows an order query. Zero values mean "no constraint";
// services are responsible for pinning OwnerID or VendorID to the caller's
// scope before the filter reaches a store.
type OrderListFilter struct {
	OwnerID   string
	VendorID  string
	Statuses  []domain.OrderStatus
	CreatedAt domain.RangeQuery[time.Time]
	Total     domain.RangeQuery[int64]

	// Search matches order IDs and owner IDs. Admin listings only.
	Search string
}

// OrderRepository persists order aggregates. Update enforces optimistic
// concurrency: the write succeeds only when the stored version equals the
// version carried by the supplied order, and the committed record carries
// version+1. A failed check surfaces as a conflict RepositoryError.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (domain.Order, error)
	Update(ctx context.Context, order domain.Order) (domain.Order, error)

	// Query returns one 1-indexed page of matches ordered by createdAt
	// descending, plus the total match count. A page past the end yields an
	// empty slice and the true count.
	Query(ctx context.Context, filter OrderListFilter, page, limit int) ([]domain.Order, int, error)

	// ListAll returns every match ordered by createdAt descending. Analytics
	// aggregation walks the full scope, so no paging applies.
	ListAll(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
}

// RepositoryError lets services categorise storage failures without importing
// a concrete store package.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}
