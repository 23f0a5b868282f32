// Package memory provides an in-process order store used by tests and local
// development. It honours the same optimistic-concurrency contract as the
// Firestore store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/repositories"
)

// OrderRepository keeps orders in a map guarded by a mutex. All values are
// deep-copied on the way in and out so callers can never alias stored state.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

// NewOrderRepository constructs an empty store.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]domain.Order)}
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// Insert stores a new order at version 1. Inserting an existing ID is a conflict.
func (r *OrderRepository) Insert(_ context.Context, order domain.Order) (domain.Order, error) {
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return domain.Order{}, repositories.NewConflictError("memory: order id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[id]; exists {
		return domain.Order{}, repositories.NewConflictError(fmt.Sprintf("memory: order %s already exists", id))
	}

	stored := cloneOrder(order)
	stored.ID = id
	stored.Version = 1
	r.orders[id] = stored
	return cloneOrder(stored), nil
}

// FindByID returns the stored order or a not-found error.
func (r *OrderRepository) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[strings.TrimSpace(orderID)]
	if !ok {
		return domain.Order{}, repositories.NewNotFoundError("memory: order not found")
	}
	return cloneOrder(order), nil
}

// FindByTrackingNumber scans for the order carrying the tracking number.
func (r *OrderRepository) FindByTrackingNumber(_ context.Context, trackingNumber string) (domain.Order, error) {
	token := strings.TrimSpace(trackingNumber)
	if token == "" {
		return domain.Order{}, repositories.NewNotFoundError("memory: order not found")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, order := range r.orders {
		if order.TrackingNumber == token {
			return cloneOrder(order), nil
		}
	}
	return domain.Order{}, repositories.NewNotFoundError("memory: order not found")
}

// Update commits the order when its version matches the stored version, then
// bumps the version. A stale version is a conflict; the caller reloads and retries.
func (r *OrderRepository) Update(_ context.Context, order domain.Order) (domain.Order, error) {
	id := strings.TrimSpace(order.ID)

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[id]
	if !ok {
		return domain.Order{}, repositories.NewNotFoundError("memory: order not found")
	}
	if current.Version != order.Version {
		return domain.Order{}, repositories.NewConflictError(fmt.Sprintf("memory: order %s version %d is stale", id, order.Version))
	}

	stored := cloneOrder(order)
	stored.Version = current.Version + 1
	r.orders[id] = stored
	return cloneOrder(stored), nil
}

// Query returns one page of matches, newest first, plus the total match count.
func (r *OrderRepository) Query(_ context.Context, filter repositories.OrderListFilter, page, limit int) ([]domain.Order, int, error) {
	matches := r.collect(filter)
	count := len(matches)

	if page < 1 || limit < 1 {
		return nil, count, repositories.NewConflictError("memory: page and limit must be positive")
	}

	start := (page - 1) * limit
	if start >= count {
		return []domain.Order{}, count, nil
	}
	end := start + limit
	if end > count {
		end = count
	}
	return matches[start:end], count, nil
}

// ListAll returns every match, newest first.
func (r *OrderRepository) ListAll(_ context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	return r.collect(filter), nil
}

func (r *OrderRepository) collect(filter repositories.OrderListFilter) []domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if matchesFilter(order, filter) {
			matches = append(matches, cloneOrder(order))
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches
}

func matchesFilter(order domain.Order, filter repositories.OrderListFilter) bool {
	if owner := strings.TrimSpace(filter.OwnerID); owner != "" && order.OwnerID != owner {
		return false
	}
	if vendor := strings.TrimSpace(filter.VendorID); vendor != "" && !order.ContainsVendor(vendor) {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, order.Status) {
		return false
	}
	if !withinTimeRange(order.CreatedAt, filter.CreatedAt) {
		return false
	}
	if !withinAmountRange(order.Totals.Total, filter.Total) {
		return false
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		needle := strings.ToLower(search)
		if !strings.Contains(strings.ToLower(order.ID), needle) &&
			!strings.Contains(strings.ToLower(order.OwnerID), needle) {
			return false
		}
	}
	return true
}

func containsStatus(statuses []domain.OrderStatus, status domain.OrderStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func withinTimeRange(value time.Time, rng domain.RangeQuery[time.Time]) bool {
	if rng.From != nil && value.Before(*rng.From) {
		return false
	}
	if rng.To != nil && value.After(*rng.To) {
		return false
	}
	return true
}

func withinAmountRange(value int64, rng domain.RangeQuery[int64]) bool {
	if rng.From != nil && value < *rng.From {
		return false
	}
	if rng.To != nil && value > *rng.To {
		return false
	}
	return true
}

func cloneOrder(order domain.Order) domain.Order {
	cloned := order

	if order.Items != nil {
		cloned.Items = make([]domain.OrderItem, len(order.Items))
		for i, item := range order.Items {
			cloned.Items[i] = item
			if item.SelectedVariants != nil {
				variants := make(map[string]string, len(item.SelectedVariants))
				for k, v := range item.SelectedVariants {
					variants[k] = v
				}
				cloned.Items[i].SelectedVariants = variants
			}
		}
	}
	if order.StatusHistory != nil {
		cloned.StatusHistory = make([]domain.StatusUpdate, len(order.StatusHistory))
		copy(cloned.StatusHistory, order.StatusHistory)
	}
	if order.PaidAt != nil {
		paidAt := *order.PaidAt
		cloned.PaidAt = &paidAt
	}
	if order.Payment.VerifiedAt != nil {
		verifiedAt := *order.Payment.VerifiedAt
		cloned.Payment.VerifiedAt = &verifiedAt
	}
	if order.CancelReason != nil {
		reason := *order.CancelReason
		cloned.CancelReason = &reason
	}
	return cloned
}
