package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/pagination"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/repositories"
)

// OrderQueryServiceDeps bundles collaborators for the query service.
type OrderQueryServiceDeps struct {
	Orders repositories.OrderRepository
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type orderQueryService struct {
	orders repositories.OrderRepository
	logger func(context.Context, string, map[string]any)
}

// NewOrderQueryService wires dependencies into a concrete OrderQueryService implementation.
func NewOrderQueryService(deps OrderQueryServiceDeps) (OrderQueryService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order query service: order repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &orderQueryService{orders: deps.Orders, logger: logger}, nil
}

// List serves one page of orders scoped to the requester's role. The scope is
// pinned server-side: a customer only ever queries their own orders and a
// vendor only orders containing their items, regardless of supplied filters.
func (s *orderQueryService) List(ctx context.Context, query OrderListQuery) (domain.Page[domain.Order], error) {
	requester := strings.TrimSpace(query.Requester)
	if query.Page < 1 || query.Limit < 1 {
		return domain.Page[domain.Order]{}, fmt.Errorf("%w: page and limit must be positive", ErrOrderInvalidInput)
	}

	filter := repositories.OrderListFilter{
		Statuses:  query.Statuses,
		CreatedAt: domain.RangeQuery[time.Time]{From: query.CreatedFrom, To: query.CreatedTo},
		Total:     domain.RangeQuery[int64]{From: query.TotalFrom, To: query.TotalTo},
	}

	switch query.RequesterRole {
	case domain.ActorCustomer:
		if requester == "" {
			return domain.Page[domain.Order]{}, fmt.Errorf("%w: requester is required", ErrOrderInvalidInput)
		}
		filter.OwnerID = requester
	case domain.ActorVendor:
		if requester == "" {
			return domain.Page[domain.Order]{}, fmt.Errorf("%w: requester is required", ErrOrderInvalidInput)
		}
		filter.VendorID = requester
	case domain.ActorAdmin:
		filter.Search = strings.TrimSpace(query.Search)
	default:
		return domain.Page[domain.Order]{}, fmt.Errorf("%w: unsupported requester role %q", ErrForbidden, query.RequesterRole)
	}

	items, count, err := s.orders.Query(ctx, filter, query.Page, query.Limit)
	if err != nil {
		return domain.Page[domain.Order]{}, fmt.Errorf("order list: %w", err)
	}

	// Vendor listings strip foreign lines from mixed orders so one seller
	// never sees another seller's items or the buyer's full basket value.
	if query.RequesterRole == domain.ActorVendor {
		for i := range items {
			items[i].Items = items[i].ItemsForVendor(requester)
		}
	}

	return domain.Page[domain.Order]{
		Items: items,
		Pagination: domain.PageInfo{
			Current: query.Page,
			Total:   pagination.PageCount(count, query.Limit),
			Count:   count,
		},
	}, nil
}
