package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/repositories"
)

const topCustomersLimit = 10

// AnalyticsServiceDeps bundles collaborators for the analytics aggregator.
type AnalyticsServiceDeps struct {
	Orders repositories.OrderRepository
	Clock  func() time.Time
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type analyticsService struct {
	orders repositories.OrderRepository
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewAnalyticsService wires dependencies into a concrete AnalyticsService implementation.
func NewAnalyticsService(deps AnalyticsServiceDeps) (AnalyticsService, error) {
	if deps.Orders == nil {
		return nil, errors.New("analytics service: order repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &analyticsService{
		orders: deps.Orders,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Snapshot aggregates the scope's orders. Revenue sums order totals excluding
// cancelled and refunded orders; "today" is resolved in the caller-supplied
// IANA timezone, defaulting to UTC.
func (s *analyticsService) Snapshot(ctx context.Context, scope AnalyticsScope) (AnalyticsSnapshot, error) {
	requester := strings.TrimSpace(scope.Requester)

	var filter repositories.OrderListFilter
	switch scope.RequesterRole {
	case domain.ActorVendor:
		if requester == "" {
			return AnalyticsSnapshot{}, fmt.Errorf("%w: requester is required", ErrOrderInvalidInput)
		}
		filter.VendorID = requester
	case domain.ActorAdmin:
	default:
		return AnalyticsSnapshot{}, fmt.Errorf("%w: unsupported requester role %q", ErrForbidden, scope.RequesterRole)
	}

	location := time.UTC
	if tz := strings.TrimSpace(scope.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return AnalyticsSnapshot{}, fmt.Errorf("%w: unknown timezone %q", ErrOrderInvalidInput, tz)
		}
		location = loc
	}

	orders, err := s.orders.ListAll(ctx, filter)
	if err != nil {
		return AnalyticsSnapshot{}, fmt.Errorf("analytics snapshot: %w", err)
	}

	now := s.clock()
	localNow := now.In(location)
	dayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, location)
	dayEnd := dayStart.AddDate(0, 0, 1)

	snapshot := AnalyticsSnapshot{
		CountsByStatus: make(map[domain.OrderStatus]int),
		GeneratedAt:    now,
	}
	spendByOwner := make(map[string]*CustomerRank)

	for _, order := range orders {
		snapshot.TotalOrders++
		snapshot.CountsByStatus[order.Status]++

		revenue := s.scopedRevenue(order, scope)
		counts := domain.RevenueCountsFor(order.Status)
		if counts {
			snapshot.TotalRevenue += revenue
		}

		created := order.CreatedAt.In(location)
		if !created.Before(dayStart) && created.Before(dayEnd) {
			snapshot.TodayOrders++
			if counts {
				snapshot.TodayRevenue += revenue
			}
		}

		rank, ok := spendByOwner[order.OwnerID]
		if !ok {
			rank = &CustomerRank{OwnerID: order.OwnerID}
			spendByOwner[order.OwnerID] = rank
		}
		rank.OrderCount++
		if counts {
			rank.TotalSpent += revenue
		}
	}

	snapshot.TopCustomers = rankCustomers(spendByOwner)

	s.logger(ctx, "analytics.snapshot.generated", map[string]any{
		"role":        string(scope.RequesterRole),
		"totalOrders": snapshot.TotalOrders,
	})
	return snapshot, nil
}

// scopedRevenue narrows an order's revenue contribution to the requester's
// scope: vendors count only their own line subtotals, admins the full total.
func (s *analyticsService) scopedRevenue(order domain.Order, scope AnalyticsScope) int64 {
	if scope.RequesterRole != domain.ActorVendor {
		return order.Totals.Total
	}
	var revenue int64
	for _, item := range order.ItemsForVendor(strings.TrimSpace(scope.Requester)) {
		revenue += item.Subtotal()
	}
	return revenue
}

// rankCustomers orders by (orderCount desc, totalSpent desc, ownerID asc) and
// caps the leaderboard.
func rankCustomers(spendByOwner map[string]*CustomerRank) []CustomerRank {
	ranks := make([]CustomerRank, 0, len(spendByOwner))
	for _, rank := range spendByOwner {
		ranks = append(ranks, *rank)
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].OrderCount != ranks[j].OrderCount {
			return ranks[i].OrderCount > ranks[j].OrderCount
		}
		if ranks[i].TotalSpent != ranks[j].TotalSpent {
			return ranks[i].TotalSpent > ranks[j].TotalSpent
		}
		return ranks[i].OwnerID < ranks[j].OwnerID
	})
	if len(ranks) > topCustomersLimit {
		ranks = ranks[:topCustomersLimit]
	}
	return ranks
}
