package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/auth"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/services"
)

type stubAnalyticsService struct {
	snapshotFn func(ctx context.Context, scope services.AnalyticsScope) (services.AnalyticsSnapshot, error)
}

func (s *stubAnalyticsService) Snapshot(ctx context.Context, scope services.AnalyticsScope) (services.AnalyticsSnapshot, error) {
	if s.snapshotFn != nil {
		return s.snapshotFn(ctx, scope)
	}
	return services.AnalyticsSnapshot{}, nil
}

func newAdminRouter(identity *auth.Identity, orders services.OrderService, payments services.PaymentService, queries services.OrderQueryService, analytics services.AnalyticsService) http.Handler {
	handlers := NewAdminHandlers(identityInjector(identity), orders, payments, queries, analytics)
	return NewRouter(WithAdminRoutes(handlers.Routes))
}

func TestAdminRoutesRejectNonAdminRole(t *testing.T) {
	router := newAdminRouter(&auth.Identity{UserID: "user_1", Role: auth.RoleCustomer}, &stubOrderService{}, &stubPaymentService{}, &stubQueryService{}, &stubAnalyticsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer on admin route, got %d", rr.Code)
	}
}

func TestAdminTransitionOrder(t *testing.T) {
	var captured services.TransitionCommand
	orders := &stubOrderService{
		transitionFn: func(_ context.Context, cmd services.TransitionCommand) (domain.Order, error) {
			captured = cmd
			order := sampleOrder(cmd.OrderID, "user_1", cmd.Target)
			order.TrackingNumber = "TRK-01ARZ3"
			return order, nil
		},
	}
	router := newAdminRouter(&auth.Identity{UserID: "admin_1", Role: auth.RoleAdmin}, orders, &stubPaymentService{}, &stubQueryService{}, &stubAnalyticsService{})

	body := []byte(`{"status":"shipped","note":"left warehouse"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/ord_1:transition", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Target != domain.OrderStatusShipped || captured.ActorRole != domain.ActorAdmin || captured.Note != "left warehouse" {
		t.Fatalf("unexpected transition command: %+v", captured)
	}

	var got orderPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if got.TrackingNumber != "TRK-01ARZ3" {
		t.Fatalf("tracking number missing from payload: %+v", got)
	}
}

func TestAdminTransitionRejectsUnknownStatus(t *testing.T) {
	router := newAdminRouter(&auth.Identity{UserID: "admin_1", Role: auth.RoleAdmin}, &stubOrderService{}, &stubPaymentService{}, &stubQueryService{}, &stubAnalyticsService{})

	body := []byte(`{"status":"teleported"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/ord_1:transition", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAdminRefundOrder(t *testing.T) {
	var captured services.RefundCommand
	payments := &stubPaymentService{
		refundFn: func(_ context.Context, cmd services.RefundCommand) (domain.Order, error) {
			captured = cmd
			return sampleOrder(cmd.OrderID, "user_1", domain.OrderStatusRefunded), nil
		},
	}
	router := newAdminRouter(&auth.Identity{UserID: "admin_1", Role: auth.RoleAdmin}, &stubOrderService{}, payments, &stubQueryService{}, &stubAnalyticsService{})

	body := []byte(`{"reason":"damaged in transit"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/ord_1:refund", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Reason != "damaged in transit" || captured.ActorRole != domain.ActorAdmin {
		t.Fatalf("unexpected refund command: %+v", captured)
	}
}

func TestAdminListOrdersPinsAdminScope(t *testing.T) {
	var captured services.OrderListQuery
	queries := &stubQueryService{
		listFn: func(_ context.Context, query services.OrderListQuery) (domain.Page[domain.Order], error) {
			captured = query
			return domain.Page[domain.Order]{Pagination: domain.PageInfo{Current: 1, Total: 1}}, nil
		},
	}
	router := newAdminRouter(&auth.Identity{UserID: "admin_1", Role: auth.RoleAdmin}, &stubOrderService{}, &stubPaymentService{}, queries, &stubAnalyticsService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?search=user_2&min_total=1000", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.RequesterRole != domain.ActorAdmin || captured.Search != "user_2" {
		t.Fatalf("unexpected query: %+v", captured)
	}
	if captured.TotalFrom == nil || *captured.TotalFrom != 1000 {
		t.Fatalf("min_total not parsed: %v", captured.TotalFrom)
	}
}

func TestAdminAnalyticsPassesTimezone(t *testing.T) {
	analytics := &stubAnalyticsService{
		snapshotFn: func(_ context.Context, scope services.AnalyticsScope) (services.AnalyticsSnapshot, error) {
			if scope.Timezone != "America/New_York" || scope.RequesterRole != domain.ActorAdmin {
				t.Fatalf("unexpected scope: %+v", scope)
			}
			return services.AnalyticsSnapshot{
				TotalOrders:  10,
				TotalRevenue: 50000,
				CountsByStatus: map[domain.OrderStatus]int{
					domain.OrderStatusPending: 4,
				},
				TopCustomers: []services.CustomerRank{{OwnerID: "user_1", OrderCount: 3, TotalSpent: 9000}},
				GeneratedAt:  time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	router := newAdminRouter(&auth.Identity{UserID: "admin_1", Role: auth.RoleAdmin}, &stubOrderService{}, &stubPaymentService{}, &stubQueryService{}, analytics)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/analytics?timezone=America/New_York", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got analyticsPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if got.TotalOrders != 10 || got.CountsByStatus["pending"] != 4 || len(got.TopCustomers) != 1 {
		t.Fatalf("unexpected analytics payload: %+v", got)
	}
}
