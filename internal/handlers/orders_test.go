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

type stubOrderService struct {
	createFn     func(ctx context.Context, cmd services.CreateOrderCommand) (domain.Order, error)
	getFn        func(ctx context.Context, orderID string) (domain.Order, error)
	transitionFn func(ctx context.Context, cmd services.TransitionCommand) (domain.Order, error)
	cancelFn     func(ctx context.Context, cmd services.CancelCommand) (domain.Order, error)
}

func (s *stubOrderService) Create(ctx context.Context, cmd services.CreateOrderCommand) (domain.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return domain.Order{}, services.ErrOrderInvalidInput
}

func (s *stubOrderService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID)
	}
	return domain.Order{}, services.ErrOrderNotFound
}

func (s *stubOrderService) TransitionStatus(ctx context.Context, cmd services.TransitionCommand) (domain.Order, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, cmd)
	}
	return domain.Order{}, services.ErrOrderNotFound
}

func (s *stubOrderService) Cancel(ctx context.Context, cmd services.CancelCommand) (domain.Order, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, cmd)
	}
	return domain.Order{}, services.ErrOrderNotFound
}

type stubQueryService struct {
	listFn func(ctx context.Context, query services.OrderListQuery) (domain.Page[domain.Order], error)
}

func (s *stubQueryService) List(ctx context.Context, query services.OrderListQuery) (domain.Page[domain.Order], error) {
	if s.listFn != nil {
		return s.listFn(ctx, query)
	}
	return domain.Page[domain.Order]{}, nil
}

// identityInjector simulates the auth middleware with a fixed principal.
func identityInjector(identity *auth.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func sampleOrder(id, owner string, status domain.OrderStatus) domain.Order {
	now := time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)
	return domain.Order{
		ID:      id,
		OwnerID: owner,
		Status:  status,
		Items: []domain.OrderItem{
			{ProductID: "p1", VendorID: "vend_1", Name: "Widget", UnitPrice: 1000, Quantity: 2},
		},
		Totals:    domain.OrderTotals{Items: 2000, Total: 2000},
		Currency:  "usd",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateOrderReturnsCreated(t *testing.T) {
	svc := &stubOrderService{
		createFn: func(_ context.Context, cmd services.CreateOrderCommand) (domain.Order, error) {
			if cmd.OwnerID != "user_1" {
				t.Fatalf("expected owner from identity, got %q", cmd.OwnerID)
			}
			if len(cmd.Items) != 1 || cmd.Items[0].ProductID != "p1" {
				t.Fatalf("unexpected items: %+v", cmd.Items)
			}
			return sampleOrder("ord_1", cmd.OwnerID, domain.OrderStatusPending), nil
		},
	}
	handlers := NewOrderHandlers(identityInjector(&auth.Identity{UserID: "user_1", Role: auth.RoleCustomer}), svc, &stubQueryService{})
	router := NewRouter(WithOrderRoutes(handlers.Routes))

	payload := map[string]any{
		"items": []map[string]any{
			{"productId": "p1", "vendorId": "vend_1", "name": "Widget", "unitPrice": 1000, "quantity": 2},
		},
		"currency":        "usd",
		"shippingAddress": map[string]string{"street": "1 Main St", "city": "Springfield", "state": "IL", "zipCode": "62701", "country": "US"},
		"paymentMethod":   "card",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var got orderPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if got.ID != "ord_1" || got.Status != "pending" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestCreateOrderRequiresIdentity(t *testing.T) {
	handlers := NewOrderHandlers(nil, &stubOrderService{}, &stubQueryService{})
	router := NewRouter(WithOrderRoutes(handlers.Routes))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/", bytes.NewReader([]byte(`{"items":[]}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var envelope map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to parse error envelope: %v", err)
	}
	if envelope["error"] != "unauthenticated" {
		t.Fatalf("expected unauthenticated code, got %v", envelope["error"])
	}
}

func TestGetOrderHidesForeignOrders(t *testing.T) {
	svc := &stubOrderService{
		getFn: func(_ context.Context, orderID string) (domain.Order, error) {
			return sampleOrder(orderID, "someone_else", domain.OrderStatusPending), nil
		},
	}
	handlers := NewOrderHandlers(identityInjector(&auth.Identity{UserID: "user_1", Role: auth.RoleCustomer}), svc, &stubQueryService{})
	router := NewRouter(WithOrderRoutes(handlers.Routes))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/ord_9", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign order, got %d", rr.Code)
	}
}

func TestCancelOrderMapsConflict(t *testing.T) {
	svc := &stubOrderService{
		getFn: func(_ context.Context, orderID string) (domain.Order, error) {
			return sampleOrder(orderID, "user_1", domain.OrderStatusShipped), nil
		},
		cancelFn: func(_ context.Context, cmd services.CancelCommand) (domain.Order, error) {
			return domain.Order{}, services.ErrCancellationNotPermitted
		},
	}
	handlers := NewOrderHandlers(identityInjector(&auth.Identity{UserID: "user_1", Role: auth.RoleCustomer}), svc, &stubQueryService{})
	router := NewRouter(WithOrderRoutes(handlers.Routes))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/ord_1:cancel", bytes.NewReader([]byte(`{"reason":"changed my mind"}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	var envelope map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to parse error envelope: %v", err)
	}
	if envelope["error"] != "cancellation_not_permitted" {
		t.Fatalf("expected cancellation_not_permitted code, got %v", envelope["error"])
	}
}

func TestListOrdersParsesFilters(t *testing.T) {
	var captured services.OrderListQuery
	queries := &stubQueryService{
		listFn: func(_ context.Context, query services.OrderListQuery) (domain.Page[domain.Order], error) {
			captured = query
			return domain.Page[domain.Order]{
				Items:      []domain.Order{sampleOrder("ord_1", "user_1", domain.OrderStatusPending)},
				Pagination: domain.PageInfo{Current: 2, Total: 3, Count: 25},
			}, nil
		},
	}
	handlers := NewOrderHandlers(identityInjector(&auth.Identity{UserID: "user_1", Role: auth.RoleCustomer}), &stubOrderService{}, queries)
	router := NewRouter(WithOrderRoutes(handlers.Routes))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/?status=pending,shipped&page=2&limit=10&created_after=2026-01-01T00:00:00Z", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Requester != "user_1" || captured.RequesterRole != domain.ActorCustomer {
		t.Fatalf("scope not pinned to requester: %+v", captured)
	}
	if len(captured.Statuses) != 2 || captured.Page != 2 || captured.Limit != 10 {
		t.Fatalf("filters not parsed: %+v", captured)
	}
	if captured.CreatedFrom == nil || !captured.CreatedFrom.Equal(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("created_after not parsed: %v", captured.CreatedFrom)
	}

	var response orderListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Pagination.Current != 2 || response.Pagination.Count != 25 {
		t.Fatalf("unexpected pagination envelope: %+v", response.Pagination)
	}
}

func TestListOrdersRejectsUnknownStatusFilter(t *testing.T) {
	handlers := NewOrderHandlers(identityInjector(&auth.Identity{UserID: "user_1", Role: auth.RoleCustomer}), &stubOrderService{}, &stubQueryService{})
	router := NewRouter(WithOrderRoutes(handlers.Routes))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/?status=bogus", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
