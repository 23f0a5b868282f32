package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/auth"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/httpx"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/pagination"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/services"
)

const (
	maxOrderBodySize       = 64 * 1024
	maxOrderCancelBodySize = 4 * 1024
)

type createOrderItemRequest struct {
	ProductID        string            `json:"productId"`
	VendorID         string            `json:"vendorId"`
	Name             string            `json:"name"`
	UnitPrice        int64             `json:"unitPrice"`
	Quantity         int               `json:"quantity"`
	SelectedVariants map[string]string `json:"selectedVariants"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest `json:"items"`
	TaxPrice        int64                    `json:"taxPrice"`
	ShippingPrice   int64                    `json:"shippingPrice"`
	DiscountAmount  int64                    `json:"discountAmount"`
	Currency        string                   `json:"currency"`
	ShippingAddress addressPayload           `json:"shippingAddress"`
	PaymentMethod   string                   `json:"paymentMethod"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderHandlers exposes the customer-facing order endpoints.
type OrderHandlers struct {
	authn   func(http.Handler) http.Handler
	orders  services.OrderService
	queries services.OrderQueryService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(authn func(http.Handler) http.Handler, orders services.OrderService, queries services.OrderQueryService) *OrderHandlers {
	return &OrderHandlers{
		authn:   authn,
		orders:  orders,
		queries: queries,
	}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn)
	}
	r.Post("/", h.createOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}:cancel", h.cancelOrder)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req createOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{
			ProductID:        strings.TrimSpace(item.ProductID),
			VendorID:         strings.TrimSpace(item.VendorID),
			Name:             strings.TrimSpace(item.Name),
			UnitPrice:        item.UnitPrice,
			Quantity:         item.Quantity,
			SelectedVariants: item.SelectedVariants,
		})
	}

	order, err := h.orders.Create(ctx, services.CreateOrderCommand{
		OwnerID:        identity.UserID,
		Items:          items,
		TaxPrice:       req.TaxPrice,
		ShippingPrice:  req.ShippingPrice,
		DiscountAmount: req.DiscountAmount,
		Currency:       req.Currency,
		ShippingAddress: domain.Address{
			Street:  strings.TrimSpace(req.ShippingAddress.Street),
			City:    strings.TrimSpace(req.ShippingAddress.City),
			State:   strings.TrimSpace(req.ShippingAddress.State),
			ZipCode: strings.TrimSpace(req.ShippingAddress.ZipCode),
			Country: strings.TrimSpace(req.ShippingAddress.Country),
			Phone:   strings.TrimSpace(req.ShippingAddress.Phone),
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildOrderPayload(order))
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.queries == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	query, ok := parseOrderListQuery(ctx, w, r, pagination.Options{})
	if !ok {
		return
	}
	query.Requester = identity.UserID
	query.RequesterRole = domain.ActorCustomer

	page, err := h.queries.List(ctx, query)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderListResponse(page))
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.Get(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	// Customers only see their own orders; a foreign id looks like a miss.
	if identity.Role == auth.RoleCustomer && order.OwnerID != identity.UserID {
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	var req cancelOrderRequest
	body, err := readLimitedBody(r, maxOrderCancelBodySize)
	if err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(ctx, w, err)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
			return
		}
	}

	if identity.Role == auth.RoleCustomer {
		order, err := h.orders.Get(ctx, orderID)
		if err != nil {
			writeOrderError(ctx, w, err)
			return
		}
		if order.OwnerID != identity.UserID {
			httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
			return
		}
	}

	order, err := h.orders.Cancel(ctx, services.CancelCommand{
		OrderID:   orderID,
		Reason:    strings.TrimSpace(req.Reason),
		Actor:     identity.UserID,
		ActorRole: domain.ActorRole(identity.Role),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func requireIdentity(ctx context.Context, w http.ResponseWriter) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UserID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

// parseOrderListQuery extracts the shared listing filters. Scope fields are
// filled in by the caller.
func parseOrderListQuery(ctx context.Context, w http.ResponseWriter, r *http.Request, opts pagination.Options) (services.OrderListQuery, bool) {
	values := r.URL.Query()

	params, err := pagination.FromRequest(r, opts)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "page and limit must be positive integers", http.StatusBadRequest))
		return services.OrderListQuery{}, false
	}

	query := services.OrderListQuery{
		Page:  params.Page,
		Limit: params.Limit,
	}

	for _, raw := range parseFilterValues(values["status"]) {
		status, ok := domain.ParseOrderStatus(raw)
		if !ok {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown status filter "+raw, http.StatusBadRequest))
			return services.OrderListQuery{}, false
		}
		query.Statuses = append(query.Statuses, status)
	}

	if raw := strings.TrimSpace(values.Get("created_after")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_after must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return services.OrderListQuery{}, false
		}
		query.CreatedFrom = &ts
	}
	if raw := strings.TrimSpace(values.Get("created_before")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_before must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return services.OrderListQuery{}, false
		}
		query.CreatedTo = &ts
	}

	if raw := strings.TrimSpace(values.Get("min_total")); raw != "" {
		amount, err := parseAmountParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "min_total "+err.Error(), http.StatusBadRequest))
			return services.OrderListQuery{}, false
		}
		query.TotalFrom = &amount
	}
	if raw := strings.TrimSpace(values.Get("max_total")); raw != "" {
		amount, err := parseAmountParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "max_total "+err.Error(), http.StatusBadRequest))
			return services.OrderListQuery{}, false
		}
		query.TotalTo = &amount
	}

	query.Search = strings.TrimSpace(values.Get("search"))

	return query, true
}
