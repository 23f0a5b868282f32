package handlers

import (
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

const maxTransitionBodySize = 4 * 1024

type transitionOrderRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type refundOrderRequest struct {
	Reason string `json:"reason"`
}

// AdminHandlers exposes the back-office order surface: unrestricted listings,
// operator transitions, refunds, and platform-wide analytics.
type AdminHandlers struct {
	authn     func(http.Handler) http.Handler
	orders    services.OrderService
	payments  services.PaymentService
	queries   services.OrderQueryService
	analytics services.AnalyticsService
}

// NewAdminHandlers constructs a new AdminHandlers instance.
func NewAdminHandlers(
	authn func(http.Handler) http.Handler,
	orders services.OrderService,
	payments services.PaymentService,
	queries services.OrderQueryService,
	analytics services.AnalyticsService,
) *AdminHandlers {
	return &AdminHandlers{
		authn:     authn,
		orders:    orders,
		payments:  payments,
		queries:   queries,
		analytics: analytics,
	}
}

// Routes registers the /admin endpoints.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn)
	}
	r.Use(auth.RequireRole(auth.RoleAdmin))
	r.Get("/orders", h.listOrders)
	r.Post("/orders/{orderID}:transition", h.transitionOrder)
	r.Post("/orders/{orderID}:refund", h.refundOrder)
	r.Get("/analytics", h.analyticsSnapshot)
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.queries == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	query, ok := parseOrderListQuery(ctx, w, r, pagination.Options{DefaultLimit: 20})
	if !ok {
		return
	}
	query.Requester = identity.UserID
	query.RequesterRole = domain.ActorAdmin

	page, err := h.queries.List(ctx, query)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderListResponse(page))
}

func (h *AdminHandlers) transitionOrder(w http.ResponseWriter, r *http.Request) {
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

	body, err := readLimitedBody(r, maxTransitionBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req transitionOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	target, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unknown target status", http.StatusBadRequest))
		return
	}

	order, err := h.orders.TransitionStatus(ctx, services.TransitionCommand{
		OrderID:   orderID,
		Target:    target,
		Note:      strings.TrimSpace(req.Note),
		Actor:     identity.UserID,
		ActorRole: domain.ActorAdmin,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func (h *AdminHandlers) refundOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.payments == nil {
		httpx.WriteError(ctx, w, httpx.NewError("payment_service_unavailable", "payment service unavailable", http.StatusServiceUnavailable))
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

	var req refundOrderRequest
	body, err := readLimitedBody(r, maxTransitionBodySize)
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

	order, err := h.payments.Refund(ctx, services.RefundCommand{
		OrderID:   orderID,
		Reason:    strings.TrimSpace(req.Reason),
		Actor:     identity.UserID,
		ActorRole: domain.ActorAdmin,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func (h *AdminHandlers) analyticsSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.analytics == nil {
		httpx.WriteError(ctx, w, httpx.NewError("analytics_service_unavailable", "analytics service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	snapshot, err := h.analytics.Snapshot(ctx, services.AnalyticsScope{
		Requester:     identity.UserID,
		RequesterRole: domain.ActorAdmin,
		Timezone:      strings.TrimSpace(r.URL.Query().Get("timezone")),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildAnalyticsPayload(snapshot))
}
