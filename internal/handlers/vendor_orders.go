package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/auth"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/httpx"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/pagination"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/services"
)

// VendorHandlers exposes the vendor-scoped order listing and analytics.
// Every response is pinned to the requesting vendor; mixed orders arrive with
// foreign line items stripped.
type VendorHandlers struct {
	authn     func(http.Handler) http.Handler
	queries   services.OrderQueryService
	analytics services.AnalyticsService
}

// NewVendorHandlers constructs a new VendorHandlers instance.
func NewVendorHandlers(authn func(http.Handler) http.Handler, queries services.OrderQueryService, analytics services.AnalyticsService) *VendorHandlers {
	return &VendorHandlers{
		authn:     authn,
		queries:   queries,
		analytics: analytics,
	}
}

// Routes registers the /vendor endpoints.
func (h *VendorHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn)
	}
	r.Use(auth.RequireRole(auth.RoleVendor))
	r.Get("/orders", h.listOrders)
	r.Get("/analytics", h.analyticsSnapshot)
}

func (h *VendorHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
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
	query.RequesterRole = domain.ActorVendor

	page, err := h.queries.List(ctx, query)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderListResponse(page))
}

func (h *VendorHandlers) analyticsSnapshot(w http.ResponseWriter, r *http.Request) {
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
		RequesterRole: domain.ActorVendor,
		Timezone:      strings.TrimSpace(r.URL.Query().Get("timezone")),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildAnalyticsPayload(snapshot))
}
