package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/auth"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/httpx"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/services"
)

const maxPaymentBodySize = 8 * 1024

type confirmPaymentRequest struct {
	GatewayReference string `json:"gatewayReference"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Signature        string `json:"signature"`
}

type paymentWebhookRequest struct {
	OrderID string `json:"orderId"`
	confirmPaymentRequest
}

type paymentIntentResponse struct {
	OrderID          string `json:"orderId"`
	GatewayReference string `json:"gatewayReference"`
	ClientSecret     string `json:"clientSecret,omitempty"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
}

// PaymentHandlers exposes the two-phase payment endpoints. The begin and
// confirm routes live under the authenticated /orders group; the webhook
// route accepts the same capture payload from the gateway without a session,
// relying on the detached signature instead.
type PaymentHandlers struct {
	payments services.PaymentService
	orders   services.OrderService
}

// NewPaymentHandlers constructs a new PaymentHandlers instance.
func NewPaymentHandlers(payments services.PaymentService, orders services.OrderService) *PaymentHandlers {
	return &PaymentHandlers{
		payments: payments,
		orders:   orders,
	}
}

// OrderRoutes registers the payment endpoints under the /orders group.
func (h *PaymentHandlers) OrderRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/{orderID}/payment", h.beginPayment)
	r.Post("/{orderID}/payment:confirm", h.confirmPayment)
}

// WebhookRoutes registers the gateway-delivered capture endpoint.
func (h *PaymentHandlers) WebhookRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/payment", h.paymentWebhook)
}

func (h *PaymentHandlers) beginPayment(w http.ResponseWriter, r *http.Request) {
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

	if !h.authorizeOrderAccess(w, r, identity, orderID) {
		return
	}

	intent, err := h.payments.BeginPayment(ctx, services.BeginPaymentCommand{
		OrderID: orderID,
		Actor:   identity.UserID,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, paymentIntentResponse{
		OrderID:          intent.OrderID,
		GatewayReference: intent.GatewayReference,
		ClientSecret:     intent.ClientSecret,
		Amount:           intent.Amount,
		Currency:         intent.Currency,
	})
}

func (h *PaymentHandlers) confirmPayment(w http.ResponseWriter, r *http.Request) {
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

	if !h.authorizeOrderAccess(w, r, identity, orderID) {
		return
	}

	body, err := readLimitedBody(r, maxPaymentBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req confirmPaymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	order, err := h.payments.ConfirmPayment(ctx, services.ConfirmPaymentCommand{
		OrderID:          orderID,
		GatewayReference: strings.TrimSpace(req.GatewayReference),
		Amount:           req.Amount,
		Currency:         req.Currency,
		Signature:        strings.TrimSpace(req.Signature),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}

func (h *PaymentHandlers) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.payments == nil {
		httpx.WriteError(ctx, w, httpx.NewError("payment_service_unavailable", "payment service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxPaymentBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	var req paymentWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "orderId is required", http.StatusBadRequest))
		return
	}

	order, err := h.payments.ConfirmPayment(ctx, services.ConfirmPaymentCommand{
		OrderID:          orderID,
		GatewayReference: strings.TrimSpace(req.GatewayReference),
		Amount:           req.Amount,
		Currency:         req.Currency,
		Signature:        strings.TrimSpace(req.Signature),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"received": true,
		"orderId":  order.ID,
		"status":   string(order.Status),
	})
}

// authorizeOrderAccess rejects customers acting on orders they do not own.
// Admins pass through.
func (h *PaymentHandlers) authorizeOrderAccess(w http.ResponseWriter, r *http.Request, identity *auth.Identity, orderID string) bool {
	ctx := r.Context()
	if identity.Role != auth.RoleCustomer {
		return true
	}
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return false
	}
	order, err := h.orders.Get(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return false
	}
	if order.OwnerID != identity.UserID {
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
		return false
	}
	return true
}
