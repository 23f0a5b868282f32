// Package services implements the order lifecycle, payment orchestration,
// tracking, querying, and analytics use cases on top of the repository and
// gateway abstractions.
package services

import (
	"context"
	"time"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
)

// CreateOrderCommand captures the checkout payload for a new order. Tax,
// shipping, and discount amounts are computed upstream (tax tables, carriers,
// coupon engine) and arrive as minor-unit figures; the engine validates the
// money invariant before persisting.
type CreateOrderCommand struct {
	OwnerID         string
	Items           []domain.OrderItem
	TaxPrice        int64
	ShippingPrice   int64
	DiscountAmount  int64
	Currency        string
	ShippingAddress domain.Address
	PaymentMethod   string
}

// TransitionCommand drives one status move on an order.
type TransitionCommand struct {
	OrderID   string
	Target    domain.OrderStatus
	Note      string
	Actor     string
	ActorRole domain.ActorRole
}

// CancelCommand is the policy-gated cancellation request.
type CancelCommand struct {
	OrderID   string
	Reason    string
	Actor     string
	ActorRole domain.ActorRole
}

// OrderService owns the order aggregate lifecycle: creation, the status state
// machine, and cancellation policy.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error)
	Get(ctx context.Context, orderID string) (domain.Order, error)
	TransitionStatus(ctx context.Context, cmd TransitionCommand) (domain.Order, error)
	Cancel(ctx context.Context, cmd CancelCommand) (domain.Order, error)
}

// BeginPaymentCommand opens the payment phase for a pending order.
type BeginPaymentCommand struct {
	OrderID string
	Actor   string
}

// PaymentIntentResult is returned to the client so it can drive the gateway's
// capture flow.
type PaymentIntentResult struct {
	OrderID          string
	GatewayReference string
	ClientSecret     string
	Amount           int64
	Currency         string
}

// ConfirmPaymentCommand carries the gateway-confirmed capture and its
// detached signature into the orchestrator.
type ConfirmPaymentCommand struct {
	OrderID          string
	GatewayReference string
	Amount           int64
	Currency         string
	Signature        string
}

// RefundCommand reverses a captured payment and moves the order to refunded.
type RefundCommand struct {
	OrderID   string
	Reason    string
	Actor     string
	ActorRole domain.ActorRole
}

// PaymentService orchestrates the two-phase payment protocol against the
// gateway and keeps the order's payment state consistent with the lifecycle.
type PaymentService interface {
	BeginPayment(ctx context.Context, cmd BeginPaymentCommand) (PaymentIntentResult, error)
	ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (domain.Order, error)
	Refund(ctx context.Context, cmd RefundCommand) (domain.Order, error)
}

// TrackingService resolves public tracking numbers to shipment views.
type TrackingService interface {
	TrackByNumber(ctx context.Context, trackingNumber string) (domain.TrackingView, error)
}

// OrderListQuery is a role-scoped listing request. The service pins the scope
// to the requester before any filter reaches storage.
type OrderListQuery struct {
	Requester     string
	RequesterRole domain.ActorRole
	Statuses      []domain.OrderStatus
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	TotalFrom     *int64
	TotalTo       *int64
	Search        string
	Page          int
	Limit         int
}

// OrderQueryService serves the paginated, role-scoped order listings.
type OrderQueryService interface {
	List(ctx context.Context, query OrderListQuery) (domain.Page[domain.Order], error)
}

// AnalyticsScope selects the slice of orders an analytics snapshot covers.
// Vendors see only orders containing their items; admins see everything.
type AnalyticsScope struct {
	Requester     string
	RequesterRole domain.ActorRole
	Timezone      string
}

// CustomerRank is one entry in the top-customers leaderboard.
type CustomerRank struct {
	OwnerID    string
	OrderCount int
	TotalSpent int64
}

// AnalyticsSnapshot aggregates order and revenue figures for a scope. Revenue
// excludes cancelled and refunded orders.
type AnalyticsSnapshot struct {
	TotalOrders    int
	TotalRevenue   int64
	CountsByStatus map[domain.OrderStatus]int
	TodayOrders    int
	TodayRevenue   int64
	TopCustomers   []CustomerRank
	GeneratedAt    time.Time
}

// AnalyticsService computes snapshot aggregates over a role scope.
type AnalyticsService interface {
	Snapshot(ctx context.Context, scope AnalyticsScope) (AnalyticsSnapshot, error)
}

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type           string
	OrderID        string
	OwnerID        string
	PreviousStatus string
	CurrentStatus  string
	ActorID        string
	OccurredAt     time.Time
	Metadata       map[string]any
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}
