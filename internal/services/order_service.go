package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/repositories"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/shipping"
)

const (
	orderEventCreated       = "order.created"
	orderEventStatusChanged = "order.status.changed"
	orderEventCancelled     = "order.cancelled"

	orderIDPrefix = "ord_"
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Tracking    shipping.TrackingAssigner
	Clock       func() time.Time
	IDGenerator func() string
	Events      OrderEventPublisher
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders   repositories.OrderRepository
	tracking shipping.TrackingAssigner
	clock    func() time.Time
	newID    func() string
	events   OrderEventPublisher
	logger   func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Tracking == nil {
		return nil, errors.New("order service: tracking assigner is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return orderIDPrefix + ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:   deps.Orders,
		tracking: deps.Tracking,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		events: deps.Events,
		logger: logger,
	}, nil
}

func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error) {
	ownerID := strings.TrimSpace(cmd.OwnerID)
	if ownerID == "" {
		return domain.Order{}, fmt.Errorf("%w: owner id is required", ErrOrderInvalidInput)
	}
	if len(cmd.Items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: order must contain at least one item", ErrOrderInvalidInput)
	}
	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if currency == "" {
		return domain.Order{}, fmt.Errorf("%w: currency is required", ErrOrderInvalidInput)
	}
	if err := validateAddress(cmd.ShippingAddress); err != nil {
		return domain.Order{}, err
	}
	if strings.TrimSpace(cmd.PaymentMethod) == "" {
		return domain.Order{}, fmt.Errorf("%w: payment method is required", ErrOrderInvalidInput)
	}
	if cmd.TaxPrice < 0 || cmd.ShippingPrice < 0 || cmd.DiscountAmount < 0 {
		return domain.Order{}, fmt.Errorf("%w: price adjustments must be non-negative", ErrOrderInvalidInput)
	}

	items := make([]domain.OrderItem, 0, len(cmd.Items))
	var itemsTotal int64
	for i, item := range cmd.Items {
		item.ProductID = strings.TrimSpace(item.ProductID)
		item.VendorID = strings.TrimSpace(item.VendorID)
		item.Name = strings.TrimSpace(item.Name)
		if item.ProductID == "" {
			return domain.Order{}, fmt.Errorf("%w: item %d product id is required", ErrOrderInvalidInput, i)
		}
		if item.Quantity < 1 {
			return domain.Order{}, fmt.Errorf("%w: item %d quantity must be at least 1", ErrOrderInvalidInput, i)
		}
		if item.UnitPrice < 0 {
			return domain.Order{}, fmt.Errorf("%w: item %d unit price must be non-negative", ErrOrderInvalidInput, i)
		}
		itemsTotal += item.Subtotal()
		items = append(items, item)
	}

	totals := domain.OrderTotals{
		Items:    itemsTotal,
		Tax:      cmd.TaxPrice,
		Shipping: cmd.ShippingPrice,
		Discount: cmd.DiscountAmount,
		Total:    itemsTotal + cmd.TaxPrice + cmd.ShippingPrice - cmd.DiscountAmount,
	}
	if totals.Total < 0 {
		return domain.Order{}, fmt.Errorf("%w: discount exceeds order value", ErrOrderInvalidInput)
	}

	now := s.clock()
	order := domain.Order{
		ID:              s.newID(),
		OwnerID:         ownerID,
		Items:           items,
		Totals:          totals,
		Currency:        currency,
		ShippingAddress: cmd.ShippingAddress,
		Status:          domain.OrderStatusPending,
		PaymentMethod:   strings.TrimSpace(cmd.PaymentMethod),
		StatusHistory: []domain.StatusUpdate{{
			Status:    domain.OrderStatusPending,
			Note:      "order placed",
			Actor:     ownerID,
			ActorRole: domain.ActorCustomer,
			UpdatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.orders.Insert(ctx, order)
	if err != nil {
		if repositories.IsConflict(err) {
			return domain.Order{}, fmt.Errorf("%w: %v", ErrOrderConflict, err)
		}
		return domain.Order{}, fmt.Errorf("order create: %w", err)
	}

	s.logger(ctx, "order.created", map[string]any{
		"orderId": created.ID,
		"ownerId": created.OwnerID,
		"total":   created.Totals.Total,
	})
	s.publish(ctx, OrderEvent{
		Type:          orderEventCreated,
		OrderID:       created.ID,
		OwnerID:       created.OwnerID,
		CurrentStatus: string(created.Status),
		ActorID:       ownerID,
		OccurredAt:    now,
	})
	return created, nil
}

func (s *orderService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.orders.FindByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Order{}, ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("order get: %w", err)
	}
	return order, nil
}

func (s *orderService) TransitionStatus(ctx context.Context, cmd TransitionCommand) (domain.Order, error) {
	target := cmd.Target
	if _, ok := domain.ParseOrderStatus(string(target)); !ok {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, string(cmd.Target))
	}
	actor := strings.TrimSpace(cmd.Actor)
	if actor == "" {
		return domain.Order{}, fmt.Errorf("%w: actor is required", ErrOrderInvalidInput)
	}

	order, err := s.Get(ctx, cmd.OrderID)
	if err != nil {
		return domain.Order{}, err
	}

	// Repeating the current status is an idempotent retry: no audit entry,
	// no version bump, no event.
	if order.Status == target {
		return order, nil
	}

	if !domain.CanTransition(order.Status, target) {
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", ErrOrderInvalidState, order.Status, target)
	}
	if target == domain.OrderStatusCancelled && cmd.ActorRole == domain.ActorCustomer && !domain.CustomerCanCancel(order.Status) {
		return domain.Order{}, fmt.Errorf("%w: customer cannot cancel a %s order", ErrCancellationNotPermitted, order.Status)
	}

	previous := order.Status
	now := s.clock()
	order.Status = target
	order.UpdatedAt = now
	order.StatusHistory = append(order.StatusHistory, domain.StatusUpdate{
		Status:    target,
		Note:      strings.TrimSpace(cmd.Note),
		Actor:     actor,
		ActorRole: cmd.ActorRole,
		UpdatedAt: now,
	})

	// The first move into shipped mints the tracking number. It never changes
	// afterwards, even across later transitions.
	if target == domain.OrderStatusShipped && order.TrackingNumber == "" {
		trackingNumber, err := s.tracking.AssignTrackingNumber(ctx, order)
		if err != nil {
			return domain.Order{}, fmt.Errorf("order transition: assign tracking number: %w", err)
		}
		order.TrackingNumber = trackingNumber
	}

	if target == domain.OrderStatusCancelled {
		reason := strings.TrimSpace(cmd.Note)
		if reason == "" {
			reason = "cancelled"
		}
		order.CancelReason = &reason
	}

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		if repositories.IsConflict(err) {
			return domain.Order{}, fmt.Errorf("%w: %v", ErrOrderConflict, err)
		}
		if repositories.IsNotFound(err) {
			return domain.Order{}, ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("order transition: %w", err)
	}

	s.logger(ctx, "order.status.changed", map[string]any{
		"orderId": updated.ID,
		"from":    string(previous),
		"to":      string(target),
		"actor":   actor,
		"role":    string(cmd.ActorRole),
	})
	eventType := orderEventStatusChanged
	if target == domain.OrderStatusCancelled {
		eventType = orderEventCancelled
	}
	s.publish(ctx, OrderEvent{
		Type:           eventType,
		OrderID:        updated.ID,
		OwnerID:        updated.OwnerID,
		PreviousStatus: string(previous),
		CurrentStatus:  string(target),
		ActorID:        actor,
		OccurredAt:     now,
	})
	return updated, nil
}

func (s *orderService) Cancel(ctx context.Context, cmd CancelCommand) (domain.Order, error) {
	return s.TransitionStatus(ctx, TransitionCommand{
		OrderID:   cmd.OrderID,
		Target:    domain.OrderStatusCancelled,
		Note:      cmd.Reason,
		Actor:     cmd.Actor,
		ActorRole: cmd.ActorRole,
	})
}

func (s *orderService) publish(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish_failed", map[string]any{
			"orderId": event.OrderID,
			"type":    event.Type,
			"error":   err.Error(),
		})
	}
}

func validateAddress(addr domain.Address) error {
	required := map[string]string{
		"street":  addr.Street,
		"city":    addr.City,
		"state":   addr.State,
		"zipCode": addr.ZipCode,
		"country": addr.Country,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: shipping address %s is required", ErrOrderInvalidInput, field)
		}
	}
	return nil
}
