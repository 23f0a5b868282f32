package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/payments"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/repositories"
)

const (
	paymentEventIntentCreated  = "order.payment.intent.created"
	paymentEventCaptured       = "order.payment.captured"
	paymentEventRefunded       = "order.payment.refunded"
	paymentEventReconciliation = "order.payment.reconciliation_required"

	defaultGatewayTimeout = 10 * time.Second
)

// PaymentServiceDeps bundles collaborators for the payment orchestrator.
type PaymentServiceDeps struct {
	Orders   repositories.OrderRepository
	Gateway  payments.Provider
	Verifier *payments.CaptureVerifier
	Clock    func() time.Time
	Events   OrderEventPublisher
	Logger   func(ctx context.Context, event string, fields map[string]any)

	// GatewayTimeout bounds every gateway call so a hung gateway cannot pin
	// request goroutines.
	GatewayTimeout time.Duration
}

type paymentService struct {
	orders   repositories.OrderRepository
	gateway  payments.Provider
	verifier *payments.CaptureVerifier
	clock    func() time.Time
	events   OrderEventPublisher
	logger   func(context.Context, string, map[string]any)
	timeout  time.Duration
}

// NewPaymentService wires dependencies into a concrete PaymentService implementation.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Orders == nil {
		return nil, errors.New("payment service: order repository is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("payment service: gateway provider is required")
	}
	if deps.Verifier == nil {
		return nil, errors.New("payment service: capture verifier is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	timeout := deps.GatewayTimeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}

	return &paymentService{
		orders:   deps.Orders,
		gateway:  deps.Gateway,
		verifier: deps.Verifier,
		clock: func() time.Time {
			return clock().UTC()
		},
		events:  deps.Events,
		logger:  logger,
		timeout: timeout,
	}, nil
}

func (s *paymentService) BeginPayment(ctx context.Context, cmd BeginPaymentCommand) (PaymentIntentResult, error) {
	order, err := s.load(ctx, cmd.OrderID)
	if err != nil {
		return PaymentIntentResult{}, err
	}
	if order.Status != domain.OrderStatusPending || order.IsPaid {
		return PaymentIntentResult{}, fmt.Errorf("%w: order %s is %s", ErrPaymentInvalidState, order.ID, order.Status)
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	intent, err := s.gateway.CreateIntent(gatewayCtx, payments.IntentRequest{
		OrderID:        order.ID,
		Amount:         order.Totals.Total,
		Currency:       order.Currency,
		Method:         order.PaymentMethod,
		IdempotencyKey: order.ID,
	})
	if err != nil {
		// The order stays pending; the client retries begin-payment.
		s.logger(ctx, "payment.intent.failed", map[string]any{
			"orderId": order.ID,
			"error":   err.Error(),
		})
		return PaymentIntentResult{}, fmt.Errorf("%w: %v", ErrPaymentIntentFailed, err)
	}

	order.Payment.GatewayReference = intent.Reference
	order.Payment.Amount = order.Totals.Total
	order.Payment.Currency = order.Currency
	order.UpdatedAt = s.clock()

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		if repositories.IsConflict(err) {
			return PaymentIntentResult{}, fmt.Errorf("%w: %v", ErrOrderConflict, err)
		}
		return PaymentIntentResult{}, fmt.Errorf("payment begin: %w", err)
	}

	s.logger(ctx, "payment.intent.created", map[string]any{
		"orderId":          updated.ID,
		"gatewayReference": intent.Reference,
		"amount":           order.Totals.Total,
	})
	s.publish(ctx, OrderEvent{
		Type:          paymentEventIntentCreated,
		OrderID:       updated.ID,
		OwnerID:       updated.OwnerID,
		CurrentStatus: string(updated.Status),
		ActorID:       strings.TrimSpace(cmd.Actor),
		OccurredAt:    s.clock(),
		Metadata:      map[string]any{"gatewayReference": intent.Reference},
	})

	return PaymentIntentResult{
		OrderID:          updated.ID,
		GatewayReference: intent.Reference,
		ClientSecret:     intent.ClientSecret,
		Amount:           order.Totals.Total,
		Currency:         order.Currency,
	}, nil
}

func (s *paymentService) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (domain.Order, error) {
	order, err := s.load(ctx, cmd.OrderID)
	if err != nil {
		return domain.Order{}, err
	}

	reference := strings.TrimSpace(cmd.GatewayReference)

	// Idempotence check precedes every side effect: a duplicate delivery of
	// an already-verified confirmation changes nothing and succeeds.
	if order.Payment.Verified && order.Payment.GatewayReference == reference {
		return order, nil
	}

	payload := payments.CapturePayload{
		OrderID:          order.ID,
		GatewayReference: reference,
		Amount:           cmd.Amount,
		Currency:         strings.ToUpper(strings.TrimSpace(cmd.Currency)),
	}
	if err := s.verifier.Verify(payload, cmd.Signature); err != nil {
		s.logIntegrityIncident(ctx, order.ID, reference, "signature mismatch")
		return domain.Order{}, fmt.Errorf("%w: signature mismatch", ErrPaymentVerificationFailed)
	}
	if reference == "" || order.Payment.GatewayReference != reference {
		s.logIntegrityIncident(ctx, order.ID, reference, "unknown gateway reference")
		return domain.Order{}, fmt.Errorf("%w: gateway reference does not match order", ErrPaymentVerificationFailed)
	}
	if cmd.Amount != order.Totals.Total {
		s.logIntegrityIncident(ctx, order.ID, reference, "amount mismatch")
		return domain.Order{}, fmt.Errorf("%w: captured amount does not match order total", ErrPaymentVerificationFailed)
	}
	if payload.Currency != "" && payload.Currency != order.Currency {
		s.logIntegrityIncident(ctx, order.ID, reference, "currency mismatch")
		return domain.Order{}, fmt.Errorf("%w: captured currency does not match order", ErrPaymentVerificationFailed)
	}

	now := s.clock()
	order.IsPaid = true
	order.PaidAt = &now
	order.Payment.Verified = true
	order.Payment.VerifiedAt = &now
	order.Payment.Amount = cmd.Amount
	order.UpdatedAt = now

	// A verified capture normally drives pending -> processing. When the
	// order already left pending (for example a concurrent cancellation) the
	// money still moved, so the capture is recorded and flagged for manual
	// reconciliation instead of being rolled back.
	transitioned := false
	if order.Status == domain.OrderStatusPending {
		order.Status = domain.OrderStatusProcessing
		order.StatusHistory = append(order.StatusHistory, domain.StatusUpdate{
			Status:    domain.OrderStatusProcessing,
			Note:      "payment captured",
			Actor:     "payment-orchestrator",
			ActorRole: domain.ActorSystem,
			UpdatedAt: now,
		})
		transitioned = true
	} else {
		order.Payment.ReconciliationRequired = true
	}

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		if repositories.IsConflict(err) {
			return domain.Order{}, fmt.Errorf("%w: %v", ErrOrderConflict, err)
		}
		return domain.Order{}, fmt.Errorf("payment confirm: %w", err)
	}

	if !transitioned {
		s.logger(ctx, "payment.reconciliation.required", map[string]any{
			"orderId":          updated.ID,
			"status":           string(updated.Status),
			"gatewayReference": reference,
		})
		s.publish(ctx, OrderEvent{
			Type:          paymentEventReconciliation,
			OrderID:       updated.ID,
			OwnerID:       updated.OwnerID,
			CurrentStatus: string(updated.Status),
			ActorID:       "payment-orchestrator",
			OccurredAt:    now,
			Metadata:      map[string]any{"gatewayReference": reference},
		})
		return updated, fmt.Errorf("%w: order %s is %s", ErrPaymentReconciliationRequired, updated.ID, updated.Status)
	}

	s.logger(ctx, "payment.captured", map[string]any{
		"orderId":          updated.ID,
		"gatewayReference": reference,
		"amount":           cmd.Amount,
	})
	s.publish(ctx, OrderEvent{
		Type:           paymentEventCaptured,
		OrderID:        updated.ID,
		OwnerID:        updated.OwnerID,
		PreviousStatus: string(domain.OrderStatusPending),
		CurrentStatus:  string(updated.Status),
		ActorID:        "payment-orchestrator",
		OccurredAt:     now,
		Metadata:       map[string]any{"gatewayReference": reference},
	})
	return updated, nil
}

func (s *paymentService) Refund(ctx context.Context, cmd RefundCommand) (domain.Order, error) {
	actor := strings.TrimSpace(cmd.Actor)
	if actor == "" {
		return domain.Order{}, fmt.Errorf("%w: actor is required", ErrOrderInvalidInput)
	}

	order, err := s.load(ctx, cmd.OrderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Status == domain.OrderStatusRefunded {
		return order, nil
	}
	if !domain.CanTransition(order.Status, domain.OrderStatusRefunded) {
		return domain.Order{}, fmt.Errorf("%w: %s -> refunded", ErrOrderInvalidState, order.Status)
	}

	if order.IsPaid && order.Payment.GatewayReference != "" {
		gatewayCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if _, err := s.gateway.Refund(gatewayCtx, payments.RefundRequest{
			Reference:      order.Payment.GatewayReference,
			Reason:         cmd.Reason,
			IdempotencyKey: order.ID + ":refund",
		}); err != nil {
			s.logger(ctx, "payment.refund.failed", map[string]any{
				"orderId": order.ID,
				"error":   err.Error(),
			})
			return domain.Order{}, fmt.Errorf("%w: refund: %v", ErrPaymentIntentFailed, err)
		}
	}

	now := s.clock()
	previous := order.Status
	order.Status = domain.OrderStatusRefunded
	order.UpdatedAt = now
	order.StatusHistory = append(order.StatusHistory, domain.StatusUpdate{
		Status:    domain.OrderStatusRefunded,
		Note:      strings.TrimSpace(cmd.Reason),
		Actor:     actor,
		ActorRole: cmd.ActorRole,
		UpdatedAt: now,
	})

	updated, err := s.orders.Update(ctx, order)
	if err != nil {
		if repositories.IsConflict(err) {
			return domain.Order{}, fmt.Errorf("%w: %v", ErrOrderConflict, err)
		}
		return domain.Order{}, fmt.Errorf("payment refund: %w", err)
	}

	s.logger(ctx, "payment.refunded", map[string]any{
		"orderId": updated.ID,
		"from":    string(previous),
		"actor":   actor,
	})
	s.publish(ctx, OrderEvent{
		Type:           paymentEventRefunded,
		OrderID:        updated.ID,
		OwnerID:        updated.OwnerID,
		PreviousStatus: string(previous),
		CurrentStatus:  string(updated.Status),
		ActorID:        actor,
		OccurredAt:     now,
	})
	return updated, nil
}

func (s *paymentService) load(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.orders.FindByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Order{}, ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("payment load order: %w", err)
	}
	return order, nil
}

// logIntegrityIncident records a failed verification with enough detail for a
// security review. The full payload is deliberately omitted from logs.
func (s *paymentService) logIntegrityIncident(ctx context.Context, orderID, reference, reason string) {
	s.logger(ctx, "payment.verification.failed", map[string]any{
		"orderId":          orderID,
		"gatewayReference": reference,
		"reason":           reason,
	})
}

func (s *paymentService) publish(ctx context.Context, event OrderEvent) {
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
