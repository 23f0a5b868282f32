// Package payments defines the gateway contract used by the payment
// orchestrator and the capture-signature verification that guards the
// confirmation phase.
package payments

import (
	"context"
	"errors"
	"time"
)

// Status is the normalised gateway-side state of a payment intent.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

var ErrGatewayUnavailable = errors.New("payments: gateway unavailable")

// IntentRequest asks the gateway to open a payment intent for an order. The
// amount is in minor currency units and already includes tax, shipping, and
// discounts.
type IntentRequest struct {
	OrderID        string
	Amount         int64
	Currency       string
	Method         string
	IdempotencyKey string
	Metadata       map[string]string
}

// Intent is the gateway's handle for an opened payment. The reference is the
// correlation key stored on the order and echoed back at capture time.
type Intent struct {
	Reference    string
	ClientSecret string
	Status       Status
	Amount       int64
	Currency     string
	CreatedAt    time.Time
}

// RefundRequest reverses a captured payment, fully when Amount is nil.
type RefundRequest struct {
	Reference      string
	Amount         *int64
	Reason         string
	IdempotencyKey string
}

// PaymentDetails is the gateway's view of an intent at lookup time.
type PaymentDetails struct {
	Reference  string
	Status     Status
	Amount     int64
	Currency   string
	Captured   bool
	CapturedAt *time.Time
	RefundedAt *time.Time
}

// Provider abstracts the payment gateway. Implementations must be safe for
// concurrent use.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	LookupIntent(ctx context.Context, reference string) (PaymentDetails, error)
	Refund(ctx context.Context, req RefundRequest) (PaymentDetails, error)
}
