package domain

import (
	"time"
)

// ActorRole identifies which audience triggered an operation. The engine trusts
// the role supplied by the identity layer; it never re-derives it.
type ActorRole string

const (
	// ActorCustomer is the purchasing account acting on its own orders.
	ActorCustomer ActorRole = "customer"
	// ActorVendor is a seller fulfilling items it owns inside an order.
	ActorVendor ActorRole = "vendor"
	// ActorAdmin is back-office staff with unrestricted order access.
	ActorAdmin ActorRole = "admin"
	// ActorSystem marks transitions driven by the engine itself, e.g. a verified
	// payment capture moving an order into processing.
	ActorSystem ActorRole = "system"
)

// Address captures the shipping destination recorded at checkout. Immutable after
// order creation.
type Address struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
	Phone   string
}

// OrderItem is a purchased line item. The unit price is frozen at creation time.
type OrderItem struct {
	ProductID        string
	VendorID         string
	Name             string
	UnitPrice        int64
	Quantity         int
	SelectedVariants map[string]string
}

// Subtotal returns the line total in minor currency units.
func (i OrderItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// OrderTotals carries the money breakdown for an order in minor currency units.
// The invariant Total == Items + Tax + Shipping - Discount holds from creation
// onward; nothing in the engine mutates totals after the order is persisted.
type OrderTotals struct {
	Items    int64
	Tax      int64
	Shipping int64
	Discount int64
	Total    int64
}

// Consistent reports whether the totals satisfy the money invariant.
func (t OrderTotals) Consistent() bool {
	return t.Total == t.Items+t.Tax+t.Shipping-t.Discount
}

// StatusUpdate is one immutable audit entry appended when a status transition is
// accepted. Entries are never reordered or deleted; UpdatedAt is non-decreasing
// across the sequence.
type StatusUpdate struct {
	Status    OrderStatus
	Note      string
	Actor     string
	ActorRole ActorRole
	UpdatedAt time.Time
}

// PaymentState tracks the gateway-correlated payment fields on an order.
type PaymentState struct {
	GatewayReference string
	Amount           int64
	Currency         string
	Verified         bool
	VerifiedAt       *time.Time

	// ReconciliationRequired flags a capture that succeeded after the order had
	// already left pending (e.g. a concurrent cancellation). Money moved but the
	// status did not; a refund escalation owns the cleanup.
	ReconciliationRequired bool
}

// Order is the aggregate record of one purchase and the single consistency
// boundary for its state. Status mutates only through the transition table;
// payment fields mutate only through the payment orchestrator.
type Order struct {
	ID              string
	OwnerID         string
	Items           []OrderItem
	Totals          OrderTotals
	Currency        string
	ShippingAddress Address
	Status          OrderStatus
	PaymentMethod   string
	IsPaid          bool
	PaidAt          *time.Time
	Payment         PaymentState
	TrackingNumber  string
	StatusHistory   []StatusUpdate
	CancelReason    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Version is the optimistic-concurrency token managed by the order store.
	// Two writers racing on the same version cannot both commit.
	Version int64
}

// ContainsVendor reports whether any line item belongs to the given vendor.
func (o Order) ContainsVendor(vendorID string) bool {
	for _, item := range o.Items {
		if item.VendorID == vendorID {
			return true
		}
	}
	return false
}

// ItemsForVendor returns only the line items owned by the given vendor, so a
// vendor view never exposes other sellers' lines from a mixed order.
func (o Order) ItemsForVendor(vendorID string) []OrderItem {
	var items []OrderItem
	for _, item := range o.Items {
		if item.VendorID == vendorID {
			items = append(items, item)
		}
	}
	return items
}

// TrackingEvent is one customer-facing timeline entry derived from the audit trail.
type TrackingEvent struct {
	Status     OrderStatus
	Note       string
	OccurredAt time.Time
}

// TrackingItem is the reduced item summary exposed on the public tracking view.
type TrackingItem struct {
	Name     string
	Quantity int
}

// TrackingView is the read-only shipment projection looked up by tracking number.
type TrackingView struct {
	TrackingNumber  string
	OrderID         string
	Status          OrderStatus
	Timeline        []TrackingEvent
	ShippingAddress Address
	Items           []TrackingItem
}

// PageInfo describes the pagination envelope returned by list operations.
// Current is the 1-indexed page served, Total the total page count, and Count
// the total number of matching records.
type PageInfo struct {
	Current int
	Total   int
	Count   int
}

// Page bundles one page of results with its pagination envelope. A request past
// the last page yields an empty Items slice, not an error.
type Page[T any] struct {
	Items      []T
	Pagination PageInfo
}

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}
