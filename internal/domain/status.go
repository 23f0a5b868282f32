package domain

import (
	"slices"
	"strings"
)

// OrderStatus enumerates the closed set of order lifecycle states. Unknown
// literals are rejected at the boundary by ParseOrderStatus; the transition
// table below is the only authority on which moves are legal.
type OrderStatus string

const (
	// OrderStatusPending is the initial state: created, awaiting payment.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing means payment is captured and fulfilment may begin.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped means goods are in transit under a tracking number.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered means the customer accepted the goods.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled means the order was abandoned before completion.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusRefunded means money was returned after capture.
	OrderStatusRefunded OrderStatus = "refunded"
)

// orderStatusTransitions is the directed edge set of legal status moves. Any
// pair not listed is rejected. Refund is operator-triggered and distinct from
// cancellation; delivered admits only that single outgoing edge.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusDelivered:  {OrderStatusRefunded},
}

// customerCancellableStatuses limits the customer-initiated cancel path. Once
// shipped, only an operator may still drive the cancelled edge.
var customerCancellableStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
}

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// ParseOrderStatus normalises a raw status literal, reporting whether it names
// a recognised state.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := validOrderStatuses[status]; !ok {
		return "", false
	}
	return status, true
}

// CanTransition reports whether the (current, target) edge exists. A move to
// the current status is treated as legal so callers can implement idempotent
// retries without consulting the table themselves.
func CanTransition(current, target OrderStatus) bool {
	if current == target {
		return true
	}
	next, ok := orderStatusTransitions[current]
	if !ok {
		return false
	}
	return slices.Contains(next, target)
}

// IsTerminalStatus reports whether the status admits no outgoing transitions.
func IsTerminalStatus(status OrderStatus) bool {
	return len(orderStatusTransitions[status]) == 0
}

// RevenueCountsFor reports whether orders in the status contribute to revenue.
// Cancelled and refunded orders never do.
func RevenueCountsFor(status OrderStatus) bool {
	return status != OrderStatusCancelled && status != OrderStatusRefunded
}

// CustomerCanCancel is the cancellation policy for the owning customer: true
// only while the order is pending or processing. Elevated actors bypass this
// predicate by invoking the transition through the operator path.
func CustomerCanCancel(status OrderStatus) bool {
	return slices.Contains(customerCancellableStatuses, status)
}
