package services

import "errors"

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidState indicates an illegal status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrCancellationNotPermitted indicates the cancellation policy rejected
	// the request for the acting role.
	ErrCancellationNotPermitted = errors.New("order: cancellation not permitted")
	// ErrOrderConflict indicates an optimistic concurrency conflict; callers
	// reload and retry.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrForbidden indicates the requester does not own the targeted order.
	ErrForbidden = errors.New("order: forbidden")

	// ErrPaymentInvalidState indicates the order is not in a payable state.
	ErrPaymentInvalidState = errors.New("payment: order not payable")
	// ErrPaymentIntentFailed indicates the gateway rejected or timed out the
	// intent phase. The order stays pending and the client may retry.
	ErrPaymentIntentFailed = errors.New("payment: intent failed")
	// ErrPaymentVerificationFailed indicates the capture signature or payload
	// did not verify. Logged as an integrity incident.
	ErrPaymentVerificationFailed = errors.New("payment: verification failed")
	// ErrPaymentReconciliationRequired indicates money was captured but the
	// order could not move to processing; a refund escalation owns cleanup.
	ErrPaymentReconciliationRequired = errors.New("payment: reconciliation required")

	// ErrTrackingNotFound indicates no shipment carries the tracking number.
	ErrTrackingNotFound = errors.New("tracking: not found")
)
