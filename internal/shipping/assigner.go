// Package shipping holds the tracking-number collaborator consumed by the
// order lifecycle when an order first ships.
package shipping

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
)

// TrackingAssigner produces the tracking number recorded on an order's first
// transition into shipped. Implementations may call out to a carrier; the
// default mints an opaque local token.
type TrackingAssigner interface {
	AssignTrackingNumber(ctx context.Context, order domain.Order) (string, error)
}

const trackingPrefix = "TRK-"

// CarrierTokenAssigner mints ULID-based tracking tokens. Tokens are unique and
// carry no order information, so the public tracking endpoint leaks nothing
// guessable.
type CarrierTokenAssigner struct {
	clock func() time.Time
}

// NewCarrierTokenAssigner constructs the default assigner. A nil clock falls
// back to time.Now.
func NewCarrierTokenAssigner(clock func() time.Time) *CarrierTokenAssigner {
	if clock == nil {
		clock = time.Now
	}
	return &CarrierTokenAssigner{clock: clock}
}

var _ TrackingAssigner = (*CarrierTokenAssigner)(nil)

// AssignTrackingNumber returns a fresh carrier token for the order.
func (a *CarrierTokenAssigner) AssignTrackingNumber(_ context.Context, order domain.Order) (string, error) {
	if strings.TrimSpace(order.ID) == "" {
		return "", errors.New("shipping: order id is required")
	}
	id, err := ulid.New(ulid.Timestamp(a.clock().UTC()), rand.Reader)
	if err != nil {
		return "", err
	}
	return trackingPrefix + id.String(), nil
}
