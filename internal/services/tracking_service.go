package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/repositories"
)

// TrackingServiceDeps bundles collaborators for the tracking correlator.
type TrackingServiceDeps struct {
	Orders repositories.OrderRepository
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type trackingService struct {
	orders repositories.OrderRepository
	logger func(context.Context, string, map[string]any)
}

// NewTrackingService wires dependencies into a concrete TrackingService implementation.
func NewTrackingService(deps TrackingServiceDeps) (TrackingService, error) {
	if deps.Orders == nil {
		return nil, errors.New("tracking service: order repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &trackingService{orders: deps.Orders, logger: logger}, nil
}

// TrackByNumber resolves a tracking number to the public shipment view. The
// view exposes the status timeline, destination, and item summaries but never
// payment or pricing data; the endpoint is unauthenticated.
func (s *trackingService) TrackByNumber(ctx context.Context, trackingNumber string) (domain.TrackingView, error) {
	token := strings.TrimSpace(trackingNumber)
	if token == "" {
		return domain.TrackingView{}, ErrTrackingNotFound
	}

	order, err := s.orders.FindByTrackingNumber(ctx, token)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.TrackingView{}, ErrTrackingNotFound
		}
		return domain.TrackingView{}, fmt.Errorf("tracking lookup: %w", err)
	}

	view := domain.TrackingView{
		TrackingNumber:  order.TrackingNumber,
		OrderID:         order.ID,
		Status:          order.Status,
		ShippingAddress: order.ShippingAddress,
	}
	for _, update := range order.StatusHistory {
		view.Timeline = append(view.Timeline, domain.TrackingEvent{
			Status:     update.Status,
			Note:       update.Note,
			OccurredAt: update.UpdatedAt,
		})
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, domain.TrackingItem{
			Name:     item.Name,
			Quantity: item.Quantity,
		})
	}
	return view, nil
}
