package handlers

import (
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/services"
)

type addressPayload struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
}

type orderItemPayload struct {
	ProductID        string            `json:"productId"`
	VendorID         string            `json:"vendorId"`
	Name             string            `json:"name"`
	UnitPrice        int64             `json:"unitPrice"`
	Quantity         int               `json:"quantity"`
	Subtotal         int64             `json:"subtotal"`
	SelectedVariants map[string]string `json:"selectedVariants,omitempty"`
}

type totalsPayload struct {
	Items    int64 `json:"items"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

type statusUpdatePayload struct {
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
	Actor     string `json:"actor"`
	ActorRole string `json:"actorRole"`
	UpdatedAt string `json:"updatedAt"`
}

type paymentStatePayload struct {
	GatewayReference       string `json:"gatewayReference,omitempty"`
	Amount                 int64  `json:"amount,omitempty"`
	Currency               string `json:"currency,omitempty"`
	Verified               bool   `json:"verified"`
	VerifiedAt             string `json:"verifiedAt,omitempty"`
	ReconciliationRequired bool   `json:"reconciliationRequired,omitempty"`
}

type orderPayload struct {
	ID              string                `json:"id"`
	OwnerID         string                `json:"ownerId"`
	Status          string                `json:"status"`
	Items           []orderItemPayload    `json:"items"`
	Totals          totalsPayload         `json:"totals"`
	Currency        string                `json:"currency"`
	ShippingAddress addressPayload        `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
	IsPaid          bool                  `json:"isPaid"`
	PaidAt          string                `json:"paidAt,omitempty"`
	Payment         paymentStatePayload   `json:"payment"`
	TrackingNumber  string                `json:"trackingNumber,omitempty"`
	StatusHistory   []statusUpdatePayload `json:"statusHistory"`
	CancelReason    string                `json:"cancelReason,omitempty"`
	CreatedAt       string                `json:"createdAt"`
	UpdatedAt       string                `json:"updatedAt"`
}

type paginationPayload struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Count   int `json:"count"`
}

type orderListResponse struct {
	Data       []orderPayload    `json:"data"`
	Pagination paginationPayload `json:"pagination"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ProductID:        item.ProductID,
			VendorID:         item.VendorID,
			Name:             item.Name,
			UnitPrice:        item.UnitPrice,
			Quantity:         item.Quantity,
			Subtotal:         item.Subtotal(),
			SelectedVariants: item.SelectedVariants,
		})
	}

	history := make([]statusUpdatePayload, 0, len(order.StatusHistory))
	for _, update := range order.StatusHistory {
		history = append(history, statusUpdatePayload{
			Status:    string(update.Status),
			Note:      update.Note,
			Actor:     update.Actor,
			ActorRole: string(update.ActorRole),
			UpdatedAt: formatTime(update.UpdatedAt),
		})
	}

	cancelReason := ""
	if order.CancelReason != nil {
		cancelReason = *order.CancelReason
	}

	return orderPayload{
		ID:      order.ID,
		OwnerID: order.OwnerID,
		Status:  string(order.Status),
		Items:   items,
		Totals: totalsPayload{
			Items:    order.Totals.Items,
			Tax:      order.Totals.Tax,
			Shipping: order.Totals.Shipping,
			Discount: order.Totals.Discount,
			Total:    order.Totals.Total,
		},
		Currency: order.Currency,
		ShippingAddress: addressPayload{
			Street:  order.ShippingAddress.Street,
			City:    order.ShippingAddress.City,
			State:   order.ShippingAddress.State,
			ZipCode: order.ShippingAddress.ZipCode,
			Country: order.ShippingAddress.Country,
			Phone:   order.ShippingAddress.Phone,
		},
		PaymentMethod: order.PaymentMethod,
		IsPaid:        order.IsPaid,
		PaidAt:        formatTimePointer(order.PaidAt),
		Payment: paymentStatePayload{
			GatewayReference:       order.Payment.GatewayReference,
			Amount:                 order.Payment.Amount,
			Currency:               order.Payment.Currency,
			Verified:               order.Payment.Verified,
			VerifiedAt:             formatTimePointer(order.Payment.VerifiedAt),
			ReconciliationRequired: order.Payment.ReconciliationRequired,
		},
		TrackingNumber: order.TrackingNumber,
		StatusHistory:  history,
		CancelReason:   cancelReason,
		CreatedAt:      formatTime(order.CreatedAt),
		UpdatedAt:      formatTime(order.UpdatedAt),
	}
}

func buildOrderListResponse(page domain.Page[domain.Order]) orderListResponse {
	data := make([]orderPayload, 0, len(page.Items))
	for _, order := range page.Items {
		data = append(data, buildOrderPayload(order))
	}
	return orderListResponse{
		Data: data,
		Pagination: paginationPayload{
			Current: page.Pagination.Current,
			Total:   page.Pagination.Total,
			Count:   page.Pagination.Count,
		},
	}
}

type trackingEventPayload struct {
	Status     string `json:"status"`
	Note       string `json:"note,omitempty"`
	OccurredAt string `json:"occurredAt"`
}

type trackingItemPayload struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type trackingViewPayload struct {
	TrackingNumber  string                 `json:"trackingNumber"`
	OrderID         string                 `json:"orderId"`
	Status          string                 `json:"status"`
	Timeline        []trackingEventPayload `json:"timeline"`
	ShippingAddress addressPayload         `json:"shippingAddress"`
	Items           []trackingItemPayload  `json:"items"`
}

func buildTrackingPayload(view domain.TrackingView) trackingViewPayload {
	timeline := make([]trackingEventPayload, 0, len(view.Timeline))
	for _, event := range view.Timeline {
		timeline = append(timeline, trackingEventPayload{
			Status:     string(event.Status),
			Note:       event.Note,
			OccurredAt: formatTime(event.OccurredAt),
		})
	}
	items := make([]trackingItemPayload, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, trackingItemPayload{Name: item.Name, Quantity: item.Quantity})
	}
	return trackingViewPayload{
		TrackingNumber: view.TrackingNumber,
		OrderID:        view.OrderID,
		Status:         string(view.Status),
		Timeline:       timeline,
		ShippingAddress: addressPayload{
			Street:  view.ShippingAddress.Street,
			City:    view.ShippingAddress.City,
			State:   view.ShippingAddress.State,
			ZipCode: view.ShippingAddress.ZipCode,
			Country: view.ShippingAddress.Country,
			Phone:   view.ShippingAddress.Phone,
		},
		Items: items,
	}
}

type customerRankPayload struct {
	OwnerID    string `json:"ownerId"`
	OrderCount int    `json:"orderCount"`
	TotalSpent int64  `json:"totalSpent"`
}

type analyticsPayload struct {
	TotalOrders    int                   `json:"totalOrders"`
	TotalRevenue   int64                 `json:"totalRevenue"`
	CountsByStatus map[string]int        `json:"countsByStatus"`
	TodayOrders    int                   `json:"todayOrders"`
	TodayRevenue   int64                 `json:"todayRevenue"`
	TopCustomers   []customerRankPayload `json:"topCustomers"`
	GeneratedAt    string                `json:"generatedAt"`
}

func buildAnalyticsPayload(snapshot services.AnalyticsSnapshot) analyticsPayload {
	counts := make(map[string]int, len(snapshot.CountsByStatus))
	for status, count := range snapshot.CountsByStatus {
		counts[string(status)] = count
	}
	customers := make([]customerRankPayload, 0, len(snapshot.TopCustomers))
	for _, rank := range snapshot.TopCustomers {
		customers = append(customers, customerRankPayload{
			OwnerID:    rank.OwnerID,
			OrderCount: rank.OrderCount,
			TotalSpent: rank.TotalSpent,
		})
	}
	return analyticsPayload{
		TotalOrders:    snapshot.TotalOrders,
		TotalRevenue:   snapshot.TotalRevenue,
		CountsByStatus: counts,
		TodayOrders:    snapshot.TodayOrders,
		TodayRevenue:   snapshot.TodayRevenue,
		TopCustomers:   customers,
		GeneratedAt:    formatTime(snapshot.GeneratedAt),
	}
}
