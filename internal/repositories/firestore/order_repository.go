// Package firestore implements the order store on Cloud Firestore. Writes go
// through transactions that check a version field, giving the same optimistic
// concurrency semantics as the in-memory store.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
	platformfs "github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/firestore"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/repositories"
)

const defaultOrdersCollection = "orders"

// OrderRepository persists order aggregates in a Firestore collection.
type OrderRepository struct {
	provider   *platformfs.Provider
	base       *platformfs.BaseRepository[orderDocument]
	collection string
}

// NewOrderRepository wires the repository against the shared provider.
func NewOrderRepository(provider *platformfs.Provider, collection string) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("firestore: provider is required")
	}
	name := strings.TrimSpace(collection)
	if name == "" {
		name = defaultOrdersCollection
	}
	base := platformfs.NewBaseRepository[orderDocument](
		provider,
		name,
		platformfs.IdentityEncoder[orderDocument](),
		platformfs.StructDecoder[orderDocument](),
	)
	return &OrderRepository{provider: provider, base: base, collection: name}, nil
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// Insert creates the order document at version 1, failing on an existing ID.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return domain.Order{}, repositories.NewConflictError("firestore: order id is required")
	}
	order.Version = 1
	doc := fromDomainOrder(order)

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, repositories.NewUnavailableError("firestore: orders insert", err)
	}
	if _, err := client.Collection(r.collection).Doc(id).Create(ctx, doc); err != nil {
		return domain.Order{}, wrapStoreError("orders insert", err)
	}
	return order, nil
}

// FindByID loads one order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.base.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.Order{}, wrapStoreError("orders get", err)
	}
	return doc.Data.toDomain(), nil
}

// FindByTrackingNumber resolves the single order carrying the tracking number.
func (r *OrderRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (domain.Order, error) {
	token := strings.TrimSpace(trackingNumber)
	if token == "" {
		return domain.Order{}, repositories.NewNotFoundError("firestore: order not found")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("trackingNumber", "==", token).Limit(1)
	})
	if err != nil {
		return domain.Order{}, wrapStoreError("orders tracking lookup", err)
	}
	if len(docs) == 0 {
		return domain.Order{}, repositories.NewNotFoundError("firestore: order not found")
	}
	return docs[0].Data.toDomain(), nil
}

// Update commits the order inside a transaction. The stored version must equal
// the version on the supplied order; the committed document carries version+1.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) (domain.Order, error) {
	id := strings.TrimSpace(order.ID)
	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return domain.Order{}, wrapStoreError("orders update", err)
	}

	committed := order
	committed.Version = order.Version + 1
	doc := fromDomainOrder(committed)

	txErr := r.provider.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var current orderDocument
		if err := snap.DataTo(&current); err != nil {
			return fmt.Errorf("decode order %s: %w", id, err)
		}
		if current.Version != order.Version {
			return status.Error(codes.Aborted, fmt.Sprintf("order %s version %d is stale", id, order.Version))
		}
		return tx.Set(ref, doc)
	})
	if txErr != nil {
		return domain.Order{}, wrapStoreError("orders update", txErr)
	}
	return committed, nil
}

// Query returns one page of matches plus the total count. Firestore carries
// the indexable constraints; search and amount ranges are applied in memory
// over the scoped result set before slicing the page.
func (r *OrderRepository) Query(ctx context.Context, filter repositories.OrderListFilter, page, limit int) ([]domain.Order, int, error) {
	if page < 1 || limit < 1 {
		return nil, 0, repositories.NewConflictError("firestore: page and limit must be positive")
	}

	matches, err := r.ListAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	count := len(matches)
	start := (page - 1) * limit
	if start >= count {
		return []domain.Order{}, count, nil
	}
	end := start + limit
	if end > count {
		end = count
	}
	return matches[start:end], count, nil
}

// ListAll returns every match in the filter scope, newest first.
func (r *OrderRepository) ListAll(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if owner := strings.TrimSpace(filter.OwnerID); owner != "" {
			q = q.Where("ownerId", "==", owner)
		}
		if vendor := strings.TrimSpace(filter.VendorID); vendor != "" {
			q = q.Where("vendorIds", "array-contains", vendor)
		}
		if len(filter.Statuses) == 1 {
			q = q.Where("status", "==", string(filter.Statuses[0]))
		}
		if filter.CreatedAt.From != nil {
			q = q.Where("createdAt", ">=", *filter.CreatedAt.From)
		}
		if filter.CreatedAt.To != nil {
			q = q.Where("createdAt", "<=", *filter.CreatedAt.To)
		}
		return q.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, wrapStoreError("orders query", err)
	}

	matches := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order := doc.Data.toDomain()
		if !matchesResidualFilter(order, filter) {
			continue
		}
		matches = append(matches, order)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

// matchesResidualFilter applies the constraints Firestore cannot index
// alongside the scoped query: multi-status sets, amount ranges, and search.
func matchesResidualFilter(order domain.Order, filter repositories.OrderListFilter) bool {
	if len(filter.Statuses) > 1 {
		found := false
		for _, s := range filter.Statuses {
			if s == order.Status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Total.From != nil && order.Totals.Total < *filter.Total.From {
		return false
	}
	if filter.Total.To != nil && order.Totals.Total > *filter.Total.To {
		return false
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		needle := strings.ToLower(search)
		if !strings.Contains(strings.ToLower(order.ID), needle) &&
			!strings.Contains(strings.ToLower(order.OwnerID), needle) {
			return false
		}
	}
	return true
}

func wrapStoreError(op string, err error) error {
	wrapped := platformfs.WrapError(op, err)
	var fsErr *platformfs.Error
	if errors.As(wrapped, &fsErr) {
		switch {
		case fsErr.IsNotFound():
			return repositories.NewNotFoundError("firestore: order not found")
		case fsErr.IsConflict():
			return repositories.NewConflictError(fsErr.Error())
		}
	}
	return repositories.NewUnavailableError("firestore: "+op, err)
}

type orderDocument struct {
	ID              string              `firestore:"id"`
	OwnerID         string              `firestore:"ownerId"`
	VendorIDs       []string            `firestore:"vendorIds"`
	Items           []orderItemDocument `firestore:"items"`
	ItemsPrice      int64               `firestore:"itemsPrice"`
	TaxPrice        int64               `firestore:"taxPrice"`
	ShippingPrice   int64               `firestore:"shippingPrice"`
	DiscountAmount  int64               `firestore:"discountAmount"`
	TotalPrice      int64               `firestore:"totalPrice"`
	Currency        string              `firestore:"currency"`
	ShippingAddress addressDocument     `firestore:"shippingAddress"`
	Status          string              `firestore:"status"`
	PaymentMethod   string              `firestore:"paymentMethod"`
	IsPaid          bool                `firestore:"isPaid"`
	PaidAt          *time.Time          `firestore:"paidAt,omitempty"`
	Payment         paymentDocument     `firestore:"payment"`
	TrackingNumber  string              `firestore:"trackingNumber,omitempty"`
	StatusHistory   []statusDocument    `firestore:"statusHistory"`
	CancelReason    *string             `firestore:"cancelReason,omitempty"`
	CreatedAt       time.Time           `firestore:"createdAt"`
	UpdatedAt       time.Time           `firestore:"updatedAt"`
	Version         int64               `firestore:"version"`
}

type orderItemDocument struct {
	ProductID        string            `firestore:"productId"`
	VendorID         string            `firestore:"vendorId"`
	Name             string            `firestore:"name"`
	UnitPrice        int64             `firestore:"unitPrice"`
	Quantity         int               `firestore:"quantity"`
	SelectedVariants map[string]string `firestore:"selectedVariants,omitempty"`
}

type addressDocument struct {
	Street  string `firestore:"street"`
	City    string `firestore:"city"`
	State   string `firestore:"state"`
	ZipCode string `firestore:"zipCode"`
	Country string `firestore:"country"`
	Phone   string `firestore:"phone,omitempty"`
}

type paymentDocument struct {
	GatewayReference       string     `firestore:"gatewayReference,omitempty"`
	Amount                 int64      `firestore:"amount"`
	Currency               string     `firestore:"currency,omitempty"`
	Verified               bool       `firestore:"verified"`
	VerifiedAt             *time.Time `firestore:"verifiedAt,omitempty"`
	ReconciliationRequired bool       `firestore:"reconciliationRequired"`
}

type statusDocument struct {
	Status    string    `firestore:"status"`
	Note      string    `firestore:"note,omitempty"`
	Actor     string    `firestore:"actor"`
	ActorRole string    `firestore:"actorRole"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func fromDomainOrder(order domain.Order) orderDocument {
	doc := orderDocument{
		ID:             order.ID,
		OwnerID:        order.OwnerID,
		VendorIDs:      vendorIDs(order),
		ItemsPrice:     order.Totals.Items,
		TaxPrice:       order.Totals.Tax,
		ShippingPrice:  order.Totals.Shipping,
		DiscountAmount: order.Totals.Discount,
		TotalPrice:     order.Totals.Total,
		Currency:       order.Currency,
		ShippingAddress: addressDocument{
			Street:  order.ShippingAddress.Street,
			City:    order.ShippingAddress.City,
			State:   order.ShippingAddress.State,
			ZipCode: order.ShippingAddress.ZipCode,
			Country: order.ShippingAddress.Country,
			Phone:   order.ShippingAddress.Phone,
		},
		Status:        string(order.Status),
		PaymentMethod: order.PaymentMethod,
		IsPaid:        order.IsPaid,
		PaidAt:        order.PaidAt,
		Payment: paymentDocument{
			GatewayReference:       order.Payment.GatewayReference,
			Amount:                 order.Payment.Amount,
			Currency:               order.Payment.Currency,
			Verified:               order.Payment.Verified,
			VerifiedAt:             order.Payment.VerifiedAt,
			ReconciliationRequired: order.Payment.ReconciliationRequired,
		},
		TrackingNumber: order.TrackingNumber,
		CancelReason:   order.CancelReason,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
		Version:        order.Version,
	}
	for _, item := range order.Items {
		doc.Items = append(doc.Items, orderItemDocument{
			ProductID:        item.ProductID,
			VendorID:         item.VendorID,
			Name:             item.Name,
			UnitPrice:        item.UnitPrice,
			Quantity:         item.Quantity,
			SelectedVariants: item.SelectedVariants,
		})
	}
	for _, update := range order.StatusHistory {
		doc.StatusHistory = append(doc.StatusHistory, statusDocument{
			Status:    string(update.Status),
			Note:      update.Note,
			Actor:     update.Actor,
			ActorRole: string(update.ActorRole),
			UpdatedAt: update.UpdatedAt,
		})
	}
	return doc
}

func (d orderDocument) toDomain() domain.Order {
	order := domain.Order{
		ID:      d.ID,
		OwnerID: d.OwnerID,
		Totals: domain.OrderTotals{
			Items:    d.ItemsPrice,
			Tax:      d.TaxPrice,
			Shipping: d.ShippingPrice,
			Discount: d.DiscountAmount,
			Total:    d.TotalPrice,
		},
		Currency: d.Currency,
		ShippingAddress: domain.Address{
			Street:  d.ShippingAddress.Street,
			City:    d.ShippingAddress.City,
			State:   d.ShippingAddress.State,
			ZipCode: d.ShippingAddress.ZipCode,
			Country: d.ShippingAddress.Country,
			Phone:   d.ShippingAddress.Phone,
		},
		Status:        domain.OrderStatus(d.Status),
		PaymentMethod: d.PaymentMethod,
		IsPaid:        d.IsPaid,
		PaidAt:        d.PaidAt,
		Payment: domain.PaymentState{
			GatewayReference:       d.Payment.GatewayReference,
			Amount:                 d.Payment.Amount,
			Currency:               d.Payment.Currency,
			Verified:               d.Payment.Verified,
			VerifiedAt:             d.Payment.VerifiedAt,
			ReconciliationRequired: d.Payment.ReconciliationRequired,
		},
		TrackingNumber: d.TrackingNumber,
		CancelReason:   d.CancelReason,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		Version:        d.Version,
	}
	for _, item := range d.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:        item.ProductID,
			VendorID:         item.VendorID,
			Name:             item.Name,
			UnitPrice:        item.UnitPrice,
			Quantity:         item.Quantity,
			SelectedVariants: item.SelectedVariants,
		})
	}
	for _, update := range d.StatusHistory {
		order.StatusHistory = append(order.StatusHistory, domain.StatusUpdate{
			Status:    domain.OrderStatus(update.Status),
			Note:      update.Note,
			Actor:     update.Actor,
			ActorRole: domain.ActorRole(update.ActorRole),
			UpdatedAt: update.UpdatedAt,
		})
	}
	return order
}

func vendorIDs(order domain.Order) []string {
	seen := make(map[string]struct{}, len(order.Items))
	var ids []string
	for _, item := range order.Items {
		if item.VendorID == "" {
			continue
		}
		if _, ok := seen[item.VendorID]; ok {
			continue
		}
		seen[item.VendorID] = struct{}{}
		ids = append(ids, item.VendorID)
	}
	sort.Strings(ids)
	return ids
}
