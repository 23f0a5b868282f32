package memory

import (
	"context"
	"testing"
	"time"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/domain"
	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/repositories"
)

func seedOrder(id, owner string, status domain.OrderStatus, total int64, createdAt time.Time) domain.Order {
	return domain.Order{
		ID:      id,
		OwnerID: owner,
		Items: []domain.OrderItem{{
			ProductID: "prod_1",
			VendorID:  "vend_1",
			Name:      "Widget",
			UnitPrice: total,
			Quantity:  1,
		}},
		Totals:    domain.OrderTotals{Items: total, Total: total},
		Currency:  "USD",
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestOrderRepositoryInsertAndFind(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	created, err := repo.Insert(ctx, seedOrder("ord_1", "user_1", domain.OrderStatusPending, 2500, time.Now()))
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if created.Version != 1 {
		t.Fatalf("expected version 1 after insert, got %d", created.Version)
	}

	if _, err := repo.Insert(ctx, seedOrder("ord_1", "user_1", domain.OrderStatusPending, 2500, time.Now())); !repositories.IsConflict(err) {
		t.Fatalf("expected conflict on duplicate insert, got %v", err)
	}

	found, err := repo.FindByID(ctx, "ord_1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if found.OwnerID != "user_1" {
		t.Fatalf("unexpected owner %q", found.OwnerID)
	}

	if _, err := repo.FindByID(ctx, "ord_missing"); !repositories.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOrderRepositoryOptimisticVersioning(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	created, err := repo.Insert(ctx, seedOrder("ord_1", "user_1", domain.OrderStatusPending, 2500, time.Now()))
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	first := created
	first.Status = domain.OrderStatusProcessing
	updated, err := repo.Update(ctx, first)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2, got %d", updated.Version)
	}

	// A second writer still holding version 1 must lose.
	stale := created
	stale.Status = domain.OrderStatusCancelled
	if _, err := repo.Update(ctx, stale); !repositories.IsConflict(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	final, err := repo.FindByID(ctx, "ord_1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if final.Status != domain.OrderStatusProcessing {
		t.Fatalf("stale writer overwrote state: %s", final.Status)
	}
}

func TestOrderRepositoryReturnsCopies(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	order := seedOrder("ord_1", "user_1", domain.OrderStatusPending, 2500, time.Now())
	order.StatusHistory = []domain.StatusUpdate{{Status: domain.OrderStatusPending, Actor: "user_1"}}
	if _, err := repo.Insert(ctx, order); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	got, err := repo.FindByID(ctx, "ord_1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	got.StatusHistory[0].Actor = "tampered"
	got.Items[0].Name = "tampered"

	again, err := repo.FindByID(ctx, "ord_1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if again.StatusHistory[0].Actor != "user_1" || again.Items[0].Name != "Widget" {
		t.Fatal("stored order was mutated through a returned copy")
	}
}

func TestOrderRepositoryQueryFiltersAndPaginates(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	seeds := []domain.Order{
		seedOrder("ord_1", "user_1", domain.OrderStatusPending, 1000, base),
		seedOrder("ord_2", "user_1", domain.OrderStatusShipped, 3000, base.Add(time.Hour)),
		seedOrder("ord_3", "user_2", domain.OrderStatusCancelled, 2000, base.Add(2*time.Hour)),
		seedOrder("ord_4", "user_1", domain.OrderStatusDelivered, 5000, base.Add(3*time.Hour)),
	}
	for _, seed := range seeds {
		if _, err := repo.Insert(ctx, seed); err != nil {
			t.Fatalf("Insert %s returned error: %v", seed.ID, err)
		}
	}

	items, count, err := repo.Query(ctx, repositories.OrderListFilter{OwnerID: "user_1"}, 1, 2)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
	if len(items) != 2 || items[0].ID != "ord_4" || items[1].ID != "ord_2" {
		t.Fatalf("unexpected page ordering: %+v", items)
	}

	// A page past the end is empty data, not an error.
	items, count, err = repo.Query(ctx, repositories.OrderListFilter{OwnerID: "user_1"}, 9, 2)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(items) != 0 || count != 3 {
		t.Fatalf("expected empty page with count 3, got %d items count %d", len(items), count)
	}

	minTotal := int64(1500)
	items, _, err = repo.Query(ctx, repositories.OrderListFilter{
		Statuses: []domain.OrderStatus{domain.OrderStatusShipped, domain.OrderStatusDelivered},
		Total:    domain.RangeQuery[int64]{From: &minTotal},
	}, 1, 10)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(items))
	}

	items, _, err = repo.Query(ctx, repositories.OrderListFilter{Search: "ORD_3"}, 1, 10)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "ord_3" {
		t.Fatalf("search did not match: %+v", items)
	}
}

func TestOrderRepositoryQueryVendorScope(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	mixed := seedOrder("ord_1", "user_1", domain.OrderStatusProcessing, 4000, time.Now())
	mixed.Items = append(mixed.Items, domain.OrderItem{ProductID: "prod_2", VendorID: "vend_2", Name: "Gadget", UnitPrice: 1500, Quantity: 1})
	other := seedOrder("ord_2", "user_2", domain.OrderStatusProcessing, 1000, time.Now())

	for _, seed := range []domain.Order{mixed, other} {
		if _, err := repo.Insert(ctx, seed); err != nil {
			t.Fatalf("Insert returned error: %v", err)
		}
	}

	items, count, err := repo.Query(ctx, repositories.OrderListFilter{VendorID: "vend_2"}, 1, 10)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if count != 1 || len(items) != 1 || items[0].ID != "ord_1" {
		t.Fatalf("vendor scope mismatch: count %d items %+v", count, items)
	}
}
