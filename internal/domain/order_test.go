package domain

import "testing"

func TestOrderTotalsConsistent(t *testing.T) {
	cases := []struct {
		name   string
		totals OrderTotals
		want   bool
	}{
		{"balanced", OrderTotals{Items: 6000, Tax: 600, Shipping: 400, Discount: 500, Total: 6500}, true},
		{"zero order", OrderTotals{}, true},
		{"free shipping", OrderTotals{Items: 1000, Total: 1000}, true},
		{"drifted total", OrderTotals{Items: 1000, Tax: 100, Total: 1200}, false},
		{"discount ignored", OrderTotals{Items: 1000, Discount: 200, Total: 1000}, false},
	}
	for _, tc := range cases {
		if got := tc.totals.Consistent(); got != tc.want {
			t.Errorf("%s: Consistent() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestOrderItemSubtotal(t *testing.T) {
	item := OrderItem{UnitPrice: 1250, Quantity: 3}
	if got := item.Subtotal(); got != 3750 {
		t.Fatalf("Subtotal() = %d, want 3750", got)
	}
}

func TestItemsForVendor(t *testing.T) {
	order := Order{Items: []OrderItem{
		{ProductID: "p1", VendorID: "vend_1"},
		{ProductID: "p2", VendorID: "vend_2"},
		{ProductID: "p3", VendorID: "vend_1"},
	}}

	if !order.ContainsVendor("vend_2") || order.ContainsVendor("vend_9") {
		t.Fatal("ContainsVendor gave wrong answer")
	}

	items := order.ItemsForVendor("vend_1")
	if len(items) != 2 || items[0].ProductID != "p1" || items[1].ProductID != "p3" {
		t.Fatalf("unexpected vendor items: %+v", items)
	}
	if got := order.ItemsForVendor("vend_9"); got != nil {
		t.Fatalf("expected nil for unknown vendor, got %+v", got)
	}
}
