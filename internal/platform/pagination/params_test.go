package pagination

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestFromRequestDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/orders", nil)
	params, err := FromRequest(r, Options{})
	if err != nil {
		t.Fatalf("FromRequest returned error: %v", err)
	}
	if params.Page != 1 || params.Limit != 10 {
		t.Fatalf("unexpected defaults: %+v", params)
	}
}

func TestFromRequestParsesAndCaps(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/orders?page=3&limit=500", nil)
	params, err := FromRequest(r, Options{DefaultLimit: 20, MaxLimit: 50})
	if err != nil {
		t.Fatalf("FromRequest returned error: %v", err)
	}
	if params.Page != 3 || params.Limit != 50 {
		t.Fatalf("unexpected params: %+v", params)
	}
}

func TestFromRequestRejectsInvalid(t *testing.T) {
	for _, query := range []string{"page=0", "page=-1", "page=abc", "limit=0", "limit=nope"} {
		r := httptest.NewRequest("GET", "/api/v1/orders?"+query, nil)
		if _, err := FromRequest(r, Options{}); !errors.Is(err, ErrInvalidParams) {
			t.Fatalf("%s: expected ErrInvalidParams, got %v", query, err)
		}
	}
}

func TestPageCount(t *testing.T) {
	cases := []struct {
		count, limit, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
	}
	for _, tc := range cases {
		if got := PageCount(tc.count, tc.limit); got != tc.want {
			t.Fatalf("PageCount(%d, %d) = %d, want %d", tc.count, tc.limit, got, tc.want)
		}
	}
}
