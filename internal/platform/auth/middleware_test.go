package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "session-secret"

func mintToken(t *testing.T, secret, subject, role string, expires time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  expires.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestTokenVerifier(t *testing.T) {
	verifier, err := NewTokenVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewTokenVerifier returned error: %v", err)
	}

	identity, err := verifier.Verify(mintToken(t, testSecret, "user_1", "customer", time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if identity.UserID != "user_1" || identity.Role != RoleCustomer {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	if _, err := verifier.Verify(mintToken(t, "wrong-secret", "user_1", "customer", time.Now().Add(time.Hour))); err == nil {
		t.Fatal("expected error for wrong secret")
	}
	if _, err := verifier.Verify(mintToken(t, testSecret, "user_1", "customer", time.Now().Add(-time.Hour))); err == nil {
		t.Fatal("expected error for expired token")
	}
	if _, err := verifier.Verify(mintToken(t, testSecret, "user_1", "superuser", time.Now().Add(time.Hour))); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if _, err := verifier.Verify(""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestMiddlewareStoresIdentity(t *testing.T) {
	verifier, err := NewTokenVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewTokenVerifier returned error: %v", err)
	}

	var seen *Identity
	handler := Middleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, "user_1", "vendor", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if seen == nil || seen.UserID != "user_1" || seen.Role != RoleVendor {
		t.Fatalf("identity not stored: %+v", seen)
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	verifier, err := NewTokenVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewTokenVerifier returned error: %v", err)
	}

	handler := Middleware(verifier)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req = req.WithContext(WithIdentity(req.Context(), &Identity{UserID: "user_1", Role: RoleVendor}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for vendor, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req = req.WithContext(WithIdentity(req.Context(), &Identity{UserID: "user_2", Role: RoleAdmin}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for admin, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
}
