package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/httpx"
)

var (
	// ErrTokenInvalid reports a bearer token that failed signature or claim checks.
	ErrTokenInvalid = errors.New("auth: token invalid")
	// ErrTokenMissing reports a request without a bearer token.
	ErrTokenMissing = errors.New("auth: token missing")
)

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HMAC-signed session tokens issued by the identity
// service and extracts the principal.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenVerifier builds a verifier over the shared session secret.
func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("auth: session secret is required")
	}
	return &TokenVerifier{
		secret: []byte(trimmed),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// Verify parses the token and returns the identity it asserts.
func (v *TokenVerifier) Verify(token string) (*Identity, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, ErrTokenMissing
	}

	claims := &sessionClaims{}
	parsed, err := v.parser.ParseWithClaims(trimmed, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	userID := strings.TrimSpace(claims.Subject)
	role := strings.ToLower(strings.TrimSpace(claims.Role))
	if userID == "" || role == "" {
		return nil, fmt.Errorf("%w: missing subject or role claim", ErrTokenInvalid)
	}
	switch role {
	case RoleCustomer, RoleVendor, RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, role)
	}

	return &Identity{UserID: userID, Role: role}, nil
}

// Middleware extracts the bearer token, verifies it, and stores the identity
// on the request context. Requests without a valid token are rejected.
func Middleware(verifier *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "missing bearer token", http.StatusUnauthorized))
				return
			}
			identity, err := verifier.Verify(token)
			if err != nil {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "invalid bearer token", http.StatusUnauthorized))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole rejects authenticated requests whose identity lacks all of the
// allowed roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
				return
			}
			if !identity.HasAnyRole(roles...) {
				httpx.WriteError(r.Context(), w, httpx.NewError("forbidden", "insufficient role", http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
