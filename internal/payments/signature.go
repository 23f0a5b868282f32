package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidSignature reports a capture payload whose signature does not match
// the shared-secret HMAC. Treated as an integrity incident by callers.
var ErrInvalidSignature = errors.New("payments: invalid capture signature")

// CapturePayload is the gateway-confirmed capture delivered to the
// confirmation endpoint or webhook. The signature covers exactly these fields.
type CapturePayload struct {
	OrderID          string
	GatewayReference string
	Amount           int64
	Currency         string
}

// CaptureVerifier checks the HMAC-SHA256 signature on capture payloads. The
// check is independent of any earlier intent state so a forged confirmation
// cannot ride on a legitimate reference.
type CaptureVerifier struct {
	secret []byte
}

// NewCaptureVerifier builds a verifier from the shared gateway secret.
func NewCaptureVerifier(secret string) (*CaptureVerifier, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return nil, errors.New("payments: capture secret is required")
	}
	return &CaptureVerifier{secret: []byte(trimmed)}, nil
}

// Sign computes the hex HMAC for a payload. Exposed for the webhook simulator
// and tests; production signatures originate at the gateway.
func (v *CaptureVerifier) Sign(payload CapturePayload) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(canonicalCapture(payload)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the supplied signature against the payload. Hex and base64
// encodings are accepted; comparison is constant time.
func (v *CaptureVerifier) Verify(payload CapturePayload, signature string) error {
	provided, err := decodeSignature(signature)
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(canonicalCapture(payload)))
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// canonicalCapture serialises the signed fields in a fixed order with a
// delimiter that cannot appear inside them.
func canonicalCapture(payload CapturePayload) string {
	return strings.Join([]string{
		strings.TrimSpace(payload.GatewayReference),
		strconv.FormatInt(payload.Amount, 10),
		strings.TrimSpace(payload.OrderID),
	}, "\n")
}

func decodeSignature(signature string) ([]byte, error) {
	trimmed := strings.TrimSpace(signature)
	if trimmed == "" {
		return nil, errors.New("payments: signature is empty")
	}
	if decoded, err := hex.DecodeString(trimmed); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(trimmed); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(trimmed); err == nil {
		return decoded, nil
	}
	return nil, errors.New("payments: signature encoding not recognised")
}
