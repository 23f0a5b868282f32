package payments

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"
)

func TestCaptureVerifierAcceptsValidSignature(t *testing.T) {
	verifier, err := NewCaptureVerifier("topsecret")
	if err != nil {
		t.Fatalf("NewCaptureVerifier returned error: %v", err)
	}

	payload := CapturePayload{
		OrderID:          "ord_01J0000000000000000000TEST",
		GatewayReference: "pi_123",
		Amount:           12050,
		Currency:         "USD",
	}

	if err := verifier.Verify(payload, verifier.Sign(payload)); err != nil {
		t.Fatalf("Verify rejected a valid signature: %v", err)
	}
}

func TestCaptureVerifierAcceptsBase64Encoding(t *testing.T) {
	verifier, err := NewCaptureVerifier("topsecret")
	if err != nil {
		t.Fatalf("NewCaptureVerifier returned error: %v", err)
	}

	payload := CapturePayload{OrderID: "ord_1", GatewayReference: "pi_123", Amount: 500}
	raw, err := hex.DecodeString(verifier.Sign(payload))
	if err != nil {
		t.Fatalf("decode hex signature: %v", err)
	}

	if err := verifier.Verify(payload, base64.StdEncoding.EncodeToString(raw)); err != nil {
		t.Fatalf("Verify rejected a base64 signature: %v", err)
	}
}

func TestCaptureVerifierRejectsTampering(t *testing.T) {
	verifier, err := NewCaptureVerifier("topsecret")
	if err != nil {
		t.Fatalf("NewCaptureVerifier returned error: %v", err)
	}

	payload := CapturePayload{OrderID: "ord_1", GatewayReference: "pi_123", Amount: 12050}
	signature := verifier.Sign(payload)

	cases := map[string]CapturePayload{
		"amount":    {OrderID: "ord_1", GatewayReference: "pi_123", Amount: 1},
		"reference": {OrderID: "ord_1", GatewayReference: "pi_999", Amount: 12050},
		"order":     {OrderID: "ord_2", GatewayReference: "pi_123", Amount: 12050},
	}
	for name, tampered := range cases {
		if err := verifier.Verify(tampered, signature); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("%s: expected ErrInvalidSignature, got %v", name, err)
		}
	}

	if err := verifier.Verify(payload, "not-a-signature!"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for garbage encoding, got %v", err)
	}
	if err := verifier.Verify(payload, ""); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for empty signature, got %v", err)
	}
}

func TestNewCaptureVerifierRequiresSecret(t *testing.T) {
	if _, err := NewCaptureVerifier("   "); err == nil {
		t.Fatal("expected error for blank secret")
	}
}
