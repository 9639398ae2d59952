package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"
)

func nowPaymentsSig(payload []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyNowPaymentsSignature(t *testing.T) {
	payload := []byte(`{"order_id":"AF-12345678","payment_status":"finished"}`)
	secret := "ipn-secret"
	validSig := nowPaymentsSig(payload, secret)

	if !VerifyNowPaymentsSignature(payload, validSig, secret) {
		t.Fatalf("expected signature to validate")
	}
	if !VerifyNowPaymentsSignature(payload, strings.ToUpper(validSig), secret) {
		t.Fatalf("expected uppercase hex signature to validate")
	}
	if VerifyNowPaymentsSignature(payload, validSig, "wrong-secret") {
		t.Fatalf("expected wrong secret to fail")
	}
	if VerifyNowPaymentsSignature([]byte(`{"tampered":true}`), validSig, secret) {
		t.Fatalf("expected tampered payload to fail")
	}
	if VerifyNowPaymentsSignature(payload, "not-hex", secret) {
		t.Fatalf("expected non-hex signature to fail")
	}
	if VerifyNowPaymentsSignature(payload, "", secret) {
		t.Fatalf("expected empty signature to fail")
	}
	if VerifyNowPaymentsSignature(payload, validSig, "") {
		t.Fatalf("expected empty secret to fail")
	}
}

func TestVerifyFlutterwaveSignature(t *testing.T) {
	if !VerifyFlutterwaveSignature("shared-hash", "shared-hash") {
		t.Fatalf("expected matching hash to validate")
	}
	if !VerifyFlutterwaveSignature("  shared-hash  ", "shared-hash") {
		t.Fatalf("expected padded header to validate after trimming")
	}
	if VerifyFlutterwaveSignature("other-hash", "shared-hash") {
		t.Fatalf("expected mismatched hash to fail")
	}
	if VerifyFlutterwaveSignature("", "shared-hash") {
		t.Fatalf("expected missing header to fail")
	}
	if VerifyFlutterwaveSignature("shared-hash", "") {
		t.Fatalf("expected unconfigured secret to fail verification")
	}
}

func TestNewReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewReference()
		if len(ref) != len(ReferencePrefix)+8 {
			t.Fatalf("reference %q has unexpected length", ref)
		}
		if !IsLocalReference(ref) {
			t.Fatalf("reference %q missing prefix", ref)
		}
		if ref != strings.ToUpper(ref) {
			t.Fatalf("reference %q is not uppercase", ref)
		}
		seen[ref] = true
	}
	if len(seen) < 90 {
		t.Fatalf("expected mostly unique references, got %d distinct of 100", len(seen))
	}
}
