package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// VerifyNowPaymentsSignature checks the x-nowpayments-sig header: an
// HMAC-SHA512 hex digest over the raw request body, keyed with the IPN
// secret. Comparison is constant time.
func VerifyNowPaymentsSignature(payload []byte, signatureHeader, ipnSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(ipnSecret)
	if sig == "" || secret == "" {
		return false
	}

	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decoded)
}

// VerifyFlutterwaveSignature checks the verif-hash header, which Flutterwave
// sets to the pre-shared secret hash verbatim.
func VerifyFlutterwaveSignature(signatureHeader, secretHash string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(secretHash)
	if sig == "" || secret == "" {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(secret))
}
