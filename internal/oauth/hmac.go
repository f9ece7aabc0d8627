package oauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"

	"shopify-auth-layer/internal/domain"
)

// ComputeSignature returns the HMAC-SHA256 of message keyed by secret as
// 64 lowercase hex characters. This is the encoding Shopify uses for OAuth
// callback signatures.
func ComputeSignature(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// ComputeSignatureBase64 returns the HMAC-SHA256 of body keyed by secret in
// standard base64. This is the encoding Shopify uses for webhook signatures.
func ComputeSignatureBase64(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ConstantTimeCompare reports whether a and b are equal without leaking the
// position of the first difference. Inputs of unequal length still run the
// full comparison against self before failing.
func ConstantTimeCompare(a, b string) bool {
	if len(a) != len(b) {
		subtle.ConstantTimeCompare([]byte(a), []byte(a))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// VerifyWithSecrets runs verify against the primary secret and, when one is
// configured, the rotated-out old secret. Callback HMAC validation, session
// token decoding and webhook verification all go through this so the fallback
// behavior cannot drift between them.
func VerifyWithSecrets(config *domain.AppConfig, verify func(secret string) bool) bool {
	for _, secret := range config.SecretKeys() {
		if verify(secret) {
			return true
		}
	}
	return false
}
