package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func signedQuery(secret string) *AuthQuery {
	q := &AuthQuery{
		Code:      "code-123",
		Shop:      "test-shop.myshopify.com",
		Timestamp: "1700000000",
		State:     "abcdefghijklmno",
		Host:      "aG9zdA",
	}
	q.Hmac = ComputeSignature(q.SignableString(), secret)
	return q
}

func TestSignableString(t *testing.T) {
	q := &AuthQuery{
		Code:      "c",
		Shop:      "s",
		Timestamp: "t",
		State:     "st",
		Host:      "h",
		Hmac:      "should-be-excluded",
	}
	// Fields sorted by key, hmac excluded
	assert.Equal(t, "code=c&host=h&shop=s&state=st&timestamp=t", q.SignableString())
}

func TestValidateHmac(t *testing.T) {
	cfg := testAppConfig(t, "")

	assert.True(t, ValidateHmac(cfg, signedQuery("test-api-secret")))
	assert.False(t, ValidateHmac(cfg, signedQuery("wrong-secret")))
}

func TestValidateHmacOldKeyFallback(t *testing.T) {
	cfg := testAppConfig(t, "rotated-out-secret")

	assert.True(t, ValidateHmac(cfg, signedQuery("rotated-out-secret")))
	assert.False(t, ValidateHmac(cfg, signedQuery("never-configured")))
}

func TestValidateHmacRejectsTamperedFields(t *testing.T) {
	cfg := testAppConfig(t, "")

	tampered := signedQuery("test-api-secret")
	tampered.Code = "other-code"
	assert.False(t, ValidateHmac(cfg, tampered), "changing code invalidates the signature")

	tampered = signedQuery("test-api-secret")
	tampered.Shop = "evil-shop.myshopify.com"
	assert.False(t, ValidateHmac(cfg, tampered), "changing shop invalidates the signature")

	tampered = signedQuery("test-api-secret")
	tampered.Timestamp = "1700009999"
	assert.False(t, ValidateHmac(cfg, tampered), "changing timestamp invalidates the signature")
}
