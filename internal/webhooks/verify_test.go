package webhooks

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/oauth"
)

func testAppConfig(t *testing.T, oldSecret string) *domain.AppConfig {
	t.Helper()
	cfg, err := domain.NewAppConfig("test-api-key", "test-api-secret", oldSecret, true, nil, domain.NewAuthScopes("read_orders"), "2024-10")
	require.NoError(t, err)
	return cfg
}

func deliveryHeaders(body []byte, secret string) http.Header {
	h := http.Header{}
	h.Set(HeaderHmac, oauth.ComputeSignatureBase64(body, secret))
	h.Set(HeaderTopic, "orders/create")
	h.Set(HeaderShopDomain, "test-shop.myshopify.com")
	h.Set(HeaderAPIVersion, "2024-10")
	h.Set(HeaderWebhookID, "wh-123")
	return h
}

func TestVerifyRequest(t *testing.T) {
	cfg := testAppConfig(t, "")
	body := []byte(`{"id":1}`)

	wctx, err := VerifyRequest(cfg, deliveryHeaders(body, "test-api-secret"), body)
	require.NoError(t, err)

	assert.Equal(t, "orders/create", wctx.Topic)
	assert.Equal(t, "test-shop.myshopify.com", wctx.Shop)
	assert.Equal(t, "2024-10", wctx.APIVersion)
	assert.Equal(t, "wh-123", wctx.WebhookID)
}

func TestVerifyRequestInvalidSignature(t *testing.T) {
	cfg := testAppConfig(t, "")
	body := []byte(`{"id":1}`)

	_, err := VerifyRequest(cfg, deliveryHeaders(body, "wrong-secret"), body)
	var invalidHmac ErrInvalidHmac
	assert.ErrorAs(t, err, &invalidHmac)
}

func TestVerifyRequestOldKeyFallback(t *testing.T) {
	cfg := testAppConfig(t, "rotated-out-secret")
	body := []byte(`{"id":1}`)

	_, err := VerifyRequest(cfg, deliveryHeaders(body, "rotated-out-secret"), body)
	assert.NoError(t, err)
}

func TestVerifyRequestTamperedBody(t *testing.T) {
	cfg := testAppConfig(t, "")
	body := []byte(`{"id":1}`)
	headers := deliveryHeaders(body, "test-api-secret")

	_, err := VerifyRequest(cfg, headers, []byte(`{"id":2}`))
	var invalidHmac ErrInvalidHmac
	assert.ErrorAs(t, err, &invalidHmac)
}

func TestVerifyRequestMissingSignatureHeader(t *testing.T) {
	cfg := testAppConfig(t, "")
	body := []byte(`{"id":1}`)
	headers := deliveryHeaders(body, "test-api-secret")
	headers.Del(HeaderHmac)

	_, err := VerifyRequest(cfg, headers, body)
	var invalidHmac ErrInvalidHmac
	assert.ErrorAs(t, err, &invalidHmac)
}
