package webhooks

import (
	"net/http"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/oauth"
)

// VerifyRequest recomputes the base64 HMAC of the raw body against the
// configured secrets (primary, then rotated-out old one) and compares it to
// the signature header in constant time. On success it returns the routing
// context extracted from the delivery headers.
func VerifyRequest(config *domain.AppConfig, header http.Header, body []byte) (*WebhookContext, error) {
	provided := header.Get(HeaderHmac)
	ok := oauth.VerifyWithSecrets(config, func(secret string) bool {
		return oauth.ConstantTimeCompare(oauth.ComputeSignatureBase64(body, secret), provided)
	})
	if !ok {
		return nil, ErrInvalidHmac{}
	}

	return &WebhookContext{
		Topic:      header.Get(HeaderTopic),
		Shop:       header.Get(HeaderShopDomain),
		APIVersion: header.Get(HeaderAPIVersion),
		WebhookID:  header.Get(HeaderWebhookID),
	}, nil
}
