package oauth

import (
	"context"

	"shopify-auth-layer/internal/domain"
)

// ExchangeClientCredentials trades the app credentials directly for an offline
// access token. Only non-embedded apps may use this grant; embedded apps must
// go through token exchange instead. No network call is made when the
// precondition fails.
func (c *Client) ExchangeClientCredentials(ctx context.Context, config *domain.AppConfig, shop domain.ShopDomain) (*domain.Session, error) {
	if config.IsEmbedded {
		return nil, ErrNotPrivateApp{}
	}

	tokenResp, status, message, err := c.postAccessToken(ctx, shop, map[string]string{
		"client_id":     config.APIKey,
		"client_secret": config.APISecretKey,
		"grant_type":    "client_credentials",
	})
	if err != nil {
		return nil, err
	}
	if tokenResp == nil {
		return nil, ErrClientCredentialsFailed{Status: status, Message: message}
	}

	// The grant has no user context, so the session is always offline.
	session := domain.NewSessionFromTokenResponse(shop, tokenResp)
	c.logger.Info().Str("shop", shop.String()).Msg("Client credentials exchanged for access token")
	return session, nil
}
