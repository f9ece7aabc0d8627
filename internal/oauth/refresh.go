package oauth

import (
	"context"

	"shopify-auth-layer/internal/domain"
)

// RefreshAccessToken trades a refresh token for a new access token before the
// current one expires.
func (c *Client) RefreshAccessToken(ctx context.Context, config *domain.AppConfig, shop domain.ShopDomain, refreshToken string) (*domain.Session, error) {
	tokenResp, status, message, err := c.postAccessToken(ctx, shop, map[string]string{
		"client_id":     config.APIKey,
		"client_secret": config.APISecretKey,
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, err
	}
	if tokenResp == nil {
		return nil, ErrTokenRefreshFailed{Status: status, Message: message}
	}

	session := domain.NewSessionFromTokenResponse(shop, tokenResp)
	c.logger.Info().Str("shop", shop.String()).Msg("Access token refreshed")
	return session, nil
}

// MigrateToExpiringToken converts a shop's non-expiring offline token to the
// expiring model via a token exchange on the token itself. The migration is
// one-time per shop: once it succeeds the original token is invalid.
func (c *Client) MigrateToExpiringToken(ctx context.Context, config *domain.AppConfig, shop domain.ShopDomain, accessToken string) (*domain.Session, error) {
	tokenResp, status, message, err := c.postAccessToken(ctx, shop, map[string]string{
		"client_id":            config.APIKey,
		"client_secret":        config.APISecretKey,
		"grant_type":           tokenExchangeGrantType,
		"subject_token":        accessToken,
		"subject_token_type":   offlineAccessTokenType,
		"requested_token_type": offlineAccessTokenType,
		"expiring":             "1",
	})
	if err != nil {
		return nil, err
	}
	if tokenResp == nil {
		return nil, ErrTokenRefreshFailed{Status: status, Message: message}
	}

	session := domain.NewSessionFromTokenResponse(shop, tokenResp)
	c.logger.Info().Str("shop", shop.String()).Msg("Offline token migrated to expiring model")
	return session, nil
}
