package oauth

import (
	"context"
	"fmt"

	"shopify-auth-layer/internal/domain"
)

// ValidateAuthCallback runs the callback trust gates in order — HMAC, state,
// shop domain — then exchanges the authorization code for an access token and
// builds a session. It short-circuits on the first failing gate.
func (c *Client) ValidateAuthCallback(ctx context.Context, config *domain.AppConfig, query *AuthQuery, expectedState string) (*domain.Session, error) {
	if !ValidateHmac(config, query) {
		c.logger.Warn().Str("shop", query.Shop).Msg("OAuth callback rejected: invalid hmac")
		return nil, ErrInvalidHmac{}
	}

	if !ConstantTimeCompare(query.State, expectedState) {
		c.logger.Warn().Str("shop", query.Shop).Msg("OAuth callback rejected: state mismatch")
		return nil, ErrStateMismatch{Expected: expectedState, Received: query.State}
	}

	shop, err := domain.NewShopDomain(query.Shop)
	if err != nil {
		return nil, ErrInvalidCallback{Reason: fmt.Sprintf("malformed shop domain: %v", err)}
	}

	tokenResp, status, message, err := c.postAccessToken(ctx, shop, map[string]string{
		"client_id":     config.APIKey,
		"client_secret": config.APISecretKey,
		"code":          query.Code,
	})
	if err != nil {
		return nil, err
	}
	if tokenResp == nil {
		return nil, ErrTokenExchangeFailed{Status: status, Message: message}
	}

	session := domain.NewSessionFromTokenResponse(shop, tokenResp)
	c.logger.Info().
		Str("shop", shop.String()).
		Bool("online", session.IsOnline).
		Msg("Authorization code exchanged for access token")
	return session, nil
}
