package oauth

import (
	"context"
	"encoding/json"

	"shopify-auth-layer/internal/domain"
)

// RFC 8693 token-exchange grant and token-type URNs.
const (
	tokenExchangeGrantType = "urn:ietf:params:oauth:grant-type:token-exchange"
	idTokenType            = "urn:ietf:params:oauth:token-type:id_token"
	onlineAccessTokenType  = "urn:shopify:params:oauth:token-type:online-access-token"
	offlineAccessTokenType = "urn:shopify:params:oauth:token-type:offline-access-token"
)

// RequestedTokenType selects which kind of access token a token exchange asks
// for.
type RequestedTokenType int

const (
	// OnlineToken requests a user-scoped, expiring access token.
	OnlineToken RequestedTokenType = iota
	// OfflineToken requests an app-level access token.
	OfflineToken
)

func (t RequestedTokenType) urn() string {
	if t == OnlineToken {
		return onlineAccessTokenType
	}
	return offlineAccessTokenType
}

// ExchangeOnlineToken trades a validated session token for an online access
// token via RFC 8693 token exchange.
func (c *Client) ExchangeOnlineToken(ctx context.Context, config *domain.AppConfig, sessionToken string) (*domain.Session, error) {
	return c.exchangeToken(ctx, config, sessionToken, OnlineToken)
}

// ExchangeOfflineToken trades a validated session token for an offline access
// token via RFC 8693 token exchange.
func (c *Client) ExchangeOfflineToken(ctx context.Context, config *domain.AppConfig, sessionToken string) (*domain.Session, error) {
	return c.exchangeToken(ctx, config, sessionToken, OfflineToken)
}

func (c *Client) exchangeToken(ctx context.Context, config *domain.AppConfig, sessionToken string, tokenType RequestedTokenType) (*domain.Session, error) {
	if !config.IsEmbedded {
		return nil, ErrNotEmbeddedApp{}
	}

	payload, err := DecodeSessionToken(config, sessionToken)
	if err != nil {
		return nil, err
	}

	shop, err := domain.NewShopDomain(payload.Shop())
	if err != nil {
		return nil, ErrInvalidJwt{Reason: "Session token contained an invalid shop domain"}
	}

	tokenResp, status, message, err := c.postAccessToken(ctx, shop, map[string]string{
		"client_id":            config.APIKey,
		"client_secret":        config.APISecretKey,
		"grant_type":           tokenExchangeGrantType,
		"subject_token":        sessionToken,
		"subject_token_type":   idTokenType,
		"requested_token_type": tokenType.urn(),
	})
	if err != nil {
		return nil, err
	}
	if tokenResp == nil {
		// A 400 with invalid_subject_token means the token we validated
		// locally was still rejected remotely, e.g. revoked or stale.
		if status == 400 {
			var body tokenEndpointError
			if jsonErr := json.Unmarshal([]byte(message), &body); jsonErr == nil && body.Error == "invalid_subject_token" {
				return nil, ErrInvalidJwt{Reason: "Session token was rejected by token exchange"}
			}
		}
		return nil, ErrTokenExchangeFailed{Status: status, Message: message}
	}

	session := domain.NewSessionFromTokenResponse(shop, tokenResp)
	c.logger.Info().
		Str("shop", shop.String()).
		Bool("online", session.IsOnline).
		Msg("Session token exchanged for access token")
	return session, nil
}
