package shopifyrest

import (
	"context"
	"fmt"
	"strings"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/ports"
)

// TokenVerifier checks a stored access token against the shop's admin REST API
// with a lightweight GetShop call. Access tokens do not expire on their own
// but can be revoked at any time.
type TokenVerifier struct {
	config *domain.AppConfig
	logger zerolog.Logger
}

// NewTokenVerifier creates a REST-backed token verifier.
func NewTokenVerifier(config *domain.AppConfig, logger zerolog.Logger) ports.ShopVerifier {
	return &TokenVerifier{
		config: config,
		logger: logger,
	}
}

// VerifyToken makes a GetShop call with the session's token. An auth-shaped
// failure means the token is revoked; other failures (network, rate limit)
// are reported as-is so the caller does not discard a token over a transient
// error.
func (v *TokenVerifier) VerifyToken(ctx context.Context, session *domain.Session) error {
	app := goshopify.App{
		ApiKey:    v.config.APIKey,
		ApiSecret: v.config.APISecretKey,
	}

	client, err := goshopify.NewClient(app, session.Shop.String(), session.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to build shopify client: %w", err)
	}

	if _, err := client.Shop.Get(ctx, nil); err != nil {
		errStr := strings.ToLower(err.Error())
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "unauthorized") ||
			strings.Contains(errStr, "invalid api key or access token") {
			v.logger.Warn().
				Str("shop", session.Shop.String()).
				Msg("Access token is invalid or revoked")
			return fmt.Errorf("access token rejected by shop: %w", err)
		}
		return fmt.Errorf("token verification failed: %w", err)
	}

	v.logger.Debug().Str("shop", session.Shop.String()).Msg("Access token verified")
	return nil
}
