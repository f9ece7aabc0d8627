package webhook_handlers

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/ports"
)

// AppUninstalledHandler removes every stored session for a shop when the app
// is uninstalled. The tokens are revoked by Shopify at that point, so keeping
// them would only produce 401s later.
type AppUninstalledHandler struct {
	sessions ports.SessionRepository
	logger   zerolog.Logger
}

// NewAppUninstalledHandler creates the app/uninstalled cleanup handler.
func NewAppUninstalledHandler(sessions ports.SessionRepository, logger zerolog.Logger) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Topic returns the delivery topic this handler owns.
func (h *AppUninstalledHandler) Topic() string {
	return "app/uninstalled"
}

// Handle deletes the shop's sessions. The shop domain comes from the delivery
// header, falling back to the payload's domain fields.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shopDomain := event.Shop
	if shopDomain == "" {
		var payload struct {
			Domain          string `json:"domain"`
			MyshopifyDomain string `json:"myshopify_domain"`
		}
		if err := json.Unmarshal(event.Payload, &payload); err == nil {
			if payload.MyshopifyDomain != "" {
				shopDomain = payload.MyshopifyDomain
			} else {
				shopDomain = payload.Domain
			}
		}
	}

	shop, err := domain.NewShopDomain(shopDomain)
	if err != nil {
		h.logger.Warn().Str("shop", shopDomain).Msg("App uninstalled webhook carried no usable shop domain")
		return err
	}

	if err := h.sessions.DeleteByShop(ctx, shop); err != nil {
		return err
	}

	h.logger.Info().
		Str("shop", shop.String()).
		Msg("App uninstalled, sessions deleted")
	return nil
}
