package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"shopify-auth-layer/internal/domain"
)

// OrderCreatedHandler logs incoming order creations. It exists so the service
// ships with a working non-cleanup handler; real order processing belongs to
// the host application.
type OrderCreatedHandler struct {
	logger zerolog.Logger
}

// NewOrderCreatedHandler creates the orders/create handler.
func NewOrderCreatedHandler(logger zerolog.Logger) *OrderCreatedHandler {
	return &OrderCreatedHandler{logger: logger}
}

// Topic returns the delivery topic this handler owns.
func (h *OrderCreatedHandler) Topic() string {
	return "orders/create"
}

// Handle logs the order's identifying fields.
func (h *OrderCreatedHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	var order struct {
		ID          int64  `json:"id"`
		OrderNumber int64  `json:"order_number"`
		Email       string `json:"email"`
		TotalPrice  string `json:"total_price"`
	}
	if err := json.Unmarshal(event.Payload, &order); err != nil {
		return fmt.Errorf("failed to parse order payload: %w", err)
	}

	h.logger.Info().
		Str("shop", event.Shop).
		Int64("orderId", order.ID).
		Int64("orderNumber", order.OrderNumber).
		Str("totalPrice", order.TotalPrice).
		Msg("New order created")
	return nil
}
