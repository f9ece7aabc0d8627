package application

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/infrastructure/metrics"
	"shopify-auth-layer/internal/infrastructure/pubsub"
	"shopify-auth-layer/internal/webhooks"
)

// WebhookService verifies inbound webhook deliveries and routes them to the
// registry's handlers and the in-process fan-out.
type WebhookService struct {
	config   *domain.AppConfig
	registry *webhooks.Registry
	pubsub   *pubsub.WebhookPubSub
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewWebhookService creates the webhook processing service.
func NewWebhookService(
	config *domain.AppConfig,
	registry *webhooks.Registry,
	ps *pubsub.WebhookPubSub,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *WebhookService {
	return &WebhookService{
		config:   config,
		registry: registry,
		pubsub:   ps,
		metrics:  m,
		logger:   logger,
	}
}

// HandleDelivery verifies the delivery's signature, dispatches it to the
// topic's handler and publishes the event to subscribers.
func (s *WebhookService) HandleDelivery(ctx context.Context, header http.Header, body []byte) error {
	start := time.Now()

	wctx, err := webhooks.VerifyRequest(s.config, header, body)
	if err != nil {
		s.metrics.WebhookDeliveries.WithLabelValues("unknown", "invalid_hmac").Inc()
		s.logger.Warn().Msg("Webhook delivery rejected: invalid hmac")
		return err
	}

	event := &domain.WebhookEvent{
		ID:         uuid.NewString(),
		Topic:      wctx.Topic,
		Shop:       wctx.Shop,
		APIVersion: wctx.APIVersion,
		WebhookID:  wctx.WebhookID,
		Payload:    body,
		ReceivedAt: start,
	}

	if err := s.registry.Process(ctx, event); err != nil {
		// A topic we never registered a handler for is acknowledged, not
		// retried: redelivery would fail the same way forever.
		var noHandler webhooks.ErrNoHandlerForTopic
		if errors.As(err, &noHandler) {
			s.metrics.WebhookDeliveries.WithLabelValues(wctx.Topic, "unhandled").Inc()
			s.logger.Warn().
				Str("topic", wctx.Topic).
				Str("shop", wctx.Shop).
				Msg("Webhook delivery for topic without handler")
		} else {
			s.metrics.WebhookDeliveries.WithLabelValues(wctx.Topic, "failure").Inc()
			return err
		}
	} else {
		s.metrics.WebhookDeliveries.WithLabelValues(wctx.Topic, "success").Inc()
	}

	s.pubsub.Publish(event)
	s.metrics.WebhookDuration.Observe(time.Since(start).Seconds())

	s.logger.Info().
		Str("topic", wctx.Topic).
		Str("shop", wctx.Shop).
		Str("webhookId", wctx.WebhookID).
		Msg("Webhook delivery processed")
	return nil
}
