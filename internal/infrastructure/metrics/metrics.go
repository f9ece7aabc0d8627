package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the auth and webhook surfaces.
type Metrics struct {
	AuthBegins        *prometheus.CounterVec
	AuthCallbacks     *prometheus.CounterVec
	TokenGrants       *prometheus.CounterVec
	WebhookDeliveries *prometheus.CounterVec
	WebhookDuration   prometheus.Histogram
}

// New registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AuthBegins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shopify_auth_begin_total",
			Help: "Authorization flows started, by access mode.",
		}, []string{"mode"}),
		AuthCallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shopify_auth_callback_total",
			Help: "OAuth callbacks processed, by outcome.",
		}, []string{"outcome"}),
		TokenGrants: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shopify_token_grants_total",
			Help: "Token grants performed, by grant type and outcome.",
		}, []string{"grant", "outcome"}),
		WebhookDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shopify_webhook_deliveries_total",
			Help: "Inbound webhook deliveries, by topic and outcome.",
		}, []string{"topic", "outcome"}),
		WebhookDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopify_webhook_processing_seconds",
			Help:    "Time spent verifying and dispatching a webhook delivery.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
