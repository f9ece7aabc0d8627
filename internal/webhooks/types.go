package webhooks

import (
	"context"
	"slices"

	"shopify-auth-layer/internal/domain"
)

// Header names Shopify sets on webhook deliveries.
const (
	HeaderHmac       = "X-Shopify-Hmac-SHA256"
	HeaderTopic      = "X-Shopify-Topic"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderAPIVersion = "X-Shopify-API-Version"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
)

// WebhookContext identifies a verified webhook delivery for routing.
type WebhookContext struct {
	Topic      string
	Shop       string
	APIVersion string
	WebhookID  string
}

// DeliveryMethod is the closed set of ways Shopify can deliver a webhook.
type DeliveryMethod interface {
	// Equal compares delivery configuration, not identity.
	Equal(other DeliveryMethod) bool
	deliveryMethod()
}

// HTTPDelivery delivers webhooks by POSTing to a URI.
type HTTPDelivery struct {
	URI string
}

// EventBridgeDelivery delivers webhooks to an AWS EventBridge source.
type EventBridgeDelivery struct {
	ARN string
}

// PubSubDelivery delivers webhooks to a Google Pub/Sub topic.
type PubSubDelivery struct {
	Project string
	Topic   string
}

func (HTTPDelivery) deliveryMethod()        {}
func (EventBridgeDelivery) deliveryMethod() {}
func (PubSubDelivery) deliveryMethod()      {}

func (d HTTPDelivery) Equal(other DeliveryMethod) bool {
	o, ok := other.(HTTPDelivery)
	return ok && o.URI == d.URI
}

func (d EventBridgeDelivery) Equal(other DeliveryMethod) bool {
	o, ok := other.(EventBridgeDelivery)
	return ok && o.ARN == d.ARN
}

func (d PubSubDelivery) Equal(other DeliveryMethod) bool {
	o, ok := other.(PubSubDelivery)
	return ok && o.Project == d.Project && o.Topic == d.Topic
}

// Registration is the declarative webhook configuration for one topic.
// Handlers live in a separate map on the registry so configurations can be
// diffed without a handler's identity interfering.
type Registration struct {
	Topic               string
	Delivery            DeliveryMethod
	IncludeFields       []string
	MetafieldNamespaces []string
	Filter              *string
}

// matches reports whether a remote subscription carries the same
// configuration as this registration.
func (r *Registration) matches(remote *remoteSubscription) bool {
	if !r.Delivery.Equal(remote.delivery()) {
		return false
	}
	if !slices.Equal(r.IncludeFields, remote.IncludeFields) {
		return false
	}
	if !slices.Equal(r.MetafieldNamespaces, remote.MetafieldNamespaces) {
		return false
	}
	if (r.Filter == nil) != (remote.Filter == nil) {
		return false
	}
	return r.Filter == nil || *r.Filter == *remote.Filter
}

// Handler processes a verified webhook delivery for one topic.
type Handler interface {
	Topic() string
	Handle(ctx context.Context, event *domain.WebhookEvent) error
}
