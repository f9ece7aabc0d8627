package webhooks

import "fmt"

// ErrInvalidHmac signals a webhook body whose signature did not verify against
// any configured secret.
type ErrInvalidHmac struct{}

func (ErrInvalidHmac) Error() string {
	return "webhook hmac signature did not match"
}

// ErrNoHandlerForTopic signals a delivery for a topic with no registered
// handler.
type ErrNoHandlerForTopic struct {
	Topic string
}

func (e ErrNoHandlerForTopic) Error() string {
	return fmt.Sprintf("no webhook handler registered for topic %q", e.Topic)
}

// ErrPayloadParse signals a webhook body that could not be parsed.
type ErrPayloadParse struct {
	Message string
}

func (e ErrPayloadParse) Error() string {
	return fmt.Sprintf("failed to parse webhook payload: %s", e.Message)
}

// ErrRegistrationNotFound signals a registry operation on a topic that was
// never configured.
type ErrRegistrationNotFound struct {
	Topic string
}

func (e ErrRegistrationNotFound) Error() string {
	return fmt.Sprintf("no webhook registration for topic %q", e.Topic)
}

// ErrSubscriptionNotFound signals that no remote subscription exists for the
// topic being unregistered.
type ErrSubscriptionNotFound struct {
	Topic string
}

func (e ErrSubscriptionNotFound) Error() string {
	return fmt.Sprintf("no remote webhook subscription for topic %q", e.Topic)
}

// ErrShopify aggregates the userErrors a webhook mutation reported, which can
// arrive on an HTTP 200.
type ErrShopify struct {
	Message string
}

func (e ErrShopify) Error() string {
	return fmt.Sprintf("shopify rejected the webhook mutation: %s", e.Message)
}
