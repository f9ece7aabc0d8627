package domain

import "time"

// WebhookEvent is a verified inbound webhook delivery, ready for dispatch.
type WebhookEvent struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Shop       string    `json:"shop"`
	APIVersion string    `json:"api_version"`
	WebhookID  string    `json:"webhook_id"`
	Payload    []byte    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}
