package pubsub

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopify-auth-layer/internal/domain"
)

// Subscription is a live webhook event channel. Events stops delivering when
// the subscriber's context is cancelled.
type Subscription struct {
	ID     string
	Filter *EventFilter
	Events chan *domain.WebhookEvent
	ctx    context.Context
	cancel context.CancelFunc
}

// EventFilter restricts a subscription to certain topics and/or one shop.
type EventFilter struct {
	Topics []string
	Shop   string
}

// WebhookPubSub fans verified webhook events out to in-process subscribers.
type WebhookPubSub struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	logger        zerolog.Logger
}

// NewWebhookPubSub creates an empty fan-out.
func NewWebhookPubSub(logger zerolog.Logger) *WebhookPubSub {
	return &WebhookPubSub{
		subscriptions: make(map[string]*Subscription),
		logger:        logger,
	}
}

// Subscribe creates a subscription that lives until ctx is cancelled or
// Unsubscribe is called.
func (ps *WebhookPubSub) Subscribe(ctx context.Context, filter *EventFilter) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		ID:     uuid.NewString(),
		Filter: filter,
		Events: make(chan *domain.WebhookEvent, 10),
		ctx:    subCtx,
		cancel: cancel,
	}

	ps.mu.Lock()
	ps.subscriptions[sub.ID] = sub
	ps.mu.Unlock()

	ps.logger.Info().
		Str("subscriptionId", sub.ID).
		Msg("Webhook subscription created")

	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(sub.ID)
	}()

	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (ps *WebhookPubSub) Unsubscribe(id string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	sub, exists := ps.subscriptions[id]
	if !exists {
		return
	}

	close(sub.Events)
	sub.cancel()
	delete(ps.subscriptions, id)

	ps.logger.Info().
		Str("subscriptionId", id).
		Msg("Webhook subscription removed")
}

// Publish delivers an event to every matching subscriber. Slow subscribers
// with a full buffer are skipped rather than blocking the webhook path.
func (ps *WebhookPubSub) Publish(event *domain.WebhookEvent) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	delivered := 0
	for _, sub := range ps.subscriptions {
		if !sub.Filter.matches(event) {
			continue
		}
		select {
		case sub.Events <- event:
			delivered++
		case <-sub.ctx.Done():
		default:
			ps.logger.Warn().
				Str("subscriptionId", sub.ID).
				Str("topic", event.Topic).
				Msg("Subscriber buffer full, dropping event")
		}
	}

	if delivered > 0 {
		ps.logger.Debug().
			Str("topic", event.Topic).
			Str("shop", event.Shop).
			Int("subscribers", delivered).
			Msg("Published webhook event")
	}
}

// SubscriberCount returns the number of live subscriptions.
func (ps *WebhookPubSub) SubscriberCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.subscriptions)
}

func (f *EventFilter) matches(event *domain.WebhookEvent) bool {
	if f == nil {
		return true
	}
	if len(f.Topics) > 0 {
		found := false
		for _, topic := range f.Topics {
			if event.Topic == topic {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return f.Shop == "" || event.Shop == f.Shop
}
