package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/ports"
)

// RegisterResult says what the reconciliation decided for one topic.
type RegisterResult int

const (
	// ResultCreated means no remote subscription existed and one was created.
	ResultCreated RegisterResult = iota
	// ResultUpdated means the remote subscription existed with different
	// configuration and was updated in place.
	ResultUpdated
	// ResultAlreadyRegistered means the remote subscription already matched
	// the desired configuration; no mutation was sent.
	ResultAlreadyRegistered
)

func (r RegisterResult) String() string {
	switch r {
	case ResultCreated:
		return "created"
	case ResultUpdated:
		return "updated"
	case ResultAlreadyRegistered:
		return "already_registered"
	default:
		return "unknown"
	}
}

// RegisterOutcome is the per-topic result of RegisterAll.
type RegisterOutcome struct {
	Result RegisterResult
	Err    error
}

// Registry owns the declarative webhook configuration and its handlers, and
// reconciles it against the shop's remote subscriptions over GraphQL.
//
// Configure it fully (AddRegistration/AddHandler) at startup before any
// concurrent Register/Process calls; the read paths are then safe to use
// concurrently with each other.
type Registry struct {
	registrations map[string]*Registration
	handlers      map[string]Handler
	gql           ports.GraphQLClient
	logger        zerolog.Logger
}

// NewRegistry creates an empty registry using the given GraphQL client.
func NewRegistry(gql ports.GraphQLClient, logger zerolog.Logger) *Registry {
	return &Registry{
		registrations: make(map[string]*Registration),
		handlers:      make(map[string]Handler),
		gql:           gql,
		logger:        logger,
	}
}

// AddRegistration stores the declarative configuration for a topic, replacing
// any previous registration for the same topic wholesale.
func (r *Registry) AddRegistration(reg *Registration) error {
	if reg.Topic == "" {
		return fmt.Errorf("webhook registration requires a topic")
	}
	if reg.Delivery == nil {
		return fmt.Errorf("webhook registration for %q requires a delivery method", reg.Topic)
	}
	r.registrations[reg.Topic] = reg
	return nil
}

// AddHandler stores the handler for its topic, replacing any previous one.
// The registry owns the handler for the lifetime of the registration.
func (r *Registry) AddHandler(h Handler) {
	r.handlers[h.Topic()] = h
}

// Topics returns the registered topics in sorted order.
func (r *Registry) Topics() []string {
	topics := make([]string, 0, len(r.registrations))
	for topic := range r.registrations {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Registration returns the stored configuration for a topic.
func (r *Registry) Registration(topic string) (*Registration, bool) {
	reg, ok := r.registrations[topic]
	return reg, ok
}

// Register reconciles one topic against the shop: create when nothing exists
// remotely, skip when the remote configuration already matches, update
// otherwise. The diff-before-write policy avoids redundant mutations on every
// boot.
func (r *Registry) Register(ctx context.Context, session *domain.Session, topic string) (RegisterResult, error) {
	reg, ok := r.registrations[topic]
	if !ok {
		return 0, ErrRegistrationNotFound{Topic: topic}
	}

	remote, err := r.fetchSubscription(ctx, session, topic)
	if err != nil {
		return 0, err
	}

	var result RegisterResult
	switch {
	case remote == nil:
		doc, field := createMutation(reg.Delivery)
		err = r.runMutation(ctx, session, doc, field, map[string]any{
			"topic":               graphqlTopic(topic),
			"webhookSubscription": subscriptionInput(reg),
		})
		result = ResultCreated
	case reg.matches(remote):
		result = ResultAlreadyRegistered
	default:
		doc, field := updateMutation(reg.Delivery)
		err = r.runMutation(ctx, session, doc, field, map[string]any{
			"id":                  remote.ID,
			"webhookSubscription": subscriptionInput(reg),
		})
		result = ResultUpdated
	}
	if err != nil {
		return 0, err
	}

	r.logger.Info().
		Str("topic", topic).
		Str("shop", session.Shop.String()).
		Str("result", result.String()).
		Msg("Webhook subscription reconciled")
	return result, nil
}

// RegisterAll reconciles every registered topic, continuing past individual
// failures and reporting an outcome per topic.
func (r *Registry) RegisterAll(ctx context.Context, session *domain.Session) map[string]RegisterOutcome {
	outcomes := make(map[string]RegisterOutcome, len(r.registrations))
	for _, topic := range r.Topics() {
		result, err := r.Register(ctx, session, topic)
		if err != nil {
			r.logger.Error().Err(err).Str("topic", topic).Msg("Webhook registration failed")
		}
		outcomes[topic] = RegisterOutcome{Result: result, Err: err}
	}
	return outcomes
}

// Unregister deletes the remote subscription for a topic. It does not require
// a local registration, so leftover subscriptions from removed configuration
// can still be cleaned up.
func (r *Registry) Unregister(ctx context.Context, session *domain.Session, topic string) error {
	remote, err := r.fetchSubscription(ctx, session, topic)
	if err != nil {
		return err
	}
	if remote == nil {
		return ErrSubscriptionNotFound{Topic: topic}
	}

	if err := r.runMutation(ctx, session, webhookSubscriptionDeleteMutation, "webhookSubscriptionDelete", map[string]any{
		"id": remote.ID,
	}); err != nil {
		return err
	}

	r.logger.Info().
		Str("topic", topic).
		Str("shop", session.Shop.String()).
		Msg("Webhook subscription deleted")
	return nil
}

// UnregisterAll deletes every registered topic's remote subscription,
// continuing past failures and returning the first error encountered.
func (r *Registry) UnregisterAll(ctx context.Context, session *domain.Session) error {
	var firstErr error
	for _, topic := range r.Topics() {
		if err := r.Unregister(ctx, session, topic); err != nil {
			r.logger.Error().Err(err).Str("topic", topic).Msg("Webhook unregistration failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Process routes a verified delivery to the handler for its topic.
func (r *Registry) Process(ctx context.Context, event *domain.WebhookEvent) error {
	handler, ok := r.handlers[event.Topic]
	if !ok {
		return ErrNoHandlerForTopic{Topic: event.Topic}
	}
	if !json.Valid(event.Payload) {
		return ErrPayloadParse{Message: "body is not valid JSON"}
	}
	return handler.Handle(ctx, event)
}

// fetchSubscription returns the shop's current subscription for a topic, or
// nil when none exists.
func (r *Registry) fetchSubscription(ctx context.Context, session *domain.Session, topic string) (*remoteSubscription, error) {
	data, err := r.gql.Execute(ctx, session, webhookSubscriptionsQuery, map[string]any{
		"topics": []string{graphqlTopic(topic)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook subscriptions for %q: %w", topic, err)
	}

	var parsed subscriptionsQueryData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse webhook subscriptions response: %w", err)
	}
	if len(parsed.WebhookSubscriptions.Edges) == 0 {
		return nil, nil
	}
	sub := parsed.WebhookSubscriptions.Edges[0].Node
	return &sub, nil
}

// runMutation executes a webhook mutation and surfaces its userErrors, which
// arrive on an HTTP 200.
func (r *Registry) runMutation(ctx context.Context, session *domain.Session, doc, field string, variables map[string]any) error {
	data, err := r.gql.Execute(ctx, session, doc, variables)
	if err != nil {
		return fmt.Errorf("webhook mutation %s failed: %w", field, err)
	}

	var payload map[string]mutationData
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", field, err)
	}
	if result, ok := payload[field]; ok && len(result.UserErrors) > 0 {
		return ErrShopify{Message: joinUserErrors(result.UserErrors)}
	}
	return nil
}
