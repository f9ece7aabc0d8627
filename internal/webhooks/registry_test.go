package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify-auth-layer/internal/domain"
)

type fakeCall struct {
	query     string
	variables map[string]any
}

// fakeGraphQLClient replays queued responses and records every call.
type fakeGraphQLClient struct {
	responses []any // json string or error, consumed in order
	calls     []fakeCall
}

func (f *fakeGraphQLClient) Execute(_ context.Context, _ *domain.Session, query string, variables map[string]any) (json.RawMessage, error) {
	f.calls = append(f.calls, fakeCall{query: query, variables: variables})
	if len(f.responses) == 0 {
		return nil, fmt.Errorf("unexpected graphql call")
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	if err, ok := next.(error); ok {
		return nil, err
	}
	return json.RawMessage(next.(string)), nil
}

const noSubscriptions = `{"webhookSubscriptions":{"edges":[]}}`

func existingHTTPSubscription(callbackURL string) string {
	return fmt.Sprintf(`{"webhookSubscriptions":{"edges":[{"node":{
		"id":"gid://shopify/WebhookSubscription/1",
		"includeFields":null,
		"metafieldNamespaces":null,
		"filter":null,
		"endpoint":{"__typename":"WebhookHttpEndpoint","callbackUrl":%q}
	}}]}}`, callbackURL)
}

func okMutation(field string) string {
	return fmt.Sprintf(`{%q:{"webhookSubscription":{"id":"gid://shopify/WebhookSubscription/1"},"userErrors":[]}}`, field)
}

func testSession(t *testing.T) *domain.Session {
	t.Helper()
	shop, err := domain.NewShopDomain("test-shop")
	require.NoError(t, err)
	return &domain.Session{
		ID:          "offline_test-shop.myshopify.com",
		Shop:        shop,
		AccessToken: "shpat_abc",
	}
}

func newTestRegistry(t *testing.T, gql *fakeGraphQLClient) *Registry {
	t.Helper()
	registry := NewRegistry(gql, zerolog.Nop())
	require.NoError(t, registry.AddRegistration(&Registration{
		Topic:    "orders/create",
		Delivery: HTTPDelivery{URI: "https://app.example.com/webhooks/shopify"},
	}))
	return registry
}

func TestRegisterCreatesWhenAbsent(t *testing.T) {
	gql := &fakeGraphQLClient{responses: []any{noSubscriptions, okMutation("webhookSubscriptionCreate")}}
	registry := newTestRegistry(t, gql)

	result, err := registry.Register(context.Background(), testSession(t), "orders/create")
	require.NoError(t, err)
	assert.Equal(t, ResultCreated, result)

	require.Len(t, gql.calls, 2)
	assert.Contains(t, gql.calls[0].query, "webhookSubscriptions(")
	assert.Equal(t, []string{"ORDERS_CREATE"}, gql.calls[0].variables["topics"])
	assert.Contains(t, gql.calls[1].query, "webhookSubscriptionCreate(")
	assert.Equal(t, "ORDERS_CREATE", gql.calls[1].variables["topic"])

	input, ok := gql.calls[1].variables["webhookSubscription"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://app.example.com/webhooks/shopify", input["callbackUrl"])
}

func TestRegisterSkipsWhenConfigMatches(t *testing.T) {
	gql := &fakeGraphQLClient{responses: []any{
		existingHTTPSubscription("https://app.example.com/webhooks/shopify"),
	}}
	registry := newTestRegistry(t, gql)

	result, err := registry.Register(context.Background(), testSession(t), "orders/create")
	require.NoError(t, err)
	assert.Equal(t, ResultAlreadyRegistered, result)
	assert.Len(t, gql.calls, 1, "no mutation when the remote config matches")
}

func TestRegisterUpdatesWhenConfigDiffers(t *testing.T) {
	gql := &fakeGraphQLClient{responses: []any{
		existingHTTPSubscription("https://old.example.com/webhooks"),
		okMutation("webhookSubscriptionUpdate"),
	}}
	registry := newTestRegistry(t, gql)

	result, err := registry.Register(context.Background(), testSession(t), "orders/create")
	require.NoError(t, err)
	assert.Equal(t, ResultUpdated, result)

	require.Len(t, gql.calls, 2)
	assert.Contains(t, gql.calls[1].query, "webhookSubscriptionUpdate(")
	assert.Equal(t, "gid://shopify/WebhookSubscription/1", gql.calls[1].variables["id"])
}

func TestRegisterUpdatesWhenFieldsDiffer(t *testing.T) {
	gql := &fakeGraphQLClient{responses: []any{
		existingHTTPSubscription("https://app.example.com/webhooks/shopify"),
		okMutation("webhookSubscriptionUpdate"),
	}}
	registry := NewRegistry(gql, zerolog.Nop())
	require.NoError(t, registry.AddRegistration(&Registration{
		Topic:         "orders/create",
		Delivery:      HTTPDelivery{URI: "https://app.example.com/webhooks/shopify"},
		IncludeFields: []string{"id", "total_price"},
	}))

	result, err := registry.Register(context.Background(), testSession(t), "orders/create")
	require.NoError(t, err)
	assert.Equal(t, ResultUpdated, result)
}

func TestRegisterEventBridgeUsesDedicatedMutation(t *testing.T) {
	gql := &fakeGraphQLClient{responses: []any{noSubscriptions, okMutation("eventBridgeWebhookSubscriptionCreate")}}
	registry := NewRegistry(gql, zerolog.Nop())
	require.NoError(t, registry.AddRegistration(&Registration{
		Topic:    "orders/create",
		Delivery: EventBridgeDelivery{ARN: "arn:aws:events:us-east-1::event-source/aws.partner/shopify.com/1/source"},
	}))

	result, err := registry.Register(context.Background(), testSession(t), "orders/create")
	require.NoError(t, err)
	assert.Equal(t, ResultCreated, result)

	assert.Contains(t, gql.calls[1].query, "eventBridgeWebhookSubscriptionCreate(")
	input := gql.calls[1].variables["webhookSubscription"].(map[string]any)
	assert.Contains(t, input["arn"], "arn:aws:events")
}

func TestRegisterSurfacesUserErrors(t *testing.T) {
	gql := &fakeGraphQLClient{responses: []any{
		noSubscriptions,
		`{"webhookSubscriptionCreate":{"webhookSubscription":null,"userErrors":[
			{"field":["topic"],"message":"Topic is invalid"},
			{"field":null,"message":"Address is not allowed"}
		]}}`,
	}}
	registry := newTestRegistry(t, gql)

	_, err := registry.Register(context.Background(), testSession(t), "orders/create")
	var shopifyErr ErrShopify
	require.ErrorAs(t, err, &shopifyErr)
	assert.Equal(t, "Topic is invalid; Address is not allowed", shopifyErr.Message)
}

func TestRegisterUnknownTopic(t *testing.T) {
	registry := newTestRegistry(t, &fakeGraphQLClient{})

	_, err := registry.Register(context.Background(), testSession(t), "customers/create")
	var notFound ErrRegistrationNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "customers/create", notFound.Topic)
}

func TestRegisterAllContinuesPastFailures(t *testing.T) {
	gql := &fakeGraphQLClient{responses: []any{
		errors.New("boom"), // app/uninstalled query fails
		noSubscriptions,    // orders/create proceeds
		okMutation("webhookSubscriptionCreate"),
	}}
	registry := newTestRegistry(t, gql)
	require.NoError(t, registry.AddRegistration(&Registration{
		Topic:    "app/uninstalled",
		Delivery: HTTPDelivery{URI: "https://app.example.com/webhooks/shopify"},
	}))

	outcomes := registry.RegisterAll(context.Background(), testSession(t))
	require.Len(t, outcomes, 2)
	assert.Error(t, outcomes["app/uninstalled"].Err)
	assert.NoError(t, outcomes["orders/create"].Err)
	assert.Equal(t, ResultCreated, outcomes["orders/create"].Result)
}

func TestUnregister(t *testing.T) {
	gql := &fakeGraphQLClient{responses: []any{
		existingHTTPSubscription("https://app.example.com/webhooks/shopify"),
		`{"webhookSubscriptionDelete":{"deletedWebhookSubscriptionId":"gid://shopify/WebhookSubscription/1","userErrors":[]}}`,
	}}
	registry := newTestRegistry(t, gql)

	err := registry.Unregister(context.Background(), testSession(t), "orders/create")
	require.NoError(t, err)
	assert.Contains(t, gql.calls[1].query, "webhookSubscriptionDelete(")
}

func TestUnregisterWithoutLocalRegistration(t *testing.T) {
	gql := &fakeGraphQLClient{responses: []any{
		existingHTTPSubscription("https://app.example.com/webhooks/shopify"),
		`{"webhookSubscriptionDelete":{"deletedWebhookSubscriptionId":"gid://shopify/WebhookSubscription/1","userErrors":[]}}`,
	}}
	registry := NewRegistry(gql, zerolog.Nop())

	// Leftover subscriptions for topics no longer configured are still removable
	err := registry.Unregister(context.Background(), testSession(t), "customers/create")
	require.NoError(t, err)
	assert.Equal(t, []string{"CUSTOMERS_CREATE"}, gql.calls[0].variables["topics"])
}

func TestUnregisterMissingRemoteSubscription(t *testing.T) {
	gql := &fakeGraphQLClient{responses: []any{noSubscriptions}}
	registry := newTestRegistry(t, gql)

	err := registry.Unregister(context.Background(), testSession(t), "orders/create")
	var notFound ErrSubscriptionNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "orders/create", notFound.Topic)
}

func TestUnregisterAllKeepsFirstError(t *testing.T) {
	gql := &fakeGraphQLClient{responses: []any{
		noSubscriptions, // app/uninstalled has no remote subscription
		existingHTTPSubscription("https://app.example.com/webhooks/shopify"),
		`{"webhookSubscriptionDelete":{"deletedWebhookSubscriptionId":"gid://shopify/WebhookSubscription/1","userErrors":[]}}`,
	}}
	registry := newTestRegistry(t, gql)
	require.NoError(t, registry.AddRegistration(&Registration{
		Topic:    "app/uninstalled",
		Delivery: HTTPDelivery{URI: "https://app.example.com/webhooks/shopify"},
	}))

	err := registry.UnregisterAll(context.Background(), testSession(t))
	var notFound ErrSubscriptionNotFound
	require.ErrorAs(t, err, &notFound, "first error is returned")
	assert.Len(t, gql.calls, 3, "later topics are still processed")
}

type recordingHandler struct {
	topic  string
	events []*domain.WebhookEvent
	err    error
}

func (h *recordingHandler) Topic() string { return h.topic }

func (h *recordingHandler) Handle(_ context.Context, event *domain.WebhookEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func TestProcessDispatchesToHandler(t *testing.T) {
	registry := newTestRegistry(t, &fakeGraphQLClient{})
	handler := &recordingHandler{topic: "orders/create"}
	registry.AddHandler(handler)

	event := &domain.WebhookEvent{Topic: "orders/create", Payload: []byte(`{"id":1}`)}
	require.NoError(t, registry.Process(context.Background(), event))
	require.Len(t, handler.events, 1)
	assert.Equal(t, event, handler.events[0])
}

func TestProcessNoHandler(t *testing.T) {
	registry := newTestRegistry(t, &fakeGraphQLClient{})

	err := registry.Process(context.Background(), &domain.WebhookEvent{Topic: "orders/create", Payload: []byte(`{}`)})
	var noHandler ErrNoHandlerForTopic
	require.ErrorAs(t, err, &noHandler)
	assert.Equal(t, "orders/create", noHandler.Topic)
}

func TestProcessInvalidPayload(t *testing.T) {
	registry := newTestRegistry(t, &fakeGraphQLClient{})
	registry.AddHandler(&recordingHandler{topic: "orders/create"})

	err := registry.Process(context.Background(), &domain.WebhookEvent{Topic: "orders/create", Payload: []byte("not json")})
	var parseErr ErrPayloadParse
	assert.ErrorAs(t, err, &parseErr)
}

func TestGraphqlTopicConversion(t *testing.T) {
	assert.Equal(t, "ORDERS_CREATE", graphqlTopic("orders/create"))
	assert.Equal(t, "APP_UNINSTALLED", graphqlTopic("app/uninstalled"))
	assert.Equal(t, "DOMAIN_SUB_DOMAIN_SUB_DOMAIN_CREATE", graphqlTopic("domain.sub_domain.sub_domain/create"))
}

func TestTopicsSorted(t *testing.T) {
	registry := newTestRegistry(t, &fakeGraphQLClient{})
	require.NoError(t, registry.AddRegistration(&Registration{
		Topic:    "app/uninstalled",
		Delivery: HTTPDelivery{URI: "https://app.example.com/webhooks/shopify"},
	}))

	topics := registry.Topics()
	assert.True(t, strings.HasPrefix(topics[0], "app/"))
	assert.Equal(t, []string{"app/uninstalled", "orders/create"}, topics)
}
