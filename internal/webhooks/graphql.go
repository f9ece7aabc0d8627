package webhooks

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// mustParseDoc validates a GraphQL document at init so a malformed query is a
// startup failure, not a runtime 400.
func mustParseDoc(doc string) string {
	if _, err := parser.ParseQuery(&ast.Source{Input: doc}); err != nil {
		panic("invalid graphql document: " + err.Error())
	}
	return doc
}

var webhookSubscriptionsQuery = mustParseDoc(`
query webhookSubscriptions($topics: [WebhookSubscriptionTopic!]) {
  webhookSubscriptions(first: 1, topics: $topics) {
    edges {
      node {
        id
        includeFields
        metafieldNamespaces
        filter
        endpoint {
          __typename
          ... on WebhookHttpEndpoint {
            callbackUrl
          }
          ... on WebhookEventBridgeEndpoint {
            arn
          }
          ... on WebhookPubSubEndpoint {
            pubSubProject
            pubSubTopic
          }
        }
      }
    }
  }
}`)

var webhookSubscriptionDeleteMutation = mustParseDoc(`
mutation webhookSubscriptionDelete($id: ID!) {
  webhookSubscriptionDelete(id: $id) {
    deletedWebhookSubscriptionId
    userErrors {
      field
      message
    }
  }
}`)

// Create/update mutation names and input types differ per delivery method.
var (
	httpCreateMutation = mustParseDoc(`
mutation webhookSubscriptionCreate($topic: WebhookSubscriptionTopic!, $webhookSubscription: WebhookSubscriptionInput!) {
  webhookSubscriptionCreate(topic: $topic, webhookSubscription: $webhookSubscription) {
    webhookSubscription {
      id
    }
    userErrors {
      field
      message
    }
  }
}`)

	httpUpdateMutation = mustParseDoc(`
mutation webhookSubscriptionUpdate($id: ID!, $webhookSubscription: WebhookSubscriptionInput!) {
  webhookSubscriptionUpdate(id: $id, webhookSubscription: $webhookSubscription) {
    webhookSubscription {
      id
    }
    userErrors {
      field
      message
    }
  }
}`)

	eventBridgeCreateMutation = mustParseDoc(`
mutation eventBridgeWebhookSubscriptionCreate($topic: WebhookSubscriptionTopic!, $webhookSubscription: EventBridgeWebhookSubscriptionInput!) {
  eventBridgeWebhookSubscriptionCreate(topic: $topic, webhookSubscription: $webhookSubscription) {
    webhookSubscription {
      id
    }
    userErrors {
      field
      message
    }
  }
}`)

	eventBridgeUpdateMutation = mustParseDoc(`
mutation eventBridgeWebhookSubscriptionUpdate($id: ID!, $webhookSubscription: EventBridgeWebhookSubscriptionInput!) {
  eventBridgeWebhookSubscriptionUpdate(id: $id, webhookSubscription: $webhookSubscription) {
    webhookSubscription {
      id
    }
    userErrors {
      field
      message
    }
  }
}`)

	pubSubCreateMutation = mustParseDoc(`
mutation pubSubWebhookSubscriptionCreate($topic: WebhookSubscriptionTopic!, $webhookSubscription: PubSubWebhookSubscriptionInput!) {
  pubSubWebhookSubscriptionCreate(topic: $topic, webhookSubscription: $webhookSubscription) {
    webhookSubscription {
      id
    }
    userErrors {
      field
      message
    }
  }
}`)

	pubSubUpdateMutation = mustParseDoc(`
mutation pubSubWebhookSubscriptionUpdate($id: ID!, $webhookSubscription: PubSubWebhookSubscriptionInput!) {
  pubSubWebhookSubscriptionUpdate(id: $id, webhookSubscription: $webhookSubscription) {
    webhookSubscription {
      id
    }
    userErrors {
      field
      message
    }
  }
}`)
)

func createMutation(d DeliveryMethod) (doc, field string) {
	switch d.(type) {
	case EventBridgeDelivery:
		return eventBridgeCreateMutation, "eventBridgeWebhookSubscriptionCreate"
	case PubSubDelivery:
		return pubSubCreateMutation, "pubSubWebhookSubscriptionCreate"
	default:
		return httpCreateMutation, "webhookSubscriptionCreate"
	}
}

func updateMutation(d DeliveryMethod) (doc, field string) {
	switch d.(type) {
	case EventBridgeDelivery:
		return eventBridgeUpdateMutation, "eventBridgeWebhookSubscriptionUpdate"
	case PubSubDelivery:
		return pubSubUpdateMutation, "pubSubWebhookSubscriptionUpdate"
	default:
		return httpUpdateMutation, "webhookSubscriptionUpdate"
	}
}

// subscriptionInput builds the per-delivery-method mutation input.
func subscriptionInput(r *Registration) map[string]any {
	input := map[string]any{}
	switch d := r.Delivery.(type) {
	case EventBridgeDelivery:
		input["arn"] = d.ARN
	case PubSubDelivery:
		input["pubSubProject"] = d.Project
		input["pubSubTopic"] = d.Topic
	case HTTPDelivery:
		input["callbackUrl"] = d.URI
	}
	if r.IncludeFields != nil {
		input["includeFields"] = r.IncludeFields
	}
	if r.MetafieldNamespaces != nil {
		input["metafieldNamespaces"] = r.MetafieldNamespaces
	}
	if r.Filter != nil {
		input["filter"] = *r.Filter
	}
	return input
}

// graphqlTopic converts a delivery topic like "orders/create" to its GraphQL
// enum value "ORDERS_CREATE".
func graphqlTopic(topic string) string {
	return strings.ToUpper(strings.NewReplacer("/", "_", ".", "_").Replace(topic))
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type remoteEndpoint struct {
	Typename      string `json:"__typename"`
	CallbackURL   string `json:"callbackUrl"`
	ARN           string `json:"arn"`
	PubSubProject string `json:"pubSubProject"`
	PubSubTopic   string `json:"pubSubTopic"`
}

type remoteSubscription struct {
	ID                  string         `json:"id"`
	IncludeFields       []string       `json:"includeFields"`
	MetafieldNamespaces []string       `json:"metafieldNamespaces"`
	Filter              *string        `json:"filter"`
	Endpoint            remoteEndpoint `json:"endpoint"`
}

// delivery maps the endpoint's GraphQL typename back to a DeliveryMethod.
func (s *remoteSubscription) delivery() DeliveryMethod {
	switch s.Endpoint.Typename {
	case "WebhookEventBridgeEndpoint":
		return EventBridgeDelivery{ARN: s.Endpoint.ARN}
	case "WebhookPubSubEndpoint":
		return PubSubDelivery{Project: s.Endpoint.PubSubProject, Topic: s.Endpoint.PubSubTopic}
	default:
		return HTTPDelivery{URI: s.Endpoint.CallbackURL}
	}
}

type subscriptionsQueryData struct {
	WebhookSubscriptions struct {
		Edges []struct {
			Node remoteSubscription `json:"node"`
		} `json:"edges"`
	} `json:"webhookSubscriptions"`
}

type mutationData struct {
	WebhookSubscription *struct {
		ID string `json:"id"`
	} `json:"webhookSubscription"`
	DeletedWebhookSubscriptionID *string     `json:"deletedWebhookSubscriptionId"`
	UserErrors                   []userError `json:"userErrors"`
}

func joinUserErrors(errs []userError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}
