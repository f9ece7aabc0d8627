package graphqlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/ports"
)

const defaultAPIVersion = "2024-10"

// Client executes admin GraphQL requests authenticated by a session's access
// token.
type Client struct {
	httpClient *http.Client
	apiVersion string
	logger     zerolog.Logger
}

// NewClient creates an admin GraphQL client for the given API version. An
// empty version falls back to the package default.
func NewClient(logger zerolog.Logger, apiVersion string) *Client {
	return NewClientWithHTTPClient(logger, apiVersion, &http.Client{Timeout: 30 * time.Second})
}

// NewClientWithHTTPClient creates the client with a caller-supplied HTTP
// client, used to inject transports in tests.
func NewClientWithHTTPClient(logger zerolog.Logger, apiVersion string, httpClient *http.Client) *Client {
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	return &Client{
		httpClient: httpClient,
		apiVersion: apiVersion,
		logger:     logger,
	}
}

var _ ports.GraphQLClient = (*Client)(nil)

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// Execute POSTs a GraphQL document to the session's shop and returns the data
// object. Top-level GraphQL errors become Go errors.
func (c *Client) Execute(ctx context.Context, session *domain.Session, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode graphql request: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", session.Shop, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", session.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read graphql response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("graphql request returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed graphqlResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse graphql response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		msgs := make([]string, 0, len(parsed.Errors))
		for _, e := range parsed.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("graphql request returned errors: %s", strings.Join(msgs, "; "))
	}
	return parsed.Data, nil
}
