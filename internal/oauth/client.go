package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"shopify-auth-layer/internal/domain"
)

// Client performs the network-bound OAuth flows: code exchange, token
// exchange, client credentials, refresh and migration. It holds no per-flow
// state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates an OAuth client with a default HTTP client.
func NewClient(logger zerolog.Logger) *Client {
	return NewClientWithHTTPClient(logger, &http.Client{Timeout: 30 * time.Second})
}

// NewClientWithHTTPClient creates an OAuth client using the given HTTP client.
// Retry policy, if any, belongs to that client's transport; this layer never
// retries.
func NewClientWithHTTPClient(logger zerolog.Logger, httpClient *http.Client) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

func accessTokenURL(shop domain.ShopDomain) string {
	return fmt.Sprintf("https://%s/admin/oauth/access_token", shop)
}

// tokenEndpointError is the JSON error body the token endpoint returns on 4xx.
type tokenEndpointError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// postAccessToken POSTs a JSON grant body to the shop's token endpoint.
// On a 2xx response it returns the parsed token response. On a non-2xx it
// returns the status and raw body; on a transport failure the status is 0.
func (c *Client) postAccessToken(ctx context.Context, shop domain.ShopDomain, body map[string]string) (*domain.AccessTokenResponse, int, string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, accessTokenURL(shop), bytes.NewReader(payload))
	if err != nil {
		return nil, 0, "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err.Error(), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err.Error(), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, string(raw), nil
	}

	var tokenResp domain.AccessTokenResponse
	if err := json.Unmarshal(raw, &tokenResp); err != nil {
		return nil, resp.StatusCode, fmt.Sprintf("failed to parse token response: %v", err), nil
	}
	return &tokenResp, resp.StatusCode, "", nil
}
