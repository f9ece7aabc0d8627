package oauth

import (
	"fmt"
	"net/url"
	"strings"

	"shopify-auth-layer/internal/domain"
)

// BeginAuthResult carries the authorization redirect URL and the state the
// caller must persist until the callback arrives. This layer does not persist
// the state itself.
type BeginAuthResult struct {
	AuthURL string
	State   StateParam
}

// BeginAuth builds the authorization-code redirect URL for a shop. Scopes come
// from scopeOverride when given, otherwise from the config. Online flows add
// grant_options[]=per-user. Parameter keys and values are percent-encoded
// independently and emitted in a fixed order.
func BeginAuth(config *domain.AppConfig, shop domain.ShopDomain, redirectPath string, isOnline bool, scopeOverride *domain.AuthScopes) (*BeginAuthResult, error) {
	if config.Host == nil {
		return nil, ErrMissingHostConfig{}
	}

	state, err := NewStateParam()
	if err != nil {
		return nil, fmt.Errorf("failed to generate oauth state: %w", err)
	}

	scopes := config.Scopes
	if scopeOverride != nil {
		scopes = *scopeOverride
	}

	redirectURI := strings.TrimSuffix(config.Host.String(), "/") + redirectPath

	params := [][2]string{
		{"client_id", config.APIKey},
		{"scope", scopes.String()},
		{"redirect_uri", redirectURI},
		{"state", state.Value()},
	}
	if isOnline {
		params = append(params, [2]string{"grant_options[]", "per-user"})
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, percentEscape(p[0])+"="+percentEscape(p[1]))
	}

	authURL := fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shop, strings.Join(parts, "&"))
	return &BeginAuthResult{AuthURL: authURL, State: state}, nil
}

// percentEscape encodes a query component with %20 for spaces rather than the
// form-encoding "+" that url.QueryEscape emits.
func percentEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
