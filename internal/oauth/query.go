package oauth

import (
	"fmt"
	"sort"
	"strings"

	"shopify-auth-layer/internal/domain"
)

// AuthQuery is the query-string payload Shopify sends to the OAuth callback.
// Every field except Hmac is covered by the signature.
type AuthQuery struct {
	Code      string
	Shop      string
	Timestamp string
	State     string
	Host      string
	Hmac      string
}

// SignableString rebuilds the exact message Shopify signed: all fields except
// hmac as "key=value" pairs, sorted by key, joined with "&". Empty fields are
// included; any deviation here rejects every valid callback.
func (q *AuthQuery) SignableString() string {
	pairs := map[string]string{
		"code":      q.Code,
		"shop":      q.Shop,
		"timestamp": q.Timestamp,
		"state":     q.State,
		"host":      q.Host,
	}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, pairs[k]))
	}
	return strings.Join(parts, "&")
}

// ValidateHmac verifies the callback signature against the primary secret,
// falling back to the old secret when configured.
func ValidateHmac(config *domain.AppConfig, query *AuthQuery) bool {
	message := query.SignableString()
	return VerifyWithSecrets(config, func(secret string) bool {
		return ConstantTimeCompare(ComputeSignature(message, secret), query.Hmac)
	})
}
