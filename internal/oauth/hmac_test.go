package oauth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify-auth-layer/internal/domain"
)

func testAppConfig(t *testing.T, oldSecret string) *domain.AppConfig {
	t.Helper()
	cfg, err := domain.NewAppConfig("test-api-key", "test-api-secret", oldSecret, true, nil, domain.NewAuthScopes("read_orders"), "2024-10")
	require.NoError(t, err)
	return cfg
}

func TestComputeSignature(t *testing.T) {
	// Known HMAC-SHA256 vector
	sig := ComputeSignature("message", "key")
	assert.Equal(t, "6e9ef29b75fffc5b7abae527d58fdadb2fe42e7219011976917343065f58ed4a", sig)

	assert.Len(t, sig, 64)
	assert.Equal(t, strings.ToLower(sig), sig)

	// Deterministic, and sensitive to both inputs
	assert.Equal(t, sig, ComputeSignature("message", "key"))
	assert.NotEqual(t, sig, ComputeSignature("message2", "key"))
	assert.NotEqual(t, sig, ComputeSignature("message", "key2"))
}

func TestComputeSignatureBase64(t *testing.T) {
	sig := ComputeSignatureBase64([]byte("message"), "key")
	assert.Equal(t, "bp7ym3X//Ft6uuUn1Y/a2y/kLnIZARl2kXNDBl9Y7Uo=", sig)
}

func TestConstantTimeCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"", "", true},
		{"a", "a", true},
		{"abc", "abc", true},
		{"abc", "abd", false},
		{"abc", "ab", false},
		{"", "a", false},
		{"longer-string-here", "longer-string-here", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConstantTimeCompare(tt.a, tt.b), "compare %q vs %q", tt.a, tt.b)
	}
}

func TestVerifyWithSecretsFallback(t *testing.T) {
	cfg := testAppConfig(t, "old-secret")

	var tried []string
	ok := VerifyWithSecrets(cfg, func(secret string) bool {
		tried = append(tried, secret)
		return secret == "old-secret"
	})
	assert.True(t, ok)
	assert.Equal(t, []string{"test-api-secret", "old-secret"}, tried, "primary key is tried first")

	// Primary success short-circuits
	tried = nil
	ok = VerifyWithSecrets(cfg, func(secret string) bool {
		tried = append(tried, secret)
		return true
	})
	assert.True(t, ok)
	assert.Equal(t, []string{"test-api-secret"}, tried)

	// No old key configured means a single attempt
	single := testAppConfig(t, "")
	tried = nil
	ok = VerifyWithSecrets(single, func(secret string) bool {
		tried = append(tried, secret)
		return false
	})
	assert.False(t, ok)
	assert.Equal(t, []string{"test-api-secret"}, tried)
}
