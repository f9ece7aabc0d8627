package oauth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenOpts struct {
	iss string
	sub string
	aud string
	exp time.Time
}

func signSessionToken(t *testing.T, secret string, opts tokenOpts) string {
	t.Helper()
	now := time.Now()
	if opts.iss == "" {
		opts.iss = "https://test-shop.myshopify.com/admin"
	}
	if opts.aud == "" {
		opts.aud = "test-api-key"
	}
	if opts.exp.IsZero() {
		opts.exp = now.Add(time.Minute)
	}

	claims := jwt.MapClaims{
		"iss":  opts.iss,
		"dest": "https://test-shop.myshopify.com",
		"aud":  opts.aud,
		"exp":  opts.exp.Unix(),
		"nbf":  now.Add(-time.Minute).Unix(),
		"iat":  now.Add(-time.Minute).Unix(),
		"jti":  "jti-123",
		"sid":  "sid-456",
	}
	if opts.sub != "" {
		claims["sub"] = opts.sub
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestDecodeSessionToken(t *testing.T) {
	cfg := testAppConfig(t, "")
	token := signSessionToken(t, "test-api-secret", tokenOpts{sub: "12345"})

	payload, err := DecodeSessionToken(cfg, token)
	require.NoError(t, err)

	assert.Equal(t, "https://test-shop.myshopify.com/admin", payload.Iss)
	assert.Equal(t, "https://test-shop.myshopify.com", payload.Dest)
	assert.Equal(t, "test-api-key", payload.Aud)
	assert.Equal(t, "jti-123", payload.Jti)
	require.NotNil(t, payload.Sid)
	assert.Equal(t, "sid-456", *payload.Sid)
	assert.Equal(t, "test-shop.myshopify.com", payload.Shop())
}

func TestDecodeSessionTokenOldKeyFallback(t *testing.T) {
	cfg := testAppConfig(t, "rotated-out-secret")
	token := signSessionToken(t, "rotated-out-secret", tokenOpts{})

	payload, err := DecodeSessionToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, "test-shop.myshopify.com", payload.Shop())
}

func TestDecodeSessionTokenUnknownKey(t *testing.T) {
	cfg := testAppConfig(t, "rotated-out-secret")
	token := signSessionToken(t, "some-other-secret", tokenOpts{})

	_, err := DecodeSessionToken(cfg, token)
	var invalidJwt ErrInvalidJwt
	require.ErrorAs(t, err, &invalidJwt)
	assert.Contains(t, invalidJwt.Reason, "Error decoding session token:")
}

func TestDecodeSessionTokenLeeway(t *testing.T) {
	cfg := testAppConfig(t, "")

	// 5 seconds past expiry is inside the 10-second leeway
	recent := signSessionToken(t, "test-api-secret", tokenOpts{exp: time.Now().Add(-5 * time.Second)})
	_, err := DecodeSessionToken(cfg, recent)
	assert.NoError(t, err)

	// An hour past expiry is not
	stale := signSessionToken(t, "test-api-secret", tokenOpts{exp: time.Now().Add(-time.Hour)})
	_, err = DecodeSessionToken(cfg, stale)
	var invalidJwt ErrInvalidJwt
	require.ErrorAs(t, err, &invalidJwt)
	assert.Contains(t, invalidJwt.Reason, "Error decoding session token:")
}

func TestDecodeSessionTokenWrongAudience(t *testing.T) {
	cfg := testAppConfig(t, "")
	token := signSessionToken(t, "test-api-secret", tokenOpts{aud: "some-other-app"})

	_, err := DecodeSessionToken(cfg, token)
	var invalidJwt ErrInvalidJwt
	require.ErrorAs(t, err, &invalidJwt)
	assert.Equal(t, "Session token had invalid API key", invalidJwt.Reason)
}

func TestShopifyUserID(t *testing.T) {
	cfg := testAppConfig(t, "")

	tests := []struct {
		name   string
		opts   tokenOpts
		wantID int64
		wantOK bool
	}{
		{
			name:   "numeric sub under admin issuer",
			opts:   tokenOpts{sub: "12345"},
			wantID: 12345,
			wantOK: true,
		},
		{
			name:   "non-numeric sub under admin issuer",
			opts:   tokenOpts{sub: "abc"},
			wantOK: false,
		},
		{
			name:   "numeric sub under non-admin issuer",
			opts:   tokenOpts{sub: "12345", iss: "https://test-shop.myshopify.com"},
			wantOK: false,
		},
		{
			name:   "absent sub",
			opts:   tokenOpts{},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signSessionToken(t, "test-api-secret", tt.opts)
			payload, err := DecodeSessionToken(cfg, token)
			require.NoError(t, err)

			id, ok := payload.ShopifyUserID()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}
