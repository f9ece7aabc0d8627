package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustShop(t *testing.T, raw string) ShopDomain {
	t.Helper()
	shop, err := NewShopDomain(raw)
	require.NoError(t, err)
	return shop
}

func TestNewSessionFromTokenResponseOffline(t *testing.T) {
	shop := mustShop(t, "test-shop")
	session := NewSessionFromTokenResponse(shop, &AccessTokenResponse{
		AccessToken: "token-123",
		Scope:       "write_orders,read_products",
	})

	assert.Equal(t, "offline_test-shop.myshopify.com", session.ID)
	assert.Equal(t, "token-123", session.AccessToken)
	assert.False(t, session.IsOnline)
	assert.Nil(t, session.AssociatedUser)
	assert.Nil(t, session.Expires)
	assert.False(t, session.Expired(), "session without expiry never expires")
	assert.True(t, session.IsActive())
}

func TestNewSessionFromTokenResponseOnline(t *testing.T) {
	shop := mustShop(t, "test-shop")
	expiresIn := int64(86399)
	userScope := "read_orders"
	session := NewSessionFromTokenResponse(shop, &AccessTokenResponse{
		AccessToken:         "token-123",
		Scope:               "write_orders,read_products",
		ExpiresIn:           &expiresIn,
		AssociatedUserScope: &userScope,
		AssociatedUser: &AssociatedUser{
			ID:           42,
			Email:        "owner@test-shop.com",
			AccountOwner: true,
		},
	})

	assert.Equal(t, "online_test-shop.myshopify.com", session.ID)
	assert.True(t, session.IsOnline)
	require.NotNil(t, session.AssociatedUser)
	assert.Equal(t, int64(42), session.AssociatedUser.ID)
	// The user-level scope replaces the app-level one for online sessions
	assert.Equal(t, "read_orders", session.Scope)
	require.NotNil(t, session.Expires)
	assert.WithinDuration(t, time.Now().Add(time.Duration(expiresIn)*time.Second), *session.Expires, 5*time.Second)
}

func TestSessionExpired(t *testing.T) {
	shop := mustShop(t, "test-shop")

	past := time.Now().Add(-time.Minute)
	expired := &Session{Shop: shop, AccessToken: "t", Expires: &past}
	assert.True(t, expired.Expired())
	assert.False(t, expired.IsActive())

	future := time.Now().Add(time.Hour)
	live := &Session{Shop: shop, AccessToken: "t", Expires: &future}
	assert.False(t, live.Expired())
	assert.True(t, live.IsActive())
}

func TestSessionRefreshTokenExpired(t *testing.T) {
	shop := mustShop(t, "test-shop")

	none := &Session{Shop: shop}
	assert.False(t, none.RefreshTokenExpired(), "no refresh expiry means never expired")

	// Within the 60-second safety buffer counts as expired
	soon := time.Now().Add(30 * time.Second)
	nearExpiry := &Session{Shop: shop, RefreshTokenExpiresAt: &soon}
	assert.True(t, nearExpiry.RefreshTokenExpired())

	later := time.Now().Add(time.Hour)
	fresh := &Session{Shop: shop, RefreshTokenExpiresAt: &later}
	assert.False(t, fresh.RefreshTokenExpired())
}

func TestSessionRefreshTokenCaptured(t *testing.T) {
	shop := mustShop(t, "test-shop")
	refresh := "refresh-abc"
	refreshExpiresIn := int64(7200)
	session := NewSessionFromTokenResponse(shop, &AccessTokenResponse{
		AccessToken:           "token-123",
		Scope:                 "read_orders",
		RefreshToken:          &refresh,
		RefreshTokenExpiresIn: &refreshExpiresIn,
	})

	require.NotNil(t, session.RefreshToken)
	assert.Equal(t, "refresh-abc", *session.RefreshToken)
	require.NotNil(t, session.RefreshTokenExpiresAt)
	assert.False(t, session.RefreshTokenExpired())
}
