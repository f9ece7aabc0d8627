package domain

import (
	"fmt"
	"time"
)

// refreshTokenExpiryBuffer treats a refresh token as expired slightly before
// its actual expiry so a refresh started near the boundary cannot race it.
const refreshTokenExpiryBuffer = 60 * time.Second

// AccessTokenResponse is the JSON body returned by the shop token endpoint for
// every grant type (authorization code, token exchange, client credentials,
// refresh).
type AccessTokenResponse struct {
	AccessToken           string          `json:"access_token"`
	Scope                 string          `json:"scope"`
	ExpiresIn             *int64          `json:"expires_in,omitempty"`
	AssociatedUserScope   *string         `json:"associated_user_scope,omitempty"`
	AssociatedUser        *AssociatedUser `json:"associated_user,omitempty"`
	Session               *string         `json:"session,omitempty"`
	RefreshToken          *string         `json:"refresh_token,omitempty"`
	RefreshTokenExpiresIn *int64          `json:"refresh_token_expires_in,omitempty"`
}

// Session is a granted access token plus its metadata. Online sessions carry
// the user the token was granted for; offline sessions are app-level.
type Session struct {
	ID                    string          `json:"id" bson:"_id"`
	Shop                  ShopDomain      `json:"shop" bson:"shop"`
	AccessToken           string          `json:"access_token" bson:"access_token"`
	Scopes                AuthScopes      `json:"-" bson:"-"`
	Scope                 string          `json:"scope" bson:"scope"`
	IsOnline              bool            `json:"is_online" bson:"is_online"`
	Expires               *time.Time      `json:"expires,omitempty" bson:"expires,omitempty"`
	RefreshToken          *string         `json:"refresh_token,omitempty" bson:"refresh_token,omitempty"`
	RefreshTokenExpiresAt *time.Time      `json:"refresh_token_expires_at,omitempty" bson:"refresh_token_expires_at,omitempty"`
	AssociatedUser        *AssociatedUser `json:"associated_user,omitempty" bson:"associated_user,omitempty"`
	ShopifySessionID      *string         `json:"shopify_session_id,omitempty" bson:"shopify_session_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at" bson:"created_at"`
}

// NewSessionFromTokenResponse is the single constructor for sessions. The
// session is online exactly when the response carries an associated user; for
// online sessions the user-level scope replaces the app-level one when present.
func NewSessionFromTokenResponse(shop ShopDomain, resp *AccessTokenResponse) *Session {
	now := time.Now()

	isOnline := resp.AssociatedUser != nil
	mode := "offline"
	if isOnline {
		mode = "online"
	}

	scope := resp.Scope
	if isOnline && resp.AssociatedUserScope != nil {
		scope = *resp.AssociatedUserScope
	}

	s := &Session{
		ID:               fmt.Sprintf("%s_%s", mode, shop),
		Shop:             shop,
		AccessToken:      resp.AccessToken,
		Scopes:           NewAuthScopes(scope),
		Scope:            scope,
		IsOnline:         isOnline,
		AssociatedUser:   resp.AssociatedUser,
		ShopifySessionID: resp.Session,
		RefreshToken:     resp.RefreshToken,
		CreatedAt:        now,
	}

	if resp.ExpiresIn != nil {
		expires := now.Add(time.Duration(*resp.ExpiresIn) * time.Second)
		s.Expires = &expires
	}
	if resp.RefreshTokenExpiresIn != nil {
		expires := now.Add(time.Duration(*resp.RefreshTokenExpiresIn) * time.Second)
		s.RefreshTokenExpiresAt = &expires
	}
	return s
}

// Expired reports whether the access token has expired. Sessions without an
// expiry never expire.
func (s *Session) Expired() bool {
	return s.Expires != nil && time.Now().After(*s.Expires)
}

// RefreshTokenExpired reports whether the refresh token is past (or within 60
// seconds of) its expiry. False when the session has no refresh expiry.
func (s *Session) RefreshTokenExpired() bool {
	if s.RefreshTokenExpiresAt == nil {
		return false
	}
	return time.Now().After(s.RefreshTokenExpiresAt.Add(-refreshTokenExpiryBuffer))
}

// IsActive reports whether the session holds a usable access token.
func (s *Session) IsActive() bool {
	return s.AccessToken != "" && !s.Expired()
}
