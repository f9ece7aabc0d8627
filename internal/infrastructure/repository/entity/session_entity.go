package entity

import (
	"time"

	"shopify-auth-layer/internal/domain"
)

// MongoSessionDoc is the persisted shape of a domain.Session. The scope set is
// stored in its canonical string form and rebuilt on load.
type MongoSessionDoc struct {
	ID                    string                 `bson:"_id"`
	Shop                  string                 `bson:"shop"`
	AccessToken           string                 `bson:"access_token"`
	Scope                 string                 `bson:"scope"`
	IsOnline              bool                   `bson:"is_online"`
	Expires               *time.Time             `bson:"expires,omitempty"`
	RefreshToken          *string                `bson:"refresh_token,omitempty"`
	RefreshTokenExpiresAt *time.Time             `bson:"refresh_token_expires_at,omitempty"`
	AssociatedUser        *domain.AssociatedUser `bson:"associated_user,omitempty"`
	ShopifySessionID      *string                `bson:"shopify_session_id,omitempty"`
	CreatedAt             time.Time              `bson:"created_at"`
	UpdatedAt             time.Time              `bson:"updated_at"`
}

// MongoSessionDocFromDomain converts a domain session to its persisted shape.
func MongoSessionDocFromDomain(s *domain.Session) *MongoSessionDoc {
	return &MongoSessionDoc{
		ID:                    s.ID,
		Shop:                  s.Shop.String(),
		AccessToken:           s.AccessToken,
		Scope:                 s.Scope,
		IsOnline:              s.IsOnline,
		Expires:               s.Expires,
		RefreshToken:          s.RefreshToken,
		RefreshTokenExpiresAt: s.RefreshTokenExpiresAt,
		AssociatedUser:        s.AssociatedUser,
		ShopifySessionID:      s.ShopifySessionID,
		CreatedAt:             s.CreatedAt,
	}
}

// ToDomain converts the persisted shape back to a domain session.
func (d *MongoSessionDoc) ToDomain() *domain.Session {
	return &domain.Session{
		ID:                    d.ID,
		Shop:                  domain.ShopDomain(d.Shop),
		AccessToken:           d.AccessToken,
		Scopes:                domain.NewAuthScopes(d.Scope),
		Scope:                 d.Scope,
		IsOnline:              d.IsOnline,
		Expires:               d.Expires,
		RefreshToken:          d.RefreshToken,
		RefreshTokenExpiresAt: d.RefreshTokenExpiresAt,
		AssociatedUser:        d.AssociatedUser,
		ShopifySessionID:      d.ShopifySessionID,
		CreatedAt:             d.CreatedAt,
	}
}
