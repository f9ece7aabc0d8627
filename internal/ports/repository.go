package ports

import (
	"context"
	"time"

	"shopify-auth-layer/internal/domain"
)

// SessionRepository defines the interface for session persistence.
type SessionRepository interface {
	Save(ctx context.Context, session *domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetByShop(ctx context.Context, shop domain.ShopDomain) ([]*domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByShop(ctx context.Context, shop domain.ShopDomain) error
}

// StateStore holds OAuth state values between the begin redirect and the
// callback. Take removes the value so a state can only be consumed once.
type StateStore interface {
	Put(ctx context.Context, key, state string, ttl time.Duration) error
	Take(ctx context.Context, key string) (string, error)
}
