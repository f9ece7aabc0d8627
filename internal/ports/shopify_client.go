package ports

import (
	"context"

	"shopify-auth-layer/internal/domain"
)

// ShopVerifier defines the interface for checking that a stored access token
// still reaches the shop's admin API. Implementations make a lightweight REST
// call; this layer does not care which one.
type ShopVerifier interface {
	VerifyToken(ctx context.Context, session *domain.Session) error
}
