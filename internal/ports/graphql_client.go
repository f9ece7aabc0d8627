package ports

import (
	"context"
	"encoding/json"

	"shopify-auth-layer/internal/domain"
)

// GraphQLClient defines the interface for admin GraphQL calls made on behalf
// of a session. Execute returns the response's data object; top-level GraphQL
// errors are returned as Go errors.
type GraphQLClient interface {
	Execute(ctx context.Context, session *domain.Session, query string, variables map[string]any) (json.RawMessage, error)
}
