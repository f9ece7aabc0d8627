package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"shopify-auth-layer/internal/domain"
	"shopify-auth-layer/internal/infrastructure/metrics"
	"shopify-auth-layer/internal/oauth"
	"shopify-auth-layer/internal/ports"
	"shopify-auth-layer/internal/webhooks"
)

// stateTTL bounds how long a begun authorization flow can wait for its
// callback before the stored state expires.
const stateTTL = 10 * time.Minute

// CallbackPath is the redirect path appended to the app host for the
// authorization-code flow.
const CallbackPath = "/auth/callback"

// AuthService orchestrates the OAuth flows around the protocol core: it
// persists state between begin and callback, stores granted sessions, and
// reconciles webhook subscriptions after an install.
type AuthService struct {
	config   *domain.AppConfig
	oauth    *oauth.Client
	sessions ports.SessionRepository
	states   ports.StateStore
	registry *webhooks.Registry
	verifier ports.ShopVerifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewAuthService creates the auth orchestration service.
func NewAuthService(
	config *domain.AppConfig,
	oauthClient *oauth.Client,
	sessions ports.SessionRepository,
	states ports.StateStore,
	registry *webhooks.Registry,
	verifier ports.ShopVerifier,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		config:   config,
		oauth:    oauthClient,
		sessions: sessions,
		states:   states,
		registry: registry,
		verifier: verifier,
		metrics:  m,
		logger:   logger,
	}
}

// BeginAuth starts an authorization-code flow for a shop and returns the
// redirect URL. The generated state is stored keyed by shop until the
// callback consumes it.
func (s *AuthService) BeginAuth(ctx context.Context, rawShop string, isOnline bool) (string, error) {
	shop, err := domain.NewShopDomain(rawShop)
	if err != nil {
		return "", fmt.Errorf("cannot begin auth: %w", err)
	}

	result, err := oauth.BeginAuth(s.config, shop, CallbackPath, isOnline, nil)
	if err != nil {
		return "", err
	}

	if err := s.states.Put(ctx, shop.String(), result.State.Value(), stateTTL); err != nil {
		return "", err
	}

	mode := "offline"
	if isOnline {
		mode = "online"
	}
	s.metrics.AuthBegins.WithLabelValues(mode).Inc()
	s.logger.Info().
		Str("shop", shop.String()).
		Bool("online", isOnline).
		Msg("Authorization flow started")
	return result.AuthURL, nil
}

// CompleteAuth validates the OAuth callback, exchanges the code, stores the
// session and reconciles the shop's webhook subscriptions.
func (s *AuthService) CompleteAuth(ctx context.Context, query *oauth.AuthQuery) (*domain.Session, error) {
	shop, err := domain.NewShopDomain(query.Shop)
	if err != nil {
		s.metrics.AuthCallbacks.WithLabelValues("invalid_shop").Inc()
		return nil, oauth.ErrInvalidCallback{Reason: fmt.Sprintf("malformed shop domain: %v", err)}
	}

	expectedState, err := s.states.Take(ctx, shop.String())
	if err != nil {
		return nil, err
	}

	session, err := s.oauth.ValidateAuthCallback(ctx, s.config, query, expectedState)
	if err != nil {
		s.metrics.AuthCallbacks.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.metrics.AuthCallbacks.WithLabelValues("success").Inc()
	s.metrics.TokenGrants.WithLabelValues("authorization_code", "success").Inc()

	// Webhook reconciliation is best-effort per topic; a failed topic must not
	// fail the install.
	if s.registry != nil {
		for topic, outcome := range s.registry.RegisterAll(ctx, session) {
			if outcome.Err != nil {
				s.logger.Warn().
					Err(outcome.Err).
					Str("topic", topic).
					Str("shop", shop.String()).
					Msg("Webhook registration failed during install")
			}
		}
	}

	return session, nil
}

// ExchangeSessionToken trades an App Bridge session token for an access token
// and stores the resulting session.
func (s *AuthService) ExchangeSessionToken(ctx context.Context, sessionToken string, online bool) (*domain.Session, error) {
	var (
		session *domain.Session
		err     error
	)
	if online {
		session, err = s.oauth.ExchangeOnlineToken(ctx, s.config, sessionToken)
	} else {
		session, err = s.oauth.ExchangeOfflineToken(ctx, s.config, sessionToken)
	}
	if err != nil {
		s.metrics.TokenGrants.WithLabelValues("token_exchange", "failure").Inc()
		return nil, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.metrics.TokenGrants.WithLabelValues("token_exchange", "success").Inc()
	return session, nil
}

// GrantClientCredentials performs the client-credentials grant for a shop and
// stores the offline session.
func (s *AuthService) GrantClientCredentials(ctx context.Context, rawShop string) (*domain.Session, error) {
	shop, err := domain.NewShopDomain(rawShop)
	if err != nil {
		return nil, fmt.Errorf("cannot grant client credentials: %w", err)
	}

	session, err := s.oauth.ExchangeClientCredentials(ctx, s.config, shop)
	if err != nil {
		s.metrics.TokenGrants.WithLabelValues("client_credentials", "failure").Inc()
		return nil, err
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.metrics.TokenGrants.WithLabelValues("client_credentials", "success").Inc()
	return session, nil
}

// RefreshSession refreshes a session's access token using its refresh token
// and stores the replacement.
func (s *AuthService) RefreshSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	if session.RefreshToken == nil {
		return nil, oauth.ErrTokenRefreshFailed{Status: 0, Message: "session has no refresh token"}
	}
	if session.RefreshTokenExpired() {
		return nil, oauth.ErrTokenRefreshFailed{Status: 0, Message: "refresh token has expired"}
	}

	refreshed, err := s.oauth.RefreshAccessToken(ctx, s.config, session.Shop, *session.RefreshToken)
	if err != nil {
		s.metrics.TokenGrants.WithLabelValues("refresh_token", "failure").Inc()
		return nil, err
	}

	if err := s.sessions.Save(ctx, refreshed); err != nil {
		return nil, err
	}
	s.metrics.TokenGrants.WithLabelValues("refresh_token", "success").Inc()
	return refreshed, nil
}

// MigrateSession converts a shop's non-expiring offline token to the expiring
// model. Once this succeeds the old token is dead, so the stored session is
// replaced in the same call.
func (s *AuthService) MigrateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	migrated, err := s.oauth.MigrateToExpiringToken(ctx, s.config, session.Shop, session.AccessToken)
	if err != nil {
		s.metrics.TokenGrants.WithLabelValues("migration", "failure").Inc()
		return nil, err
	}

	if err := s.sessions.Save(ctx, migrated); err != nil {
		return nil, err
	}
	s.metrics.TokenGrants.WithLabelValues("migration", "success").Inc()
	s.logger.Info().
		Str("shop", session.Shop.String()).
		Msg("Session migrated to expiring token model")
	return migrated, nil
}

// VerifyStoredToken checks that a stored session's token still reaches the
// shop's admin API.
func (s *AuthService) VerifyStoredToken(ctx context.Context, sessionID string) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %q not found", sessionID)
	}
	return s.verifier.VerifyToken(ctx, session)
}

// GetSession loads a stored session by id.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.sessions.GetByID(ctx, sessionID)
}
