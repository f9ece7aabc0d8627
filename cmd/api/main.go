package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopify-auth-layer/internal/application"
	"shopify-auth-layer/internal/application/webhook_handlers"
	"shopify-auth-layer/internal/config"
	"shopify-auth-layer/internal/infrastructure/graphqlclient"
	"shopify-auth-layer/internal/infrastructure/metrics"
	"shopify-auth-layer/internal/infrastructure/pubsub"
	"shopify-auth-layer/internal/infrastructure/redisstore"
	"shopify-auth-layer/internal/infrastructure/repository"
	"shopify-auth-layer/internal/infrastructure/shopifyrest"
	"shopify-auth-layer/internal/oauth"
	"shopify-auth-layer/internal/webhooks"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to MongoDB
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.MongoDatabase)

	// Connect to Redis (OAuth state handoff between begin and callback)
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	// Initialize infrastructure
	sessionRepo := repository.NewMongoSessionRepository(db)
	stateStore := redisstore.NewStateStore(redisClient)
	gqlClient := graphqlclient.NewClient(logger, cfg.App.APIVersion)
	verifier := shopifyrest.NewTokenVerifier(cfg.App, logger)
	m := metrics.New(prometheus.DefaultRegisterer)
	webhookPubSub := pubsub.NewWebhookPubSub(logger)

	// Configure the webhook registry fully before the server starts
	registry := webhooks.NewRegistry(gqlClient, logger)
	webhookEndpoint := cfg.AppURL + "/webhooks/shopify"
	for _, topic := range []string{"app/uninstalled", "orders/create"} {
		if err := registry.AddRegistration(&webhooks.Registration{
			Topic:    topic,
			Delivery: webhooks.HTTPDelivery{URI: webhookEndpoint},
		}); err != nil {
			logger.Fatal().Err(err).Str("topic", topic).Msg("Invalid webhook registration")
		}
	}
	registry.AddHandler(webhook_handlers.NewAppUninstalledHandler(sessionRepo, logger))
	registry.AddHandler(webhook_handlers.NewOrderCreatedHandler(logger))

	// Initialize application services
	oauthClient := oauth.NewClient(logger)
	authService := application.NewAuthService(cfg.App, oauthClient, sessionRepo, stateStore, registry, verifier, m, logger)
	webhookService := application.NewWebhookService(cfg.App, registry, webhookPubSub, m, logger)

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// OAuth routes
	r.Get("/auth/shopify", beginAuthHandler(authService, logger))
	r.Get(application.CallbackPath, authCallbackHandler(authService, cfg.AppURL, logger))
	r.Post("/auth/token-exchange", tokenExchangeHandler(authService, logger))
	r.Post("/auth/client-credentials", clientCredentialsHandler(authService, logger))
	r.Post("/auth/refresh", refreshHandler(authService, logger))
	r.Post("/auth/migrate", migrateHandler(authService, logger))

	// Webhook endpoint
	r.Post("/webhooks/shopify", webhookHandler(webhookService, logger))

	logger.Info().Str("port", cfg.Port).Msg("Starting API server")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

// beginAuthHandler starts the authorization-code flow and redirects the
// merchant to the consent screen.
func beginAuthHandler(auth *application.AuthService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := r.URL.Query().Get("shop")
		if shop == "" {
			http.Error(w, "shop parameter is required", http.StatusBadRequest)
			return
		}
		isOnline := r.URL.Query().Get("online") == "true"

		authURL, err := auth.BeginAuth(r.Context(), shop, isOnline)
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Failed to begin OAuth flow")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// authCallbackHandler completes the authorization-code flow.
func authCallbackHandler(auth *application.AuthService, appURL string, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query := &oauth.AuthQuery{
			Code:      q.Get("code"),
			Shop:      q.Get("shop"),
			Timestamp: q.Get("timestamp"),
			State:     q.Get("state"),
			Host:      q.Get("host"),
			Hmac:      q.Get("hmac"),
		}

		session, err := auth.CompleteAuth(r.Context(), query)
		if err != nil {
			logger.Error().Err(err).Str("shop", query.Shop).Msg("OAuth callback failed")
			http.Error(w, err.Error(), callbackStatus(err))
			return
		}

		logger.Info().Str("shop", session.Shop.String()).Msg("Shop authorized")
		http.Redirect(w, r, appURL+"/?shop="+session.Shop.String(), http.StatusFound)
	}
}

// callbackStatus maps trust failures to 401 and malformed input to 400.
func callbackStatus(err error) int {
	var (
		invalidHmac   oauth.ErrInvalidHmac
		stateMismatch oauth.ErrStateMismatch
	)
	if errors.As(err, &invalidHmac) || errors.As(err, &stateMismatch) {
		return http.StatusUnauthorized
	}
	return http.StatusBadRequest
}

func tokenExchangeHandler(auth *application.AuthService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionToken string `json:"session_token"`
			Online       bool   `json:"online"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		session, err := auth.ExchangeSessionToken(r.Context(), req.SessionToken, req.Online)
		if err != nil {
			logger.Error().Err(err).Msg("Token exchange failed")
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		writeJSON(w, session)
	}
}

func clientCredentialsHandler(auth *application.AuthService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Shop string `json:"shop"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		session, err := auth.GrantClientCredentials(r.Context(), req.Shop)
		if err != nil {
			logger.Error().Err(err).Str("shop", req.Shop).Msg("Client credentials grant failed")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, session)
	}
}

func refreshHandler(auth *application.AuthService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID string `json:"session_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		session, err := auth.GetSession(r.Context(), req.SessionID)
		if err != nil || session == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		refreshed, err := auth.RefreshSession(r.Context(), session)
		if err != nil {
			logger.Error().Err(err).Str("sessionId", req.SessionID).Msg("Token refresh failed")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, refreshed)
	}
}

func migrateHandler(auth *application.AuthService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID string `json:"session_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		session, err := auth.GetSession(r.Context(), req.SessionID)
		if err != nil || session == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		migrated, err := auth.MigrateSession(r.Context(), session)
		if err != nil {
			logger.Error().Err(err).Str("sessionId", req.SessionID).Msg("Token migration failed")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, migrated)
	}
}

// webhookHandler verifies and dispatches an inbound webhook delivery. The raw
// body is read before any parsing because the signature covers the exact
// bytes.
func webhookHandler(service *application.WebhookService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		if err := service.HandleDelivery(r.Context(), r.Header, body); err != nil {
			var invalidHmac webhooks.ErrInvalidHmac
			if errors.As(err, &invalidHmac) {
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}
			logger.Error().Err(err).Msg("Failed to process webhook delivery")
			// 500 triggers a redelivery attempt
			http.Error(w, "failed to process webhook", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"received": "true"})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
