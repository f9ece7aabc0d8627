package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"shopify-auth-layer/internal/domain"
)

// Config is everything the service reads from the environment: the app
// credentials plus infrastructure endpoints.
type Config struct {
	App *domain.AppConfig

	AppURL        string
	Port          string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
}

// Load builds the configuration from environment variables. Call
// godotenv.Load first if a .env file should be honored.
func Load() (*Config, error) {
	apiKey := os.Getenv("SHOPIFY_API_KEY")
	apiSecret := os.Getenv("SHOPIFY_API_SECRET")
	oldSecret := os.Getenv("SHOPIFY_OLD_API_SECRET")
	scopes := domain.NewAuthScopes(os.Getenv("SHOPIFY_SCOPES"))
	apiVersion := os.Getenv("SHOPIFY_API_VERSION")

	embedded := true
	if v := os.Getenv("SHOPIFY_EMBEDDED"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SHOPIFY_EMBEDDED value %q: %w", v, err)
		}
		embedded = parsed
	}

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}
	host, err := url.Parse(appURL)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_URL %q: %w", appURL, err)
	}

	app, err := domain.NewAppConfig(apiKey, apiSecret, oldSecret, embedded, host, scopes, apiVersion)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App:           app,
		AppURL:        appURL,
		Port:          envOr("PORT", "8080"),
		MongoURI:      envOr("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: envOr("MONGODB_DATABASE", "shopify_auth"),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
