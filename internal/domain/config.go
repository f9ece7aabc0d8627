package domain

import (
	"fmt"
	"net/url"
)

// AppConfig holds the app credentials and flags every auth flow needs. It is
// immutable once built; share it freely across goroutines.
type AppConfig struct {
	APIKey          string
	APISecretKey    string
	OldAPISecretKey *string
	IsEmbedded      bool
	Host            *url.URL
	Scopes          AuthScopes
	APIVersion      string
}

// NewAppConfig validates the credentials and returns an immutable config.
// oldAPISecretKey may be empty; it exists only so in-flight flows keep
// validating against a rotated-out secret during a migration window.
func NewAppConfig(apiKey, apiSecretKey, oldAPISecretKey string, isEmbedded bool, host *url.URL, scopes AuthScopes, apiVersion string) (*AppConfig, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if apiSecretKey == "" {
		return nil, fmt.Errorf("api secret key is required")
	}
	cfg := &AppConfig{
		APIKey:       apiKey,
		APISecretKey: apiSecretKey,
		IsEmbedded:   isEmbedded,
		Host:         host,
		Scopes:       scopes,
		APIVersion:   apiVersion,
	}
	if oldAPISecretKey != "" {
		cfg.OldAPISecretKey = &oldAPISecretKey
	}
	return cfg, nil
}

// SecretKeys returns the primary secret followed by the old secret when one is
// configured. Verification tries them in this order.
func (c *AppConfig) SecretKeys() []string {
	keys := []string{c.APISecretKey}
	if c.OldAPISecretKey != nil {
		keys = append(keys, *c.OldAPISecretKey)
	}
	return keys
}
