package domain

import (
	"fmt"
	"strings"
)

const myshopifySuffix = ".myshopify.com"

// ShopDomain is a validated Shopify shop host such as "my-store.myshopify.com".
// Construct it with NewShopDomain; the zero value is not a valid domain.
type ShopDomain string

// NewShopDomain normalizes and validates a shop domain. A bare store name is
// expanded to "{name}.myshopify.com"; a full myshopify host is accepted as-is.
// Any other dotted domain is rejected.
func NewShopDomain(raw string) (ShopDomain, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("shop domain is empty")
	}

	name := s
	if strings.Contains(s, ".") {
		if !strings.HasSuffix(s, myshopifySuffix) {
			return "", fmt.Errorf("invalid shop domain: %s", raw)
		}
		name = strings.TrimSuffix(s, myshopifySuffix)
	}

	if !validShopName(name) {
		return "", fmt.Errorf("invalid shop domain: %s", raw)
	}
	return ShopDomain(name + myshopifySuffix), nil
}

func validShopName(name string) bool {
	if name == "" || strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}

// String returns the full host, e.g. "my-store.myshopify.com".
func (d ShopDomain) String() string {
	return string(d)
}

// StoreName returns the host with the ".myshopify.com" suffix removed.
func (d ShopDomain) StoreName() string {
	return strings.TrimSuffix(string(d), myshopifySuffix)
}
