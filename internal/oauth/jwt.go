package oauth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"shopify-auth-layer/internal/domain"
)

// jwtLeeway is applied to exp/nbf/iat comparisons to absorb clock skew
// between Shopify and the app.
const jwtLeeway = 10 * time.Second

// JwtPayload is the validated claim set of an App Bridge session token. It is
// only ever produced by DecodeSessionToken, never hand-built.
type JwtPayload struct {
	Iss  string
	Dest string
	Aud  string
	Sub  *string
	Exp  int64
	Nbf  int64
	Iat  int64
	Jti  string
	Sid  *string
}

type sessionTokenClaims struct {
	Dest string `json:"dest"`
	Sid  string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// DecodeSessionToken decodes and validates an App Bridge session token.
// Signature and time claims are checked against the primary secret first, then
// the old secret when one is configured; when both fail, the primary key's
// error is the one surfaced. The audience claim is checked manually after
// decoding so a wrong API key is reported distinctly from a bad signature.
func DecodeSessionToken(config *domain.AppConfig, token string) (*JwtPayload, error) {
	var (
		claims     *sessionTokenClaims
		primaryErr error
	)
	ok := VerifyWithSecrets(config, func(secret string) bool {
		decoded, err := decodeWithSecret(token, secret)
		if err != nil {
			if primaryErr == nil {
				primaryErr = err
			}
			return false
		}
		claims = decoded
		return true
	})
	if !ok {
		return nil, ErrInvalidJwt{Reason: fmt.Sprintf("Error decoding session token: %v", primaryErr)}
	}

	payload := payloadFromClaims(claims)
	if payload.Aud != config.APIKey {
		return nil, ErrInvalidJwt{Reason: "Session token had invalid API key"}
	}
	return payload, nil
}

func decodeWithSecret(token, secret string) (*sessionTokenClaims, error) {
	claims := &sessionTokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(jwtLeeway),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func payloadFromClaims(claims *sessionTokenClaims) *JwtPayload {
	p := &JwtPayload{
		Iss:  claims.Issuer,
		Dest: claims.Dest,
		Jti:  claims.ID,
	}
	if len(claims.Audience) > 0 {
		p.Aud = claims.Audience[0]
	}
	if claims.Subject != "" {
		sub := claims.Subject
		p.Sub = &sub
	}
	if claims.Sid != "" {
		sid := claims.Sid
		p.Sid = &sid
	}
	if claims.ExpiresAt != nil {
		p.Exp = claims.ExpiresAt.Unix()
	}
	if claims.NotBefore != nil {
		p.Nbf = claims.NotBefore.Unix()
	}
	if claims.IssuedAt != nil {
		p.Iat = claims.IssuedAt.Unix()
	}
	return p
}

// Shop returns the dest claim with a literal "https://" prefix removed.
func (p *JwtPayload) Shop() string {
	return strings.TrimPrefix(p.Dest, "https://")
}

// ShopifyUserID returns the numeric sub claim, but only for tokens issued by
// an admin issuer (iss ending in "/admin") with an all-digit sub. Anything
// else is absent rather than an error.
func (p *JwtPayload) ShopifyUserID() (int64, bool) {
	if !strings.HasSuffix(p.Iss, "/admin") || p.Sub == nil || *p.Sub == "" {
		return 0, false
	}
	for _, c := range *p.Sub {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(*p.Sub, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
