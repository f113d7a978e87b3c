// Package auth is the identity provider: it mints and validates bearer
// session tokens and exposes the caller's identity to handlers.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oggyb/picfeed/internal/config"
)

// Identity is the authenticated caller. Subject is the provider's stable
// id, stored as users.external_id.
type Identity struct {
	Subject string
	Name    string
}

// Claims extends the registered claims with a display name.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 tokens.
type Provider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewProvider(secret, issuer string, ttl time.Duration) *Provider {
	return &Provider{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

func NewProviderFromConfig(cfg *config.Config) *Provider {
	return NewProvider(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
}

// Issue mints a session token for id.
func (p *Provider) Issue(id Identity) (string, error) {
	if id.Subject == "" {
		return "", errors.New("subject is required")
	}
	now := p.now()
	claims := Claims{
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Validate checks signature, issuer and expiry and returns the identity.
func (p *Provider) Validate(token string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// only accept HMAC; rejects alg=none and key-confusion tokens
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	},
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return Identity{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Identity{}, errors.New("invalid token claims")
	}
	return Identity{Subject: claims.Subject, Name: claims.Name}, nil
}
