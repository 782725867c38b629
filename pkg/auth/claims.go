// Package auth provides JWT-based authentication for zi-engine.
// Tokens are issued by an external identity provider and validated against
// its JWKS endpoint; the subject is the zi_users.id of the caller.
package auth

import (
	"context"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// CookieName is the cookie browser clients carry the JWT in.
const CookieName = "zi_jwt"

// Claims represents the JWT claims structure.
// It embeds RegisteredClaims for standard JWT fields (sub, iss, exp, etc.)
// and adds the caller's profile.
type Claims struct {
	jwt.RegisteredClaims
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"` // Platform roles, e.g. "admin", "ethical-expert"
}

// HasRole reports whether the claims carry any of the given roles.
func (c *Claims) HasRole(roles ...string) bool {
	if c == nil {
		return false
	}
	for _, r := range roles {
		if slices.Contains(c.Roles, r) {
			return true
		}
	}
	return false
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
