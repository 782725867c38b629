package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSClientInterface defines the interface for JWT token validation.
type JWKSClientInterface interface {
	// ValidateToken validates a JWT token string and returns the claims.
	ValidateToken(tokenString string) (*Claims, error)
	// Close releases any resources held by the client.
	Close()
}

// JWKSConfig contains configuration for the JWKS client.
type JWKSConfig struct {
	// EnableVerification controls whether JWT signatures are verified.
	// When false tokens are parsed without any checks (local development).
	EnableVerification bool
	// JWKSEndpoints maps issuer URLs to their JWKS endpoint URLs.
	// Only tokens from issuers in this map are accepted.
	JWKSEndpoints map[string]string
	// Audience, when set, must appear in the token's aud claim.
	Audience string
}

// clockSkew is the leeway allowed on exp/nbf/iat between us and the issuer.
const clockSkew = 30 * time.Second

// JWKSClient validates JWT tokens against the signing keys of whitelisted issuers.
type JWKSClient struct {
	issuers map[string]keyfunc.Keyfunc
	parser  *jwt.Parser
	config  *JWKSConfig
}

// NewJWKSClient creates a new JWKS client. With verification enabled it
// fetches the key set of every configured issuer up front.
func NewJWKSClient(ctx context.Context, config *JWKSConfig) (*JWKSClient, error) {
	client := &JWKSClient{
		issuers: make(map[string]keyfunc.Keyfunc),
		config:  config,
	}

	if !config.EnableVerification {
		client.parser = jwt.NewParser(jwt.WithoutClaimsValidation())
		return client, nil
	}

	if len(config.JWKSEndpoints) == 0 {
		return nil, errors.New("verification enabled but no JWKS endpoints configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}
	client.parser = jwt.NewParser(opts...)

	for issuer, jwksURL := range config.JWKSEndpoints {
		kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWKS client for %s: %w", issuer, err)
		}
		client.issuers[issuer] = kf
	}

	return client, nil
}

// ValidateToken validates a JWT token and returns the claims.
// If verification is disabled, it parses the token without signature validation.
func (c *JWKSClient) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	if !c.config.EnableVerification {
		if _, _, err := c.parser.ParseUnverified(tokenString, claims); err != nil {
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
		return claims, nil
	}

	if _, err := c.parser.ParseWithClaims(tokenString, claims, c.keyForIssuer); err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// keyForIssuer resolves the verification key from the issuer's key set.
func (c *JWKSClient) keyForIssuer(token *jwt.Token) (any, error) {
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	kf, exists := c.issuers[claims.Issuer]
	if !exists {
		return nil, fmt.Errorf("unauthorized issuer: %q", claims.Issuer)
	}
	return kf.Keyfunc(token)
}

// Close releases any resources held by the client.
// keyfunc v3 stops its refresh goroutine when the constructor context ends.
func (c *JWKSClient) Close() {}

var _ JWKSClientInterface = (*JWKSClient)(nil)
