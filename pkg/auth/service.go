package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	// ErrMissingSubject is also returned when a request context carries no
	// usable user ID.
	ErrMissingSubject = errors.New("missing or invalid subject")
)

// AuthService extracts and validates the caller's identity from a request.
type AuthService interface {
	// ValidateRequest reads the JWT from the CookieName cookie, falling back
	// to an "Authorization: Bearer" header, and validates it.
	ValidateRequest(r *http.Request) (*Claims, string, error)
}

type authService struct {
	jwksClient JWKSClientInterface
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService with the given JWKS client and logger.
func NewAuthService(jwksClient JWKSClientInterface, logger *zap.Logger) AuthService {
	return &authService{
		jwksClient: jwksClient,
		logger:     logger.Named("auth"),
	}
}

var _ AuthService = (*authService)(nil)

// tokenFromRequest returns the raw token and where it was found.
func tokenFromRequest(r *http.Request) (token, source string, err error) {
	if cookie, cerr := r.Cookie(CookieName); cerr == nil && cookie.Value != "" {
		return cookie.Value, "cookie", nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "", ErrMissingAuthorization
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" || strings.Contains(token, " ") {
		return "", "", ErrInvalidAuthFormat
	}
	return token, "header", nil
}

func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	token, source, err := tokenFromRequest(r)
	if err != nil {
		s.logger.Debug("No usable JWT in request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return nil, "", err
	}

	claims, err := s.jwksClient.ValidateToken(token)
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.String("path", r.URL.Path),
			zap.String("token_source", source),
			zap.Error(err))
		return nil, "", err
	}
	if claims.Subject == "" {
		return nil, "", ErrMissingSubject
	}

	return claims, token, nil
}
