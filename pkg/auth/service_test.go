package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// mockJWKSClient is a mock implementation of JWKSClientInterface for testing.
type mockJWKSClient struct {
	claims    *Claims
	err       error
	lastToken string
}

func (m *mockJWKSClient) ValidateToken(tokenString string) (*Claims, error) {
	m.lastToken = tokenString
	if m.err != nil {
		return nil, m.err
	}
	return m.claims, nil
}

func (m *mockJWKSClient) Close() {}

func subjectClaims(sub string) *Claims {
	return &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}
}

func TestAuthService_ValidateRequest_Cookie(t *testing.T) {
	jwks := &mockJWKSClient{claims: subjectClaims("user-1")}
	service := NewAuthService(jwks, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})

	claims, token, err := service.ValidateRequest(req)
	if err != nil {
		t.Fatalf("ValidateRequest failed: %v", err)
	}
	if token != "cookie-token" || claims.Subject != "user-1" {
		t.Errorf("unexpected result: token=%q subject=%q", token, claims.Subject)
	}
}

func TestAuthService_ValidateRequest_CookieTakesPrecedence(t *testing.T) {
	jwks := &mockJWKSClient{claims: subjectClaims("user-1")}
	service := NewAuthService(jwks, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")

	if _, _, err := service.ValidateRequest(req); err != nil {
		t.Fatalf("ValidateRequest failed: %v", err)
	}
	if jwks.lastToken != "cookie-token" {
		t.Errorf("expected cookie token to be validated, got %q", jwks.lastToken)
	}
}

func TestAuthService_ValidateRequest_AuthHeader(t *testing.T) {
	jwks := &mockJWKSClient{claims: subjectClaims("user-1")}
	service := NewAuthService(jwks, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer header-token")

	_, token, err := service.ValidateRequest(req)
	if err != nil {
		t.Fatalf("ValidateRequest failed: %v", err)
	}
	if token != "header-token" {
		t.Errorf("expected header-token, got %q", token)
	}
}

func TestAuthService_ValidateRequest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		jwks    *mockJWKSClient
		wantErr error
	}{
		{name: "missing", jwks: &mockJWKSClient{}, wantErr: ErrMissingAuthorization},
		{name: "basic scheme", header: "Basic abc", jwks: &mockJWKSClient{}, wantErr: ErrInvalidAuthFormat},
		{name: "extra parts", header: "Bearer a b", jwks: &mockJWKSClient{}, wantErr: ErrInvalidAuthFormat},
		{name: "no subject", header: "Bearer t", jwks: &mockJWKSClient{claims: subjectClaims("")}, wantErr: ErrMissingSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewAuthService(tt.jwks, zap.NewNop())
			req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			_, _, err := service.ValidateRequest(req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAuthService_ValidateRequest_TokenValidationError(t *testing.T) {
	validationErr := errors.New("token expired")
	service := NewAuthService(&mockJWKSClient{err: validationErr}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer expired")

	if _, _, err := service.ValidateRequest(req); !errors.Is(err, validationErr) {
		t.Errorf("expected validation error, got %v", err)
	}
}
