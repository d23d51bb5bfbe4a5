package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/middleware"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/auth"
)

func newJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{SigningKey: "test-secret-key-for-testing-only"})
	require.NoError(t, err)
	return svc
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveWithAuthorization(h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/feature-flags", http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuth_RejectsMissingOrMalformedHeader(t *testing.T) {
	handler := middleware.Auth(newJWTService(t))(okHandler())

	tests := []struct {
		name       string
		header     string
		wantDetail string
		wantError  bool
	}{
		{"missing", "", "missing authorization header", false},
		{"no scheme", "token123", "invalid authorization header format", false},
		{"basic auth", "Basic dXNlcjpwYXNz", "invalid authorization header format", false},
		{"empty bearer", "Bearer ", "missing bearer token", false},
		{"just bearer", "Bearer", "invalid authorization header format", false},
		{"garbage token", "Bearer invalid.jwt.token", "invalid access token", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveWithAuthorization(handler, tt.header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.wantDetail)

			challenge := rec.Header().Get("WWW-Authenticate")
			assert.Contains(t, challenge, `Bearer realm="local-air-guardian"`)
			if tt.wantError {
				assert.Contains(t, challenge, `error="invalid_token"`)
			} else {
				assert.NotContains(t, challenge, "error=")
			}
		})
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	clock := clockwork.NewFakeClock()
	svc, err := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Expiry:     time.Hour,
		Clock:      clock,
	})
	require.NoError(t, err)

	token, _, err := svc.Issue("ops@example.com", auth.RoleAdmin)
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)

	rec := serveWithAuthorization(middleware.Auth(svc, auth.RoleAdmin)(okHandler()), "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "access token has expired")
}

func TestAuth_ValidToken(t *testing.T) {
	svc := newJWTService(t)
	token, _, err := svc.Issue("ops@example.com", auth.RoleAdmin)
	require.NoError(t, err)

	var subject string
	handler := middleware.Auth(svc, auth.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject = middleware.GetSubject(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		t.Run(scheme, func(t *testing.T) {
			subject = ""
			rec := serveWithAuthorization(handler, scheme+" "+token)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "ops@example.com", subject)
		})
	}
}

func TestAuth_MissingRole(t *testing.T) {
	svc := newJWTService(t)
	token, _, err := svc.Issue("viewer@example.com")
	require.NoError(t, err)

	rec := serveWithAuthorization(middleware.Auth(svc, auth.RoleAdmin)(okHandler()), "Bearer "+token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin role required")
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestGetSubject_NoAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	assert.Empty(t, middleware.GetSubject(req.Context()))
}
