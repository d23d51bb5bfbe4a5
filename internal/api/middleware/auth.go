package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/api/models"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/auth"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

type claimsKey struct{}

const bearerRealm = `Bearer realm="local-air-guardian"`

// Auth requires a valid bearer token carrying every listed role. Missing or
// bad tokens get 401 with a WWW-Authenticate challenge; a valid token
// without a role gets 403.
func Auth(validator TokenValidator, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, detail := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				challenge(w, r, "", detail)
				return
			}

			claims, err := validator.Validate(token)
			switch {
			case errors.Is(err, auth.ErrAccessTokenExpired):
				challenge(w, r, "invalid_token", "access token has expired")
				return
			case errors.Is(err, auth.ErrInvalidAccessToken):
				challenge(w, r, "invalid_token", "invalid access token")
				return
			case err != nil:
				challenge(w, r, "invalid_token", "authentication failed")
				return
			}

			for _, role := range roles {
				if !claims.HasRole(role) {
					problem := models.NewForbidden(GetRequestID(r.Context()), role+" role required")
					problem.Instance = r.URL.Path
					problem.Write(w)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}

// bearerToken extracts the token from an Authorization header. The scheme
// is case-insensitive. On failure it returns "" and the reason.
func bearerToken(header string) (token, detail string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization header format"
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", "missing bearer token"
	}
	return token, ""
}

// challenge writes a 401 problem. The response package cannot be used here
// without an import cycle.
func challenge(w http.ResponseWriter, r *http.Request, code, detail string) {
	value := bearerRealm
	if code != "" {
		value += `, error="` + code + `"`
	}
	w.Header().Set("WWW-Authenticate", value)

	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetSubject returns the authenticated token subject, or "" if the request
// was not authenticated.
func GetSubject(ctx context.Context) string {
	if claims, ok := ctx.Value(claimsKey{}).(*auth.Claims); ok {
		return claims.Subject
	}
	return ""
}
