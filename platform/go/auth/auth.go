package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const ctxUserCredentials ctxKey = "CORELINE_USER_CREDENTIALS"

// Claims is the JWT payload issued by the identity directory. TenantIdentifier
// carries the denormalized tenant slug so the resolver can route without an
// extra directory lookup of the user.
type Claims struct {
	Email            string   `json:"email,omitempty"`
	Name             string   `json:"name,omitempty"`
	Roles            []string `json:"roles,omitempty"`
	TenantIdentifier string   `json:"TenantIdentifier,omitempty"`
	jwt.RegisteredClaims
}

// UserCredentials is the authenticated principal attached to the request context.
type UserCredentials struct {
	ID               string
	Email            string
	Name             string
	Roles            []string
	TenantIdentifier *string
}

// HasRole reports whether the principal carries the given role.
func (u *UserCredentials) HasRole(role string) bool {
	return u != nil && slices.Contains(u.Roles, role)
}

// WithUser stores the credentials on the context.
func WithUser(ctx context.Context, creds *UserCredentials) context.Context {
	return context.WithValue(ctx, ctxUserCredentials, creds)
}

// UserFromContext extracts the authenticated principal, if any.
func UserFromContext(ctx context.Context) (*UserCredentials, bool) {
	u, ok := ctx.Value(ctxUserCredentials).(*UserCredentials)
	return u, ok && u != nil
}

// ExtractBearerToken pulls the raw token from the Authorization header.
func ExtractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// JWT verifies an optional bearer token and attaches UserCredentials to the
// context. Requests without a token pass through unauthenticated; requests
// with an invalid token are rejected so downstream code never sees forged
// claims.
func JWT(signingKey []byte) func(http.Handler) http.Handler {
	if len(signingKey) == 0 {
		panic("auth.JWT: signing key is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			raw, found := ExtractBearerToken(r)
			if !found {
				next.ServeHTTP(w, r)
				return
			}

			creds, err := verify(raw, signingKey)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), creds)))
		})
	}
}

// RequireRole rejects requests whose principal lacks the given role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds, ok := UserFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !creds.HasRole(role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func verify(raw string, signingKey []byte) (*UserCredentials, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid claims")
	}

	creds := &UserCredentials{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Roles: claims.Roles,
	}
	if claims.TenantIdentifier != "" {
		creds.TenantIdentifier = &claims.TenantIdentifier
	}
	return creds, nil
}
