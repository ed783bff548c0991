package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenParams captures the claims required to mint an access token for local
// development, tooling and tests. All fields are provided by the caller so the
// builder stays deterministic.
type TokenParams struct {
	UserID           string
	Email            string
	Name             string
	Roles            []string
	TenantIdentifier string        // optional; omitted when empty
	ExpiresIn        time.Duration // relative expiry; default 1h if zero
	Issuer           string        // optional
}

// SignToken returns an HS256-signed JWT carrying the platform claims.
func SignToken(p TokenParams, signingKey []byte, now time.Time) (string, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return "", errors.New("userID is required")
	}
	if len(signingKey) == 0 {
		return "", errors.New("signing key is required")
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}
	expiresIn := p.ExpiresIn
	if expiresIn == 0 {
		expiresIn = time.Hour
	}

	claims := Claims{
		Email:            p.Email,
		Name:             p.Name,
		Roles:            p.Roles,
		TenantIdentifier: p.TenantIdentifier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    p.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
}
