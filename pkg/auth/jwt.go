// Package auth validates and mints the HS256 bearer tokens accepted by the
// rendering API. It has no HTTP dependencies.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the iss claim of tokens minted by IssueToken.
const Issuer = "gletter"

// MinSecretLen is the minimum HMAC-SHA256 secret length in bytes.
const MinSecretLen = 32

// ErrWeakSecret is returned when a signing secret is shorter than MinSecretLen.
var ErrWeakSecret = errors.New("jwt secret must be at least 32 bytes")

// Claims are the claims carried by API tokens.
type Claims struct {
	User string `json:"user"`
	// Scope lists what the holder may render, e.g. "letterheads" or "invoices".
	// Empty means everything.
	Scope []string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Allows reports whether the claims grant scope.
func (c *Claims) Allows(scope string) bool {
	if len(c.Scope) == 0 {
		return true
	}
	for _, s := range c.Scope {
		if s == scope {
			return true
		}
	}
	return false
}

// ValidateToken validates a JWT token string and returns the claims if valid.
// It verifies the signature using the provided secret and ensures the token
// uses the expected HS256 signing method.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify the signing method to prevent algorithm confusion attacks
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("expected HS256 signing method, got %s", token.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// IssueToken mints a token for user valid for ttl from now.
func IssueToken(user, secret string, ttl time.Duration, now time.Time, scope ...string) (string, error) {
	if len(secret) < MinSecretLen {
		return "", ErrWeakSecret
	}
	claims := Claims{
		User:  user,
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   user,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
