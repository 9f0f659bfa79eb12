// Package auth implements optional bearer-token access control for the
// console.
//
//   - viewer: read-only (telemetry, robot state, panel and slider state)
//   - controller: all viewer privileges plus every command endpoint
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role constants.
const (
	RoleViewer     = "viewer"
	RoleController = "controller"
)

var (
	// ErrNoSecret is returned when a verifier is built without a key.
	ErrNoSecret = errors.New("auth: secret is required")

	// ErrInvalidToken wraps every token verification failure.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Claims are the token claims the console cares about.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Has reports whether the claims grant role. Controllers are also viewers.
func (c *Claims) Has(role string) bool {
	if slices.Contains(c.Roles, role) {
		return true
	}
	return role == RoleViewer && slices.Contains(c.Roles, RoleController)
}

// Verifier checks HS256 tokens.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a verifier for tokens signed with secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(5*time.Second),
		),
	}, nil
}

// Verify parses and validates a token.
func (v *Verifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	for _, r := range claims.Roles {
		if r != RoleViewer && r != RoleController {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, r)
		}
	}
	return claims, nil
}

// Issue signs a token for subject with the given roles. It is used by the
// token command and by tests.
func (v *Verifier) Issue(subject string, ttl time.Duration, roles ...string) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
