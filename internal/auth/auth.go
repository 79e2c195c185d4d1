// Package auth verifies bearer identities and decides access.
// Credential issuance lives in the external identity provider; this service
// only checks signatures and applies the role/status predicate.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mayor-schedule-api/internal/models"
)

var ErrBadToken = errors.New("invalid token")

// Claims carries the caller's identity plus optional profile hints used at
// registration time.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 bearer token and returns its claims.
func ParseToken(raw, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || c.UserID == "" {
		return nil, ErrBadToken
	}
	return c, nil
}

// CanAccess is the single authorization predicate: the user must be active
// and hold one of the required roles. Role and status are always judged
// together; a suspended or pending account is denied regardless of role.
func CanAccess(user *models.User, roles ...models.Role) bool {
	if user == nil || user.Status != models.StatusActive {
		return false
	}
	for _, r := range roles {
		if user.Role == r {
			return true
		}
	}
	return false
}
