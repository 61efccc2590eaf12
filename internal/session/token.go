package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// TokenInfo carries the claims worth showing a user about their own
// token. Values come straight from the token body without signature
// verification; the backend remains the authority on validity.
type TokenInfo struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the expiry claim lies in the past. A token
// without an exp claim never reports expired here.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now)
}

// InspectToken decodes the claims of a JWT without verifying it.
func InspectToken(raw string) (*TokenInfo, error) {
	claims := &jwt.StandardClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	info := &TokenInfo{Subject: claims.Subject}
	if claims.IssuedAt != 0 {
		info.IssuedAt = time.Unix(claims.IssuedAt, 0).UTC()
	}
	if claims.ExpiresAt != 0 {
		info.ExpiresAt = time.Unix(claims.ExpiresAt, 0).UTC()
	}
	return info, nil
}
