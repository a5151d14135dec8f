package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the client can read from a JWT session token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Expired reports whether the token's exp claim has passed at now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Inspect decodes the claims of a JWT without verifying its signature.
// The server remains the authority; this is for display only. ok is
// false for opaque tokens.
func Inspect(tok string) (Claims, bool) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, mc); err != nil {
		return Claims{}, false
	}

	var c Claims
	if sub, err := mc.GetSubject(); err == nil {
		c.Subject = sub
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, true
}
