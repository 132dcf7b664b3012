package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the backend puts in its access token.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// ParseClaims decodes the token payload without verifying its signature.
// The backend remains the authority on validity; this is for display only.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, err
	}
	var c Claims
	c.Subject, _ = mc.GetSubject()
	if email, ok := mc["email"].(string); ok {
		c.Email = email
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Expired reports whether the claims carry an expiry that has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
