// internal/app/system/auth/claims.go
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the remote service's token the panel reads.
type Claims struct {
	AccountID string
	Role      string
	Email     string
	ExpiresAt time.Time
}

// ParseClaims decodes the token's payload without verifying its signature.
// The remote service is the only verifier; the panel reads claims only to
// know who is signed in and when the session ends.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}

	var c Claims
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	c.AccountID = firstClaim(mc, "id", "userId", "user_id")
	c.Role = strings.TrimPrefix(strings.ToUpper(firstClaim(mc, "role", "roles")), "ROLE_")
	c.Email = firstClaim(mc, "email")
	if c.Email == "" {
		if sub, err := mc.GetSubject(); err == nil && strings.Contains(sub, "@") {
			c.Email = sub
		}
	}
	if c.AccountID == "" {
		if sub, err := mc.GetSubject(); err == nil && !strings.Contains(sub, "@") {
			c.AccountID = sub
		}
	}
	return c, nil
}

func firstClaim(mc jwt.MapClaims, names ...string) string {
	for _, n := range names {
		switch v := mc[n].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		case []any:
			if len(v) > 0 {
				if s, ok := v[0].(string); ok {
					return strings.TrimPrefix(strings.TrimSpace(s), "ROLE_")
				}
			}
		}
	}
	return ""
}
