package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo holds claims decoded from a bearer token.
type TokenInfo struct {
	UserID   string
	Role     string
	Nombre   string
	Expiry   time.Time
	IssuedAt time.Time
}

// tokenClaims mirrors the payload the API signs into login tokens.
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID any    `json:"user_id"`
	Role   string `json:"role"`
	Nombre string `json:"nombre"`
}

// ParseToken decodes the claims of a JWT without verifying its signature. The
// client cannot verify tokens; this is for display only.
func ParseToken(raw string) (TokenInfo, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return TokenInfo{}, fmt.Errorf("parse token: %w", err)
	}
	info := TokenInfo{Role: claims.Role, Nombre: claims.Nombre}
	switch v := claims.UserID.(type) {
	case string:
		info.UserID = v
	case float64:
		info.UserID = fmt.Sprintf("%.0f", v)
	}
	if info.UserID == "" {
		info.UserID = claims.Subject
	}
	if claims.ExpiresAt != nil {
		info.Expiry = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	return info, nil
}

// IsExpired reports whether the token's expiry has passed at now.
// A zero expiry is treated as not expired.
func (t TokenInfo) IsExpired(now time.Time) bool {
	if t.Expiry.IsZero() {
		return false
	}
	return now.After(t.Expiry)
}
