package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the claims of an admin session token.
type SessionClaims struct {
	jwt.RegisteredClaims        // sub is always "admin"; exp bounds the session
	Role                 string `json:"role"`
}

// IsAdmin reports whether the session grants admin access.
func (c *SessionClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// RoleAdmin is the only role the system issues.
const RoleAdmin = "admin"
