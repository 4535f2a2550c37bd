package auth

import "quickref/internal/domain/models"

// TokenVerifier validates admin session tokens.
// The middleware depends on this rather than on a concrete issuer.
type TokenVerifier interface {
	// VerifyToken validates a token string and returns its claims.
	// Returns domain.ErrUnauthorized if the token is invalid or expired.
	VerifyToken(tokenString string) (*models.SessionClaims, error)
}
