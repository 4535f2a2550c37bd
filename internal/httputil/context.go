package httputil

import (
	"context"
	"net/http"

	"quickref/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	sessionKey contextKey = "session"
)

// WithSession adds verified session claims to the request context
func WithSession(r *http.Request, claims *models.SessionClaims) *http.Request {
	ctx := context.WithValue(r.Context(), sessionKey, claims)
	return r.WithContext(ctx)
}

// GetSession retrieves session claims from context, nil if the request is anonymous
func GetSession(r *http.Request) *models.SessionClaims {
	claims, _ := r.Context().Value(sessionKey).(*models.SessionClaims)
	return claims
}
