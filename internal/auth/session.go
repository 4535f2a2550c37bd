package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"quickref/internal/domain"
	"quickref/internal/domain/models"
)

// CookieName is the cookie carrying the admin session token.
const CookieName = "eqrf_session"

const issuer = "quickref"

// SessionIssuer authenticates the single shared admin password and issues
// HS256 session tokens signed with the server secret.
type SessionIssuer struct {
	password []byte
	secret   []byte
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

var _ TokenVerifier = (*SessionIssuer)(nil)

// NewSessionIssuer creates an issuer. Both password and secret are required.
func NewSessionIssuer(password, secret string, ttl time.Duration, logger *slog.Logger) (*SessionIssuer, error) {
	if password == "" {
		return nil, errors.New("admin password cannot be empty")
	}
	if secret == "" {
		return nil, errors.New("session secret cannot be empty")
	}
	return &SessionIssuer{
		password: []byte(password),
		secret:   []byte(secret),
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// CheckPassword compares in constant time. Both sides are hashed first so the
// comparison does not leak the password length.
func (s *SessionIssuer) CheckPassword(candidate string) bool {
	want := sha256.Sum256(s.password)
	got := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}

// Login checks the password and returns a signed session token.
func (s *SessionIssuer) Login(password string) (string, time.Time, error) {
	if !s.CheckPassword(password) {
		s.logger.Warn("admin login rejected")
		return "", time.Time{}, domain.ErrUnauthorized
	}
	return s.Issue()
}

// Issue signs a new admin session token.
func (s *SessionIssuer) Issue() (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := &models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   models.RoleAdmin,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role: models.RoleAdmin,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expires, nil
}

// VerifyToken validates signature, algorithm, issuer, expiry and role.
func (s *SessionIssuer) VerifyToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{},
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.logger.Debug("session token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || !claims.IsAdmin() {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// SafeRedirectTarget returns target when it is a local absolute path and
// fallback otherwise, so a login form cannot bounce users off-site.
func SafeRedirectTarget(target, fallback string) string {
	if !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") ||
		strings.HasPrefix(target, "/\\") ||
		strings.ContainsAny(target, "\r\n") {
		return fallback
	}
	return target
}
