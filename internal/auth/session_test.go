package auth

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickref/internal/domain"
	"quickref/internal/domain/models"
)

func newTestIssuer(t *testing.T) *SessionIssuer {
	t.Helper()
	s, err := NewSessionIssuer("hunter2", "test-secret", time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestNewSessionIssuer_RequiresCredentials(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewSessionIssuer("", "secret", time.Hour, logger)
	assert.Error(t, err)
	_, err = NewSessionIssuer("pw", "", time.Hour, logger)
	assert.Error(t, err)
}

func TestSessionIssuer_LoginAndVerify(t *testing.T) {
	s := newTestIssuer(t)

	_, _, err := s.Login("wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	token, expires, err := s.Login("hunter2")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := s.VerifyToken(token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, models.RoleAdmin, claims.Subject)
}

func TestSessionIssuer_RejectsExpired(t *testing.T) {
	s := newTestIssuer(t)
	token, _, err := s.Issue()
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = s.VerifyToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSessionIssuer_RejectsForeignTokens(t *testing.T) {
	s := newTestIssuer(t)
	claims := &models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: models.RoleAdmin,
	}

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = s.VerifyToken(otherKey)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.VerifyToken(wrongAlg)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	claims.Role = "viewer"
	notAdmin, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.VerifyToken(notAdmin)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = s.VerifyToken("garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSafeRedirectTarget(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/admin", "/admin"},
		{"/api/viewer/AIR?file=a.pdf", "/api/viewer/AIR?file=a.pdf"},
		{"", "/"},
		{"https://evil.example", "/"},
		{"//evil.example", "/"},
		{"/\\evil.example", "/"},
		{"/ok\r\nSet-Cookie: x", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeRedirectTarget(tt.target, "/"))
		})
	}
}
