package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"quickref/internal/auth"
	"quickref/internal/httputil"
)

// RequireAdmin rejects requests without a valid admin session. The token is
// read from the session cookie, or from an "Authorization: Bearer" header
// for scripted clients.
func RequireAdmin(verifier auth.TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "admin login required")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("admin request rejected",
					"path", r.URL.Path,
					"method", r.Method,
				)
				httputil.RespondError(w, http.StatusUnauthorized, "session expired or invalid")
				return
			}

			next.ServeHTTP(w, httputil.WithSession(r, claims))
		})
	}
}

func sessionToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
