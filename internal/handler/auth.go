package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"quickref/internal/auth"
	"quickref/internal/domain"
	"quickref/internal/httputil"
)

// AuthHandler logs the admin in and out.
type AuthHandler struct {
	issuer       *auth.SessionIssuer
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler. secureCookie marks the session
// cookie HTTPS-only.
func NewAuthHandler(issuer *auth.SessionIssuer, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		issuer:       issuer,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// LoginRequest is the JSON form of a login.
type LoginRequest struct {
	Password string `json:"password"`
	Next     string `json:"next,omitempty"`
}

// LoginResponse carries the session token for clients that do not keep cookies.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Redirect  string    `json:"redirect"`
}

// Login checks the shared password and sets the session cookie
// POST /login (JSON or form: password, next)
// Form posts are redirected to next; JSON posts get the token back
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	jsonBody := httputil.IsJSON(r)
	if jsonBody {
		if err := httputil.ParseJSON(w, r, &req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		req.Password = r.FormValue("password")
		req.Next = r.FormValue("next")
	}

	token, expires, err := h.issuer.Login(req.Password)
	if errors.Is(err, domain.ErrUnauthorized) {
		httputil.RespondError(w, http.StatusUnauthorized, "invalid password")
		return
	}
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info("admin logged in", "expires_at", expires)

	target := auth.SafeRedirectTarget(req.Next, "/admin")
	if !jsonBody {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expires, Redirect: target})
}

// Logout clears the session cookie
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
