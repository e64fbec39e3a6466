package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/server/middleware"
	"github.com/foliodev/folio/internal/service"
	"github.com/foliodev/folio/internal/store"
)

// AuthHandler serves the admin session endpoints.
type AuthHandler struct {
	login        *service.LoginService
	accounts     store.Store
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the session
// cookie Secure, which browsers require for HTTPS-only delivery.
func NewAuthHandler(login *service.LoginService, accounts store.Store, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		login:        login,
		accounts:     accounts,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// loginResponse is the response payload for a successful login.
type loginResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	User      model.AccountView `json:"user"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// Login authenticates an admin and sets the session cookie.
// POST /api/admin/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	// The body is decoded untyped so the sanitizer sees its real shape. A
	// body that is not JSON becomes nil and is rejected as malformed after
	// the rate limit has counted it.
	var body any
	if err := readJSON(r, &body); err != nil {
		body = nil
	}

	res, err := h.login.Login(r.Context(), service.LoginRequest{
		ClientIP: middleware.ClientIP(r),
		Body:     body,
	})
	if err != nil {
		le, ok := service.AsLoginError(err)
		if !ok {
			h.logger.Error("login failed unexpectedly", "error", err)
			writeError(w, http.StatusInternalServerError, service.MsgLoginFailed)
			return
		}
		if le.Kind == service.KindRateLimited {
			secs := int(math.Ceil(le.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
		writeError(w, le.Status(), le.Message)
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		Message:   "Login successful",
		User:      res.Account.View(),
		ExpiresAt: res.ExpiresAt,
	})
}

// Logout clears the session cookie. Tokens are stateless, so an already
// copied token stays valid until it expires.
// POST /api/admin/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     service.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, model.MessageResponse{Success: true, Message: "Logged out"})
}

// Me returns the account behind the current session.
// GET /api/admin/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, middleware.MsgNotLoggedIn)
		return
	}
	a, err := h.accounts.GetAccount(r.Context(), id.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, middleware.MsgNotLoggedIn)
			return
		}
		writeStoreError(w, h.logger, err, "Account not found", "Failed to load account")
		return
	}
	if !a.IsActive {
		writeError(w, http.StatusForbidden, service.MsgAccountDisabled)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    a.View(),
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     service.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
