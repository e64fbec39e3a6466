package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/service"
)

type contextKeyAuth string

// IdentityKey is the context key for the authenticated identity.
const IdentityKey contextKeyAuth = "auth_identity"

// MsgNotLoggedIn is returned for every rejected admin request.
const MsgNotLoggedIn = "Not logged in or session expired, please log in again"

// TokenVerifier verifies session tokens.
type TokenVerifier interface {
	VerifyToken(token string) (*service.Identity, error)
}

// SessionToken returns the session token carried by r: the session cookie
// first, then an Authorization Bearer header.
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(service.SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// Authenticate rejects requests without a valid session token with 401 and
// attaches the verified Identity to the context otherwise.
func Authenticate(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, MsgNotLoggedIn)
				return
			}
			id, err := v.VerifyToken(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, MsgNotLoggedIn)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *service.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// GetIdentity extracts the authenticated identity from the context.
// Returns nil if no identity is present (i.e., unauthenticated request).
func GetIdentity(ctx context.Context) *service.Identity {
	if id, ok := ctx.Value(IdentityKey).(*service.Identity); ok {
		return id
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{Code: status, Message: message},
	})
}
