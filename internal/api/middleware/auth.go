package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ne3mer/retro/internal/api/response"
	"github.com/ne3mer/retro/internal/config"
	"github.com/ne3mer/retro/internal/service"
)

type contextKey string

const identityKey contextKey = "identity"

// SessionCookieName is the cookie the session token travels in.
const SessionCookieName = "token"

// Auth is the session verifier: it locates a token (cookie first, then
// bearer header), verifies it in a single attempt, and attaches the
// resolved identity to the request context. Verification is stateless.
func Auth(authService *service.AuthService, cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				response.Error(w, http.StatusUnauthorized, "No authentication token found")
				return
			}

			identity, err := authService.ValidateToken(token)
			if err != nil {
				slog.Error("token validation failed", "error", err)
				// Tell the client to discard the stale credential.
				ClearSessionCookie(w, cfg)
				if errors.Is(err, service.ErrTokenExpired) {
					response.Error(w, http.StatusUnauthorized, "Token expired")
					return
				}
				response.Error(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// GetIdentity returns the verified identity attached by Auth.
func GetIdentity(ctx context.Context) (*service.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(*service.Identity)
	return identity, ok
}

// SetSessionCookie transports a freshly issued token to the client. The
// cookie lives exactly as long as the token it carries.
func SetSessionCookie(w http.ResponseWriter, cfg *config.Config, token string) {
	http.SetCookie(w, sessionCookie(cfg, token, time.Duration(cfg.JWTExpirationHours)*time.Hour))
}

// ClearSessionCookie instructs the client to drop its credential.
func ClearSessionCookie(w http.ResponseWriter, cfg *config.Config) {
	http.SetCookie(w, sessionCookie(cfg, "", -time.Hour))
}

func sessionCookie(cfg *config.Config, token string, maxAge time.Duration) *http.Cookie {
	sameSite := http.SameSiteStrictMode
	if cfg.CookieSameSite == "none" {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction() || sameSite == http.SameSiteNoneMode,
		SameSite: sameSite,
	}
}
