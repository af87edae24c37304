package handlers

import (
	"context"
	"net/http"
	"time"

	"gramtrack/internal/logger"
	"gramtrack/internal/models"
	"gramtrack/internal/security"
	"gramtrack/internal/service"
	"gramtrack/internal/settings"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey     ContextKey = "user"
	IdentityContextKey ContextKey = "identity"
)

// Cookie names
const (
	SessionCookie   = "session_id"
	AnonymousCookie = "anon_id"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	rateLimiter *security.RateLimiter
	log         logger.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, rateLimiter *security.RateLimiter, log logger.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		rateLimiter: rateLimiter,
		log:         log,
	}
}

// Identify resolves the caller to a settings identity. A valid session
// cookie yields the signed-in user; otherwise an anonymous id cookie is
// read or minted so local settings survive across visits.
func (m *Middleware) Identify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			user, err := m.authService.ValidateSession(cookie.Value)
			if err == nil {
				ctx := context.WithValue(r.Context(), UserContextKey, user)
				ctx = context.WithValue(ctx, IdentityContextKey, settings.Identity{
					UserID: user.SettingsID(),
				})
				next(w, r.WithContext(ctx))
				return
			}
			http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookie))
		}

		// The cookie value is client-controlled and keys file paths in
		// the local store: accept only ids this server could have minted.
		anonID := ""
		if cookie, err := r.Cookie(AnonymousCookie); err == nil && security.IsValidAnonymousID(cookie.Value) {
			anonID = cookie.Value
		} else {
			anonID = security.GenerateAnonymousID()
			http.SetCookie(w, security.CreateAnonymousCookie(r, AnonymousCookie, anonID))
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, settings.Identity{
			UserID:    anonID,
			Anonymous: true,
		})
		next(w, r.WithContext(ctx))
	}
}

// RequireAuth requires a valid signed-in session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return m.Identify(func(w http.ResponseWriter, r *http.Request) {
		if GetUserFromContext(r.Context()) == nil {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}
		next(w, r)
	})
}

// RateLimit rejects callers that exceed the per-IP budget. Used on the
// auth endpoints to slow credential stuffing.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.rateLimiter.Allow(ip) {
			m.log.Warn("rate limit exceeded", logger.String("ip", ip), logger.String("path", r.URL.Path))
			respondJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
			return
		}
		next(w, r)
	}
}

// Logging logs HTTP requests
func Logging(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Info("request",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Duration("duration", time.Since(start)))
		})
	}
}

// GetUserFromContext retrieves the signed-in user, or nil for anonymous
// callers
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetIdentityFromContext retrieves the settings identity placed by Identify
func GetIdentityFromContext(ctx context.Context) settings.Identity {
	id, ok := ctx.Value(IdentityContextKey).(settings.Identity)
	if !ok {
		return settings.Identity{Anonymous: true}
	}
	return id
}
