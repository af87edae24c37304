package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gramtrack/internal/logger"
	"gramtrack/internal/security"
	"gramtrack/internal/service"
	"gramtrack/internal/validation"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	emailService         *service.EmailService
	log                  logger.Logger
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, emailService *service.EmailService, log logger.Logger, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		emailService:         emailService,
		log:                  log,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register creates an account and signs the new user in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			respondError(w, h.log, http.StatusConflict, err.Error(), nil)
			return
		}
		var validationErr validation.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, h.log, http.StatusBadRequest, err.Error(), nil)
			return
		}
		respondError(w, h.log, http.StatusInternalServerError, "failed to create account", err)
		return
	}

	session, _, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "account created but sign-in failed", err)
		return
	}

	if h.emailService != nil && h.emailService.IsEnabled() {
		go func() {
			if err := h.emailService.SendWelcomeEmail(context.Background(), user.Email, user.Name); err != nil {
				h.log.Warn("failed to send welcome email", logger.Error(err))
			}
		}()
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookie, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

// Login authenticates a user and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	session, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(w, h.log, http.StatusUnauthorized, "invalid email or password", nil)
			return
		}
		respondError(w, h.log, http.StatusInternalServerError, "sign-in failed", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookie, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

// Logout invalidates the session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.authService.Logout(cookie.Value); err != nil {
			h.log.Warn("failed to delete session", logger.Error(err))
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookie))
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me reports the signed-in user, or anonymous for cookie-only visitors
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondJSON(w, http.StatusOK, map[string]bool{"anonymous": true})
		return
	}
	respondJSON(w, http.StatusOK, userResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

// ForgotPassword starts the password reset flow. Always responds OK so the
// endpoint cannot be used to probe for registered addresses.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), h.emailService, req.Email); err != nil {
		h.log.Error("password reset request failed", logger.Error(err))
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ValidateResetToken checks a reset token without consuming it
func (h *AuthHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	valid, err := h.authService.ValidatePasswordResetToken(token)
	if err != nil {
		respondError(w, h.log, http.StatusInternalServerError, "failed to validate token", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// ResetPassword sets a new password using a reset token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.log, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.Password); err != nil {
		respondError(w, h.log, http.StatusBadRequest, err.Error(), nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
