// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/form"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
)

// AuthHandler handles registration, login, and logout.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		eventService:    service.NewEventService(db),
		loginProtection: lp,
	}
}

// RegisterForm renders the registration page. Authenticated users are
// sent back to the homepage.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetIdentity(r).IsAuthenticated() {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, tmplRegister, render.TemplateData{
		Title:      "Register",
		Identity:   middleware.GetIdentity(r),
		FormValues: map[string]string{},
	}); err != nil {
		logAndInternalError(w, "failed to render register form", "error", err)
	}
}

// Register handles the registration form submission. A duplicate email
// never creates a second account: the visitor is told to log in
// instead. On success the new user is logged in immediately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteRegister) {
		return
	}

	f, formErrors := form.ValidateRegister(r.PostForm)
	if len(formErrors) > 0 {
		h.renderRegister(w, r, f, formErrors)
		return
	}

	clientIP := middleware.GetClientIP(r)

	// Explicit duplicate check before insert; the UNIQUE constraint
	// still backstops the race below.
	if _, err := h.queries.GetUserByEmail(r.Context(), f.Email); err == nil {
		flashError(w, r, h.renderer, RouteLogin, "You have already signed up with that email, log in instead!")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logAndInternalError(w, "failed to check email", "error", err)
		return
	}

	hash, err := auth.HashPassword(f.Password)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Email:        f.Email,
		PasswordHash: hash,
		Name:         f.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			// Lost the race against a concurrent registration
			flashError(w, r, h.renderer, RouteLogin, "You have already signed up with that email, log in instead!")
			return
		}
		logAndInternalError(w, "failed to create user", "error", err)
		return
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo, "User registered", &user.ID, clientIP, map[string]any{"email": user.Email})

	// Log the new user in right away
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	flashSuccess(w, r, h.renderer, RouteRoot, fmt.Sprintf("Welcome, %s!", user.Name))
}

// LoginForm renders the login page. Authenticated users are sent back
// to the homepage.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetIdentity(r).IsAuthenticated() {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, tmplLogin, render.TemplateData{
		Title:      "Log In",
		Identity:   middleware.GetIdentity(r),
		FormValues: map[string]string{},
	}); err != nil {
		logAndInternalError(w, "failed to render login form", "error", err)
	}
}

// Login handles the login form submission. An unknown email and a
// wrong password produce distinct flash messages.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteLogin) {
		return
	}

	f, formErrors := form.ValidateLogin(r.PostForm)
	if len(formErrors) > 0 {
		h.renderLogin(w, r, f, formErrors)
		return
	}

	clientIP := middleware.GetClientIP(r)

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(f.Email); locked {
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login attempt on locked account", nil, clientIP, map[string]any{"email": f.Email})
			flashError(w, r, h.renderer, RouteLogin, fmt.Sprintf("Too many failed attempts, try again in %s", formatDuration(remaining)))
			return
		}
	}

	user, err := h.queries.GetUserByEmail(r.Context(), f.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("login attempt for non-existent user", "email", f.Email)
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login failed: user not found", nil, clientIP, map[string]any{"email": f.Email})
		} else {
			slog.Error("database error during login", "error", err)
		}
		// Track attempts for unknown emails too
		if h.loginProtection != nil {
			if locked, lockDuration := h.loginProtection.RecordFailedAttempt(f.Email); locked {
				flashError(w, r, h.renderer, RouteLogin, fmt.Sprintf("Too many failed attempts, try again in %s", formatDuration(lockDuration)))
				return
			}
		}
		flashError(w, r, h.renderer, RouteLogin, "This email does not exist, please try again!")
		return
	}

	valid, err := auth.CheckPassword(f.Password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		flashError(w, r, h.renderer, RouteLogin, "Password incorrect, please try again.")
		return
	}
	if !valid {
		slog.Debug("invalid password attempt", "email", f.Email)
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login failed: invalid password", &user.ID, clientIP, map[string]any{"email": f.Email})
		if h.loginProtection != nil {
			if locked, lockDuration := h.loginProtection.RecordFailedAttempt(f.Email); locked {
				_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Account locked due to failed attempts", &user.ID, clientIP, map[string]any{"email": f.Email, "duration": lockDuration.String()})
				flashError(w, r, h.renderer, RouteLogin, fmt.Sprintf("Too many failed attempts, try again in %s", formatDuration(lockDuration)))
				return
			}
		}
		flashError(w, r, h.renderer, RouteLogin, "Password incorrect, please try again.")
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(f.Email)
	}

	// Re-hash if the stored hash uses outdated parameters
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(f.Password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
				PasswordHash: newHash,
				UpdatedAt:    time.Now(),
				ID:           user.ID,
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			}
		}
	}

	if err := h.queries.UpdateUserLastLogin(r.Context(), store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: time.Now(), Valid: true},
		ID:          user.ID,
	}); err != nil {
		// Not worth blocking the login
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged in", &user.ID, clientIP, map[string]any{"email": user.Email})

	flashSuccess(w, r, h.renderer, RouteRoot, fmt.Sprintf("Welcome back, %s!", user.Name))
}

// Logout destroys the session, returning the visitor to anonymous.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), middleware.SessionKeyUserID)

	if userID > 0 {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged out", &userID, middleware.GetClientIP(r), nil)
	}

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("user logged out", "user_id", userID)

	flashAndRedirect(w, r, h.renderer, RouteRoot, "You have been logged out", "info")
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, f form.Login, formErrors map[string]string) {
	if err := h.renderer.Render(w, r, tmplLogin, render.TemplateData{
		Title:    "Log In",
		Identity: middleware.GetIdentity(r),
		Errors:   formErrors,
		FormValues: map[string]string{
			"email": f.Email,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render login form", "error", err)
	}
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, f form.Register, formErrors map[string]string) {
	if err := h.renderer.Render(w, r, tmplRegister, render.TemplateData{
		Title:    "Register",
		Identity: middleware.GetIdentity(r),
		Errors:   formErrors,
		FormValues: map[string]string{
			"email": f.Email,
			"name":  f.Name,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render register form", "error", err)
	}
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
