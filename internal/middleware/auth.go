// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication and
// request context handling.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request-scoped data.
const (
	ContextKeyIdentity    ContextKey = "identity"
	ContextKeyRequestPath ContextKey = "request_path"
)

// SessionKeyUserID is the session key binding a session to a user.
const SessionKeyUserID = "user_id"

// ResolveIdentity creates middleware that resolves the session to an
// identity: either the authenticated user or the anonymous sentinel.
// A session pointing at a user record that no longer exists is
// destroyed and the request continues as anonymous.
func ResolveIdentity(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := model.Anonymous

			if userID := sm.GetInt64(r.Context(), SessionKeyUserID); userID != 0 {
				user, err := queries.GetUserByID(r.Context(), userID)
				switch {
				case err == nil:
					identity = model.AuthenticatedAs(&user)
				case errors.Is(err, sql.ErrNoRows):
					// Stale session, the user was removed
					_ = sm.Destroy(r.Context())
				default:
					// Transient lookup failure: keep the session,
					// treat this request as anonymous
					slog.Error("failed to resolve session user", "error", err, "user_id", userID)
				}
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Auth creates middleware that requires an authenticated identity and
// redirects to the login page otherwise. It must run inside
// ResolveIdentity.
func Auth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !GetIdentity(r).IsAuthenticated() {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentity retrieves the resolved identity from the request context.
// Requests outside ResolveIdentity resolve to Anonymous.
func GetIdentity(r *http.Request) model.Identity {
	identity, ok := r.Context().Value(ContextKeyIdentity).(model.Identity)
	if !ok {
		return model.Anonymous
	}
	return identity
}

// GetUserIDPtr returns a pointer to the current user's ID, or nil for
// anonymous requests. Useful for optional user IDs in event logging.
func GetUserIDPtr(r *http.Request) *int64 {
	identity := GetIdentity(r)
	if !identity.IsAuthenticated() {
		return nil
	}
	id := identity.UserID()
	return &id
}

// RequestPath creates middleware that stores the request path in the
// context for use by the logging handler.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}
