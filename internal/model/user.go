// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Never expose in JSON
	Name         string       `json:"name"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastLoginAt  sql.NullTime `json:"last_login_at,omitempty"`
}

// Identity is the per-request resolution of "who is making this request".
// It is either bound to a concrete User or the anonymous zero value;
// handlers and templates branch on IsAuthenticated rather than nil-checking.
type Identity struct {
	User          *User
	Authenticated bool
}

// Anonymous is the sentinel identity for unauthenticated requests.
var Anonymous = Identity{}

// AuthenticatedAs returns an identity bound to the given user.
func AuthenticatedAs(u *User) Identity {
	return Identity{User: u, Authenticated: true}
}

// IsAuthenticated reports whether the identity is bound to a user.
func (i Identity) IsAuthenticated() bool {
	return i.Authenticated && i.User != nil
}

// UserID returns the bound user's ID, or 0 for the anonymous identity.
func (i Identity) UserID() int64 {
	if i.IsAuthenticated() {
		return i.User.ID
	}
	return 0
}

// Name returns the bound user's name, or the empty string for anonymous.
func (i Identity) Name() string {
	if i.IsAuthenticated() {
		return i.User.Name
	}
	return ""
}
