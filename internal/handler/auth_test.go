// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/store"
)

func TestRegister(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager()
	lp := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	h := NewAuthHandler(db, testRenderer(t, sm), sm, lp)

	w := httptest.NewRecorder()
	r := formRequest(t, sm, RouteRegister, url.Values{
		"email":    {"a@x.com"},
		"password": {"password1"},
		"name":     {"A"},
	})
	h.Register(w, r)

	assertRedirect(t, w, w.Code, RouteRoot)

	user, err := store.New(db).GetUserByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.PasswordHash == "password1" || user.PasswordHash == "" {
		t.Error("password stored in cleartext or missing")
	}

	// Registration logs the new user in
	if got := sm.GetInt64(r.Context(), middleware.SessionKeyUserID); got != user.ID {
		t.Errorf("session user_id = %d, want %d", got, user.ID)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager()
	h := NewAuthHandler(db, testRenderer(t, sm), sm, nil)
	createTestUser(t, db, "a@x.com", "password1", "A")

	w := httptest.NewRecorder()
	r := formRequest(t, sm, RouteRegister, url.Values{
		"email":    {"a@x.com"},
		"password": {"different1"},
		"name":     {"Imposter"},
	})
	h.Register(w, r)

	assertRedirect(t, w, w.Code, RouteLogin)

	if n, _ := store.New(db).CountUsers(context.Background()); n != 1 {
		t.Errorf("users = %d, want 1 after duplicate registration", n)
	}
	if flash := sm.GetString(r.Context(), "flash"); flash != "You have already signed up with that email, log in instead!" {
		t.Errorf("flash = %q", flash)
	}
	// Session stays anonymous
	if got := sm.GetInt64(r.Context(), middleware.SessionKeyUserID); got != 0 {
		t.Errorf("session user_id = %d, want 0", got)
	}
}

func TestRegister_ValidationFailure(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager()
	h := NewAuthHandler(db, testRenderer(t, sm), sm, nil)

	w := httptest.NewRecorder()
	r := formRequest(t, sm, RouteRegister, url.Values{
		"email":    {"not-an-email"},
		"password": {"short"},
		"name":     {""},
	})
	h.Register(w, r)

	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	for _, field := range []string{"email=", "password=", "name="} {
		if !strings.Contains(body, field) {
			t.Errorf("body = %q, want %s error rendered", body, field)
		}
	}
	if n, _ := store.New(db).CountUsers(context.Background()); n != 0 {
		t.Errorf("users = %d, want none", n)
	}
}

func TestLogin(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager()
	h := NewAuthHandler(db, testRenderer(t, sm), sm, nil)
	user := createTestUser(t, db, "a@x.com", "password1", "A")

	w := httptest.NewRecorder()
	r := formRequest(t, sm, RouteLogin, url.Values{
		"email":    {"a@x.com"},
		"password": {"password1"},
	})
	h.Login(w, r)

	assertRedirect(t, w, w.Code, RouteRoot)
	if got := sm.GetInt64(r.Context(), middleware.SessionKeyUserID); got != user.ID {
		t.Errorf("session user_id = %d, want %d", got, user.ID)
	}

	// Successful login records the timestamp
	stored, err := store.New(db).GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !stored.LastLoginAt.Valid {
		t.Error("LastLoginAt not set after login")
	}
}

func TestLogin_ValidationFailure(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager()
	h := NewAuthHandler(db, testRenderer(t, sm), sm, nil)

	w := httptest.NewRecorder()
	r := formRequest(t, sm, RouteLogin, url.Values{
		"email":    {""},
		"password": {""},
	})
	h.Login(w, r)

	// Empty fields re-render the login form with per-field messages
	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	if !strings.Contains(body, "email=Email is required") {
		t.Errorf("body = %q, want email error", body)
	}
	if !strings.Contains(body, "password=Password is required") {
		t.Errorf("body = %q, want password error", body)
	}
	if got := sm.GetInt64(r.Context(), middleware.SessionKeyUserID); got != 0 {
		t.Errorf("session user_id = %d, want anonymous", got)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager()
	h := NewAuthHandler(db, testRenderer(t, sm), sm, nil)

	w := httptest.NewRecorder()
	r := formRequest(t, sm, RouteLogin, url.Values{
		"email":    {"nobody@x.com"},
		"password": {"whatever1"},
	})
	h.Login(w, r)

	assertRedirect(t, w, w.Code, RouteLogin)
	if flash := sm.GetString(r.Context(), "flash"); flash != "This email does not exist, please try again!" {
		t.Errorf("flash = %q", flash)
	}
	if got := sm.GetInt64(r.Context(), middleware.SessionKeyUserID); got != 0 {
		t.Errorf("session user_id = %d, want anonymous", got)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager()
	h := NewAuthHandler(db, testRenderer(t, sm), sm, nil)
	createTestUser(t, db, "a@x.com", "password1", "A")

	w := httptest.NewRecorder()
	r := formRequest(t, sm, RouteLogin, url.Values{
		"email":    {"a@x.com"},
		"password": {"wrongpass"},
	})
	h.Login(w, r)

	assertRedirect(t, w, w.Code, RouteLogin)
	if flash := sm.GetString(r.Context(), "flash"); flash != "Password incorrect, please try again." {
		t.Errorf("flash = %q", flash)
	}
	if got := sm.GetInt64(r.Context(), middleware.SessionKeyUserID); got != 0 {
		t.Errorf("session user_id = %d, want anonymous", got)
	}
}

func TestLogin_AccountLockout(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager()
	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       100,
		IPBurst:           100,
		MaxFailedAttempts: 2,
	})
	h := NewAuthHandler(db, testRenderer(t, sm), sm, lp)
	createTestUser(t, db, "a@x.com", "password1", "A")

	values := url.Values{"email": {"a@x.com"}, "password": {"wrongpass"}}

	// Enough failures to trip the lockout
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.Login(w, formRequest(t, sm, RouteLogin, values))
	}

	// Even the correct password is rejected while locked
	w := httptest.NewRecorder()
	r := formRequest(t, sm, RouteLogin, url.Values{"email": {"a@x.com"}, "password": {"password1"}})
	h.Login(w, r)

	assertRedirect(t, w, w.Code, RouteLogin)
	if flash := sm.GetString(r.Context(), "flash"); !strings.Contains(flash, "Too many failed attempts") {
		t.Errorf("flash = %q, want lockout message", flash)
	}
}

func TestLogout(t *testing.T) {
	db := testDB(t)
	sm := testSessionManager()
	h := NewAuthHandler(db, testRenderer(t, sm), sm, nil)
	user := createTestUser(t, db, "a@x.com", "password1", "A")

	r := requestWithSession(t, sm, httptest.NewRequest(http.MethodGet, RouteLogout, nil))
	sm.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	w := httptest.NewRecorder()
	h.Logout(w, r)

	assertRedirect(t, w, w.Code, RouteRoot)
	if got := sm.GetInt64(r.Context(), middleware.SessionKeyUserID); got != 0 {
		t.Errorf("session user_id = %d, want cleared", got)
	}
}
