// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/testutil"
)

// testDB creates an in-memory SQLite database with the required schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db := testutil.TestMemoryDB(t)

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at DATETIME
		);
		CREATE INDEX idx_users_email ON users(email);

		CREATE TABLE posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL UNIQUE,
			subtitle TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			date TEXT NOT NULL,
			body TEXT NOT NULL,
			format TEXT NOT NULL DEFAULT 'html',
			author TEXT NOT NULL,
			img_url TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX idx_posts_slug ON posts(slug);

		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX idx_sessions_expiry ON sessions(expiry);

		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL DEFAULT 'info',
			category TEXT NOT NULL DEFAULT 'system',
			message TEXT NOT NULL,
			user_id INTEGER,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
		);
		CREATE INDEX idx_events_level ON events(level);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	return db
}

// testSessionManager creates an in-memory session manager for tests.
func testSessionManager() *scs.SessionManager {
	return scs.New()
}

// testRenderer creates a renderer with minimal templates covering each
// page the handlers render.
func testRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()

	templates := fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{
			Data: []byte(`{{define "base"}}{{if .Flash}}[{{.FlashType}}: {{.Flash}}]{{end}}{{template "content" .}}{{end}}`),
		},
	}
	pages := map[string]string{
		"index":     `{{define "content"}}index: {{len .Data}} posts{{end}}`,
		"post":      `{{define "content"}}post: {{.Data.Title}}{{end}}`,
		"make-post": `{{define "content"}}make-post{{range $k, $v := .Errors}} {{$k}}={{$v}}{{end}}{{end}}`,
		"register":  `{{define "content"}}register{{range $k, $v := .Errors}} {{$k}}={{$v}}{{end}}{{end}}`,
		"login":     `{{define "content"}}login{{range $k, $v := .Errors}} {{$k}}={{$v}}{{end}}{{end}}`,
		"about":     `{{define "content"}}about{{end}}`,
		"contact":   `{{define "content"}}contact{{end}}`,
	}
	for name, body := range pages {
		templates["pages/"+name+".html"] = &fstest.MapFile{Data: []byte(body)}
	}

	r, err := render.New(render.Config{TemplatesFS: templates, SessionManager: sm, IsDev: true})
	if err != nil {
		t.Fatalf("failed to create test renderer: %v", err)
	}
	return r
}

// createTestUser inserts a user with the given password hashed.
func createTestUser(t *testing.T, db *sql.DB, email, password, name string) model.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// createTestPost inserts a post with sensible defaults.
func createTestPost(t *testing.T, db *sql.DB, title string) model.Post {
	t.Helper()

	now := time.Now()
	post, err := store.New(db).CreatePost(context.Background(), store.CreatePostParams{
		Title:     title,
		Subtitle:  "A subtitle",
		Slug:      strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Date:      now.Format(model.PostDateLayout),
		Body:      "<p>Body text.</p>",
		Format:    model.PostFormatHTML,
		Author:    "Test Author",
		ImgURL:    "https://example.com/img.jpg",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

// requestWithURLParams adds chi URL parameters to a request context.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithSession loads a fresh session into the request context.
func requestWithSession(t *testing.T, sm *scs.SessionManager, r *http.Request) *http.Request {
	t.Helper()

	ctx, err := sm.Load(r.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	return r.WithContext(ctx)
}

// formRequest builds a POST request with form-encoded values and a
// loaded session.
func formRequest(t *testing.T, sm *scs.SessionManager, target string, values url.Values) *http.Request {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return requestWithSession(t, sm, r)
}

// assertStatus fails the test if the recorded status differs.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d, want %d", got, want)
	}
}

// assertRedirect fails the test unless the response is a 303 to loc.
func assertRedirect(t *testing.T, w interface {
	Header() http.Header
}, code int, loc string) {
	t.Helper()
	if code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", code, http.StatusSeeOther)
	}
	if got := w.Header().Get("Location"); got != loc {
		t.Errorf("Location = %q, want %q", got, loc)
	}
}
