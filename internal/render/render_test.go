// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oblog-go/internal/model"
)

func testTemplatesFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{
			Data: []byte(`{{define "base"}}<html><body>{{template "flash" .}}{{template "content" .}}</body></html>{{end}}`),
		},
		"partials/flash.html": &fstest.MapFile{
			Data: []byte(`{{define "flash"}}{{if .Flash}}<div class="flash-{{.FlashType}}">{{.Flash}}</div>{{end}}{{end}}`),
		},
		"pages/index.html": &fstest.MapFile{
			Data: []byte(`{{define "content"}}<h1>{{.Title}}</h1>{{end}}`),
		},
		"pages/preview.html": &fstest.MapFile{
			Data: []byte(`{{define "content"}}{{truncate .Title 10}}{{end}}`),
		},
	}
}

func newTestRenderer(t *testing.T, sm *scs.SessionManager) *Renderer {
	t.Helper()
	r, err := New(Config{TemplatesFS: testTemplatesFS(), SessionManager: sm, IsDev: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestRender(t *testing.T) {
	r := newTestRenderer(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := r.Render(w, req, "index", TemplateData{Title: "Home"}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.Contains(w.Body.String(), "<h1>Home</h1>") {
		t.Errorf("body = %q, want rendered title", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRender_TruncateFunc(t *testing.T) {
	r := newTestRenderer(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := r.Render(w, req, "preview", TemplateData{Title: "A very long subtitle"}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if !strings.Contains(w.Body.String(), "A very lon...") {
		t.Errorf("body = %q, want truncated title", w.Body.String())
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r := newTestRenderer(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := r.Render(w, req, "missing", TemplateData{}); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestRender_FlashPopsOnce(t *testing.T) {
	sm := scs.New()
	r := newTestRenderer(t, sm)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx, err := sm.Load(req.Context(), "")
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	req = req.WithContext(ctx)

	r.SetFlash(req, "Post created", "success")

	w := httptest.NewRecorder()
	if err := r.Render(w, req, "index", TemplateData{}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(w.Body.String(), `<div class="flash-success">Post created</div>`) {
		t.Errorf("body = %q, want flash rendered", w.Body.String())
	}

	// Flash is one-time: a second render shows nothing
	w = httptest.NewRecorder()
	if err := r.Render(w, req, "index", TemplateData{}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(w.Body.String(), "Post created") {
		t.Error("flash should not survive a second render")
	}
}

func TestPostBody_SanitizesHTML(t *testing.T) {
	p := model.Post{
		Body:   `<p>Hello</p><script>alert(1)</script>`,
		Format: model.PostFormatHTML,
	}

	got := string(PostBody(p))
	if !strings.Contains(got, "<p>Hello</p>") {
		t.Errorf("PostBody() = %q, want paragraph kept", got)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("PostBody() = %q, want script stripped", got)
	}
}

func TestPostBody_Markdown(t *testing.T) {
	p := model.Post{
		Body:   "# Heading\n\nSome *emphasis* here.",
		Format: model.PostFormatMarkdown,
	}

	got := string(PostBody(p))
	if !strings.Contains(got, "<h1") {
		t.Errorf("PostBody() = %q, want heading converted", got)
	}
	if !strings.Contains(got, "<em>emphasis</em>") {
		t.Errorf("PostBody() = %q, want emphasis converted", got)
	}
}

func TestPostBody_MarkdownSanitized(t *testing.T) {
	p := model.Post{
		Body:   "safe text\n\n<script>alert(1)</script>",
		Format: model.PostFormatMarkdown,
	}

	got := string(PostBody(p))
	if strings.Contains(got, "<script>") {
		t.Errorf("PostBody() = %q, want script stripped", got)
	}
}
