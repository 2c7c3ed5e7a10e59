// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"

	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/render"
)

// SiteHandler serves the static informational pages.
type SiteHandler struct {
	renderer *render.Renderer
}

// NewSiteHandler creates a new SiteHandler.
func NewSiteHandler(renderer *render.Renderer) *SiteHandler {
	return &SiteHandler{renderer: renderer}
}

// About handles GET /about.
func (h *SiteHandler) About(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, tmplAbout, render.TemplateData{
		Title:    "About Me",
		Identity: middleware.GetIdentity(r),
	}); err != nil {
		logAndInternalError(w, "failed to render about page", "error", err)
	}
}

// Contact handles GET /contact.
func (h *SiteHandler) Contact(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, tmplContact, render.TemplateData{
		Title:    "Contact Me",
		Identity: middleware.GetIdentity(r),
	}); err != nil {
		logAndInternalError(w, "failed to render contact page", "error", err)
	}
}

// HealthHandler serves the health check endpoint.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health - verifies database connectivity.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
