// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSitePages(t *testing.T) {
	sm := testSessionManager()
	h := NewSiteHandler(testRenderer(t, sm))

	tests := []struct {
		name    string
		route   string
		handler http.HandlerFunc
		want    string
	}{
		{"about", RouteAbout, h.About, "about"},
		{"contact", RouteContact, h.Contact, "contact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := requestWithSession(t, sm, httptest.NewRequest(http.MethodGet, tt.route, nil))
			tt.handler(w, r)

			assertStatus(t, w.Code, http.StatusOK)
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.want)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	db := testDB(t)
	h := NewHealthHandler(db)

	w := httptest.NewRecorder()
	h.Check(w, httptest.NewRequest(http.MethodGet, RouteHealth, nil))

	assertStatus(t, w.Code, http.StatusOK)
	if w.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", w.Body.String())
	}
}

func TestHealthCheck_ClosedDB(t *testing.T) {
	db := testDB(t)
	_ = db.Close()
	h := NewHealthHandler(db)

	w := httptest.NewRecorder()
	h.Check(w, httptest.NewRequest(http.MethodGet, RouteHealth, nil))

	assertStatus(t, w.Code, http.StatusServiceUnavailable)
}
