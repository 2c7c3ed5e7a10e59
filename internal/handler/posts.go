// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the HTTP route handlers.
package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/form"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/util"
)

// PostsHandler handles blog post routes.
type PostsHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
}

// NewPostsHandler creates a new PostsHandler.
func NewPostsHandler(db *sql.DB, renderer *render.Renderer) *PostsHandler {
	return &PostsHandler{
		queries:      store.New(db),
		renderer:     renderer,
		eventService: service.NewEventService(db),
	}
}

// List handles GET / - displays all posts in insertion order.
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.queries.ListPosts(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list posts", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, tmplIndex, render.TemplateData{
		Title:    "Home",
		Data:     posts,
		Identity: middleware.GetIdentity(r),
	}); err != nil {
		logAndInternalError(w, "failed to render index", "error", err)
	}
}

// Show handles GET /post/{idOrSlug} - displays a single post. The
// parameter is treated as an id when numeric and as a slug otherwise.
func (h *PostsHandler) Show(w http.ResponseWriter, r *http.Request) {
	param := chi.URLParam(r, "idOrSlug")

	var post model.Post
	var err error
	if id, parseErr := strconv.ParseInt(param, 10, 64); parseErr == nil {
		post, err = h.queries.GetPostByID(r.Context(), id)
	} else {
		if !util.IsValidSlug(param) {
			http.Error(w, "post not found", http.StatusNotFound)
			return
		}
		post, err = h.queries.GetPostBySlug(r.Context(), param)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "post not found", http.StatusNotFound)
		} else {
			logAndInternalError(w, "failed to get post", "error", err, "param", param)
		}
		return
	}

	if err := h.renderer.Render(w, r, tmplPost, render.TemplateData{
		Title:    post.Title,
		Data:     post,
		Identity: middleware.GetIdentity(r),
	}); err != nil {
		logAndInternalError(w, "failed to render post", "error", err, "post_id", post.ID)
	}
}

// makePostData holds data for the new/edit post template.
type makePostData struct {
	IsEdit bool
	PostID int64
}

// NewForm handles GET /new-post - renders the post creation form.
func (h *PostsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, tmplMakePost, render.TemplateData{
		Title:      "New Post",
		Data:       makePostData{},
		Identity:   middleware.GetIdentity(r),
		FormValues: map[string]string{},
	}); err != nil {
		logAndInternalError(w, "failed to render post form", "error", err)
	}
}

// Create handles POST /new-post - validates and stores a new post.
// The display date is set from the server clock at creation time.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, RouteNewPost) {
		return
	}

	f, formErrors := form.ValidateNewPost(r.PostForm)
	if len(formErrors) > 0 {
		h.renderMakePost(w, r, "New Post", makePostData{}, f, formErrors)
		return
	}

	now := time.Now()
	post, err := h.queries.CreatePost(r.Context(), store.CreatePostParams{
		Title:     f.Title,
		Subtitle:  f.Subtitle,
		Slug:      h.uniqueSlug(r.Context(), util.Slugify(f.Title)),
		Date:      now.Format(model.PostDateLayout),
		Body:      f.Body,
		Format:    f.Format,
		Author:    f.Author,
		ImgURL:    f.ImgURL,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			formErrors["title"] = "A post with that title already exists"
			h.renderMakePost(w, r, "New Post", makePostData{}, f, formErrors)
			return
		}
		logAndInternalError(w, "failed to create post", "error", err)
		return
	}

	slog.Info("post created", "post_id", post.ID, "title", post.Title)
	_ = h.eventService.LogPostEvent(r.Context(), model.EventLevelInfo, "Post created",
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), map[string]any{"post_id": post.ID, "title": post.Title})

	flashSuccess(w, r, h.renderer, RouteRoot, "Post published")
}

// EditForm handles GET /edit-post/{id} - renders the edit form with
// the post's current field values.
func (h *PostsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	post, ok := requireEntityWithError(w, "post", id, func(id int64) (model.Post, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return
	}

	if err := h.renderer.Render(w, r, tmplMakePost, render.TemplateData{
		Title:    "Edit Post",
		Data:     makePostData{IsEdit: true, PostID: post.ID},
		Identity: middleware.GetIdentity(r),
		FormValues: map[string]string{
			"title":    post.Title,
			"subtitle": post.Subtitle,
			"author":   post.Author,
			"img_url":  post.ImgURL,
			"body":     post.Body,
			"format":   post.Format,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render edit form", "error", err, "post_id", post.ID)
	}
}

// Update handles POST /edit-post/{id} - overwrites all editable fields
// of an existing post. The id, slug, and display date never change.
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	post, ok := requireEntityWithError(w, "post", id, func(id int64) (model.Post, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, fmt.Sprintf("/edit-post/%d", id)) {
		return
	}

	f, formErrors := form.ValidateNewPost(r.PostForm)
	if len(formErrors) > 0 {
		h.renderMakePost(w, r, "Edit Post", makePostData{IsEdit: true, PostID: post.ID}, f, formErrors)
		return
	}

	updated, err := h.queries.UpdatePost(r.Context(), store.UpdatePostParams{
		Title:     f.Title,
		Subtitle:  f.Subtitle,
		Slug:      post.Slug,
		Body:      f.Body,
		Format:    f.Format,
		Author:    f.Author,
		ImgURL:    f.ImgURL,
		UpdatedAt: time.Now(),
		ID:        post.ID,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			formErrors["title"] = "A post with that title already exists"
			h.renderMakePost(w, r, "Edit Post", makePostData{IsEdit: true, PostID: post.ID}, f, formErrors)
			return
		}
		logAndInternalError(w, "failed to update post", "error", err, "post_id", post.ID)
		return
	}

	slog.Info("post updated", "post_id", updated.ID)
	_ = h.eventService.LogPostEvent(r.Context(), model.EventLevelInfo, "Post updated",
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), map[string]any{"post_id": updated.ID})

	flashSuccess(w, r, h.renderer, fmt.Sprintf("/post/%d", updated.ID), "Post updated")
}

// Delete handles GET /delete/{id} - removes a post.
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	post, ok := requireEntityWithError(w, "post", id, func(id int64) (model.Post, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return
	}

	if err := h.queries.DeletePost(r.Context(), post.ID); err != nil {
		logAndInternalError(w, "failed to delete post", "error", err, "post_id", post.ID)
		return
	}

	slog.Info("post deleted", "post_id", post.ID, "title", post.Title)
	_ = h.eventService.LogPostEvent(r.Context(), model.EventLevelInfo, "Post deleted",
		middleware.GetUserIDPtr(r), middleware.GetClientIP(r), map[string]any{"post_id": post.ID, "title": post.Title})

	flashSuccess(w, r, h.renderer, RouteRoot, "Post deleted")
}

func (h *PostsHandler) renderMakePost(w http.ResponseWriter, r *http.Request, title string, data makePostData, f form.NewPost, formErrors map[string]string) {
	if err := h.renderer.Render(w, r, tmplMakePost, render.TemplateData{
		Title:    title,
		Data:     data,
		Identity: middleware.GetIdentity(r),
		Errors:   formErrors,
		FormValues: map[string]string{
			"title":    f.Title,
			"subtitle": f.Subtitle,
			"author":   f.Author,
			"img_url":  f.ImgURL,
			"body":     f.Body,
			"format":   f.Format,
		},
	}); err != nil {
		logAndInternalError(w, "failed to render post form", "error", err)
	}
}

// uniqueSlug appends a numeric suffix when the base slug is taken.
func (h *PostsHandler) uniqueSlug(ctx context.Context, base string) string {
	if base == "" {
		base = "post"
	}

	slug := base
	for i := 2; ; i++ {
		n, err := h.queries.CountPostsBySlug(ctx, slug)
		if err != nil || n == 0 {
			return slug
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
