// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including Post, User, Event, and session identity structures.
package model

import "time"

// Post body formats
const (
	PostFormatHTML     = "html"
	PostFormatMarkdown = "markdown"
)

// ValidPostFormats contains all accepted post body formats.
var ValidPostFormats = []string{PostFormatHTML, PostFormatMarkdown}

// PostDateLayout is the display-date layout fixed at creation time.
const PostDateLayout = "January 02, 2006"

// Post represents a blog post.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Slug      string    `json:"slug"`
	Date      string    `json:"date"` // display string, set once at creation
	Body      string    `json:"body"`
	Format    string    `json:"format"`
	Author    string    `json:"author"`
	ImgURL    string    `json:"img_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsMarkdown returns true if the post body is stored as markdown.
func (p *Post) IsMarkdown() bool {
	return p.Format == PostFormatMarkdown
}

// IsValidPostFormat checks if a format is an accepted post body format.
func IsValidPostFormat(format string) bool {
	for _, f := range ValidPostFormats {
		if f == format {
			return true
		}
	}
	return false
}
