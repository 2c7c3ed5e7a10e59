// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package form validates submitted form fields before they reach the
// handlers. Each endpoint has a plain validation function that returns
// the typed field set together with a map of per-field error messages;
// an empty map means the submission is valid.
package form

import (
	"net/mail"
	"net/url"
	"strings"

	"github.com/olegiv/oblog-go/internal/model"
)

// MinPasswordLength is the minimum accepted password length for
// registration.
const MinPasswordLength = 8

// NewPost carries the validated fields of the new/edit post form.
type NewPost struct {
	Title    string
	Subtitle string
	Author   string
	ImgURL   string
	Body     string
	Format   string
}

// Register carries the validated fields of the registration form.
type Register struct {
	Email    string
	Password string
	Name     string
}

// Login carries the validated fields of the login form.
type Login struct {
	Email    string
	Password string
}

// ValidateNewPost checks the new/edit post form fields. Values returns
// trimmed except the body, which is kept verbatim.
func ValidateNewPost(values url.Values) (NewPost, map[string]string) {
	f := NewPost{
		Title:    strings.TrimSpace(values.Get("title")),
		Subtitle: strings.TrimSpace(values.Get("subtitle")),
		Author:   strings.TrimSpace(values.Get("author")),
		ImgURL:   strings.TrimSpace(values.Get("img_url")),
		Body:     values.Get("body"),
		Format:   strings.TrimSpace(values.Get("format")),
	}
	errs := make(map[string]string)

	if f.Title == "" {
		errs["title"] = "Title is required"
	}
	if f.Subtitle == "" {
		errs["subtitle"] = "Subtitle is required"
	}
	if f.Author == "" {
		errs["author"] = "Author name is required"
	}
	if f.ImgURL == "" {
		errs["img_url"] = "Image URL is required"
	} else if !isValidURL(f.ImgURL) {
		errs["img_url"] = "Image URL must be a valid URL"
	}
	if strings.TrimSpace(f.Body) == "" {
		errs["body"] = "Content is required"
	}
	if f.Format == "" {
		f.Format = model.PostFormatHTML
	} else if !model.IsValidPostFormat(f.Format) {
		errs["format"] = "Unknown content format"
	}

	return f, errs
}

// ValidateRegister checks the registration form fields.
func ValidateRegister(values url.Values) (Register, map[string]string) {
	f := Register{
		Email:    strings.TrimSpace(strings.ToLower(values.Get("email"))),
		Password: values.Get("password"),
		Name:     strings.TrimSpace(values.Get("name")),
	}
	errs := make(map[string]string)

	if f.Email == "" {
		errs["email"] = "Email is required"
	} else if !isValidEmail(f.Email) {
		errs["email"] = "Email address is not valid"
	}
	if f.Password == "" {
		errs["password"] = "Password is required"
	} else if len(f.Password) < MinPasswordLength {
		errs["password"] = "Password must be at least 8 characters"
	}
	if f.Name == "" {
		errs["name"] = "Name is required"
	}

	return f, errs
}

// ValidateLogin checks the login form fields. It only requires the
// fields to be present; credential checks happen against the store.
func ValidateLogin(values url.Values) (Login, map[string]string) {
	f := Login{
		Email:    strings.TrimSpace(strings.ToLower(values.Get("email"))),
		Password: values.Get("password"),
	}
	errs := make(map[string]string)

	if f.Email == "" {
		errs["email"] = "Email is required"
	}
	if f.Password == "" {
		errs["password"] = "Password is required"
	}

	return f, errs
}

func isValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	// Reject the "Name <addr>" form, only a bare address is accepted
	return err == nil && addr.Address == s
}

func isValidURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
