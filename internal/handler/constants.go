// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the blog index.
	RouteRoot = "/"
	// RoutePost shows a single post by id or slug.
	RoutePost = "/post/{idOrSlug}"
	// RouteNewPost is the post creation form.
	RouteNewPost = "/new-post"
	// RouteEditPost is the post edit form.
	RouteEditPost = "/edit-post/{id}"
	// RouteDeletePost removes a post.
	RouteDeletePost = "/delete/{id}"

	// RouteRegister is the account registration route.
	RouteRegister = "/register"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"

	// RouteAbout is the about page.
	RouteAbout = "/about"
	// RouteContact is the contact page.
	RouteContact = "/contact"
	// RouteHealth is the health check endpoint.
	RouteHealth = "/health"
)

// Template names.
const (
	tmplIndex    = "index"
	tmplPost     = "post"
	tmplMakePost = "make-post"
	tmplRegister = "register"
	tmplLogin    = "login"
	tmplAbout    = "about"
	tmplContact  = "contact"
)
