// Package web embeds the page templates and browser assets served by
// internal/http.
package web

import "embed"

// TemplatesFS holds layout.html, partials.html and one file per page.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds app.js and app.css, mounted under /static/.
//
//go:embed static/*
var StaticFS embed.FS
