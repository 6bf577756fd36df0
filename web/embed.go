package web

import "embed"

// TemplatesFS embeds the page templates. Every page is rendered inside
// templates/base.html.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
