// Package web embeds the static assets of the browser UI.
package web

import "embed"

// Static holds the UI files served at the web root.
//
//go:embed static/*
var Static embed.FS
