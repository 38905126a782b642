// Package web embeds the viewer page, its HTML fragments and static assets.
package web

import "embed"

// FS holds templates/ and static/. The server uses it unless a web dir on
// disk is configured.
//
//go:embed templates static
var FS embed.FS
