// Package assets embeds the page and email templates.
package assets

import "embed"

const (
	WebTemplatesDir   = "templates/web"
	EmailTemplatesDir = "templates/email"
)

//go:embed templates
var FS embed.FS
