// Package templates embeds the html/template sources of the storefront.
package templates

import "embed"

//go:embed *.tmpl
var FS embed.FS
