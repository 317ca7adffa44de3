package locales

import "embed"

// FS holds the {lang}.json dictionaries.
//
//go:embed *.json
var FS embed.FS
