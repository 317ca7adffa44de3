package content

import "embed"

// FS holds the Markdown blocks rendered on the landing page.
//
//go:embed info
var FS embed.FS
