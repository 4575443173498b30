package scaffold

import "embed"

// templateFS holds the built-in template sets, one directory per agent type.
//
//go:embed all:templates
var templateFS embed.FS
