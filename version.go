package notes

import _ "embed"

// Version is the release version of the notes module.
//
//go:embed VERSION
var Version string
