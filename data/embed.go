// Package data holds the content catalogs compiled into the binaries.
package data

import "embed"

//go:embed catalogs/*.yaml
var Catalogs embed.FS
