// Package migrations holds the numbered schema scripts for the library
// database. Files are applied in name order and recorded by version.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
