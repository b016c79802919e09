// Package migrations holds the versioned SQL schema applied by goose.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
