// Package migrations embeds the SQL schema so the binary can migrate without a source checkout.
package migrations

import "embed"

// FS holds the *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
