// Package migrations embeds the SQL schema files so binaries apply them from any working
// directory.
package migrations

import "embed"

// FS holds the numbered *.sql files; they apply in lexical order.
//
//go:embed *.sql
var FS embed.FS
