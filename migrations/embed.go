// Package migrations embeds the SQL schema so the migrate command can run it
// without files on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
