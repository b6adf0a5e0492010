// Package migrations embeds the SQL schema migrations in golang-migrate format.
package migrations

import "embed"

//go:embed *.sql
var files embed.FS

// FS returns the embedded migration files.
func FS() embed.FS {
	return files
}
