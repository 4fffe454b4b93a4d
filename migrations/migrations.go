// Package migrations embeds the PostgreSQL schema migrations applied at startup.
package migrations

import "embed"

// FS holds the numbered *.up.sql / *.down.sql files read by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
