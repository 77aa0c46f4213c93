package migrations

import "embed"

// FS contains embedded SQLite migrations for log storage.
//
//go:embed *.sql
var FS embed.FS
