// Package migrations embeds the goose schema migrations for the SQL storage
// backends. Each dialect lives in its own directory of the embedded FS.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

// Directories of Migrations, one per dialect.
const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)
