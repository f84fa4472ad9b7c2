package repomanager

import (
	"context"
	"database/sql"

	"github.com/runreward/runreward/internal/dbx"
	"github.com/runreward/runreward/internal/repositories/kv"
)

// RepositoryManager vends the kv repository of one SQL dialect and migrates
// its schema.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	KV(db dbx.DBTX) kv.Repository
}
