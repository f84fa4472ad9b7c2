package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/runreward/runreward/internal/config"
	"github.com/runreward/runreward/internal/filex"
	"github.com/runreward/runreward/internal/repositories/kv"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Options selects and configures one backend.
type Options struct {
	Backend     string
	SQLitePath  string
	DatabaseDSN string
	S3          kv.S3Options
	S3Bucket    string
	S3Prefix    string
}

// PrimaryOptions describes the store every service reads and writes.
func PrimaryOptions(cfg *config.Config) Options {
	return Options{
		Backend:     cfg.StorageBackend,
		SQLitePath:  cfg.SQLitePath,
		DatabaseDSN: cfg.DatabaseDSN,
		S3:          s3Options(cfg),
		S3Bucket:    cfg.S3Bucket,
		S3Prefix:    cfg.S3Prefix,
	}
}

// MirrorOptions describes the external copy written by the sync service.
func MirrorOptions(cfg *config.Config) Options {
	return Options{
		Backend:     cfg.MirrorBackend,
		SQLitePath:  cfg.MirrorSQLitePath,
		DatabaseDSN: cfg.DatabaseDSN,
		S3:          s3Options(cfg),
		S3Bucket:    cfg.S3Bucket,
		S3Prefix:    cfg.MirrorS3Prefix,
	}
}

func s3Options(cfg *config.Config) kv.S3Options {
	return kv.S3Options{
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	}
}

// seams for tests
var (
	sqlOpen     = sql.Open
	newS3Client = func(ctx context.Context, o kv.S3Options) (kv.S3API, error) {
		return kv.NewS3Client(ctx, o)
	}
)

func noopClose() error { return nil }

// Open returns the repository for o.Backend and a function releasing its
// resources. SQL backends are migrated before they are returned.
func Open(ctx context.Context, o Options) (kv.Repository, func() error, error) {
	switch o.Backend {
	case BackendMemory:
		return kv.NewMemoryRepository(), noopClose, nil
	case BackendSQLite:
		if filex.IsLocalPath(o.SQLitePath) {
			if err := filex.EnsureParentDir(o.SQLitePath); err != nil {
				return nil, nil, err
			}
		}
		return openSQL(ctx, "sqlite", o.SQLitePath, &SQLiteRepositoryManager{})
	case BackendPostgres:
		return openSQL(ctx, "pgx", o.DatabaseDSN, &PostgresRepositoryManager{})
	case BackendS3:
		client, err := newS3Client(ctx, o.S3)
		if err != nil {
			return nil, nil, err
		}
		return kv.NewS3Repository(client, o.S3Bucket, o.S3Prefix), noopClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", o.Backend)
	}
}

func openSQL(ctx context.Context, driver, dsn string, m RepositoryManager) (kv.Repository, func() error, error) {
	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// single writer; also keeps ":memory:" to one shared database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return m.KV(db), db.Close, nil
}
