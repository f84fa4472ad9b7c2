package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/runreward/runreward/internal/config"
	"github.com/runreward/runreward/internal/migrations"
	"github.com/runreward/runreward/internal/repositories/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func stubGoose(t *testing.T, fn func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error) {
	t.Helper()
	orig := gooseUpContext
	gooseUpContext = fn
	t.Cleanup(func() { gooseUpContext = orig })
}

func TestManagers_ReturnRepositories(t *testing.T) {
	db, _ := newDB(t)

	var _ RepositoryManager = &SQLiteRepositoryManager{}
	var _ RepositoryManager = &PostgresRepositoryManager{}

	assert.IsType(t, &kv.SQLRepository{}, (&SQLiteRepositoryManager{}).KV(db))
	assert.IsType(t, &kv.SQLRepository{}, (&PostgresRepositoryManager{}).KV(db))
}

func TestRunMigrations_UsesDialectDirectory(t *testing.T) {
	db, _ := newDB(t)

	var dirs []string
	stubGoose(t, func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		dirs = append(dirs, dir)
		return nil
	})

	require.NoError(t, (&SQLiteRepositoryManager{}).RunMigrations(context.Background(), db))
	require.NoError(t, (&PostgresRepositoryManager{}).RunMigrations(context.Background(), db))
	assert.Equal(t, []string{migrations.SQLiteDir, migrations.PostgresDir}, dirs)
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	stubGoose(t, func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	})

	err := (&PostgresRepositoryManager{}).RunMigrations(context.Background(), db)
	require.EqualError(t, err, "boom")
}

func TestOpen_Memory(t *testing.T) {
	repo, closeFn, err := Open(context.Background(), Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &kv.MemoryRepository{}, repo)
	require.NoError(t, closeFn())
}

func TestOpen_SQLiteRunsMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "runreward.db")

	repo, closeFn, err := Open(ctx, Options{Backend: BackendSQLite, SQLitePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	require.NoError(t, repo.Set(ctx, "runreward-users", []byte("[]")))
	v, err := repo.Get(ctx, "runreward-users")
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestOpen_SQLiteMigrationFailureClosesDB(t *testing.T) {
	stubGoose(t, func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	})

	_, _, err := Open(context.Background(), Options{Backend: BackendSQLite, SQLitePath: ":memory:"})
	require.ErrorContains(t, err, "failed to run migrations")
}

func TestOpen_PostgresPingFailure(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()

	var gotDriver, gotDSN string
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driver, dsn
		return db, nil
	}

	_, _, err = Open(context.Background(), Options{Backend: BackendPostgres, DatabaseDSN: "postgres://x"})
	require.ErrorContains(t, err, "refused")
	assert.Equal(t, "pgx", gotDriver)
	assert.Equal(t, "postgres://x", gotDSN)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_S3(t *testing.T) {
	orig := newS3Client
	t.Cleanup(func() { newS3Client = orig })

	var got kv.S3Options
	newS3Client = func(_ context.Context, o kv.S3Options) (kv.S3API, error) {
		got = o
		return nil, nil
	}

	repo, _, err := Open(context.Background(), Options{
		Backend:  BackendS3,
		S3:       kv.S3Options{Region: "us-east-1"},
		S3Bucket: "runreward",
	})
	require.NoError(t, err)
	assert.IsType(t, &kv.S3Repository{}, repo)
	assert.Equal(t, "us-east-1", got.Region)

	newS3Client = func(context.Context, kv.S3Options) (kv.S3API, error) {
		return nil, errors.New("no creds")
	}
	_, _, err = Open(context.Background(), Options{Backend: BackendS3})
	require.ErrorContains(t, err, "no creds")
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, _, err := Open(context.Background(), Options{Backend: "floppy"})
	require.ErrorContains(t, err, "floppy")
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.StorageBackend = BackendPostgres
	cfg.MirrorBackend = BackendS3

	p := PrimaryOptions(cfg)
	assert.Equal(t, BackendPostgres, p.Backend)
	assert.Equal(t, cfg.S3Prefix, p.S3Prefix)

	m := MirrorOptions(cfg)
	assert.Equal(t, BackendS3, m.Backend)
	assert.Equal(t, cfg.MirrorS3Prefix, m.S3Prefix)
	assert.Equal(t, cfg.MirrorSQLitePath, m.SQLitePath)
	assert.Equal(t, cfg.S3Bucket, m.S3Bucket)
}
