package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"

	sq "github.com/Masterminds/squirrel"
	"github.com/runreward/runreward/internal/dbx"
)

const table = "kv_store"

// SQLRepository stores pairs in the kv_store table created by the embedded
// migrations. The same statements serve SQLite and PostgreSQL; only the
// placeholder format differs.
type SQLRepository struct {
	db dbx.DBTX
	sb sq.StatementBuilderType
}

// NewSQLiteRepository builds a repository using "?" placeholders.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Question)}
}

// NewPostgresRepository builds a repository using "$n" placeholders.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

func (r *SQLRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query, args, err := r.sb.Select("value").From(table).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get[%s]: %w", key, err)
	}

	var value []byte
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLRepository) Set(ctx context.Context, key string, value []byte) error {
	query, args, err := r.sb.Insert(table).
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build set[%s]: %w", key, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

// SetMany writes all items in one transaction when the underlying handle can
// begin one. Inside an existing transaction the writes simply join it.
func (r *SQLRepository) SetMany(ctx context.Context, items map[string][]byte) error {
	write := func(ctx context.Context, db dbx.DBTX) error {
		tx := &SQLRepository{db: db, sb: r.sb}
		for _, k := range slices.Sorted(maps.Keys(items)) {
			if err := tx.Set(ctx, k, items[k]); err != nil {
				return err
			}
		}
		return nil
	}

	beginner, ok := r.db.(dbx.TxBeginner)
	if !ok {
		return write(ctx, r.db)
	}
	if err := dbx.WithTx(ctx, beginner, nil, write); err != nil {
		return fmt.Errorf("failed to set %d keys: %w", len(items), err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, key string) error {
	query, args, err := r.sb.Delete(table).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete[%s]: %w", key, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLRepository) Clear(ctx context.Context) error {
	query, args, err := r.sb.Delete(table).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build clear: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear kv: %w", err)
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context) (map[string][]byte, error) {
	query, args, err := r.sb.Select("key", "value").From(table).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list kv: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan kv row: %w", err)
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kv rows: %w", err)
	}

	return result, nil
}
