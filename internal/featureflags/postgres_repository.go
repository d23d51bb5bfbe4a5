package featureflags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS feature_flags (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_by TEXT NOT NULL DEFAULT '',
		reason     TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS feature_flag_changes (
		id         BIGSERIAL PRIMARY KEY,
		key        TEXT NOT NULL,
		value      JSONB NOT NULL,
		changed_at TIMESTAMPTZ NOT NULL,
		changed_by TEXT NOT NULL DEFAULT '',
		reason     TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS feature_flag_changes_key_idx
		ON feature_flag_changes (key, changed_at DESC)
`

const upsertFlagSQL = `
	INSERT INTO feature_flags (key, value, updated_at, updated_by, reason)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at,
		updated_by = EXCLUDED.updated_by,
		reason = EXCLUDED.reason
`

const insertChangeSQL = `
	INSERT INTO feature_flag_changes (key, value, changed_at, changed_by, reason)
	VALUES ($1, $2, $3, $4, $5)
`

const selectFlagsSQL = `SELECT key, value, updated_at, updated_by, reason FROM feature_flags`

// PostgresRepository stores flags in the feature_flags table and their
// history in feature_flag_changes.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the tables if needed and inserts any defaults that
// are missing. Stored values are left alone.
func (r *PostgresRepository) EnsureSchema(ctx context.Context, defaults map[string]*Flag) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create feature flag tables: %w", err)
	}

	for _, flag := range defaults {
		valueJSON, err := json.Marshal(flag.Value)
		if err != nil {
			return fmt.Errorf("encode flag %s: %w", flag.Key, err)
		}
		_, err = r.pool.Exec(ctx,
			`INSERT INTO feature_flags (key, value, updated_at, updated_by) VALUES ($1, $2, $3, 'defaults') ON CONFLICT (key) DO NOTHING`,
			flag.Key, valueJSON, time.Now())
		if err != nil {
			return fmt.Errorf("seed flag %s: %w", flag.Key, err)
		}
	}
	return nil
}

func (r *PostgresRepository) GetFlag(ctx context.Context, key string) (*Flag, error) {
	flag, err := scanFlag(r.pool.QueryRow(ctx, selectFlagsSQL+` WHERE key = $1`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFlagNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get flag %s: %w", key, err)
	}
	return &flag, nil
}

func (r *PostgresRepository) GetAllFlags(ctx context.Context) (map[string]*Flag, error) {
	rows, err := r.pool.Query(ctx, selectFlagsSQL)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer rows.Close()

	flags := make(map[string]*Flag)
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("list flags: %w", err)
		}
		flags[flag.Key] = &flag
	}
	return flags, rows.Err()
}

func (r *PostgresRepository) SetFlags(ctx context.Context, flags []*Flag) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	for _, flag := range flags {
		valueJSON, err := json.Marshal(flag.Value)
		if err != nil {
			return fmt.Errorf("encode flag %s: %w", flag.Key, err)
		}
		args := []any{flag.Key, valueJSON, flag.UpdatedAt, flag.UpdatedBy, flag.Reason}
		if _, err := tx.Exec(ctx, upsertFlagSQL, args...); err != nil {
			return fmt.Errorf("upsert flag %s: %w", flag.Key, err)
		}
		if _, err := tx.Exec(ctx, insertChangeSQL, args...); err != nil {
			return fmt.Errorf("record change to %s: %w", flag.Key, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) History(ctx context.Context, key string, limit int) ([]Flag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT key, value, changed_at, changed_by, reason
		FROM feature_flag_changes
		WHERE key = $1
		ORDER BY changed_at DESC, id DESC
		LIMIT $2`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("flag history %s: %w", key, err)
	}
	defer rows.Close()

	out := []Flag{}
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, fmt.Errorf("flag history %s: %w", key, err)
		}
		out = append(out, flag)
	}
	return out, rows.Err()
}

// scanFlag reads key, value, timestamp, actor and reason columns.
func scanFlag(row pgx.Row) (Flag, error) {
	var (
		flag      Flag
		valueJSON []byte
	)
	if err := row.Scan(&flag.Key, &valueJSON, &flag.UpdatedAt, &flag.UpdatedBy, &flag.Reason); err != nil {
		return Flag{}, err
	}
	if err := json.Unmarshal(valueJSON, &flag.Value); err != nil {
		return Flag{}, fmt.Errorf("decode flag %s: %w", flag.Key, err)
	}
	return flag, nil
}

var _ Repository = (*PostgresRepository)(nil)
