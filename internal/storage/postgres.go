package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend stores every bucket in the litbot_kv table.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresBackend, error) {
	if dsn == "" {
		return nil, errors.New("postgres url is required")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS litbot_kv (
			bucket TEXT NOT NULL,
			key TEXT NOT NULL,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (bucket, key)
		)`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create litbot_kv: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (p *PostgresBackend) Bucket(name string) (KV, error) {
	if err := validBucket(name); err != nil {
		return nil, err
	}
	return &postgresKV{pool: p.pool, bucket: name}, nil
}

func (p *PostgresBackend) Close() error {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
	return nil
}

type postgresKV struct {
	pool   *pgxpool.Pool
	bucket string
}

func (k *postgresKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := k.pool.QueryRow(ctx,
		`SELECT value FROM litbot_kv WHERE bucket = $1 AND key = $2`, k.bucket, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s/%s: %w", k.bucket, key, err)
	}
	return value, true, nil
}

func (k *postgresKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := k.pool.Exec(ctx, `
		INSERT INTO litbot_kv (bucket, key, value, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (bucket, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, k.bucket, key, value)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", k.bucket, key, err)
	}
	return nil
}

func (k *postgresKV) Delete(ctx context.Context, key string) error {
	if _, err := k.pool.Exec(ctx,
		`DELETE FROM litbot_kv WHERE bucket = $1 AND key = $2`, k.bucket, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", k.bucket, key, err)
	}
	return nil
}

func (k *postgresKV) Keys(ctx context.Context) ([]string, error) {
	rows, err := k.pool.Query(ctx,
		`SELECT key FROM litbot_kv WHERE bucket = $1 ORDER BY key`, k.bucket)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", k.bucket, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan %s keys: %w", k.bucket, err)
	}
	return keys, nil
}
