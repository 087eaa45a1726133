package kvstore

import (
	"context"
	"database/sql"
	"time"

	appErr "inkpost/internal/pkg/errors"
	"inkpost/internal/pkg/timeutil"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	expiresAt := timeutil.NowUnix() + int64(ttl/time.Second)
	// gendry has no upsert support, so this one stays handwritten.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ephemeral_kv (k, v, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, expires_at = EXCLUDED.expires_at`,
		key, value, expiresAt)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT v FROM ephemeral_kv WHERE k = $1 AND expires_at > $2",
		key, timeutil.NowUnix())
	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", appErr.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *PostgresStore) Del(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM ephemeral_kv WHERE k = $1", key)
	return err
}

// PurgeExpired removes rows whose expiry has passed. Reads already filter
// on expires_at, so this only reclaims space; the cleanup job drives it.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM ephemeral_kv WHERE expires_at <= $1", timeutil.NowUnix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
