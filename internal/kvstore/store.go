package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"inkpost/internal/config"
)

// Store holds short-lived string values with an independent expiry per key.
// Get on a missing or expired key returns errors.ErrNotFound; Del on a
// missing key is a no-op, so consuming a key twice is benign.
type Store interface {
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}

func New(cfg config.EphemeralConfig, db *sql.DB) (Store, error) {
	switch cfg.Type {
	case "postgres":
		return NewPostgresStore(db), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("ephemeral_store.type must be postgres or memory")
	}
}
