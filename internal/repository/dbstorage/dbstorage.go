package dbstorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"go.uber.org/zap"

	"github.com/shopmindai/profitshare/internal/retry"
	"github.com/shopmindai/profitshare/internal/service"
)

var _ service.Storage = (*dbstorage)(nil)
var _ service.HealthStorage = (*dbstorage)(nil)

// Pool is the subset of *pgxpool.Pool the storage needs.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type dbstorage struct {
	db       Pool
	log      *zap.Logger
	retryCfg retry.RetryConfig
}

func NewDBStorage(db Pool, log *zap.Logger) *dbstorage {
	return &dbstorage{
		db:  db,
		log: log,
		retryCfg: retry.RetryConfig{
			MaxRetries:    3,
			Delays:        []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second},
			IsRetryableFn: isRetryablePgError,
		},
	}
}

func isRetryablePgError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgErr.Code == pgerrcode.SerializationFailure ||
			pgErr.Code == pgerrcode.DeadlockDetected
	}
	return false
}

func (db *dbstorage) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT payload FROM product_cache WHERE cache_key = $1 AND expires_at > now();`

	var payload []byte
	err := retry.Do(ctx, db.retryCfg, func(ctx context.Context) error {
		return db.db.QueryRow(ctx, query, key).Scan(&payload)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, service.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return payload, nil
}

func (db *dbstorage) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	query := `
		INSERT INTO product_cache (cache_key, payload, stored_at, expires_at)
		VALUES ($1, $2, now(), now() + $3::interval)
		ON CONFLICT (cache_key) DO UPDATE
		SET payload = EXCLUDED.payload,
		    stored_at = EXCLUDED.stored_at,
		    expires_at = EXCLUDED.expires_at;
	`

	interval := fmt.Sprintf("%d milliseconds", ttl.Milliseconds())
	err := retry.Do(ctx, db.retryCfg, func(ctx context.Context) error {
		_, err := db.db.Exec(ctx, query, key, payload, interval)
		return err
	})
	if err != nil {
		db.log.Error("failed to store cache entry", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Purge removes expired rows.
func (db *dbstorage) Purge(ctx context.Context) (int64, error) {
	tag, err := db.db.Exec(ctx, `DELETE FROM product_cache WHERE expires_at <= now();`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (db *dbstorage) Ping(ctx context.Context) error {
	if db == nil || db.db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.db.Ping(ctx)
}

func (db *dbstorage) Close() error {
	db.db.Close()
	return nil
}
