// Package db opens the PostgreSQL pool behind the product cache and applies
// its schema.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jackc/pgx/v4/stdlib"
	"go.uber.org/zap"
)

type PoolOptions struct {
	MaxConns       int32
	MinConns       int32
	ConnectTimeout time.Duration
}

var DefaultPoolOptions = PoolOptions{
	MaxConns:       10,
	MinConns:       2,
	ConnectTimeout: 5 * time.Second,
}

type Database struct {
	Pool   *pgxpool.Pool
	config *pgxpool.Config
	log    *zap.Logger
}

// Open connects a pool and pings it within opts.ConnectTimeout.
func Open(ctx context.Context, dsn string, opts PoolOptions, log *zap.Logger) (*Database, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}

	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.ConnectConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Info("database connected",
		zap.String("host", config.ConnConfig.Host),
		zap.String("database", config.ConnConfig.Database),
		zap.Int32("max_conns", config.MaxConns),
	)
	return &Database{Pool: pool, config: config, log: log}, nil
}

// Migrate applies every pending migration found in dir. It reuses the pool's
// connection settings through database/sql, which golang-migrate requires.
func (d *Database) Migrate(dir string) error {
	sqlDB := stdlib.OpenDB(*d.config.ConnConfig)
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		d.log.Info("schema up to date", zap.String("dir", dir))
		return nil
	case err != nil:
		return fmt.Errorf("migrate up failed: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil {
		d.log.Warn("migrated but could not read schema version", zap.Error(verr))
		return nil
	}
	d.log.Info("database migrated",
		zap.String("dir", dir),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

func (d *Database) Close() error {
	if d.Pool != nil {
		d.Pool.Close()
	}
	return nil
}
