// Package repository opens the entity repository and archive saver the
// configuration selects.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskflow/taskflow/internal/adapters/repository/memory"
	"github.com/taskflow/taskflow/internal/adapters/repository/postgres"
	"github.com/taskflow/taskflow/internal/adapters/repository/redis"
	"github.com/taskflow/taskflow/internal/adapters/repository/sqlite"
	"github.com/taskflow/taskflow/internal/app/usecases"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/core/archive"
)

// Stores bundles the opened backends. Close releases every connection.
type Stores struct {
	Entities usecases.Repository
	Archive  archive.Saver

	pings   []func(context.Context) error
	closers []func() error
}

// Open connects the backends named by cfg. SQLite and PostgreSQL
// connections are shared when both stores use the same driver.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	serializer, err := cfg.Serializer()
	if err != nil {
		return nil, err
	}

	s := &Stores{}
	var (
		sqliteDB *sql.DB
		pgPool   *pgxpool.Pool
	)
	openSQLite := func() (*sql.DB, error) {
		if sqliteDB != nil {
			return sqliteDB, nil
		}
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		sqliteDB = db
		s.pings = append(s.pings, db.PingContext)
		s.closers = append(s.closers, db.Close)
		return db, nil
	}
	openPostgres := func() (*pgxpool.Pool, error) {
		if pgPool != nil {
			return pgPool, nil
		}
		if err := postgres.Migrate(ctx, cfg.PostgresURL); err != nil {
			return nil, err
		}
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		pgPool = pool
		s.pings = append(s.pings, pool.Ping)
		s.closers = append(s.closers, func() error { pool.Close(); return nil })
		return pool, nil
	}

	fail := func(err error) (*Stores, error) {
		_ = s.Close()
		return nil, err
	}

	switch cfg.StorageDriver {
	case config.DriverMemory:
		s.Entities = memory.NewEntityRepository()
	case config.DriverSQLite:
		db, err := openSQLite()
		if err != nil {
			return fail(err)
		}
		s.Entities = sqlite.NewEntityRepository(db)
	case config.DriverPostgres:
		pool, err := openPostgres()
		if err != nil {
			return fail(err)
		}
		s.Entities = postgres.NewEntityRepository(pool)
	default:
		return fail(fmt.Errorf("%w: %q", config.ErrInvalidDriver, cfg.StorageDriver))
	}

	switch cfg.ArchiveDriver {
	case config.DriverMemory:
		saver := memory.NewArchiveSaver(memory.ArchiveConfig{
			MaxMemoryMB: cfg.ArchiveMaxMB,
			Retention:   cfg.ArchiveRetention,
			Serializer:  serializer,
		})
		s.Archive = saver
		s.closers = append(s.closers, saver.Close)
	case config.DriverSQLite:
		db, err := openSQLite()
		if err != nil {
			return fail(err)
		}
		s.Archive = sqlite.NewArchiveSaver(db, serializer)
	case config.DriverPostgres:
		pool, err := openPostgres()
		if err != nil {
			return fail(err)
		}
		s.Archive = postgres.NewArchiveSaver(pool, serializer)
	case config.DriverRedis:
		client := redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		saver := redis.NewArchiveSaver(client, serializer, cfg.RedisPrefix)
		s.pings = append(s.pings, saver.Ping)
		s.closers = append(s.closers, client.Close)
		s.Archive = saver
	default:
		return fail(fmt.Errorf("%w: %q", config.ErrInvalidDriver, cfg.ArchiveDriver))
	}
	return s, nil
}

// Ping checks every networked backend.
func (s *Stores) Ping(ctx context.Context) error {
	var errs []error
	for _, ping := range s.pings {
		errs = append(errs, ping(ctx))
	}
	return errors.Join(errs...)
}

// Close releases backends in reverse order of opening.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
