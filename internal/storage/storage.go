// Package storage opens the MappingStore selected by the connection string.
package storage

import (
	"context"
	"fmt"
	"strings"

	"shortlink/internal/config"
	"shortlink/internal/migrations"
	"shortlink/internal/repository"
	"shortlink/internal/repository/memory"
	"shortlink/internal/repository/postgres"
	redisstore "shortlink/internal/repository/redis"
	"shortlink/internal/repository/sqlite"
	"shortlink/pkg/logger"

	"go.uber.org/zap"
)

// Kind names a storage backend.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
	KindRedis    Kind = "redis"
	KindMemory   Kind = "memory"
)

// Store is a MappingStore plus the resources (pool, client) behind it.
type Store struct {
	repository.MappingStore
	Kind  Kind
	close func()
}

// Close releases the backend's connections.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Parse maps a connection string to a backend and the DSN its driver expects.
//
//	postgres://..., postgresql://...  -> postgres, unchanged
//	sqlite://path, sqlite:path, file:path -> sqlite, path
//	redis://..., rediss://...         -> redis, unchanged
//	memory://, memory                 -> memory
func Parse(databaseURL string) (Kind, string, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return KindPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "redis://"), strings.HasPrefix(databaseURL, "rediss://"):
		return KindRedis, databaseURL, nil
	case databaseURL == "memory" || databaseURL == "memory://":
		return KindMemory, "", nil
	}

	for _, prefix := range []string{"sqlite://", "sqlite:", "file:"} {
		if !strings.HasPrefix(databaseURL, prefix) {
			continue
		}
		path := strings.TrimPrefix(databaseURL, prefix)
		if path == "" {
			return "", "", fmt.Errorf("sqlite connection string %q has no path", databaseURL)
		}
		if strings.HasPrefix(path, ":memory:") {
			return "", "", fmt.Errorf("in-memory sqlite is not shared across pooled connections, use memory:// instead")
		}
		return KindSQLite, path, nil
	}

	return "", "", fmt.Errorf("unsupported DATABASE_URL %q", databaseURL)
}

// Open connects to the configured backend, applies migrations when enabled
// and returns the ready store. It is called once at startup.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Store, error) {
	kind, dsn, err := Parse(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	db := cfg.Database

	switch kind {
	case KindPostgres:
		if db.AutoMigrate {
			if err := migrations.Up(migrations.Postgres, dsn); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.InitDB(ctx, dsn, postgres.PoolOptions{
			MaxConns:        db.MaxConns,
			MinConns:        db.MinConns,
			MaxConnLifetime: db.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		log.Info("connected to postgres", zap.Int("max_conns", db.MaxConns))
		return &Store{MappingStore: postgres.NewMappingRepository(pool), Kind: kind, close: pool.Close}, nil

	case KindSQLite:
		if db.AutoMigrate {
			if err := migrations.Up(migrations.SQLite, dsn); err != nil {
				return nil, err
			}
		}
		sqlDB, err := sqlite.Open(ctx, dsn, sqlite.PoolOptions{
			MaxOpenConns:    db.MaxConns,
			MaxIdleConns:    db.MinConns,
			ConnMaxLifetime: db.ConnMaxLifetime,
			BusyTimeout:     db.StoreTimeout,
		})
		if err != nil {
			return nil, err
		}
		log.Info("opened sqlite database", zap.String("path", dsn))
		return &Store{
			MappingStore: sqlite.NewMappingRepository(sqlDB),
			Kind:         kind,
			close: func() {
				if err := sqlDB.Close(); err != nil {
					log.Warn("failed to close sqlite database", zap.Error(err))
				}
			},
		}, nil

	case KindRedis:
		client, err := redisstore.InitRedis(ctx, dsn, redisstore.ClientOptions{
			Password: cfg.Redis.Password,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, err
		}
		log.Info("connected to redis")
		return &Store{
			MappingStore: redisstore.NewMappingStore(client),
			Kind:         kind,
			close: func() {
				if err := client.Close(); err != nil {
					log.Warn("failed to close redis client", zap.Error(err))
				}
			},
		}, nil

	default:
		log.Warn("using in-memory store, mappings are lost on restart")
		return &Store{MappingStore: memory.NewMappingStore(), Kind: kind}, nil
	}
}
