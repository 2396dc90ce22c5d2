package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/repository"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// mappingRepository is the PostgreSQL implementation of repository.MappingStore.
// Each call borrows one pooled connection for a single statement.
type mappingRepository struct {
	db *pgxpool.Pool
}

// NewMappingRepository creates a store over an already connected pool.
func NewMappingRepository(db *pgxpool.Pool) repository.MappingStore {
	return &mappingRepository{db: db}
}

// Save inserts a new row. The primary key on short_code is the source of truth
// for uniqueness: a unique_violation becomes repository.ErrConflict.
func (r *mappingRepository) Save(ctx context.Context, mapping domain.URLMapping) error {
	query := `INSERT INTO urls (short_code, original_url) VALUES ($1, $2)`

	if _, err := r.db.Exec(ctx, query, mapping.ShortCode, mapping.OriginalURL); err != nil {
		if isUniqueViolation(err) {
			return repository.Conflict("insert mapping", mapping.ShortCode)
		}
		return repository.Backend("insert mapping", err)
	}

	return nil
}

// Find retrieves a mapping by its short code.
func (r *mappingRepository) Find(ctx context.Context, shortCode string) (domain.URLMapping, bool, error) {
	query := `SELECT short_code, original_url FROM urls WHERE short_code = $1`

	var mapping domain.URLMapping
	err := r.db.QueryRow(ctx, query, shortCode).Scan(&mapping.ShortCode, &mapping.OriginalURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.URLMapping{}, false, nil
		}
		return domain.URLMapping{}, false, repository.Backend("select mapping", err)
	}

	return mapping, true, nil
}

// Ping checks pool connectivity.
func (r *mappingRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return repository.Backend("ping", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// PoolOptions sizes the connection pool.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
}

// InitDB creates the process-wide connection pool and verifies it with a ping.
// It is called once at startup; the pool is then shared by every request.
func InitDB(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		config.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		config.MaxConnLifetime = opts.MaxConnLifetime
	}
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
