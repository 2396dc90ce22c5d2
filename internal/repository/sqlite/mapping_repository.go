package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/repository"

	"github.com/mattn/go-sqlite3"
)

// mappingRepository is a repository.MappingStore backed by a SQLite file.
type mappingRepository struct {
	db *sql.DB
}

// compile-time assertion that we implement MappingStore
var _ repository.MappingStore = &mappingRepository{}

// NewMappingRepository wraps an open database handle.
func NewMappingRepository(db *sql.DB) repository.MappingStore {
	return &mappingRepository{db: db}
}

// Save inserts the mapping; a primary key violation becomes repository.ErrConflict.
func (r *mappingRepository) Save(ctx context.Context, mapping domain.URLMapping) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO urls (short_code, original_url) VALUES (?, ?)`,
		mapping.ShortCode, mapping.OriginalURL,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return repository.Conflict("insert mapping", mapping.ShortCode)
		}
		return repository.Backend("insert mapping", err)
	}
	return nil
}

// Find returns the mapping for shortCode, if any.
func (r *mappingRepository) Find(ctx context.Context, shortCode string) (domain.URLMapping, bool, error) {
	var mapping domain.URLMapping
	err := r.db.QueryRowContext(ctx,
		`SELECT short_code, original_url FROM urls WHERE short_code = ?`,
		shortCode,
	).Scan(&mapping.ShortCode, &mapping.OriginalURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.URLMapping{}, false, nil
		}
		return domain.URLMapping{}, false, repository.Backend("select mapping", err)
	}
	return mapping, true, nil
}

// Ping checks the database handle.
func (r *mappingRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return repository.Backend("ping", err)
	}
	return nil
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// PoolOptions sizes the database/sql connection pool.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BusyTimeout     time.Duration
}

// Open opens the SQLite database at path and verifies it with a ping.
// path may carry go-sqlite3 query options ("shortener.db?_journal_mode=WAL").
func Open(ctx context.Context, path string, opts PoolOptions) (*sql.DB, error) {
	dsn := withBusyTimeout(path, opts.BusyTimeout)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open SQLite database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return db, nil
}

// withBusyTimeout makes concurrent writers wait for the file lock instead of
// failing immediately with SQLITE_BUSY.
func withBusyTimeout(path string, timeout time.Duration) string {
	if timeout <= 0 || strings.Contains(path, "_busy_timeout") || strings.Contains(path, "_timeout") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_busy_timeout=%d", path, sep, timeout.Milliseconds())
}
