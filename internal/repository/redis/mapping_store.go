package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/repository"

	"github.com/redis/go-redis/v9"
)

// MappingStore keeps each mapping as a plain string key "url:{shortCode}"
// holding the original URL. Keys never expire.
type MappingStore struct {
	client *redis.Client
}

// NewMappingStore creates a store over a connected client.
func NewMappingStore(client *redis.Client) *MappingStore {
	return &MappingStore{client: client}
}

var _ repository.MappingStore = (*MappingStore)(nil)

func key(shortCode string) string {
	return fmt.Sprintf("url:%s", shortCode)
}

// Save writes the mapping with SETNX, so an existing key is never replaced.
func (s *MappingStore) Save(ctx context.Context, mapping domain.URLMapping) error {
	ok, err := s.client.SetNX(ctx, key(mapping.ShortCode), mapping.OriginalURL, 0).Result()
	if err != nil {
		return repository.Backend("redis setnx", err)
	}
	if !ok {
		return repository.Conflict("redis setnx", mapping.ShortCode)
	}
	return nil
}

// Find reads the mapping; redis.Nil means the code is unknown.
func (s *MappingStore) Find(ctx context.Context, shortCode string) (domain.URLMapping, bool, error) {
	originalURL, err := s.client.Get(ctx, key(shortCode)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.URLMapping{}, false, nil
	}
	if err != nil {
		return domain.URLMapping{}, false, repository.Backend("redis get", err)
	}
	return domain.NewURLMapping(shortCode, originalURL), true, nil
}

// Ping checks the connection.
func (s *MappingStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return repository.Backend("redis ping", err)
	}
	return nil
}

// ClientOptions tunes the client created by InitRedis.
type ClientOptions struct {
	Password string
	PoolSize int
}

// InitRedis creates a client from a redis:// or rediss:// URL and pings it.
func InitRedis(ctx context.Context, rawURL string, opts ClientOptions) (*redis.Client, error) {
	options, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	if opts.Password != "" {
		options.Password = opts.Password
	}
	if opts.PoolSize > 0 {
		options.PoolSize = opts.PoolSize
	}
	options.MinIdleConns = 2
	options.MaxRetries = 3
	options.DialTimeout = 5 * time.Second
	options.ReadTimeout = 3 * time.Second
	options.WriteTimeout = 3 * time.Second

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
