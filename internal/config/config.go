package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"shortlink/pkg/validator"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is read once at startup
// and not modified afterwards.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address         string
	BaseURL         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the persistence connection string and pool settings.
// The URL scheme picks the backend: postgres, sqlite, redis or memory.
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	StoreTimeout    time.Duration
}

// RedisConfig holds options for the redis backend
type RedisConfig struct {
	Password string
	PoolSize int
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Environment        string
	LogLevel           string
	ShortenMaxAttempts int
	MetricsEnabled     bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:3000")
	v.SetDefault("BASE_URL", "")
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")

	v.SetDefault("DATABASE_URL", "sqlite://shortener.db")
	v.SetDefault("DB_MAX_CONNS", 25)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("STORE_TIMEOUT", "5s")

	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_POOL_SIZE", 10)

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHORTEN_MAX_ATTEMPTS", 3)
	v.SetDefault("METRICS_ENABLED", true)
}

// Load reads configuration with the precedence flags > environment > .env file > defaults.
// args are the command line arguments without the program name.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("shortlink", flag.ContinueOnError)
	address := fs.String("a", "", "bind address (SERVER_ADDRESS)")
	baseURL := fs.String("b", "", "public base URL for short links (BASE_URL)")
	databaseURL := fs.String("d", "", "persistence connection string (DATABASE_URL)")
	envFile := fs.String("env-file", ".env", "optional dotenv file")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	// A missing .env is fine; environment variables still win over it.
	v.SetConfigFile(*envFile)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(*envFile); statErr == nil {
			return nil, fmt.Errorf("failed to read %s: %w", *envFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Address:         v.GetString("SERVER_ADDRESS"),
			BaseURL:         v.GetString("BASE_URL"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxConns:        v.GetInt("DB_MAX_CONNS"),
			MinConns:        v.GetInt("DB_MIN_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
			StoreTimeout:    v.GetDuration("STORE_TIMEOUT"),
		},
		Redis: RedisConfig{
			Password: v.GetString("REDIS_PASSWORD"),
			PoolSize: v.GetInt("REDIS_POOL_SIZE"),
		},
		App: AppConfig{
			Environment:        v.GetString("APP_ENV"),
			LogLevel:           v.GetString("LOG_LEVEL"),
			ShortenMaxAttempts: v.GetInt("SHORTEN_MAX_ATTEMPTS"),
			MetricsEnabled:     v.GetBool("METRICS_ENABLED"),
		},
	}

	if *address != "" {
		cfg.Server.Address = *address
	}
	if *baseURL != "" {
		cfg.Server.BaseURL = *baseURL
	}
	if *databaseURL != "" {
		cfg.Database.URL = *databaseURL
	}

	if cfg.Server.BaseURL == "" {
		derived, err := DeriveBaseURL(cfg.Server.Address)
		if err != nil {
			return nil, err
		}
		cfg.Server.BaseURL = derived
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DeriveBaseURL builds the public base URL from a bind address.
// Wildcard or empty hosts become localhost: "0.0.0.0:3000" -> "http://localhost:3000".
func DeriveBaseURL(address string) (string, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return "", fmt.Errorf("invalid bind address %q: %w", address, err)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port), nil
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("bind address cannot be empty")
	}
	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		return fmt.Errorf("invalid bind address %q: %w", c.Server.Address, err)
	}

	if err := validator.ValidateBaseURL(c.Server.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.Server.BaseURL, err)
	}

	if c.Database.URL == "" {
		return errors.New("DATABASE_URL must be set")
	}
	if c.App.ShortenMaxAttempts < 1 {
		return fmt.Errorf("SHORTEN_MAX_ATTEMPTS must be at least 1, got %d", c.App.ShortenMaxAttempts)
	}

	for name, d := range map[string]time.Duration{
		"SERVER_READ_TIMEOUT":     c.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":    c.Server.WriteTimeout,
		"SERVER_IDLE_TIMEOUT":     c.Server.IdleTimeout,
		"SERVER_SHUTDOWN_TIMEOUT": c.Server.ShutdownTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive duration", name)
		}
	}

	return nil
}
