package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool defaults applied when the corresponding Config field is zero.
const (
	defaultMaxConns        = 25
	defaultMinConns        = 2
	defaultMaxConnLifetime = time.Hour
	defaultMaxConnIdleTime = 30 * time.Minute
	defaultApplicationName = "zi-engine"
	startupPingTimeout     = 5 * time.Second
)

// DB wraps the pgx pool shared by every request scope.
type DB struct {
	*pgxpool.Pool
}

// Config holds database connection configuration.
type Config struct {
	URL             string
	ApplicationName string // reported in pg_stat_activity
	MaxConnections  int32
	MinConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PoolStats is a point-in-time view of pool usage.
type PoolStats struct {
	Total    int32
	Idle     int32
	Acquired int32
}

// NewConnection opens the pool and fails fast if the server cannot be reached.
func NewConnection(ctx context.Context, cfg *Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	applyPoolConfig(poolConfig, cfg)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func applyPoolConfig(pc *pgxpool.Config, cfg *Config) {
	pc.MaxConns = orDefault(cfg.MaxConnections, defaultMaxConns)
	pc.MinConns = min(orDefault(cfg.MinConnections, defaultMinConns), pc.MaxConns)
	pc.MaxConnLifetime = orDefault(cfg.MaxConnLifetime, defaultMaxConnLifetime)
	pc.MaxConnIdleTime = orDefault(cfg.MaxConnIdleTime, defaultMaxConnIdleTime)

	if _, set := pc.ConnConfig.RuntimeParams["application_name"]; !set {
		pc.ConnConfig.RuntimeParams["application_name"] = orDefault(cfg.ApplicationName, defaultApplicationName)
	}
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// Stats returns current pool usage.
func (db *DB) Stats() PoolStats {
	s := db.Pool.Stat()
	return PoolStats{
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		Acquired: s.AcquiredConns(),
	}
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
