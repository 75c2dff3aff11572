package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config mirrors the Open options as environment variables for
// deployments that configure processes through the environment.
// Populate it with env.Parse and hand it to Connect.
type Config struct {
	URL string `env:"DATABASE_URL,required"`

	MaxConns int32 `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	MinConns int32 `env:"DATABASE_MIN_CONNS" envDefault:"2"`

	ConnIdleTime time.Duration `env:"DATABASE_CONN_IDLE_TIME" envDefault:"10m"`
	ConnLifetime time.Duration `env:"DATABASE_CONN_LIFETIME" envDefault:"30m"`
	PingPeriod   time.Duration `env:"DATABASE_PING_PERIOD" envDefault:"1m"`

	ConnectAttempts int           `env:"DATABASE_CONNECT_ATTEMPTS" envDefault:"3"`
	ConnectBackoff  time.Duration `env:"DATABASE_CONNECT_BACKOFF" envDefault:"2s"`

	MigrationsTable string `env:"DATABASE_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
}

// Connect opens a pool from an environment-driven Config. Migrations
// ship in code rather than the environment; pass WithMigrations in
// extra when the schema should be brought up to date:
//
//	var cfg db.Config
//	if err := env.Parse(&cfg); err != nil {
//	    return err
//	}
//	pool, err := db.Connect(ctx, cfg, db.WithMigrations(migrationsFS))
func Connect(ctx context.Context, cfg Config, extra ...Option) (*pgxpool.Pool, error) {
	opts := append([]Option{
		WithMaxConns(cfg.MaxConns),
		WithMinConns(cfg.MinConns),
		WithConnIdleTime(cfg.ConnIdleTime),
		WithConnLifetime(cfg.ConnLifetime),
		WithPingPeriod(cfg.PingPeriod),
		WithConnectRetry(cfg.ConnectAttempts, cfg.ConnectBackoff),
		WithMigrationsTable(cfg.MigrationsTable),
	}, extra...)
	return Open(ctx, cfg.URL, opts...)
}
