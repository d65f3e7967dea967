package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbConnectTimeout = 10 * time.Second
	dbPingAttempts   = 5
)

// NewDBPool opens the pgx pool and waits for the database to answer a ping.
// appName is reported to Postgres as application_name.
func NewDBPool(ctx context.Context, cfg *Config, appName string) (*pgxpool.Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = int32(max(cfg.DBMaxConns, 1))
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	if appName != "" {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = "lecturequiz-" + appName
	}

	ctx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pingWithRetry(ctx, pool.Ping, dbPingAttempts, time.Second); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// pingWithRetry calls ping until it succeeds, attempts run out or ctx ends.
// The wait grows linearly with each failure.
func pingWithRetry(ctx context.Context, ping func(context.Context) error, attempts int, step time.Duration) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = ping(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping database: %w (last error: %v)", ctx.Err(), err)
		case <-time.After(time.Duration(i) * step):
		}
	}
	return fmt.Errorf("ping database after %d attempts: %w", attempts, err)
}
