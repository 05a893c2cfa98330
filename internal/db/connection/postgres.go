package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPool wraps pgxpool with our pool configuration.
type PostgresPool struct {
	pool *pgxpool.Pool
	desc Descriptor
}

func openPostgres(ctx context.Context, desc Descriptor) (*PostgresPool, error) {
	poolConfig, err := pgxpool.ParseConfig(desc.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresPool{pool: pool, desc: desc}, nil
}

func (p *PostgresPool) Backend() Backend       { return BackendPostgres }
func (p *PostgresPool) Descriptor() Descriptor { return p.desc }

func (p *PostgresPool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresPool) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Pgx exposes the underlying pgxpool for execution and introspection.
func (p *PostgresPool) Pgx() *pgxpool.Pool {
	return p.pool
}
