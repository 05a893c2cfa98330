package connection

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLitePool wraps database/sql over the sqlite3 driver.
type SQLitePool struct {
	db   *sql.DB
	desc Descriptor
}

func openSQLite(ctx context.Context, desc Descriptor) (*SQLitePool, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", desc.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// sqlite serializes writers; a single connection avoids SQLITE_BUSY
	// churn between our own statements.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLitePool{db: db, desc: desc}, nil
}

func (p *SQLitePool) Backend() Backend       { return BackendSQLite }
func (p *SQLitePool) Descriptor() Descriptor { return p.desc }

func (p *SQLitePool) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *SQLitePool) Close() {
	if p.db != nil {
		p.db.Close()
	}
}

// DB exposes the underlying database handle for execution and introspection.
func (p *SQLitePool) DB() *sql.DB {
	return p.db
}
