package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Sephra1/lisk-sdk/logx"
)

// Postgres wraps the relational backend holding blocks, transactions,
// accounts and round bookkeeping.
type Postgres struct {
	DB *sql.DB
}

// NewPostgres opens and pings a PostgreSQL connection for the given DSN
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn cannot be empty")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Postgres{DB: sqlDB}, nil
}

// EnsureSchema creates the chain tables when they do not exist yet
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (p *Postgres) Close() {
	if err := p.DB.Close(); err != nil {
		logx.Error("DB", "Failed to close postgres:", err.Error())
	}
}
