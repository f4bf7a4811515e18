// Package persistence opens the bun database used by the account
// repositories and applies the embedded schema migrations.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	account "github.com/nightcatsama/go-account"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects the database
type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

// Open returns a bun DB for the configured driver. The connection is
// pinged before returning.
func Open(ctx context.Context, cfg Config) (*bun.DB, error) {
	var (
		sqldb *sql.DB
		db    *bun.DB
		err   error
	)

	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite, "sqlite3", "":
		sqldb, err = sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if strings.Contains(cfg.DSN, ":memory:") || strings.Contains(cfg.DSN, "mode=memory") {
			// every connection would get its own in-memory database
			sqldb.SetMaxOpenConns(1)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres, "postgresql", "pgx":
		sqldb, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Migrate applies the pending migrations and returns the applied versions
func Migrate(ctx context.Context, db *bun.DB) ([]int64, error) {
	gooseDialect, err := gooseDialectFor(db.Dialect().Name())
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(gooseDialect, db.DB, account.GetMigrationsFS())
	if err != nil {
		return nil, fmt.Errorf("migrations provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
	}
	return applied, nil
}

func gooseDialectFor(name dialect.Name) (goose.Dialect, error) {
	switch name {
	case dialect.SQLite:
		return goose.DialectSQLite3, nil
	case dialect.PG:
		return goose.DialectPostgres, nil
	default:
		return "", fmt.Errorf("no migrations dialect for %s", name)
	}
}
