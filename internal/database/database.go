package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DB is a connection pool that remembers which driver it talks to,
// so query text can be written once with '?' placeholders.
type DB struct {
	*sql.DB
	Driver Driver
}

// OpenDB opens the pool described by a DATABASE_URL value
// (mysql://..., postgres://..., sqlite://path or a bare file path).
func OpenDB(ctx context.Context, databaseURL string) (*DB, error) {
	driver, dsn, err := ParseDSN(databaseURL)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
	}
	return OpenDBWithDSN(ctx, driver, dsn)
}

// OpenDBWithDSN creates and configures a pool for an already driver-specific DSN.
func OpenDBWithDSN(ctx context.Context, driver Driver, dsn string) (*DB, error) {
	// 1. Open a new connection pool.
	sqlDB, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}

	// 2. Configure the connection pool settings.
	if driver == DriverSQLite {
		// SQLite is a single-writer engine.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	// 3. Ping the database to verify the connection.
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}

	return &DB{DB: sqlDB, Driver: driver}, nil
}

func ensureSQLiteDir(dsn string) error {
	path := sqlitePath(dsn)
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite dir: %w", err)
	}
	return nil
}
