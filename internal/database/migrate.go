package database

import (
	"context"
	"fmt"
)

// Migrate creates the schema if it is missing. Every statement is idempotent,
// so it runs on each start. Timestamps are UTC Unix milliseconds.
func Migrate(ctx context.Context, db *DB) error {
	stmts, err := schemaFor(db.Driver)
	if err != nil {
		return err
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}

func schemaFor(driver Driver) ([]string, error) {
	switch driver {
	case DriverSQLite:
		return sqliteSchema, nil
	case DriverPostgres:
		return postgresSchema, nil
	case DriverMySQL:
		return mysqlSchema, nil
	default:
		return nil, fmt.Errorf("no schema for driver %q", driver)
	}
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS user_sessions (
		id           TEXT PRIMARY KEY,
		session_key  TEXT NOT NULL UNIQUE,
		is_activated INTEGER NOT NULL DEFAULT 0,
		created_at   INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id             TEXT PRIMARY KEY,
		session_id     TEXT NOT NULL REFERENCES user_sessions(id),
		name           TEXT NOT NULL,
		plan           TEXT NULL,
		price          REAL NOT NULL,
		currency       TEXT NOT NULL DEFAULT 'EUR',
		start_date     INTEGER NOT NULL,
		cancel_by_date INTEGER NULL,
		cancel_url     TEXT NULL,
		logo_url       TEXT NULL,
		status         TEXT NOT NULL DEFAULT 'safe',
		created_at     INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_session_id ON subscriptions(session_id)`,
	`CREATE TABLE IF NOT EXISTS notification_settings (
		id               TEXT PRIMARY KEY,
		session_id       TEXT NOT NULL UNIQUE REFERENCES user_sessions(id),
		push_enabled     INTEGER NOT NULL DEFAULT 1,
		email_enabled    INTEGER NOT NULL DEFAULT 0,
		sms_enabled      INTEGER NOT NULL DEFAULT 0,
		whatsapp_enabled INTEGER NOT NULL DEFAULT 0,
		reminder_days    INTEGER NOT NULL DEFAULT 3
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS user_sessions (
		id           VARCHAR(36) PRIMARY KEY,
		session_key  VARCHAR(64) NOT NULL UNIQUE,
		is_activated BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id             VARCHAR(36) PRIMARY KEY,
		session_id     VARCHAR(36) NOT NULL REFERENCES user_sessions(id),
		name           TEXT NOT NULL,
		plan           TEXT NULL,
		price          DOUBLE PRECISION NOT NULL,
		currency       VARCHAR(3) NOT NULL DEFAULT 'EUR',
		start_date     BIGINT NOT NULL,
		cancel_by_date BIGINT NULL,
		cancel_url     TEXT NULL,
		logo_url       TEXT NULL,
		status         VARCHAR(16) NOT NULL DEFAULT 'safe',
		created_at     BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_subscriptions_session_id ON subscriptions(session_id)`,
	`CREATE TABLE IF NOT EXISTS notification_settings (
		id               VARCHAR(36) PRIMARY KEY,
		session_id       VARCHAR(36) NOT NULL UNIQUE REFERENCES user_sessions(id),
		push_enabled     BOOLEAN NOT NULL DEFAULT TRUE,
		email_enabled    BOOLEAN NOT NULL DEFAULT FALSE,
		sms_enabled      BOOLEAN NOT NULL DEFAULT FALSE,
		whatsapp_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		reminder_days    INTEGER NOT NULL DEFAULT 3
	)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are declared inline.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS user_sessions (
		id           VARCHAR(36) NOT NULL PRIMARY KEY,
		session_key  VARCHAR(64) NOT NULL,
		is_activated BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   BIGINT NOT NULL,
		UNIQUE KEY uq_user_sessions_session_key (session_key)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id             VARCHAR(36) NOT NULL PRIMARY KEY,
		session_id     VARCHAR(36) NOT NULL,
		name           VARCHAR(255) NOT NULL,
		plan           VARCHAR(255) NULL,
		price          DOUBLE NOT NULL,
		currency       CHAR(3) NOT NULL DEFAULT 'EUR',
		start_date     BIGINT NOT NULL,
		cancel_by_date BIGINT NULL,
		cancel_url     TEXT NULL,
		logo_url       TEXT NULL,
		status         VARCHAR(16) NOT NULL DEFAULT 'safe',
		created_at     BIGINT NOT NULL,
		INDEX idx_subscriptions_session_id (session_id),
		CONSTRAINT fk_subscriptions_session FOREIGN KEY (session_id) REFERENCES user_sessions(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS notification_settings (
		id               VARCHAR(36) NOT NULL PRIMARY KEY,
		session_id       VARCHAR(36) NOT NULL,
		push_enabled     BOOLEAN NOT NULL DEFAULT TRUE,
		email_enabled    BOOLEAN NOT NULL DEFAULT FALSE,
		sms_enabled      BOOLEAN NOT NULL DEFAULT FALSE,
		whatsapp_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		reminder_days    INT NOT NULL DEFAULT 3,
		UNIQUE KEY uq_notification_settings_session_id (session_id),
		CONSTRAINT fk_notification_settings_session FOREIGN KEY (session_id) REFERENCES user_sessions(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
