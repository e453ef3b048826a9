package db

import (
	"context"
	"database/sql"
	"fmt"
)

// QueryRower is satisfied by *sql.DB and *sql.Tx.
type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NullIfEmpty helps store optional strings without writing "".
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func HasTable(ctx context.Context, q QueryRower, table string) bool {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		// bad conn and missing row both read as "no table"; the caller decides
		return false
	}
	return name.Valid && name.String != ""
}

const sessionsDDL = `
CREATE TABLE IF NOT EXISTS sessions (
	id            VARCHAR(36)  NOT NULL PRIMARY KEY,
	user_id       VARCHAR(64)  NOT NULL,
	name          VARCHAR(255) NULL,
	email         VARCHAR(255) NULL,
	access_token  TEXT         NOT NULL,
	id_token      TEXT         NULL,
	refresh_token TEXT         NULL,
	expires_at    DATETIME     NOT NULL,
	created_at    DATETIME     NOT NULL,
	INDEX idx_sessions_user (user_id),
	INDEX idx_sessions_expires (expires_at)
)`

// EnsureSchema creates the gateway's tables when they are missing.
func EnsureSchema(ctx context.Context, q interface {
	QueryRower
	Execer
}) error {
	if HasTable(ctx, q, "sessions") {
		return nil
	}
	if _, err := q.ExecContext(ctx, sessionsDDL); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}
