// Package db opens and verifies the Postgres connection used by the
// repository layer.
package db

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/onnwee/reddit-insight/internal/apierr"
)

// Open connects to Postgres at connStr and verifies connectivity with a
// bounded ping before returning.
func Open(connStr string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, apierr.NewInternal("failed to open database connection").WithCause(err)
	}

	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, apierr.NewInternal("failed to ping database").WithCause(err)
	}

	return conn, nil
}
