// Package db declares the database handles the stores depend on, so tests can
// substitute pgxmock for a live connection.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Conn is the subset of *pgx.Conn used by the Postgres store.
type Conn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// Connect opens a single Postgres connection.
func Connect(ctx context.Context, connString string) (Conn, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
