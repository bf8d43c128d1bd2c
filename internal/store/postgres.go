package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/tcg-arena/shop-populator/internal/db"
	"github.com/tcg-arena/shop-populator/internal/geo"
	"github.com/tcg-arena/shop-populator/internal/shop"
)

var (
	pgExistsSQL = fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE LOWER(name) = LOWER($1) AND latitude BETWEEN $2 AND $3 AND longitude BETWEEN $4 AND $5`,
		pgx.Identifier{Table}.Sanitize())
	pgInsertSQL = fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		pgx.Identifier{Table}.Sanitize(),
		strings.Join(shop.Columns, ", "),
		placeholders(len(shop.Columns), func(i int) string { return fmt.Sprintf("$%d", i) }))
)

// PostgresStore implements Gateway on a single pgx connection.
type PostgresStore struct {
	conn      db.Conn
	tx        pgx.Tx
	committed bool
}

// NewPostgres connects to Postgres and opens the run transaction.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	conn, err := db.Connect(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return newPostgresStore(ctx, conn)
}

func newPostgresStore(ctx context.Context, conn db.Conn) (*PostgresStore, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, eris.Wrap(err, "postgres: begin tx")
	}
	return &PostgresStore{conn: conn, tx: tx}, nil
}

func (s *PostgresStore) Exists(ctx context.Context, name string, lat, lng float64) (bool, error) {
	box := geo.Box(lat, lng, geo.DedupTolerance)
	latMin, latMax := geo.LatRange(box)
	lngMin, lngMax := geo.LngRange(box)

	var n int64
	err := s.savepoint(ctx, func(sp pgx.Tx) error {
		return sp.QueryRow(ctx, pgExistsSQL, name, latMin, latMax, lngMin, lngMax).Scan(&n)
	})
	if err != nil {
		return false, eris.Wrapf(err, "postgres: exists %q", name)
	}
	return n > 0, nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec *shop.Record) error {
	if s.committed {
		return errCommitted
	}
	err := s.savepoint(ctx, func(sp pgx.Tx) error {
		_, err := sp.Exec(ctx, pgInsertSQL, rec.Args()...)
		return err
	})
	if err != nil {
		return eris.Wrapf(err, "postgres: insert %q", rec.Name)
	}
	return nil
}

// savepoint runs fn inside a savepoint of the run transaction. A failed statement
// aborts the whole Postgres transaction, so fn's failure is rolled back to the
// savepoint and the run transaction stays usable.
func (s *PostgresStore) savepoint(ctx context.Context, fn func(sp pgx.Tx) error) error {
	sp, err := s.tx.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "savepoint")
	}
	if err := fn(sp); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return eris.Wrapf(err, "rollback to savepoint: %v", rbErr)
		}
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return eris.Wrap(err, "release savepoint")
	}
	return nil
}

func (s *PostgresStore) Commit(ctx context.Context) error {
	if s.committed {
		return errCommitted
	}
	if err := s.tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit")
	}
	s.committed = true
	return nil
}

func (s *PostgresStore) Close(ctx context.Context) error {
	var rbErr error
	if !s.committed {
		rbErr = s.tx.Rollback(ctx)
	}
	if err := s.conn.Close(ctx); err != nil {
		return eris.Wrap(err, "postgres: close")
	}
	return eris.Wrap(rbErr, "postgres: rollback")
}
