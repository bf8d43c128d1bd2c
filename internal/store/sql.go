package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	"github.com/rotisserie/eris"
	"modernc.org/sqlite"

	"github.com/tcg-arena/shop-populator/internal/geo"
	"github.com/tcg-arena/shop-populator/internal/shop"
)

// SQLite's built-in LOWER folds ASCII only; names are compared through
// unicode_lower there so "POKÉMON" and "pokémon" match as they do on MySQL.
const sqliteLowerFunc = "unicode_lower"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(sqliteLowerFunc, 1, unicodeLower); err != nil {
		panic(err)
	}
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

var (
	sqlExistsSQL    = existsQuery("LOWER")
	sqliteExistsSQL = existsQuery(sqliteLowerFunc)
	sqlInsertSQL = fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		Table,
		strings.Join(shop.Columns, ", "),
		placeholders(len(shop.Columns), func(int) string { return "?" }))
)

func existsQuery(lower string) string {
	return fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE %s(name) = %s(?) AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?`,
		Table, lower, lower)
}

// SQLStore implements Gateway for MySQL and SQLite through database/sql.
type SQLStore struct {
	driver    string
	existsSQL string
	db        *sql.DB
	tx        *sql.Tx
	committed bool
}

// NewSQL opens driver/dsn, pins the pool to a single connection and begins the run
// transaction.
func NewSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: open", driver)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrapf(err, "%s: ping", driver)
	}
	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "%s: exec pragma", driver)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrapf(err, "%s: begin tx", driver)
	}
	existsSQL := sqlExistsSQL
	if driver == DriverSQLite {
		existsSQL = sqliteExistsSQL
	}
	return &SQLStore{driver: driver, existsSQL: existsSQL, db: db, tx: tx}, nil
}

func (s *SQLStore) Exists(ctx context.Context, name string, lat, lng float64) (bool, error) {
	box := geo.Box(lat, lng, geo.DedupTolerance)
	latMin, latMax := geo.LatRange(box)
	lngMin, lngMax := geo.LngRange(box)

	var n int64
	if err := s.tx.QueryRowContext(ctx, s.existsSQL, name, latMin, latMax, lngMin, lngMax).Scan(&n); err != nil {
		return false, eris.Wrapf(err, "%s: exists %q", s.driver, name)
	}
	return n > 0, nil
}

func (s *SQLStore) Insert(ctx context.Context, rec *shop.Record) error {
	if s.committed {
		return errCommitted
	}
	if _, err := s.tx.ExecContext(ctx, sqlInsertSQL, rec.Args()...); err != nil {
		return eris.Wrapf(err, "%s: insert %q", s.driver, rec.Name)
	}
	return nil
}

func (s *SQLStore) Commit(_ context.Context) error {
	if s.committed {
		return errCommitted
	}
	if err := s.tx.Commit(); err != nil {
		return eris.Wrapf(err, "%s: commit", s.driver)
	}
	s.committed = true
	return nil
}

func (s *SQLStore) Close(_ context.Context) error {
	var rbErr error
	if !s.committed {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			rbErr = err
		}
	}
	if err := s.db.Close(); err != nil {
		return eris.Wrapf(err, "%s: close", s.driver)
	}
	return eris.Wrapf(rbErr, "%s: rollback", s.driver)
}
