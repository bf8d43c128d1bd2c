// Package store persists shop records. A Gateway holds one connection and one
// transaction for the whole run: rows become visible only after Commit.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/tcg-arena/shop-populator/internal/shop"
)

// Table is the table shops are written to.
const Table = "shops"

// Gateway checks for existing shops and inserts new ones.
type Gateway interface {
	// Exists reports whether a shop with the same name (case-insensitive) lies within
	// the dedup box around lat/lng.
	Exists(ctx context.Context, name string, lat, lng float64) (bool, error)
	Insert(ctx context.Context, rec *shop.Record) error
	// Commit makes every insert durable. It may be called once.
	Commit(ctx context.Context) error
	// Close rolls back uncommitted work and releases the connection.
	Close(ctx context.Context) error
}

// Open parses rawURL and opens the matching Gateway.
func Open(ctx context.Context, rawURL, user, password string) (Gateway, error) {
	target, err := ParseURL(rawURL, user, password)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("driver", target.Driver), zap.String("target", target.Display))

	var gw Gateway
	switch target.Driver {
	case DriverPostgres:
		gw, err = NewPostgres(ctx, target.DSN)
	case DriverMySQL, DriverSQLite:
		gw, err = NewSQL(ctx, target.Driver, target.DSN)
	default:
		err = eris.Errorf("store: unsupported driver %q", target.Driver)
	}
	if err != nil {
		log.Error("store: open failed", zap.Error(err))
		return nil, err
	}
	log.Info("store: opened")
	return gw, nil
}

var errCommitted = eris.New("store: transaction already committed")

// placeholders returns n bind markers produced by mark(i) for i in 1..n.
func placeholders(n int, mark func(i int) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = mark(i + 1)
	}
	return strings.Join(parts, ", ")
}
