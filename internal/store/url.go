package store

import (
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/rotisserie/eris"
)

// Drivers understood by Open.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const defaultMySQLPort = "3306"

// Target is a parsed store location.
type Target struct {
	Driver string
	DSN    string
	// Display identifies the target in logs without credentials.
	Display string
}

// ParseURL converts a store URL into a driver name and DSN. Accepted forms:
//
//	jdbc:mysql://host[:port]/db   mysql://[user[:pass]@]host[:port]/db
//	postgres://... postgresql://...
//	sqlite://path   file:path
//
// user and password fill in credentials the URL does not carry. JDBC query
// options are dropped since they do not apply to the Go driver.
func ParseURL(raw, user, password string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, eris.New("store: url is required")
	}

	switch {
	case strings.HasPrefix(raw, "sqlite://"):
		path := strings.TrimPrefix(raw, "sqlite://")
		if path == "" {
			return Target{}, eris.New("store: sqlite url has no path")
		}
		return Target{Driver: DriverSQLite, DSN: path, Display: "sqlite:" + path}, nil
	case strings.HasPrefix(raw, "file:"):
		return Target{Driver: DriverSQLite, DSN: raw, Display: raw}, nil
	}

	u, err := url.Parse(strings.TrimPrefix(raw, "jdbc:"))
	if err != nil {
		return Target{}, eris.Wrap(err, "store: parse url")
	}

	switch u.Scheme {
	case "mysql":
		return mysqlTarget(u, user, password)
	case "postgres", "postgresql":
		if u.User == nil && user != "" {
			if password != "" {
				u.User = url.UserPassword(user, password)
			} else {
				u.User = url.User(user)
			}
		}
		return Target{Driver: DriverPostgres, DSN: u.String(), Display: u.Redacted()}, nil
	default:
		return Target{}, eris.Errorf("store: unsupported url scheme %q", u.Scheme)
	}
}

func mysqlTarget(u *url.URL, user, password string) (Target, error) {
	if u.Host == "" {
		return Target{}, eris.New("store: mysql url has no host")
	}
	dbName := strings.Trim(u.Path, "/")
	if dbName == "" {
		return Target{}, eris.New("store: mysql url has no database")
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = net.JoinHostPort(u.Hostname(), defaultMySQLPort)
	}
	cfg.DBName = dbName
	cfg.User = user
	cfg.Passwd = password
	if u.User != nil {
		cfg.User = u.User.Username()
		if p, ok := u.User.Password(); ok {
			cfg.Passwd = p
		}
	}
	cfg.ParseTime = true

	return Target{
		Driver:  DriverMySQL,
		DSN:     cfg.FormatDSN(),
		Display: "mysql://" + cfg.Addr + "/" + cfg.DBName,
	}, nil
}
