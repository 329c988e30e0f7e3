// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

// package db constructs pooled connections for the three supported
// engines behind one Handle interface. It hides *sql.DB and bun wiring
// from higher-level callers.
package db // import "github.com/toeirei/querydeck/internal/db"

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/toeirei/querydeck/internal/dialect"
	"github.com/toeirei/querydeck/internal/logging"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite"

	// SQL drivers required for runtime and integration tests.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Options tunes the connection pools a Factory hands out. Zero values
// fall back to conservative defaults suited to an interactive client.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	CloseGrace      time.Duration
	Debug           bool
}

const (
	defaultMaxOpenConns    = 5
	defaultMaxIdleConns    = 2
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 60 * time.Second
	defaultCloseGrace      = 3 * time.Second
)

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

// Factory opens dialect-appropriate pooled connections.
type Factory struct {
	opts Options
}

// NewFactory returns a Factory with the given pool options.
func NewFactory(opts Options) *Factory {
	return &Factory{opts: opts}
}

// Open validates the dialect and constructs a Handle over a pooled
// connection. An unsupported dialect is a synchronous
// ConfigurationError; no dialing happens until the first query or an
// explicit Connect.
func (f *Factory) Open(dialectName, connStr string) (*Handle, error) {
	d, err := dialect.Parse(dialectName)
	if err != nil {
		return nil, &ConfigurationError{Msg: err.Error()}
	}

	driverName, dsn := driverDSN(d, connStr)
	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, &ConfigurationError{Msg: fmt.Sprintf("failed to open %s database: %v", d, err)}
	}

	maxOpen := envInt("QUERYDECK_DB_MAX_OPEN_CONNS", intOr(f.opts.MaxOpenConns, defaultMaxOpenConns))
	maxIdle := envInt("QUERYDECK_DB_MAX_IDLE_CONNS", intOr(f.opts.MaxIdleConns, defaultMaxIdleConns))
	// In-memory SQLite keeps one database per connection; force a single
	// open connection so schema changes stay visible.
	if d == dialect.SQLite && strings.Contains(dsn, ":memory:") {
		maxOpen = 1
		maxIdle = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(durationOr(f.opts.ConnMaxLifetime, defaultConnMaxLifetime))
	sqlDB.SetConnMaxIdleTime(durationOr(f.opts.ConnMaxIdleTime, defaultConnMaxIdleTime))

	bunDB := createBunDB(sqlDB, d)
	if f.opts.Debug {
		bunDB.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	logging.Debugf("db: opened %s driver in %s (max open=%d, idle=%d)", driverName, time.Since(start), maxOpen, maxIdle)

	return &Handle{
		dialect:    d,
		bun:        bunDB,
		closeGrace: durationOr(f.opts.CloseGrace, defaultCloseGrace),
	}, nil
}

// createBunDB constructs a *bun.DB for the provided *sql.DB and
// dialect. Centralizing construction makes it easy to apply consistent
// options in one place.
func createBunDB(sqlDB *sql.DB, d dialect.Dialect) *bun.DB {
	switch d {
	case dialect.PostgreSQL:
		return bun.NewDB(sqlDB, pgdialect.New())
	case dialect.MySQL:
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// driverDSN maps a dialect onto its registered driver name and rewrites
// the connection string into the driver's native DSN shape. The pgx
// stdlib driver registers as "pgx" and takes URLs as-is; go-sql-driver
// wants user:pass@tcp(host)/db; modernc sqlite takes a bare path.
func driverDSN(d dialect.Dialect, connStr string) (string, string) {
	switch d {
	case dialect.PostgreSQL:
		return "pgx", connStr
	case dialect.MySQL:
		return "mysql", mysqlDSN(connStr)
	default:
		return "sqlite", strings.TrimPrefix(connStr, "sqlite://")
	}
}

// mysqlDSN converts a mysql:// URL into go-sql-driver DSN form.
// Strings already in DSN form pass through unchanged.
func mysqlDSN(connStr string) string {
	rest, ok := strings.CutPrefix(connStr, "mysql://")
	if !ok {
		return connStr
	}
	query := ""
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest, query = rest[:i], rest[i:]
	}
	userinfo := ""
	hostAndPath := rest
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		userinfo, hostAndPath = rest[:i], rest[i+1:]
	}
	dbname := ""
	host := hostAndPath
	if i := strings.IndexByte(hostAndPath, '/'); i >= 0 {
		host, dbname = hostAndPath[:i], hostAndPath[i+1:]
	}
	var b strings.Builder
	if userinfo != "" {
		b.WriteString(userinfo)
		b.WriteString("@")
	}
	fmt.Fprintf(&b, "tcp(%s)/%s%s", host, dbname, query)
	return b.String()
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func intOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
