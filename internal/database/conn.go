/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package database opens and wraps connections to the source and target
// databases. Both MySQL and Postgres are driven through database/sql so
// the profiler and executor share one code path.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // mysql driver registration
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver registration

	"etlvalid/internal/config"
	"etlvalid/internal/errs"
)

const (
	defaultMaxOpenConns   = 4
	defaultMaxIdleConns   = 2
	connMaxLifetime       = 30 * time.Minute
	defaultConnectTimeout = 10 * time.Second
)

// Conn is an open, verified connection to one database endpoint.
// Acquire with Open, release with Close; connections are not shared
// across concurrent operations.
type Conn struct {
	db  *sql.DB
	cfg config.DatabaseConfig
}

// Open establishes and pings a connection for the given endpoint.
// Fails with a connection-kind error when the database is unreachable.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Conn, error) {
	driver, dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errs.Wrap(errs.KindConnection, fmt.Sprintf("open %s connection", cfg.Driver), err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	// Callers outside the config loader may pass an endpoint that was
	// never defaulted; a zero timeout would expire before dialing.
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.KindConnection,
			fmt.Sprintf("connect to %s at %s:%d", cfg.Database, cfg.Host, cfg.Port), err)
	}

	return &Conn{db: db, cfg: cfg}, nil
}

// buildDSN constructs the driver name and DSN for a database endpoint.
func buildDSN(cfg config.DatabaseConfig) (driver, dsn string, err error) {
	switch cfg.Driver {
	case "mysql":
		// user:pass@tcp(host:port)/dbname?parseTime=true
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=false",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database), nil
	case "postgres":
		return "pgx", fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database), nil
	default:
		return "", "", errs.New(errs.KindConfig, fmt.Sprintf("unsupported driver %q", cfg.Driver))
	}
}

// Wrap adopts an already-open pool as a Conn. The caller keeps
// responsibility for pool settings; Close still closes the pool.
func Wrap(db *sql.DB, cfg config.DatabaseConfig) *Conn {
	return &Conn{db: db, cfg: cfg}
}

// Close releases the connection pool.
func (c *Conn) Close() error {
	return c.db.Close()
}

// Ping verifies the database is still reachable.
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return errs.Wrap(errs.KindConnection, "ping", err)
	}
	return nil
}

// Config returns the endpoint configuration this connection was opened with.
func (c *Conn) Config() config.DatabaseConfig {
	return c.cfg
}

// DatabaseName returns the connected database's name.
func (c *Conn) DatabaseName() string {
	return c.cfg.Database
}

// Driver returns the driver name (mysql or postgres).
func (c *Conn) Driver() string {
	return c.cfg.Driver
}

// Rows is a result set whose per-query deadline stays live until Close.
// Cancelling the deadline when Query returned would close the rows
// before the caller could iterate them.
type Rows struct {
	*sql.Rows
	cancel context.CancelFunc
}

// Close releases the result set and its query deadline.
func (r *Rows) Close() error {
	defer r.cancel()
	return r.Rows.Close()
}

// Query executes a statement returning rows, under the configured
// per-query deadline. The caller must Close the result to release the
// deadline. Failures carry the offending statement.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	queryCtx, cancel := c.queryContext(ctx)

	rows, err := c.db.QueryContext(queryCtx, query, args...)
	if err != nil {
		cancel()
		return nil, mapQueryError(queryCtx, query, err)
	}
	return &Rows{Rows: rows, cancel: cancel}, nil
}

// QueryRow executes a statement expected to return at most one row.
func (c *Conn) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	// sql.Row defers errors to Scan, so the deadline is handled by the
	// driver; callers wrap Scan errors themselves.
	return c.db.QueryRowContext(ctx, query, args...)
}

// QueryAll executes a statement and materialises the full result set as
// column names plus row values. Used by the script executor, which must
// report result tables for arbitrary generated SQL.
func (c *Conn) QueryAll(ctx context.Context, query string) ([]string, [][]any, error) {
	rows, err := c.Query(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, errs.Query(query, err)
	}

	var result [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, errs.Query(query, err)
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errs.Query(query, err)
	}
	return cols, result, nil
}

func (c *Conn) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

func mapQueryError(ctx context.Context, query string, err error) error {
	if ctx.Err() != nil {
		return errs.Wrap(errs.KindTimeout, "query deadline exceeded", err)
	}
	return errs.Query(query, err)
}
