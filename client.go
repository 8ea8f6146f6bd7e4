// Package sqlcrud is a small data-access helper over database/sql: it builds
// parameterized CRUD and DDL statements from Go maps and executes them one at
// a time on a pooled connection. Values are always bound parameters;
// identifiers are allow-list validated and interpolated. PostgreSQL, MySQL,
// and SQLite are supported through per-database dialects.
package sqlcrud

import (
	"context"
	"database/sql"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("sqlcrud")

// Pool configuration defaults.
const (
	ConnectionTimeout  = 10 * time.Second
	MaxConnectionsIdle = 5
	MaxConnectionsOpen = 10
)

// Row is one result row, keyed by column name. []byte values are converted
// to string.
type Row map[string]any

// execer is the slice of *sql.DB the operations need. It exists so tests can
// substitute a fake for the pool.
type execer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Client is the data-access layer: a dialect plus a connection pool it owns.
// Construct one at process start with Open and Close it at shutdown; there is
// no package-level singleton. Every operation checks a connection out of the
// pool for exactly one statement and returns it on all exit paths.
type Client struct {
	db           *sql.DB
	ex           execer
	dialect      Dialect
	databaseName string
}

// Open connects using the DSN built from the dialect's environment variables.
func Open(ctx context.Context, dialect Dialect) (*Client, error) {
	dsn, err := dialect.BuildDSN()
	if err != nil {
		return nil, err
	}
	return OpenDSN(ctx, dialect, dsn)
}

// OpenDSN connects to the database behind dsn and verifies the connection
// with a bounded ping.
func OpenDSN(ctx context.Context, dialect Dialect, dsn string) (*Client, error) {
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, xerrors.Errorf("failed to open database: %w", err)
	}

	db.SetMaxIdleConns(MaxConnectionsIdle)
	db.SetMaxOpenConns(MaxConnectionsOpen)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, pingCancel := context.WithTimeout(ctx, ConnectionTimeout)
	defer pingCancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, xerrors.Errorf("failed to connect to database: %w", err)
	}

	return &Client{
		db:           db,
		ex:           db,
		dialect:      dialect,
		databaseName: dialect.DatabaseName(dsn),
	}, nil
}

// Dialect returns the dialect the client was opened with.
func (c *Client) Dialect() Dialect { return c.dialect }

// DatabaseName returns the connected database's name as parsed from the DSN.
func (c *Client) DatabaseName() string { return c.databaseName }

// Close releases the connection pool.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// queryRows runs one statement and materializes every result row.
func (c *Client) queryRows(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := c.ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows)
}

// exec runs one statement and discards any result.
func (c *Client) exec(ctx context.Context, query string, args ...any) error {
	_, err := c.ex.ExecContext(ctx, query, args...)
	return err
}

// scanRows reads all rows into column-keyed maps, converting []byte values
// to string.
func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, xerrors.Errorf("failed to get columns: %w", err)
	}

	var results []Row
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, xerrors.Errorf("failed to scan row %d: %w", len(results)+1, err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, xerrors.Errorf("row iteration error: %w", err)
	}

	return results, nil
}
