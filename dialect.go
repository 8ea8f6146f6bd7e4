package sqlcrud

import (
	"database/sql"
	"fmt"
	"os"
)

// Dialect defines the contract for database-specific behavior.
// Each supported database (PostgreSQL, MySQL, SQLite) implements this interface.
type Dialect interface {
	// Name returns the dialect name used for selection ("postgres", "mysql", "sqlite").
	Name() string

	// DriverName returns the database/sql driver name to open connections with.
	DriverName() string

	// Placeholder returns the positional placeholder for the n-th bound
	// parameter, 1-based ("$1" for PostgreSQL, "?" for MySQL and SQLite).
	Placeholder(n int) string

	// BuildDSN constructs a DSN from environment variables, applying the
	// dialect's documented defaults for anything unset.
	BuildDSN() (string, error)

	// DatabaseName extracts the database/file name from a DSN string.
	DatabaseName(dsn string) string

	// SupportsReturning reports whether INSERT can carry a RETURNING clause.
	SupportsReturning() bool

	// SupportsCopy reports whether the dialect has a server-side COPY FROM.
	SupportsCopy() bool

	// SupportsCreateDatabase reports whether CREATE/DROP DATABASE are
	// meaningful statements for this dialect.
	SupportsCreateDatabase() bool

	// ModifyColumnClause returns the ALTER TABLE sub-clause changing a
	// column's type ("ALTER COLUMN c TYPE t" on PostgreSQL, "MODIFY COLUMN
	// c t" on MySQL). Dialects without column type changes return an error.
	ModifyColumnClause(column, typeDecl string) (string, error)

	// ListTablesQuery returns the SQL query and arguments to list all tables.
	ListTablesQuery(databaseName string) (string, []any)

	// DescribeTableQuery returns the SQL query and arguments to read column
	// info for a table.
	DescribeTableQuery(databaseName, tableName string) (string, []any)

	// ScanColumnRow scans a single row from the describe-table query result
	// into a column map.
	ScanColumnRow(rows *sql.Rows) (map[string]any, error)

	// ReadOnlySyntax returns the lexical features the read-only query guard
	// needs to strip strings and comments for this dialect.
	ReadOnlySyntax() SQLSyntax

	// ValidateReadOnly validates that a raw SQL query is safe and read-only.
	ValidateReadOnly(sql string) error
}

// DialectByName returns the dialect registered under name.
func DialectByName(name string) (Dialect, error) {
	switch name {
	case "postgres", "postgresql":
		return &PostgresDialect{}, nil
	case "mysql":
		return &MySQLDialect{}, nil
	case "sqlite", "sqlite3":
		return &SQLiteDialect{}, nil
	default:
		return nil, fmt.Errorf("unknown dialect: %s", name)
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
