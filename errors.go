package sqlcrud

import "errors"

// Validation errors, returned before any statement is sent to the database.
// Execution errors wrap the driver's error with %w, so errors.Is/As can still
// reach the original failure (SQL state, constraint name).
var (
	// ErrInvalidIdentifier is returned when a database, table, or column name
	// contains anything outside [A-Za-z0-9_].
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrEmptyValues is returned for an insert or update with no columns.
	ErrEmptyValues = errors.New("no values provided")

	// ErrEmptyBulkInsert is returned for a bulk insert with no rows.
	ErrEmptyBulkInsert = errors.New("bulk insert requires at least one row")

	// ErrColumnMismatch is returned when a bulk-insert row's column set
	// differs from the first row's.
	ErrColumnMismatch = errors.New("bulk insert rows have mismatched columns")

	// ErrEmptyAlter is returned for an alter-table request with no add, drop,
	// or modify clauses.
	ErrEmptyAlter = errors.New("alter table requires at least one change")

	// ErrUnsupported is returned when the dialect cannot express the
	// requested operation (e.g. CREATE DATABASE on SQLite).
	ErrUnsupported = errors.New("operation not supported by dialect")

	// ErrQueryRejected is returned by the raw Query escape hatch for
	// anything that is not a read-only statement.
	ErrQueryRejected = errors.New("query rejected")
)
