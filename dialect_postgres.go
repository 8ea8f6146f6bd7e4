package sqlcrud

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
)

// PostgresDialect implements Dialect for PostgreSQL databases via lib/pq.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "postgres" }

func (d *PostgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (d *PostgresDialect) SupportsReturning() bool      { return true }
func (d *PostgresDialect) SupportsCopy() bool           { return true }
func (d *PostgresDialect) SupportsCreateDatabase() bool { return true }

func (d *PostgresDialect) ModifyColumnClause(column, typeDecl string) (string, error) {
	return fmt.Sprintf("ALTER COLUMN %s TYPE %s", column, typeDecl), nil
}

// BuildDSN constructs a PostgreSQL connection URL from PG_* environment
// variables. Every variable has a default, matching the usual local setup.
func (d *PostgresDialect) BuildDSN() (string, error) {
	host := getenv("PG_HOST", "localhost")
	port := getenv("PG_PORT", "5432")
	db := getenv("PG_DB", "postgres")
	user := getenv("PG_USER", "postgres")
	password := getenv("PG_PASSWORD", "")
	sslmode := getenv("PG_SSLMODE", "prefer")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.PathEscape(user), url.PathEscape(password), host, port, db, sslmode), nil
}

func (d *PostgresDialect) DatabaseName(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

func (d *PostgresDialect) ListTablesQuery(databaseName string) (string, []any) {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' AND table_catalog = $1`,
		[]any{databaseName}
}

func (d *PostgresDialect) DescribeTableQuery(databaseName, tableName string) (string, []any) {
	return `SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_catalog = $1 AND table_schema = 'public' AND table_name = $2
		ORDER BY ordinal_position`, []any{databaseName, tableName}
}

func (d *PostgresDialect) ScanColumnRow(rows *sql.Rows) (map[string]any, error) {
	var colName, dataType, isNullable string
	var colDefault sql.NullString

	if err := rows.Scan(&colName, &dataType, &isNullable, &colDefault); err != nil {
		return nil, err
	}

	col := map[string]any{
		"column_name": colName,
		"data_type":   dataType,
		"is_nullable": isNullable,
	}
	if colDefault.Valid {
		col["column_default"] = colDefault.String
	}
	return col, nil
}

// ReadOnlySyntax: no # comments, no backtick identifiers, handles $$
// dollar-quoted strings, no backslash escaping by default.
func (d *PostgresDialect) ReadOnlySyntax() SQLSyntax {
	return SQLSyntax{DollarQuoting: true}
}

// postgresForbidden blocks server-side file access and lock/sleep functions
// that a read-only statement has no business calling.
var postgresForbidden = []forbidden{
	{`(?i)\bCOPY\s+.*\bTO\b`, "COPY ... TO"},
	{`(?i)\bCOPY\s+.*\bFROM\b`, "COPY ... FROM"},
	{`(?i)\bpg_read_file\s*\(`, "pg_read_file()"},
	{`(?i)\bpg_read_binary_file\s*\(`, "pg_read_binary_file()"},
	{`(?i)\bpg_ls_dir\s*\(`, "pg_ls_dir()"},
	{`(?i)\blo_import\s*\(`, "lo_import()"},
	{`(?i)\blo_export\s*\(`, "lo_export()"},
	{`(?i)\bpg_sleep\s*\(`, "pg_sleep()"},
	{`(?i)\bpg_sleep_for\s*\(`, "pg_sleep_for()"},
	{`(?i)\bpg_sleep_until\s*\(`, "pg_sleep_until()"},
	{`(?i)\bpg_advisory_lock\s*\(`, "pg_advisory_lock()"},
	{`(?i)\bpg_advisory_xact_lock\s*\(`, "pg_advisory_xact_lock()"},
	{`(?i)\bpg_try_advisory_lock\s*\(`, "pg_try_advisory_lock()"},
}

var postgresForbiddenKeywords = []forbidden{
	{`(?i)(?:^|[^a-zA-Z_])CALL(?:[^a-zA-Z_]|$)`, "CALL"},
	{`(?i)(?:^|[^a-zA-Z_])EXECUTE(?:[^a-zA-Z_]|$)`, "EXECUTE"},
	{`(?i)(?:^|[^a-zA-Z_])COPY(?:[^a-zA-Z_]|$)`, "COPY"},
	{`(?i)(?:^|[^a-zA-Z_])LISTEN(?:[^a-zA-Z_]|$)`, "LISTEN"},
	{`(?i)(?:^|[^a-zA-Z_])NOTIFY(?:[^a-zA-Z_]|$)`, "NOTIFY"},
	{`(?i)(?:^|[^a-zA-Z_])PREPARE(?:[^a-zA-Z_]|$)`, "PREPARE"},
	{`(?i)(?:^|[^a-zA-Z_])DEALLOCATE(?:[^a-zA-Z_]|$)`, "DEALLOCATE"},
	{`(?i)(?:^|[^a-zA-Z_])VACUUM(?:[^a-zA-Z_]|$)`, "VACUUM"},
	{`(?i)(?:^|[^a-zA-Z_])REINDEX(?:[^a-zA-Z_]|$)`, "REINDEX"},
	{`(?i)(?:^|[^a-zA-Z_])CLUSTER(?:[^a-zA-Z_]|$)`, "CLUSTER"},
}

func (d *PostgresDialect) ValidateReadOnly(sqlQuery string) error {
	cleaned := removeStringsAndComments(sqlQuery, d.ReadOnlySyntax())

	if err := validateReadOnlyCommon(sqlQuery, cleaned); err != nil {
		return err
	}
	if err := matchForbidden(sqlQuery, postgresForbidden); err != nil {
		return err
	}
	return matchForbidden(cleaned, postgresForbiddenKeywords)
}
