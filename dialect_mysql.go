package sqlcrud

import (
	"database/sql"
	"fmt"
	"strings"
)

// MySQLDialect implements Dialect for MySQL databases.
type MySQLDialect struct{}

func (d *MySQLDialect) Name() string       { return "mysql" }
func (d *MySQLDialect) DriverName() string { return "mysql" }

func (d *MySQLDialect) Placeholder(n int) string { return "?" }

// MySQL has no RETURNING clause; inserts execute without one and return no rows.
func (d *MySQLDialect) SupportsReturning() bool      { return false }
func (d *MySQLDialect) SupportsCopy() bool           { return false }
func (d *MySQLDialect) SupportsCreateDatabase() bool { return true }

func (d *MySQLDialect) ModifyColumnClause(column, typeDecl string) (string, error) {
	return fmt.Sprintf("MODIFY COLUMN %s %s", column, typeDecl), nil
}

// BuildDSN constructs a go-sql-driver DSN from MYSQL_* environment variables.
func (d *MySQLDialect) BuildDSN() (string, error) {
	host := getenv("MYSQL_HOST", "localhost")
	port := getenv("MYSQL_PORT", "3306")
	db := getenv("MYSQL_DB", "mysql")
	user := getenv("MYSQL_USER", "root")
	password := getenv("MYSQL_PASSWORD", "")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", user, password, host, port, db), nil
}

func (d *MySQLDialect) DatabaseName(dsn string) string {
	// DSN format: user:password@tcp(host:port)/dbname?params
	parts := strings.Split(dsn, "/")
	if len(parts) < 2 {
		return ""
	}
	dbPart := parts[len(parts)-1]
	if idx := strings.Index(dbPart, "?"); idx != -1 {
		dbPart = dbPart[:idx]
	}
	return dbPart
}

func (d *MySQLDialect) ListTablesQuery(databaseName string) (string, []any) {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = ?`,
		[]any{databaseName}
}

func (d *MySQLDialect) DescribeTableQuery(databaseName, tableName string) (string, []any) {
	return `SELECT column_name, data_type, is_nullable, column_key, column_default, extra
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, []any{databaseName, tableName}
}

func (d *MySQLDialect) ScanColumnRow(rows *sql.Rows) (map[string]any, error) {
	var colName, dataType, isNullable, colKey string
	var colDefault, extra sql.NullString

	if err := rows.Scan(&colName, &dataType, &isNullable, &colKey, &colDefault, &extra); err != nil {
		return nil, err
	}

	col := map[string]any{
		"column_name": colName,
		"data_type":   dataType,
		"is_nullable": isNullable,
		"column_key":  colKey,
	}
	if colDefault.Valid {
		col["column_default"] = colDefault.String
	}
	if extra.Valid && extra.String != "" {
		col["extra"] = extra.String
	}
	return col, nil
}

// ReadOnlySyntax: supports # comments, backtick identifiers, backslash
// escaping, and double-quoted strings (no ANSI_QUOTES assumed).
func (d *MySQLDialect) ReadOnlySyntax() SQLSyntax {
	return SQLSyntax{
		HashComments:        true,
		BackslashEscapes:    true,
		BacktickIdentifiers: true,
		DoubleQuotedStrings: true,
	}
}

var mysqlForbidden = []forbidden{
	{`(?i)\bINTO\s+OUTFILE\b`, "INTO OUTFILE"},
	{`(?i)\bINTO\s+DUMPFILE\b`, "INTO DUMPFILE"},
	{`(?i)\bLOAD_FILE\s*\(`, "LOAD_FILE()"},
	{`(?i)\bINTO\s+@`, "INTO @variable"},
	{`(?i)\bSLEEP\s*\(`, "SLEEP()"},
	{`(?i)\bBENCHMARK\s*\(`, "BENCHMARK()"},
	{`(?i)\bGET_LOCK\s*\(`, "GET_LOCK()"},
	{`(?i)\bRELEASE_LOCK\s*\(`, "RELEASE_LOCK()"},
	{`(?i)\bIS_FREE_LOCK\s*\(`, "IS_FREE_LOCK()"},
	{`(?i)\bIS_USED_LOCK\s*\(`, "IS_USED_LOCK()"},
	{`(?i)\bMASTER_POS_WAIT\s*\(`, "MASTER_POS_WAIT()"},
	{`(?i)\bSOURCE_POS_WAIT\s*\(`, "SOURCE_POS_WAIT()"},
}

var mysqlForbiddenKeywords = []forbidden{
	{`(?i)(?:^|[^a-zA-Z_])CALL(?:[^a-zA-Z_]|$)`, "CALL"},
	{`(?i)(?:^|[^a-zA-Z_])EXEC(?:[^a-zA-Z_]|$)`, "EXEC"},
	{`(?i)(?:^|[^a-zA-Z_])EXECUTE(?:[^a-zA-Z_]|$)`, "EXECUTE"},
	{`(?i)(?:^|[^a-zA-Z_])REPLACE(?:[^a-zA-Z_]|$)`, "REPLACE"},
	{`(?i)(?:^|[^a-zA-Z_])LOAD(?:[^a-zA-Z_]|$)`, "LOAD"},
	{`(?i)(?:^|[^a-zA-Z_])HANDLER(?:[^a-zA-Z_]|$)`, "HANDLER"},
	{`(?i)(?:^|[^a-zA-Z_])RENAME(?:[^a-zA-Z_]|$)`, "RENAME"},
}

func (d *MySQLDialect) ValidateReadOnly(sqlQuery string) error {
	cleaned := removeStringsAndComments(sqlQuery, d.ReadOnlySyntax())

	if err := validateReadOnlyCommon(sqlQuery, cleaned); err != nil {
		return err
	}
	if err := matchForbidden(sqlQuery, mysqlForbidden); err != nil {
		return err
	}
	return matchForbidden(cleaned, mysqlForbiddenKeywords)
}
