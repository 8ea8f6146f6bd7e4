package sqlcrud

import (
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/xerrors"
)

// SQLiteDialect implements Dialect for SQLite databases via the cgo-free
// modernc.org/sqlite driver.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) Placeholder(n int) string { return "?" }

// SQLite has supported RETURNING since 3.35.
func (d *SQLiteDialect) SupportsReturning() bool { return true }
func (d *SQLiteDialect) SupportsCopy() bool      { return false }

// One database per file; CREATE/DROP DATABASE are not statements here.
func (d *SQLiteDialect) SupportsCreateDatabase() bool { return false }

// SQLite cannot change a column's type in place.
func (d *SQLiteDialect) ModifyColumnClause(column, typeDecl string) (string, error) {
	return "", xerrors.Errorf("modify column %s: %w", column, ErrUnsupported)
}

// BuildDSN returns the database file path from SQLITE_PATH.
func (d *SQLiteDialect) BuildDSN() (string, error) {
	return getenv("SQLITE_PATH", "data.db"), nil
}

func (d *SQLiteDialect) DatabaseName(dsn string) string {
	// DSN is a file path, possibly with ?options
	path := dsn
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}
	parts := strings.Split(path, "/")
	name := parts[len(parts)-1]
	name = strings.TrimSuffix(name, ".db")
	name = strings.TrimSuffix(name, ".sqlite")
	name = strings.TrimSuffix(name, ".sqlite3")
	return name
}

func (d *SQLiteDialect) ListTablesQuery(databaseName string) (string, []any) {
	// SQLite has no information_schema. Use sqlite_master.
	// databaseName is ignored (SQLite has one DB per file).
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
		nil
}

func (d *SQLiteDialect) DescribeTableQuery(databaseName, tableName string) (string, []any) {
	// PRAGMA table_info cannot use ? placeholders, so we embed the table name safely.
	return fmt.Sprintf("PRAGMA table_info('%s')", strings.ReplaceAll(tableName, "'", "''")),
		nil
}

func (d *SQLiteDialect) ScanColumnRow(rows *sql.Rows) (map[string]any, error) {
	// PRAGMA table_info returns: cid, name, type, notnull, dflt_value, pk
	var cid int
	var name, colType string
	var notNull, pk int
	var dfltValue sql.NullString

	if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
		return nil, err
	}

	isNullable := "YES"
	if notNull == 1 {
		isNullable = "NO"
	}

	col := map[string]any{
		"column_name": name,
		"data_type":   colType,
		"is_nullable": isNullable,
	}
	if pk > 0 {
		col["column_key"] = "PRI"
	}
	if dfltValue.Valid {
		col["column_default"] = dfltValue.String
	}
	return col, nil
}

// ReadOnlySyntax: no # comments, no backslash escaping, supports backtick
// and [bracket] identifiers.
func (d *SQLiteDialect) ReadOnlySyntax() SQLSyntax {
	return SQLSyntax{
		BacktickIdentifiers: true,
		BracketIdentifiers:  true,
	}
}

var sqliteForbidden = []forbidden{
	{`(?i)\bload_extension\s*\(`, "load_extension()"},
	{`(?i)\bwritefile\s*\(`, "writefile()"},
	{`(?i)\bfts3_tokenizer\s*\(`, "fts3_tokenizer()"},
}

var sqliteForbiddenKeywords = []forbidden{
	{`(?i)(?:^|[^a-zA-Z_])REPLACE(?:[^a-zA-Z_]|$)`, "REPLACE"},
	{`(?i)(?:^|[^a-zA-Z_])ATTACH(?:[^a-zA-Z_]|$)`, "ATTACH"},
	{`(?i)(?:^|[^a-zA-Z_])DETACH(?:[^a-zA-Z_]|$)`, "DETACH"},
	{`(?i)(?:^|[^a-zA-Z_])REINDEX(?:[^a-zA-Z_]|$)`, "REINDEX"},
	{`(?i)(?:^|[^a-zA-Z_])VACUUM(?:[^a-zA-Z_]|$)`, "VACUUM"},
}

func (d *SQLiteDialect) ValidateReadOnly(sqlQuery string) error {
	cleaned := removeStringsAndComments(sqlQuery, d.ReadOnlySyntax())

	if err := validateReadOnlyCommon(sqlQuery, cleaned); err != nil {
		return err
	}
	if err := matchForbidden(sqlQuery, sqliteForbidden); err != nil {
		return err
	}
	if err := matchForbidden(cleaned, sqliteForbiddenKeywords); err != nil {
		return err
	}

	// Block PRAGMA writes (PRAGMA x = value), but allow read PRAGMAs
	return matchForbidden(cleaned, []forbidden{
		{`(?i)\bPRAGMA\s+\w+\s*=`, "PRAGMA write"},
	})
}
