package sqlcrud

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/xerrors"
)

// Builders produce SQL text with strictly sequential positional placeholders
// and an argument list of equal length. Values are always bound parameters;
// identifiers are interpolated only after allow-list validation. Column type
// declarations and COPY file paths are caller-trusted and documented as such.
//
// Columns are always emitted in sorted-name order: Go map iteration is
// randomized, and deterministic statement text is part of the contract.

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BuildCreateTable builds an idempotent CREATE TABLE IF NOT EXISTS statement.
// Type declarations pass through unescaped.
func BuildCreateTable(table string, columns map[string]string) (string, error) {
	if err := validateIdentifier(table); err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", xerrors.Errorf("create table %s: %w", table, ErrEmptyValues)
	}

	cols := sortedKeys(columns)
	if err := validateIdentifiers(cols); err != nil {
		return "", err
	}

	defs := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = col + " " + columns[col]
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s);", table, strings.Join(defs, ", ")), nil
}

// BuildCreateDatabase builds a CREATE DATABASE statement. There is no
// IF NOT EXISTS guard; creating an existing database fails server-side.
func BuildCreateDatabase(name string) (string, error) {
	if err := validateIdentifier(name); err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE DATABASE %s;", name), nil
}

// BuildDropTable builds an idempotent DROP TABLE IF EXISTS statement.
func BuildDropTable(name string) (string, error) {
	if err := validateIdentifier(name); err != nil {
		return "", err
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", name), nil
}

// BuildDropDatabase builds an idempotent DROP DATABASE IF EXISTS statement.
func BuildDropDatabase(name string) (string, error) {
	if err := validateIdentifier(name); err != nil {
		return "", err
	}
	return fmt.Sprintf("DROP DATABASE IF EXISTS %s;", name), nil
}

// BuildAlterTable builds one ALTER TABLE statement with comma-joined ADD
// COLUMN, DROP COLUMN, and type-change clauses. The combined change set must
// not be empty.
func BuildAlterTable(d Dialect, table string, add map[string]string, drop []string, modify map[string]string) (string, error) {
	if err := validateIdentifier(table); err != nil {
		return "", err
	}
	if len(add) == 0 && len(drop) == 0 && len(modify) == 0 {
		return "", xerrors.Errorf("alter table %s: %w", table, ErrEmptyAlter)
	}

	var clauses []string

	for _, col := range sortedKeys(add) {
		if err := validateIdentifier(col); err != nil {
			return "", err
		}
		clauses = append(clauses, fmt.Sprintf("ADD COLUMN %s %s", col, add[col]))
	}

	for _, col := range drop {
		if err := validateIdentifier(col); err != nil {
			return "", err
		}
		clauses = append(clauses, fmt.Sprintf("DROP COLUMN %s", col))
	}

	for _, col := range sortedKeys(modify) {
		if err := validateIdentifier(col); err != nil {
			return "", err
		}
		clause, err := d.ModifyColumnClause(col, modify[col])
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}

	return fmt.Sprintf("ALTER TABLE %s %s;", table, strings.Join(clauses, ", ")), nil
}

// BuildInsert builds a single-row INSERT, with RETURNING * where the dialect
// supports it.
func BuildInsert(d Dialect, table string, values map[string]any) (string, []any, error) {
	if err := validateIdentifier(table); err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return "", nil, xerrors.Errorf("insert into %s: %w", table, ErrEmptyValues)
	}

	cols := sortedKeys(values)
	if err := validateIdentifiers(cols); err != nil {
		return "", nil, err
	}

	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		placeholders[i] = d.Placeholder(i + 1)
		args[i] = values[col]
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s;",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "), returning(d))
	return stmt, args, nil
}

// BuildInsertBulk builds one multi-row INSERT. Placeholder indices are
// assigned per-row-per-column in row-major order. Every row must carry
// exactly the first row's column set; mismatches fail before any statement
// is issued rather than silently misaligning values.
func BuildInsertBulk(d Dialect, table string, rows []map[string]any) (string, []any, error) {
	if err := validateIdentifier(table); err != nil {
		return "", nil, err
	}
	if len(rows) == 0 {
		return "", nil, xerrors.Errorf("bulk insert into %s: %w", table, ErrEmptyBulkInsert)
	}

	cols := sortedKeys(rows[0])
	if len(cols) == 0 {
		return "", nil, xerrors.Errorf("bulk insert into %s: %w", table, ErrEmptyValues)
	}
	if err := validateIdentifiers(cols); err != nil {
		return "", nil, err
	}

	args := make([]any, 0, len(rows)*len(cols))
	tuples := make([]string, len(rows))
	idx := 1
	for r, row := range rows {
		if len(row) != len(cols) {
			return "", nil, xerrors.Errorf("bulk insert into %s, row %d: %w", table, r, ErrColumnMismatch)
		}
		placeholders := make([]string, len(cols))
		for i, col := range cols {
			v, ok := row[col]
			if !ok {
				return "", nil, xerrors.Errorf("bulk insert into %s, row %d missing %q: %w", table, r, col, ErrColumnMismatch)
			}
			placeholders[i] = d.Placeholder(idx)
			args = append(args, v)
			idx++
		}
		tuples[r] = "(" + strings.Join(placeholders, ", ") + ")"
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s%s;",
		table, strings.Join(cols, ", "), strings.Join(tuples, ", "), returning(d))
	return stmt, args, nil
}

// BuildSelect builds SELECT * with an optional conjunctive equality filter.
// An empty filter selects all rows.
func BuildSelect(d Dialect, table string, filter map[string]any) (string, []any, error) {
	if err := validateIdentifier(table); err != nil {
		return "", nil, err
	}

	where, args, err := buildWhere(d, filter, 1)
	if err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("SELECT * FROM %s%s;", table, where), args, nil
}

// BuildUpdate builds UPDATE ... SET ... WHERE with equality filters.
// WHERE placeholder indices continue after the SET indices.
func BuildUpdate(d Dialect, table string, set map[string]any, where map[string]any) (string, []any, error) {
	if err := validateIdentifier(table); err != nil {
		return "", nil, err
	}
	if len(set) == 0 {
		return "", nil, xerrors.Errorf("update %s: %w", table, ErrEmptyValues)
	}

	setCols := sortedKeys(set)
	if err := validateIdentifiers(setCols); err != nil {
		return "", nil, err
	}

	assignments := make([]string, len(setCols))
	args := make([]any, 0, len(setCols)+len(where))
	for i, col := range setCols {
		assignments[i] = fmt.Sprintf("%s = %s", col, d.Placeholder(i+1))
		args = append(args, set[col])
	}

	whereClause, whereArgs, err := buildWhere(d, where, len(setCols)+1)
	if err != nil {
		return "", nil, err
	}
	args = append(args, whereArgs...)

	stmt := fmt.Sprintf("UPDATE %s SET %s%s;", table, strings.Join(assignments, ", "), whereClause)
	return stmt, args, nil
}

// BuildCopyFrom builds a server-side COPY ... FROM statement. Only CSV is
// supported. The file path cannot be a bound parameter in COPY; it is
// quote-escaped and interpolated, so it remains caller-trusted input.
func BuildCopyFrom(table, path, format string, header bool) (string, error) {
	if err := validateIdentifier(table); err != nil {
		return "", err
	}
	if !strings.EqualFold(format, "csv") {
		return "", xerrors.Errorf("copy format %q: %w", format, ErrUnsupported)
	}

	escaped := strings.ReplaceAll(path, "'", "''")
	return fmt.Sprintf("COPY %s FROM '%s' WITH (FORMAT csv, HEADER %t);", table, escaped, header), nil
}

// buildWhere renders a conjunctive equality filter starting at placeholder
// index start. An empty filter produces no WHERE clause at all.
func buildWhere(d Dialect, filter map[string]any, start int) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	cols := sortedKeys(filter)
	if err := validateIdentifiers(cols); err != nil {
		return "", nil, err
	}

	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		conds[i] = fmt.Sprintf("%s = %s", col, d.Placeholder(start+i))
		args[i] = filter[col]
	}

	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func returning(d Dialect) string {
	if d.SupportsReturning() {
		return " RETURNING *"
	}
	return ""
}
