package sqlcrud

import (
	"context"

	"golang.org/x/xerrors"
)

// Public operations. Each call builds one parameterized statement, executes
// it on one pooled connection, and returns. Validation errors fail before
// anything is sent to the database; execution errors are logged with the
// operation and table for context and wrapped with %w, so the driver's error
// (SQL state, constraint name) stays reachable through errors.Is/As.

// CreateTable creates a table if it does not already exist. Column type
// declarations are passed through unescaped; the caller is trusted.
func (c *Client) CreateTable(ctx context.Context, table string, columns map[string]string) error {
	stmt, err := BuildCreateTable(table, columns)
	if err != nil {
		return err
	}
	return c.wrapExec(ctx, "create table", table, stmt, nil)
}

// CreateDatabase creates a database. There is no IF NOT EXISTS guard.
func (c *Client) CreateDatabase(ctx context.Context, name string) error {
	if !c.dialect.SupportsCreateDatabase() {
		return xerrors.Errorf("create database on %s: %w", c.dialect.Name(), ErrUnsupported)
	}
	stmt, err := BuildCreateDatabase(name)
	if err != nil {
		return err
	}
	return c.wrapExec(ctx, "create database", name, stmt, nil)
}

// DropTable drops a table if it exists.
func (c *Client) DropTable(ctx context.Context, name string) error {
	stmt, err := BuildDropTable(name)
	if err != nil {
		return err
	}
	return c.wrapExec(ctx, "drop table", name, stmt, nil)
}

// DropDatabase drops a database if it exists.
func (c *Client) DropDatabase(ctx context.Context, name string) error {
	if !c.dialect.SupportsCreateDatabase() {
		return xerrors.Errorf("drop database on %s: %w", c.dialect.Name(), ErrUnsupported)
	}
	stmt, err := BuildDropDatabase(name)
	if err != nil {
		return err
	}
	return c.wrapExec(ctx, "drop database", name, stmt, nil)
}

// AddColumns adds one or more columns to a table in a single ALTER TABLE.
func (c *Client) AddColumns(ctx context.Context, table string, columns map[string]string) error {
	stmt, err := BuildAlterTable(c.dialect, table, columns, nil, nil)
	if err != nil {
		return err
	}
	return c.wrapExec(ctx, "add columns", table, stmt, nil)
}

// DropColumn removes a single column from a table.
func (c *Client) DropColumn(ctx context.Context, table, column string) error {
	stmt, err := BuildAlterTable(c.dialect, table, nil, []string{column}, nil)
	if err != nil {
		return err
	}
	return c.wrapExec(ctx, "drop column", table, stmt, nil)
}

// ModifyColumns changes the type of one or more columns in a single
// ALTER TABLE.
func (c *Client) ModifyColumns(ctx context.Context, table string, columns map[string]string) error {
	stmt, err := BuildAlterTable(c.dialect, table, nil, nil, columns)
	if err != nil {
		return err
	}
	return c.wrapExec(ctx, "modify columns", table, stmt, nil)
}

// AlterTable applies adds, drops, and type changes in one statement. The
// combined change set must not be empty.
func (c *Client) AlterTable(ctx context.Context, table string, add map[string]string, drop []string, modify map[string]string) error {
	stmt, err := BuildAlterTable(c.dialect, table, add, drop, modify)
	if err != nil {
		return err
	}
	return c.wrapExec(ctx, "alter table", table, stmt, nil)
}

// InsertIntoTable inserts one row and returns it as stored, when the dialect
// supports RETURNING; on MySQL the returned row is nil.
func (c *Client) InsertIntoTable(ctx context.Context, table string, values map[string]any) (Row, error) {
	stmt, args, err := BuildInsert(c.dialect, table, values)
	if err != nil {
		return nil, err
	}

	if !c.dialect.SupportsReturning() {
		return nil, c.wrapExec(ctx, "insert", table, stmt, args)
	}

	rows, err := c.queryRows(ctx, stmt, args...)
	if err != nil {
		return nil, c.failed("insert", table, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// InsertManyIntoTable inserts all rows with one multi-row statement and
// returns them as stored. Every row must carry the first row's column set.
func (c *Client) InsertManyIntoTable(ctx context.Context, table string, rows []map[string]any) ([]Row, error) {
	stmt, args, err := BuildInsertBulk(c.dialect, table, rows)
	if err != nil {
		return nil, err
	}

	if !c.dialect.SupportsReturning() {
		return nil, c.wrapExec(ctx, "bulk insert", table, stmt, args)
	}

	inserted, err := c.queryRows(ctx, stmt, args...)
	if err != nil {
		return nil, c.failed("bulk insert", table, err)
	}
	return inserted, nil
}

// SelectFromTable returns all rows matching the conjunctive equality filter.
// An empty filter selects the whole table.
func (c *Client) SelectFromTable(ctx context.Context, table string, filter map[string]any) ([]Row, error) {
	stmt, args, err := BuildSelect(c.dialect, table, filter)
	if err != nil {
		return nil, err
	}

	rows, err := c.queryRows(ctx, stmt, args...)
	if err != nil {
		return nil, c.failed("select", table, err)
	}
	return rows, nil
}

// UpdateTable sets the given values on all rows matching the equality
// filter. An empty filter updates every row. No row count is returned.
func (c *Client) UpdateTable(ctx context.Context, table string, set map[string]any, where map[string]any) error {
	stmt, args, err := BuildUpdate(c.dialect, table, set, where)
	if err != nil {
		return err
	}
	return c.wrapExec(ctx, "update", table, stmt, args)
}

// CopyFromFile bulk-loads a server-side CSV file into a table. The path is
// interpolated into the statement (COPY cannot bind it) and is trusted.
func (c *Client) CopyFromFile(ctx context.Context, table, path, format string, header bool) error {
	if !c.dialect.SupportsCopy() {
		return xerrors.Errorf("copy on %s: %w", c.dialect.Name(), ErrUnsupported)
	}
	stmt, err := BuildCopyFrom(table, path, format, header)
	if err != nil {
		return err
	}
	return c.wrapExec(ctx, "copy", table, stmt, nil)
}

// ListTables returns the names of all tables in the connected database.
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	query, args := c.dialect.ListTablesQuery(c.databaseName)

	rows, err := c.ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.failed("list tables", c.databaseName, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, c.failed("list tables", c.databaseName, err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, c.failed("list tables", c.databaseName, err)
	}
	return tables, nil
}

// DescribeTable returns column metadata for a table, one map per column.
func (c *Client) DescribeTable(ctx context.Context, table string) ([]map[string]any, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}

	query, args := c.dialect.DescribeTableQuery(c.databaseName, table)

	rows, err := c.ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.failed("describe table", table, err)
	}
	defer rows.Close()

	var columns []map[string]any
	for rows.Next() {
		col, err := c.dialect.ScanColumnRow(rows)
		if err != nil {
			return nil, c.failed("describe table", table, err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, c.failed("describe table", table, err)
	}
	return columns, nil
}

// Query is the raw escape hatch. Only read-only statements (SELECT, SHOW,
// DESCRIBE, EXPLAIN) pass validation; values still go through bound
// parameters.
func (c *Client) Query(ctx context.Context, sqlText string, args ...any) ([]Row, error) {
	if err := c.dialect.ValidateReadOnly(sqlText); err != nil {
		return nil, err
	}

	rows, err := c.queryRows(ctx, sqlText, args...)
	if err != nil {
		return nil, c.failed("query", c.databaseName, err)
	}
	return rows, nil
}

// wrapExec executes a statement that produces no result rows.
func (c *Client) wrapExec(ctx context.Context, op, table, stmt string, args []any) error {
	if err := c.exec(ctx, stmt, args...); err != nil {
		return c.failed(op, table, err)
	}
	return nil
}

// failed logs an execution error with its operation context and wraps it
// without discarding the cause.
func (c *Client) failed(op, table string, err error) error {
	log.Errorw("operation failed", "op", op, "table", table, "error", err)
	return xerrors.Errorf("%s %s: %w", op, table, err)
}
