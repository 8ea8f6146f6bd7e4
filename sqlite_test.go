package sqlcrud

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// TestRoundTrip exercises the whole surface against a real database file:
// create, insert (single and bulk), select with filters, update, alter,
// introspect, raw query, drop.
func TestRoundTrip(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	client, err := OpenDSN(ctx, &SQLiteDialect{}, dbPath)
	req.NoError(err)
	req.NotNil(client)
	defer client.Close()

	err = client.CreateTable(ctx, "users", map[string]string{
		"id":   "INTEGER PRIMARY KEY AUTOINCREMENT",
		"name": "TEXT NOT NULL",
		"age":  "INTEGER",
	})
	req.NoError(err)

	// idempotent
	err = client.CreateTable(ctx, "users", map[string]string{
		"id":   "INTEGER PRIMARY KEY AUTOINCREMENT",
		"name": "TEXT NOT NULL",
		"age":  "INTEGER",
	})
	req.NoError(err)

	// single insert returns the stored row
	row, err := client.InsertIntoTable(ctx, "users", map[string]any{"name": "alice", "age": 30})
	req.NoError(err)
	req.NotNil(row)
	req.Equal("alice", row["name"])
	req.Equal(int64(30), row["age"])
	req.Equal(int64(1), row["id"])

	// bulk insert returns all stored rows
	rows, err := client.InsertManyIntoTable(ctx, "users", []map[string]any{
		{"name": "bob", "age": 25},
		{"name": "carol", "age": 41},
	})
	req.NoError(err)
	req.Len(rows, 2)
	req.Equal("bob", rows[0]["name"])
	req.Equal("carol", rows[1]["name"])

	// empty filter selects everything
	all, err := client.SelectFromTable(ctx, "users", nil)
	req.NoError(err)
	req.Len(all, 3)

	// equality filter
	matched, err := client.SelectFromTable(ctx, "users", map[string]any{"name": "bob"})
	req.NoError(err)
	req.Len(matched, 1)
	req.Equal(int64(25), matched[0]["age"])

	// update by filter, then read back
	err = client.UpdateTable(ctx, "users", map[string]any{"age": 26}, map[string]any{"name": "bob"})
	req.NoError(err)

	matched, err = client.SelectFromTable(ctx, "users", map[string]any{"name": "bob"})
	req.NoError(err)
	req.Len(matched, 1)
	req.Equal(int64(26), matched[0]["age"])

	// add and drop a column
	err = client.AddColumns(ctx, "users", map[string]string{"email": "TEXT"})
	req.NoError(err)
	err = client.DropColumn(ctx, "users", "email")
	req.NoError(err)

	// introspection
	tables, err := client.ListTables(ctx)
	req.NoError(err)
	req.Contains(tables, "users")

	columns, err := client.DescribeTable(ctx, "users")
	req.NoError(err)
	req.Len(columns, 3)
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col["column_name"].(string)
	}
	req.Contains(names, "id")
	req.Contains(names, "name")
	req.Contains(names, "age")

	// raw read-only query
	result, err := client.Query(ctx, "SELECT name FROM users WHERE age = ?", 26)
	req.NoError(err)
	req.Len(result, 1)
	req.Equal("bob", result[0]["name"])

	// raw write is rejected before execution
	_, err = client.Query(ctx, "DELETE FROM users")
	req.ErrorIs(err, ErrQueryRejected)

	// database-level DDL is not a sqlite concept
	err = client.CreateDatabase(ctx, "other")
	req.ErrorIs(err, ErrUnsupported)
	err = client.DropDatabase(ctx, "other")
	req.ErrorIs(err, ErrUnsupported)

	// drop table is idempotent
	err = client.DropTable(ctx, "users")
	req.NoError(err)
	err = client.DropTable(ctx, "users")
	req.NoError(err)

	tables, err = client.ListTables(ctx)
	req.NoError(err)
	req.NotContains(tables, "users")
}

func TestRoundTrip_ConstraintErrorPreserved(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	client, err := OpenDSN(ctx, &SQLiteDialect{}, dbPath)
	req.NoError(err)
	defer client.Close()

	err = client.CreateTable(ctx, "users", map[string]string{
		"id":   "INTEGER PRIMARY KEY",
		"name": "TEXT NOT NULL UNIQUE",
	})
	req.NoError(err)

	_, err = client.InsertIntoTable(ctx, "users", map[string]any{"id": 1, "name": "alice"})
	req.NoError(err)

	// the driver's constraint error must survive the wrapping
	_, err = client.InsertIntoTable(ctx, "users", map[string]any{"id": 2, "name": "alice"})
	req.Error(err)
	req.Contains(err.Error(), "insert users")
	req.False(errors.Is(err, ErrQueryRejected))
}
