package sqlcrud

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateReadOnly_AllowedQueries(t *testing.T) {
	dialects := []Dialect{&PostgresDialect{}, &MySQLDialect{}, &SQLiteDialect{}}
	allowedQueries := []string{
		"SELECT * FROM users",
		"SELECT id, name FROM users WHERE id = 1",
		"select * from users",
		"DESCRIBE users",
		"DESC users",
		"EXPLAIN SELECT * FROM users",
		"SELECT * FROM user_settings WHERE setting_name = 'theme'",
		"SELECT created_at FROM orders",
		"SELECT deleted FROM items",
		"SELECT * FROM users WHERE name = 'DROP TABLE users'", // keyword in string literal
	}

	for _, d := range dialects {
		for _, query := range allowedQueries {
			t.Run(d.Name()+"/"+query, func(t *testing.T) {
				if err := d.ValidateReadOnly(query); err != nil {
					t.Errorf("expected query to be allowed, but got error: %v", err)
				}
			})
		}
	}
}

func TestValidateReadOnly_BlockedQueries(t *testing.T) {
	dialects := []Dialect{&PostgresDialect{}, &MySQLDialect{}, &SQLiteDialect{}}
	blockedQueries := []struct {
		query       string
		shouldBlock string
	}{
		{"INSERT INTO users VALUES (1, 'test')", "INSERT"},
		{"UPDATE users SET name = 'test'", "UPDATE"},
		{"DELETE FROM users", "DELETE"},
		{"DROP TABLE users", "DROP"},
		{"CREATE TABLE test (id INT)", "CREATE"},
		{"ALTER TABLE users ADD COLUMN age INT", "ALTER"},
		{"TRUNCATE TABLE users", "TRUNCATE"},
		{"GRANT ALL ON *.* TO 'user'", "GRANT"},
		{"SET @var = 1", "SET"},
		{"SELECT 1; DROP TABLE users", "multiple statements"},
	}

	for _, d := range dialects {
		for _, tc := range blockedQueries {
			t.Run(d.Name()+"/"+tc.query, func(t *testing.T) {
				err := d.ValidateReadOnly(tc.query)
				if err == nil {
					t.Errorf("expected query to be blocked for %s, but it was allowed", tc.shouldBlock)
				}
				if err != nil && !errors.Is(err, ErrQueryRejected) {
					t.Errorf("expected ErrQueryRejected, got %v", err)
				}
			})
		}
	}
}

func TestValidateReadOnly_PostgresSpecific(t *testing.T) {
	d := &PostgresDialect{}
	blocked := []string{
		"SELECT pg_sleep(10)",
		"SELECT pg_read_file('/etc/passwd')",
		"SELECT lo_import('/etc/passwd')",
		"COPY users TO '/tmp/data.csv'",
		"SELECT pg_advisory_lock(1)",
	}

	for _, query := range blocked {
		t.Run(query, func(t *testing.T) {
			if err := d.ValidateReadOnly(query); err == nil {
				t.Errorf("expected query to be blocked: %s", query)
			}
		})
	}
}

func TestValidateReadOnly_MySQLSpecific(t *testing.T) {
	d := &MySQLDialect{}
	blocked := []string{
		"SELECT SLEEP(10)",
		"SELECT BENCHMARK(1000000, MD5('x'))",
		"SELECT * FROM users INTO OUTFILE '/tmp/out'",
		"SELECT LOAD_FILE('/etc/passwd')",
		"SELECT GET_LOCK('lock', 10)",
	}

	for _, query := range blocked {
		t.Run(query, func(t *testing.T) {
			if err := d.ValidateReadOnly(query); err == nil {
				t.Errorf("expected query to be blocked: %s", query)
			}
		})
	}
}

func TestValidateReadOnly_SQLiteSpecific(t *testing.T) {
	d := &SQLiteDialect{}
	blocked := []string{
		"SELECT load_extension('hack.so')",
		"SELECT writefile('/tmp/data', content)",
		"EXPLAIN PRAGMA journal_mode = WAL",
	}

	for _, query := range blocked {
		t.Run(query, func(t *testing.T) {
			if err := d.ValidateReadOnly(query); err == nil {
				t.Errorf("expected query to be blocked: %s", query)
			}
		})
	}
}

func TestValidateReadOnly_EmptyQuery(t *testing.T) {
	d := &PostgresDialect{}

	if err := d.ValidateReadOnly(""); err == nil {
		t.Error("expected empty query to be rejected")
	}
	if err := d.ValidateReadOnly("   "); err == nil {
		t.Error("expected whitespace-only query to be rejected")
	}
}

func TestValidateReadOnly_CommentInjection(t *testing.T) {
	d := &PostgresDialect{}
	queries := []string{
		"SELECT 1 -- ; DROP TABLE users",
		"SELECT 1 /* ; DROP TABLE users */",
	}

	for _, query := range queries {
		t.Run(query, func(t *testing.T) {
			err := d.ValidateReadOnly(query)
			if err != nil && strings.Contains(err.Error(), "multiple statements") {
				t.Errorf("false positive on comment: %v", err)
			}
		})
	}
}

func TestRemoveStringsAndComments(t *testing.T) {
	tests := []struct {
		name     string
		syn      SQLSyntax
		input    string
		expected string
	}{
		{
			name:     "single-quoted string stripped",
			input:    "SELECT * FROM users WHERE name = 'DROP TABLE'",
			expected: "SELECT * FROM users WHERE name = ''",
		},
		{
			name:     "-- comment stripped",
			input:    "SELECT * FROM users -- comment",
			expected: "SELECT * FROM users  ",
		},
		{
			name:     "/* */ comment stripped",
			input:    "SELECT * FROM users /* comment */",
			expected: "SELECT * FROM users  ",
		},
		{
			name:     "double-quoted identifier preserved",
			input:    `SELECT * FROM "table_name"`,
			expected: `SELECT * FROM "table_name"`,
		},
		{
			name:     "hash comment stripped with HashComments",
			syn:      SQLSyntax{HashComments: true},
			input:    "SELECT 1 # comment",
			expected: "SELECT 1  ",
		},
		{
			name:     "hash preserved without HashComments",
			input:    "SELECT # FROM users",
			expected: "SELECT # FROM users",
		},
		{
			name:     "backtick identifier preserved",
			syn:      SQLSyntax{BacktickIdentifiers: true},
			input:    "SELECT * FROM `table_name`",
			expected: "SELECT * FROM `table_name`",
		},
		{
			name:     "bracket identifier preserved",
			syn:      SQLSyntax{BracketIdentifiers: true},
			input:    "SELECT * FROM [table_name]",
			expected: "SELECT * FROM [table_name]",
		},
		{
			name:     "double-quoted string stripped in MySQL mode",
			syn:      SQLSyntax{DoubleQuotedStrings: true},
			input:    `SELECT * FROM users WHERE name = "DROP TABLE"`,
			expected: `SELECT * FROM users WHERE name = ""`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := removeStringsAndComments(tc.input, tc.syn)
			if result != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestRemoveStringsAndComments_DollarQuoting(t *testing.T) {
	syn := SQLSyntax{DollarQuoting: true}

	// $$ dollar-quoted string should be stripped
	result := removeStringsAndComments("SELECT * FROM t WHERE body = $$DROP TABLE users$$", syn)
	if strings.Contains(result, "DROP") {
		t.Errorf("dollar-quoted string content was not stripped: %s", result)
	}

	// $tag$ tagged dollar-quoted string should be stripped
	result = removeStringsAndComments("SELECT * FROM t WHERE body = $tag$DROP TABLE users$tag$", syn)
	if strings.Contains(result, "DROP") {
		t.Errorf("tagged dollar-quoted string content was not stripped: %s", result)
	}
}

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"users", "user_settings", "A1", "_x"}
	invalid := []string{"", "us ers", "users;", "us-ers", `us"ers`}

	for _, name := range valid {
		if err := validateIdentifier(name); err != nil {
			t.Errorf("expected %q to be valid, got %v", name, err)
		}
	}
	for _, name := range invalid {
		if err := validateIdentifier(name); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("expected %q to be invalid, got %v", name, err)
		}
	}
}
