package sqlcrud

import (
	"regexp"
	"strings"

	"golang.org/x/xerrors"
)

// validIdentifier is the allow-list for database, table, and column names.
// Quoted identifiers are deliberately not supported; anything outside this
// pattern is rejected before a statement is built.
var validIdentifier = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func validateIdentifier(name string) error {
	if !validIdentifier.MatchString(name) {
		return xerrors.Errorf("%q: %w", name, ErrInvalidIdentifier)
	}
	return nil
}

func validateIdentifiers(names []string) error {
	for _, name := range names {
		if err := validateIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}

// SQLSyntax describes the lexical features of a dialect that matter when
// stripping strings and comments before keyword scanning.
type SQLSyntax struct {
	// HashComments enables # single-line comments (MySQL).
	HashComments bool
	// BackslashEscapes enables \' escaping inside strings (MySQL).
	BackslashEscapes bool
	// BacktickIdentifiers preserves `name` quoting (MySQL, SQLite).
	BacktickIdentifiers bool
	// BracketIdentifiers preserves [name] quoting (SQLite compatibility mode).
	BracketIdentifiers bool
	// DollarQuoting strips $tag$...$tag$ strings (PostgreSQL).
	DollarQuoting bool
	// DoubleQuotedStrings treats "..." as a string literal rather than an
	// identifier (MySQL without ANSI_QUOTES).
	DoubleQuotedStrings bool
}

type forbidden struct {
	pattern string
	desc    string
}

// forbiddenKeywords are DML/DDL keywords the raw Query escape hatch blocks
// regardless of dialect.
var forbiddenKeywords = []forbidden{
	{`(?i)(?:^|[^a-zA-Z_])INSERT(?:[^a-zA-Z_]|$)`, "INSERT"},
	{`(?i)(?:^|[^a-zA-Z_])UPDATE(?:[^a-zA-Z_]|$)`, "UPDATE"},
	{`(?i)(?:^|[^a-zA-Z_])DELETE(?:[^a-zA-Z_]|$)`, "DELETE"},
	{`(?i)(?:^|[^a-zA-Z_])DROP(?:[^a-zA-Z_]|$)`, "DROP"},
	{`(?i)(?:^|[^a-zA-Z_])CREATE(?:[^a-zA-Z_]|$)`, "CREATE"},
	{`(?i)(?:^|[^a-zA-Z_])ALTER(?:[^a-zA-Z_]|$)`, "ALTER"},
	{`(?i)(?:^|[^a-zA-Z_])TRUNCATE(?:[^a-zA-Z_]|$)`, "TRUNCATE"},
	{`(?i)(?:^|[^a-zA-Z_])GRANT(?:[^a-zA-Z_]|$)`, "GRANT"},
	{`(?i)(?:^|[^a-zA-Z_])REVOKE(?:[^a-zA-Z_]|$)`, "REVOKE"},
}

// validateReadOnlyCommon runs the checks shared across all dialects.
// rawSQL is the original query; cleaned has strings and comments removed.
func validateReadOnlyCommon(rawSQL, cleaned string) error {
	trimmed := strings.TrimSpace(rawSQL)
	if trimmed == "" {
		return xerrors.Errorf("empty query: %w", ErrQueryRejected)
	}

	upper := strings.ToUpper(trimmed)

	allowedPrefixes := []string{"SELECT ", "SHOW ", "DESCRIBE ", "DESC ", "EXPLAIN "}
	hasAllowedPrefix := false
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(upper, prefix) || upper == strings.TrimSpace(prefix) {
			hasAllowedPrefix = true
			break
		}
	}
	if !hasAllowedPrefix {
		return xerrors.Errorf("only SELECT, SHOW, DESCRIBE, and EXPLAIN are allowed: %w", ErrQueryRejected)
	}

	// Check for multiple statements
	if strings.Contains(cleaned, ";") {
		parts := strings.SplitN(cleaned, ";", 2)
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			return xerrors.Errorf("multiple statements are not allowed: %w", ErrQueryRejected)
		}
	}

	if err := matchForbidden(cleaned, forbiddenKeywords); err != nil {
		return err
	}

	// Block SET statements (but not column/table names containing 'set')
	setPattern := regexp.MustCompile(`(?i)(?:^|;)\s*SET\b`)
	if setPattern.MatchString(cleaned) {
		return xerrors.Errorf("SET statements are not allowed: %w", ErrQueryRejected)
	}

	return nil
}

func matchForbidden(sqlText string, patterns []forbidden) error {
	for _, fp := range patterns {
		re := regexp.MustCompile(fp.pattern)
		if re.MatchString(sqlText) {
			return xerrors.Errorf("forbidden construct %s: %w", fp.desc, ErrQueryRejected)
		}
	}
	return nil
}

// removeStringsAndComments strips string literals and comments from SQL for
// safe keyword detection, honoring the dialect's lexical syntax. Identifier
// quoting is preserved; string contents are replaced with an empty literal.
func removeStringsAndComments(sql string, syn SQLSyntax) string {
	var result strings.Builder
	i := 0
	n := len(sql)

	for i < n {
		// Single-line comment starting with --
		if i+1 < n && sql[i] == '-' && sql[i+1] == '-' {
			for i < n && sql[i] != '\n' {
				i++
			}
			result.WriteByte(' ')
			continue
		}

		// Single-line comment starting with #
		if syn.HashComments && sql[i] == '#' {
			for i < n && sql[i] != '\n' {
				i++
			}
			result.WriteByte(' ')
			continue
		}

		// Multi-line comment /* */
		if i+1 < n && sql[i] == '/' && sql[i+1] == '*' {
			i += 2
			for i+1 < n && !(sql[i] == '*' && sql[i+1] == '/') {
				i++
			}
			i += 2 // Skip */
			result.WriteByte(' ')
			continue
		}

		// Dollar-quoted string $tag$...$tag$ or $$...$$
		if syn.DollarQuoting && sql[i] == '$' {
			tagEnd := strings.Index(sql[i+1:], "$")
			if tagEnd >= 0 {
				tag := sql[i : i+tagEnd+2] // e.g., "$$" or "$tag$"
				closeIdx := strings.Index(sql[i+len(tag):], tag)
				if closeIdx >= 0 {
					i += len(tag) + closeIdx + len(tag)
					result.WriteString("''")
					continue
				}
			}
		}

		// Single-quoted string
		if sql[i] == '\'' {
			i++
			for i < n {
				if sql[i] == '\'' {
					if i+1 < n && sql[i+1] == '\'' {
						i += 2 // Escaped quote ''
						continue
					}
					i++
					break
				}
				if syn.BackslashEscapes && sql[i] == '\\' && i+1 < n {
					i += 2
					continue
				}
				i++
			}
			result.WriteString("''")
			continue
		}

		// Double quotes: a string literal in MySQL, a quoted identifier in
		// PostgreSQL and SQLite. Identifiers are preserved, strings stripped.
		if sql[i] == '"' {
			if syn.DoubleQuotedStrings {
				i++
				for i < n {
					if sql[i] == '"' {
						if i+1 < n && sql[i+1] == '"' {
							i += 2
							continue
						}
						i++
						break
					}
					if syn.BackslashEscapes && sql[i] == '\\' && i+1 < n {
						i += 2
						continue
					}
					i++
				}
				result.WriteString(`""`)
				continue
			}
			result.WriteByte('"')
			i++
			for i < n {
				if sql[i] == '"' {
					if i+1 < n && sql[i+1] == '"' {
						result.WriteString(`""`)
						i += 2
						continue
					}
					result.WriteByte('"')
					i++
					break
				}
				result.WriteByte(sql[i])
				i++
			}
			continue
		}

		// Backtick-quoted identifier
		if syn.BacktickIdentifiers && sql[i] == '`' {
			result.WriteByte('`')
			i++
			for i < n && sql[i] != '`' {
				result.WriteByte(sql[i])
				i++
			}
			if i < n {
				result.WriteByte('`')
				i++
			}
			continue
		}

		// [bracket]-quoted identifier
		if syn.BracketIdentifiers && sql[i] == '[' {
			result.WriteByte('[')
			i++
			for i < n && sql[i] != ']' {
				result.WriteByte(sql[i])
				i++
			}
			if i < n {
				result.WriteByte(']')
				i++
			}
			continue
		}

		result.WriteByte(sql[i])
		i++
	}

	return result.String()
}
