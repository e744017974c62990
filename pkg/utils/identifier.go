package utils

import "strings"

// Dialect selects how identifiers are quoted.
type Dialect int

const (
	// ClickHouse quotes identifiers with backticks.
	ClickHouse Dialect = iota

	// ANSI quotes identifiers with double quotes (postgres, sqlite).
	ANSI
)

func (d Dialect) quote() string {
	if d == ClickHouse {
		return "`"
	}

	return `"`
}

// QuoteIdentifier wraps a single identifier in the dialect's quotes. Quote
// characters inside the name are doubled and an already quoted name is
// returned as-is.
//
// Examples:
//   - (ClickHouse, "history") -> "`history`"
//   - (ANSI, "history") -> `"history"`
//   - (ANSI, `"history"`) -> `"history"`
//   - (ANSI, `my"table`) -> `"my""table"`
//   - (ANSI, "") -> ""
func QuoteIdentifier(d Dialect, name string) string {
	if name == "" || IsQuoted(d, name) {
		return name
	}

	q := d.quote()
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// QualifiedName quotes every non-empty part and joins them with dots.
//
// Examples:
//   - (ClickHouse, "revision", "history") -> "`revision`.`history`"
//   - (ANSI, "", "history") -> `"history"`
func QualifiedName(d Dialect, parts ...string) string {
	quoted := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			quoted = append(quoted, QuoteIdentifier(d, part))
		}
	}

	return strings.Join(quoted, ".")
}

// IsQuoted checks if s is a single identifier wrapped in the dialect's quotes.
//
// Examples:
//   - (ClickHouse, "`table`") -> true
//   - (ClickHouse, "table") -> false
//   - (ClickHouse, "`db`.`table`") -> false
func IsQuoted(d Dialect, s string) bool {
	q := d.quote()
	if len(s) < 2 || !strings.HasPrefix(s, q) || !strings.HasSuffix(s, q) {
		return false
	}

	return !strings.Contains(strings.ReplaceAll(s[1:len(s)-1], q+q, ""), q)
}

// StringLiteral renders value as a single quoted SQL string, doubling any
// single quotes it contains.
func StringLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
