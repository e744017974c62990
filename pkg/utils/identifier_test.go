package utils_test

import (
	"testing"

	"github.com/pseudomuto/schematool/pkg/utils"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		dialect  utils.Dialect
		input    string
		expected string
	}{
		{
			name:     "clickhouse identifier",
			dialect:  utils.ClickHouse,
			input:    "history",
			expected: "`history`",
		},
		{
			name:     "ansi identifier",
			dialect:  utils.ANSI,
			input:    "history",
			expected: `"history"`,
		},
		{
			name:     "already quoted",
			dialect:  utils.ANSI,
			input:    `"history"`,
			expected: `"history"`,
		},
		{
			name:     "embedded quote",
			dialect:  utils.ANSI,
			input:    `my"table`,
			expected: `"my""table"`,
		},
		{
			name:     "embedded backtick",
			dialect:  utils.ClickHouse,
			input:    "my`table",
			expected: "`my``table`",
		},
		{
			name:     "dots are not split",
			dialect:  utils.ClickHouse,
			input:    "db.table",
			expected: "`db.table`",
		},
		{
			name:     "empty",
			dialect:  utils.ClickHouse,
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, utils.QuoteIdentifier(tt.dialect, tt.input))
		})
	}
}

func TestQualifiedName(t *testing.T) {
	require.Equal(t, "`revision`.`history`", utils.QualifiedName(utils.ClickHouse, "revision", "history"))
	require.Equal(t, `"revision"."history"`, utils.QualifiedName(utils.ANSI, "revision", "history"))
	require.Equal(t, `"history"`, utils.QualifiedName(utils.ANSI, "", "history"))
	require.Empty(t, utils.QualifiedName(utils.ANSI))
}

func TestIsQuoted(t *testing.T) {
	tests := []struct {
		name     string
		dialect  utils.Dialect
		input    string
		expected bool
	}{
		{name: "backticked", dialect: utils.ClickHouse, input: "`table`", expected: true},
		{name: "plain", dialect: utils.ClickHouse, input: "table", expected: false},
		{name: "qualified", dialect: utils.ClickHouse, input: "`db`.`table`", expected: false},
		{name: "wrong dialect", dialect: utils.ANSI, input: "`table`", expected: false},
		{name: "escaped quote", dialect: utils.ANSI, input: `"my""table"`, expected: true},
		{name: "single quote char", dialect: utils.ANSI, input: `"`, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, utils.IsQuoted(tt.dialect, tt.input))
		})
	}
}

func TestStringLiteral(t *testing.T) {
	require.Equal(t, "'170000000000'", utils.StringLiteral("170000000000"))
	require.Equal(t, "'it''s'", utils.StringLiteral("it's"))
	require.Equal(t, "''", utils.StringLiteral(""))
}
