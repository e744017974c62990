package utils

import "strings"

// SQLBuilder provides a fluent interface for the handful of statements a
// history store runs. Table arguments are expected to be rendered already
// (see QualifiedName); Name quotes for the builder's dialect.
//
// Example usage:
//
//	table := utils.QualifiedName(utils.ClickHouse, "revision", "history")
//	sql := utils.NewSQLBuilder(utils.ClickHouse).
//		DeleteFrom(table).
//		Where("alter_hash", utils.StringLiteral("170000000000")).
//		String()
//	// Output: DELETE FROM `revision`.`history` WHERE alter_hash = '170000000000'
type SQLBuilder struct {
	dialect Dialect
	parts   []string
}

// NewSQLBuilder creates a new SQLBuilder quoting names for d.
func NewSQLBuilder(d Dialect) *SQLBuilder {
	return &SQLBuilder{
		dialect: d,
		parts:   make([]string, 0, 10),
	}
}

// Create adds a CREATE clause with the specified object type.
//
//	builder.Create("TABLE")  // CREATE TABLE
func (b *SQLBuilder) Create(objectType string) *SQLBuilder {
	b.parts = append(b.parts, "CREATE", objectType)
	return b
}

// Drop adds a DROP clause with the specified object type.
//
//	builder.Drop("SCHEMA")  // DROP SCHEMA
func (b *SQLBuilder) Drop(objectType string) *SQLBuilder {
	b.parts = append(b.parts, "DROP", objectType)
	return b
}

// IfExists adds an IF EXISTS clause. This should be called after Drop.
func (b *SQLBuilder) IfExists() *SQLBuilder {
	b.parts = append(b.parts, "IF", "EXISTS")
	return b
}

// IfNotExists adds an IF NOT EXISTS clause. This should be called after Create.
func (b *SQLBuilder) IfNotExists() *SQLBuilder {
	b.parts = append(b.parts, "IF", "NOT", "EXISTS")
	return b
}

// Name adds a quoted, dot separated name built from parts.
//
//	builder.Name("revision")             // `revision`
//	builder.Name("revision", "history")  // `revision`.`history`
func (b *SQLBuilder) Name(parts ...string) *SQLBuilder {
	if name := QualifiedName(b.dialect, parts...); name != "" {
		b.parts = append(b.parts, name)
	}
	return b
}

// Columns adds a parenthesized, comma separated list of column definitions.
func (b *SQLBuilder) Columns(defs ...string) *SQLBuilder {
	b.parts = append(b.parts, "("+strings.Join(defs, ", ")+")")
	return b
}

// Engine adds an ENGINE clause.
func (b *SQLBuilder) Engine(engine string) *SQLBuilder {
	b.parts = append(b.parts, "ENGINE", "=", engine)
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(expr string) *SQLBuilder {
	b.parts = append(b.parts, "ORDER", "BY", expr)
	return b
}

// Cascade adds CASCADE, for drops that remove dependent objects.
func (b *SQLBuilder) Cascade() *SQLBuilder {
	b.parts = append(b.parts, "CASCADE")
	return b
}

// Select adds a SELECT clause with comma separated expressions.
func (b *SQLBuilder) Select(exprs ...string) *SQLBuilder {
	b.parts = append(b.parts, "SELECT", strings.Join(exprs, ", "))
	return b
}

// From adds a FROM clause.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.parts = append(b.parts, "FROM", table)
	return b
}

// InsertInto adds an INSERT INTO clause with the column list.
//
//	builder.InsertInto(`"history"`, "alter_hash", "ran_on")  // INSERT INTO "history" (alter_hash, ran_on)
func (b *SQLBuilder) InsertInto(table string, columns ...string) *SQLBuilder {
	b.parts = append(b.parts, "INSERT", "INTO", table, "("+strings.Join(columns, ", ")+")")
	return b
}

// Values adds a VALUES clause. Values are inserted verbatim; use
// StringLiteral for strings.
func (b *SQLBuilder) Values(values ...string) *SQLBuilder {
	b.parts = append(b.parts, "VALUES", "("+strings.Join(values, ", ")+")")
	return b
}

// DeleteFrom adds a DELETE FROM clause.
func (b *SQLBuilder) DeleteFrom(table string) *SQLBuilder {
	b.parts = append(b.parts, "DELETE", "FROM", table)
	return b
}

// Where adds an equality WHERE clause.
func (b *SQLBuilder) Where(column, expr string) *SQLBuilder {
	b.parts = append(b.parts, "WHERE", column, "=", expr)
	return b
}

// Raw adds raw SQL.
func (b *SQLBuilder) Raw(sql string) *SQLBuilder {
	if sql != "" {
		b.parts = append(b.parts, sql)
	}
	return b
}

// String builds the statement without a trailing semicolon.
func (b *SQLBuilder) String() string {
	return strings.Join(b.parts, " ")
}
