// Package utils renders the SQL the history stores run.
//
// # Identifiers
//
// Identifiers are quoted per Dialect: backticks for ClickHouse, double quotes
// for postgres and sqlite.
//
//	utils.QualifiedName(utils.ClickHouse, "revision", "history")
//	// Result: `revision`.`history`
//
//	utils.QuoteIdentifier(utils.ANSI, "history")
//	// Result: "history"
//
// # Statements
//
// SQLBuilder assembles statements clause by clause. String literals are
// rendered with StringLiteral so refs can be embedded in generated SQL that
// is run by hand.
//
//	utils.NewSQLBuilder(utils.ANSI).
//		InsertInto(`"history"`, "alter_hash", "ran_on").
//		Values(utils.StringLiteral("170000000000"), "CURRENT_TIMESTAMP").
//		String()
//	// Result: INSERT INTO "history" (alter_hash, ran_on) VALUES ('170000000000', CURRENT_TIMESTAMP)
package utils
