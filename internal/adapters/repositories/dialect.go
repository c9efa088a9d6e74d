package repositories

import (
	"fmt"
	"strings"
)

const recordsTable = "transfer_records"

// Dialect captures the SQL differences between the SQLite and Postgres media.
type Dialect struct {
	Name string
	// Placeholder returns the bind parameter for the n-th (1-based) argument.
	Placeholder func(n int) string
	// Query listing the columns of a table, with one bind argument: the table name.
	ColumnsQuery string
	// Query counting tables with a given name, with one bind argument.
	TableExistsQuery string
}

var SqliteDialect = Dialect{
	Name:             "sqlite",
	Placeholder:      func(int) string { return "?" },
	ColumnsQuery:     `SELECT name FROM pragma_table_info(?);`,
	TableExistsQuery: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?;`,
}

var PostgresDialect = Dialect{
	Name:        "postgres",
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	ColumnsQuery: `
	SELECT column_name
	FROM information_schema.columns
	WHERE table_schema = current_schema() AND table_name = $1;
	`,
	TableExistsQuery: `
	SELECT COUNT(*)
	FROM information_schema.tables
	WHERE table_schema = current_schema() AND table_name = $1;
	`,
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d Dialect) placeholders(from, n int) string {
	ph := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ph = append(ph, d.Placeholder(from+i))
	}
	return strings.Join(ph, ", ")
}
