package orm

import (
	"fmt"
	"strings"
)

// Dialect abstracts SQL differences between database engines.
type Dialect interface {
	// Name returns the canonical dialect name: "mysql", "postgres" or "sqlite".
	Name() string

	// Placeholder returns the bind parameter placeholder for the given
	// 1-based index. MySQL and SQLite return "?" regardless of index;
	// PostgreSQL returns "$1", "$2", etc.
	Placeholder(index int) string

	// QuoteIdent quotes an identifier (table name, column name) to safely
	// handle SQL reserved words. MySQL uses backticks; PostgreSQL and
	// SQLite use double quotes.
	QuoteIdent(name string) string

	// UseReturning reports whether INSERT should use a RETURNING clause
	// to retrieve the auto-generated primary key rather than relying on
	// LastInsertId (MySQL).
	UseReturning() bool

	// ReturningClause returns the RETURNING clause appended to INSERT
	// statements. Returns an empty string for dialects that do not
	// support RETURNING (MySQL).
	ReturningClause(pk string) string
}

// MySQL is the Dialect for MySQL / MariaDB.
var MySQL Dialect = mysqlDialect{}

// PostgreSQL is the Dialect for PostgreSQL.
var PostgreSQL Dialect = postgresDialect{}

// SQLite is the Dialect for SQLite 3.35 and later.
var SQLite Dialect = sqliteDialect{}

// DialectFor maps a dialect or database/sql driver name to its Dialect.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pgx", "pq":
		return PostgreSQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("orm: unknown dialect %q", name)
	}
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string                    { return "mysql" }
func (mysqlDialect) Placeholder(_ int) string        { return "?" }
func (mysqlDialect) QuoteIdent(name string) string   { return "`" + name + "`" }
func (mysqlDialect) UseReturning() bool              { return false }
func (mysqlDialect) ReturningClause(_ string) string { return "" }

type postgresDialect struct{}

func (postgresDialect) Name() string                     { return "postgres" }
func (postgresDialect) Placeholder(index int) string     { return fmt.Sprintf("$%d", index) }
func (postgresDialect) QuoteIdent(name string) string    { return `"` + name + `"` }
func (postgresDialect) UseReturning() bool               { return true }
func (postgresDialect) ReturningClause(pk string) string { return ` RETURNING "` + pk + `"` }

type sqliteDialect struct{}

func (sqliteDialect) Name() string                     { return "sqlite" }
func (sqliteDialect) Placeholder(_ int) string         { return "?" }
func (sqliteDialect) QuoteIdent(name string) string    { return `"` + name + `"` }
func (sqliteDialect) UseReturning() bool               { return true }
func (sqliteDialect) ReturningClause(pk string) string { return ` RETURNING "` + pk + `"` }

// rewritePlaceholders converts ? to dialect-specific placeholders ($1, $2, …).
// Dialects using positional ? markers get the query back unchanged.
func rewritePlaceholders(d Dialect, query string) string {
	if d.Placeholder(1) == "?" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	idx := 1
	for i := range len(query) {
		if query[i] == '?' {
			b.WriteString(d.Placeholder(idx))
			idx++
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}
