package pool

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// IsUniqueViolation reports whether err was raised by a UNIQUE or primary key
// constraint in any of the supported drivers.
func IsUniqueViolation(err error) bool {
	var (
		pgErr   *pgconn.PgError
		pqErr   *pq.Error
		myErr   *mysql.MySQLError
		liteErr *sqlite.Error
	)
	switch {
	case errors.As(err, &pgErr):
		return pgErr.Code == pgUniqueViolation
	case errors.As(err, &pqErr):
		return string(pqErr.Code) == pgUniqueViolation
	case errors.As(err, &myErr):
		return myErr.Number == mysqlDuplicateEntry
	case errors.As(err, &liteErr):
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
