package orm

import "errors"

var (
	// ErrNotFound is returned when a query expects exactly one row but finds none.
	ErrNotFound = errors.New("orm: not found")

	// ErrUnknownPreload is returned by All and First when Preload names a
	// relation that has no registered preloader.
	ErrUnknownPreload = errors.New("orm: unknown preload")

	// ErrMissingWhere guards Delete against removing every row of a table.
	ErrMissingWhere = errors.New("orm: Delete without WHERE clause is not allowed")

	// ErrMissingPrimaryKey is returned by Update when the model carries no
	// primary key value.
	ErrMissingPrimaryKey = errors.New("orm: primary key value is required for Update")

	// ErrNoRows is returned when a statement expected to yield a row, such as
	// COUNT or INSERT ... RETURNING, returned none.
	ErrNoRows = errors.New("orm: statement returned no rows")
)
