package orm

import (
	"context"
	"database/sql"
	"errors"
)

// ErrTestQuery is what TestQuerier.QueryContext returns unless QueryErr is set.
var ErrTestQuery = errors.New("test querier: rows not available")

// TestQuerier is a Querier recording every statement instead of running it.
// Exported for use in orm_test package.
type TestQuerier struct {
	D       Dialect
	Queries []TestQuery

	// InsertID is reported as LastInsertId for every ExecContext.
	InsertID int64
	// QueryErr overrides the error returned by QueryContext.
	QueryErr error
}

// TestQuery holds a captured query string and its args.
type TestQuery struct {
	SQL  string
	Args []any
}

// NewTestQuerier creates a TestQuerier with the given Dialect.
func NewTestQuerier(d Dialect) *TestQuerier {
	return &TestQuerier{D: d}
}

func (tq *TestQuerier) QueryContext(_ context.Context, query string, args ...any) (*sql.Rows, error) {
	tq.Queries = append(tq.Queries, TestQuery{query, args})
	if tq.QueryErr != nil {
		return nil, tq.QueryErr
	}
	return nil, ErrTestQuery
}

func (tq *TestQuerier) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	tq.Queries = append(tq.Queries, TestQuery{query, args})
	return testResult{id: tq.InsertID}, nil
}

var _ Querier = (*TestQuerier)(nil)

// LastQuery returns the most recently captured query, or panics if empty.
func (tq *TestQuerier) LastQuery() TestQuery {
	return tq.Queries[len(tq.Queries)-1]
}

func (tq *TestQuerier) dialect() Dialect { return tq.D }

type testResult struct{ id int64 }

func (r testResult) LastInsertId() (int64, error) { return r.id, nil }
func (testResult) RowsAffected() (int64, error)   { return 1, nil }

// RewritePlaceholders exposes rewritePlaceholders to tests.
func RewritePlaceholders(d Dialect, query string) string { return rewritePlaceholders(d, query) }
