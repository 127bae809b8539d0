package orm

import (
	"context"
	"database/sql"

	"github.com/mickamy/elucify/scope"
)

// JoinPair is one row of a many_to_many link table.
type JoinPair[S, T comparable] struct {
	Source S
	Target T
}

// QueryJoinTable reads the rows of table whose sourceCol is one of sourceIDs,
// ordered by source then target. Each source ID is queried once.
//
//	pairs, err := orm.QueryJoinTable[int32, int32](ctx, db, "user_roles", "user_id", "role_id", ids)
func QueryJoinTable[S, T comparable](
	ctx context.Context, db Querier, table, sourceCol, targetCol string, sourceIDs []S,
) ([]JoinPair[S, T], error) {
	sourceIDs = Distinct(sourceIDs)
	if len(sourceIDs) == 0 {
		return nil, nil
	}

	qi := db.dialect().QuoteIdent
	links := NewQuery[JoinPair[S, T]](db, table, []string{sourceCol, targetCol}, "", scanJoinPair[S, T], nil, nil)
	return links.
		Scopes(scope.In(qi(sourceCol), sourceIDs)).
		OrderBy(qi(sourceCol) + ", " + qi(targetCol)).
		All(ctx)
}

func scanJoinPair[S, T comparable](rows *sql.Rows) (JoinPair[S, T], error) {
	var p JoinPair[S, T]
	err := rows.Scan(&p.Source, &p.Target)
	return p, err //nolint:wrapcheck // pass through
}

// UniqueTargets returns the target side of pairs, first occurrence first.
func UniqueTargets[S, T comparable](pairs []JoinPair[S, T]) []T {
	targets := make([]T, len(pairs))
	for i, p := range pairs {
		targets[i] = p.Target
	}
	return Distinct(targets)
}

// GroupBySource maps every source of pairs to its targets, in pair order.
func GroupBySource[S, T comparable](pairs []JoinPair[S, T]) map[S][]T {
	grouped := make(map[S][]T)
	for _, p := range pairs {
		grouped[p.Source] = append(grouped[p.Source], p.Target)
	}
	return grouped
}

// Distinct drops repeated keys, keeping the first occurrence of each.
// Generated loaders use it to keep IN lists short.
func Distinct[K comparable](keys []K) []K {
	if len(keys) < 2 {
		return keys
	}
	seen := make(map[K]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
