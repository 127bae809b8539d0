// Package scope holds reusable query fragments for generated queries.
//
//	active := scope.Where("deleted_at IS NULL")
//	users, err := query.Users(db).Scopes(active, scope.OrderBy("id")).All(ctx)
package scope

import "strings"

// Applier receives the fragments of a Scope. orm.Query implements it; the
// interface is declared here so that orm can depend on scope and not the
// other way around.
type Applier interface {
	ApplyWhere(clause string, args []any)
	ApplyOrderBy(clause string)
	ApplyLimit(n int)
	ApplyOffset(n int)
	ApplySelect(columns string)
}

// Scope is an immutable query fragment. The zero Scope applies nothing.
type Scope struct {
	apply func(Applier)
}

// Apply hands the fragment to a.
func (s Scope) Apply(a Applier) {
	if s.apply != nil {
		s.apply(a)
	}
}

// Where adds a condition; several Where scopes are ANDed.
//
//	scope.Where("age > ?", 18)
//	scope.Where("name = ? AND role = ?", "alice", "admin")
func Where(clause string, args ...any) Scope {
	return Scope{apply: func(a Applier) { a.ApplyWhere(clause, args) }}
}

// OrderBy appends an ORDER BY term such as "created_at DESC".
func OrderBy(clause string) Scope {
	return Scope{apply: func(a Applier) { a.ApplyOrderBy(clause) }}
}

func Limit(n int) Scope {
	return Scope{apply: func(a Applier) { a.ApplyLimit(n) }}
}

func Offset(n int) Scope {
	return Scope{apply: func(a Applier) { a.ApplyOffset(n) }}
}

// Select replaces the selected column list.
func Select(columns ...string) Scope {
	list := strings.Join(columns, ", ")
	return Scope{apply: func(a Applier) { a.ApplySelect(list) }}
}

// In matches column against values, one placeholder per value. An empty
// values matches nothing.
//
//	scope.In("id", []int32{1, 2, 3})  // → id IN (?, ?, ?)
func In[T any](column string, values []T) Scope {
	if len(values) == 0 {
		return Where("1 = 0")
	}
	args := make([]any, len(values))
	for i := range values {
		args[i] = values[i]
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return Where(column+" IN ("+marks+")", args...)
}

// Eq matches column against a single value.
//
//	scope.Eq("email", "alice@example.com")  // → email = ?
func Eq(column string, value any) Scope {
	return Where(column+" = ?", value)
}

// Paginate returns LIMIT and OFFSET for the 1-based page. Pages below 1 mean
// the first page; perPage below 1 disables pagination.
//
//	query.Users(db).Scopes(scope.Paginate(2, 20)...)  // → LIMIT 20 OFFSET 20
func Paginate(page, perPage int) Scopes {
	if perPage < 1 {
		return nil
	}
	page = max(page, 1)
	return Scopes{Limit(perPage), Offset((page - 1) * perPage)}
}

// Scopes is a list of Scope built up conditionally.
//
//	var s scope.Scopes
//	if onlyActive {
//		s = s.Append(active)
//	}
//	s = s.Merge(scope.Paginate(page, perPage))
//	query.Users(db).Scopes(s...).All(ctx)
type Scopes []Scope

// Append returns ss followed by scopes. ss is left untouched.
func (ss Scopes) Append(scopes ...Scope) Scopes {
	out := make(Scopes, 0, len(ss)+len(scopes))
	return append(append(out, ss...), scopes...)
}

// Merge returns ss followed by other. Neither is modified.
func (ss Scopes) Merge(other Scopes) Scopes {
	return ss.Append(other...)
}

// Combine collects scopes into a Scopes.
func Combine(scopes ...Scope) Scopes {
	return Scopes(scopes)
}
