package orm

import "database/sql"

// Model can be embedded in a model struct to give it an auto-incrementing
// integer primary key column "id".
//
//	//elucify:model
//	type User struct {
//		orm.Model
//		Username string
//	}
type Model struct {
	ID int32 `db:"id,primaryKey" json:"id"`
}

// TableNamer can be implemented by model structs to replace the table name
// inferred at generation time.
type TableNamer interface {
	TableName() string
}

// ResolveTableName returns the table name for type T: the result of
// TableName when T or *T implements TableNamer, fallback otherwise.
func ResolveTableName[T any](fallback string) string {
	var zero T
	if tn, ok := any(&zero).(TableNamer); ok {
		if name := tn.TableName(); name != "" {
			return name
		}
	}
	return fallback
}

// NullDest returns a scan destination that leaves *dest untouched when the
// column is NULL. Generated scanners use it for columns of LEFT JOINed
// relations.
func NullDest[T any](dest *T) sql.Scanner {
	return nullDest[T]{dest: dest}
}

type nullDest[T any] struct {
	dest *T
}

func (n nullDest[T]) Scan(src any) error {
	var v sql.Null[T]
	if err := v.Scan(src); err != nil {
		return err //nolint:wrapcheck // pass through
	}
	if v.Valid {
		*n.dest = v.V
	}
	return nil
}
