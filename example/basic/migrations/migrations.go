// Package migrations embeds the goose migrations of the example, one
// directory per dialect.
package migrations

import (
	"embed"
	"io/fs"

	"github.com/go-extras/go-kit/must"
)

//go:generate go run github.com/mickamy/elucify schema --dir ../model --dialect postgres --format goose --out sql/postgres/00001_create_tables.sql
//go:generate go run github.com/mickamy/elucify schema --dir ../model --dialect mysql --format goose --out sql/mysql/00001_create_tables.sql
//go:generate go run github.com/mickamy/elucify schema --dir ../model --dialect sqlite --format goose --out sql/sqlite/00001_create_tables.sql

//go:embed sql
var embedded embed.FS

// FS holds the postgres, mysql and sqlite migration directories.
var FS = must.Must(fs.Sub(embedded, "sql"))
