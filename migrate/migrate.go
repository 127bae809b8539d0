// Package migrate provides a server fairing applying goose SQL migrations
// to a database pool when the server ignites.
//
// Migrations are looked up in the subdirectory of the given filesystem
// named after the pool's dialect: postgres, mysql or sqlite.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/mickamy/elucify/orm"
	"github.com/mickamy/elucify/server"
)

// Source yields the database to migrate. *pool.Pool implements it.
type Source interface {
	Name() string
	DB() *orm.DB
}

// Migrator is a fairing running migrations for one pool. Attach it after
// the pool it migrates.
type Migrator struct {
	src  Source
	fsys fs.FS
}

// New returns a fairing migrating src with the migrations in fsys.
func New(src Source, fsys fs.FS) *Migrator {
	return &Migrator{src: src, fsys: fsys}
}

// Name implements server.Fairing.
func (m *Migrator) Name() string { return "migrate (" + m.src.Name() + ")" }

// OnIgnite applies every pending migration.
func (m *Migrator) OnIgnite(ctx context.Context, _ *server.Server) error {
	db := m.src.DB()
	if db == nil {
		return fmt.Errorf("%s is not open; attach it before its migrations", m.src.Name())
	}
	_, err := Up(ctx, db, m.fsys)
	return err
}

// OnShutdown implements server.Fairing.
func (m *Migrator) OnShutdown(context.Context) error { return nil }

// Up applies the pending migrations found in fsys/<dialect> and returns
// the versions applied. A missing or empty directory is not an error.
func Up(ctx context.Context, db *orm.DB, fsys fs.FS) ([]int64, error) {
	name := db.Dialect().Name()
	dialect, err := gooseDialect(name)
	if err != nil {
		return nil, err
	}

	sub, err := fs.Sub(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db.Raw(), sub)
	if errors.Is(err, goose.ErrNoMigrations) {
		log.Warn().Str("dialect", name).Msg("no migrations found")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: up: %w", err)
	}

	versions := make([]int64, 0, len(results))
	for _, r := range results {
		log.Info().
			Int64("version", r.Source.Version).
			Str("file", r.Source.Path).
			Dur("duration", r.Duration).
			Msg("migration applied")
		versions = append(versions, r.Source.Version)
	}
	return versions, nil
}

func gooseDialect(name string) (goose.Dialect, error) {
	switch name {
	case "postgres":
		return goose.DialectPostgres, nil
	case "mysql":
		return goose.DialectMySQL, nil
	case "sqlite":
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("migrate: unsupported dialect %q", name)
	}
}
