// Package pool provides a server fairing managing a named database pool.
//
// The pool reads its settings from the databases.<name> configuration
// table. The URL scheme selects the driver:
//
//	postgres://, postgresql://  pgx (pgxpool)
//	pq://                       lib/pq
//	mysql://                    go-sql-driver/mysql
//	sqlite://, sqlite:, file:   modernc.org/sqlite
package pool

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mickamy/elucify/config"
	"github.com/mickamy/elucify/logging"
	"github.com/mickamy/elucify/orm"
	"github.com/mickamy/elucify/server"
)

// ErrNotIgnited is returned by operations that need an open pool before
// the fairing was ignited.
var ErrNotIgnited = errors.New("pool: not ignited")

// Pool is a fairing owning one database pool.
type Pool struct {
	name string

	mu    sync.RWMutex
	db    *orm.DB
	close func() error
}

// New returns a pool fairing bound to the databases.<name> configuration.
func New(name string) *Pool {
	return &Pool{name: name}
}

// Name implements server.Fairing.
func (p *Pool) Name() string { return "pool " + p.name }

// OnIgnite opens and pings the pool, then installs Middleware.
func (p *Pool) OnIgnite(ctx context.Context, s *server.Server) error {
	db, err := p.Open(ctx, s.Config())
	if err != nil {
		return err
	}
	s.Use(p.Middleware)
	log.Info().Str("db", p.name).Str("dialect", db.Dialect().Name()).Msg("database pool opened")
	return nil
}

// OnShutdown closes the pool.
func (p *Pool) OnShutdown(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.close()
	p.db, p.close = nil, nil
	if err != nil {
		return fmt.Errorf("pool %s: close: %w", p.name, err)
	}
	return nil
}

// Open connects the pool using cfg without attaching it to a server.
func (p *Pool) Open(ctx context.Context, cfg *config.Config) (*orm.DB, error) {
	dbCfg, err := cfg.Database(p.name)
	if err != nil {
		return nil, err
	}

	db, closeFn, err := connect(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", p.name, err)
	}
	if logging.DebugEnabled() {
		db = db.Debug(logging.QueryLogger{Name: p.name})
	}

	p.mu.Lock()
	p.db, p.close = db, closeFn
	p.mu.Unlock()
	return db, nil
}

// DB returns the open pool, or nil before ignition.
func (p *Pool) DB() *orm.DB {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.db
}

// Ping checks the pool is reachable.
func (p *Pool) Ping(ctx context.Context) error {
	db := p.DB()
	if db == nil {
		return ErrNotIgnited
	}
	return db.PingContext(ctx)
}

type ctxKey string

// Middleware makes the pool available to handlers through FromContext.
func (p *Pool) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if db := p.DB(); db != nil {
			r = r.WithContext(WithDB(r.Context(), p.name, db))
		}
		next.ServeHTTP(w, r)
	})
}

// WithDB returns a copy of ctx carrying db under name.
func WithDB(ctx context.Context, name string, db *orm.DB) context.Context {
	return context.WithValue(ctx, ctxKey(name), db)
}

// FromContext returns the pool installed under name by Middleware.
func FromContext(ctx context.Context, name string) (*orm.DB, bool) {
	db, ok := ctx.Value(ctxKey(name)).(*orm.DB)
	return db, ok && db != nil
}
