// Package app assembles the example server.
package app

import (
	"github.com/go-chi/chi/v5"

	"github.com/mickamy/elucify/config"
	"github.com/mickamy/elucify/example/basic/auth"
	"github.com/mickamy/elucify/example/basic/httpapi"
	"github.com/mickamy/elucify/example/basic/migrations"
	"github.com/mickamy/elucify/migrate"
	"github.com/mickamy/elucify/pool"
	"github.com/mickamy/elucify/server"
)

// DatabaseName is the configuration key of the application's pool:
// databases.my_database.
const DatabaseName = "my_database"

// Rocket builds the server with the database pool and its migrations
// attached and the API mounted.
func Rocket(cfg *config.Config) (*server.Server, error) {
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}

	db := pool.New(DatabaseName)
	api := &httpapi.Handler{DBName: DatabaseName, Issuer: issuer}

	srv := server.Build(cfg).
		Attach(db).
		Attach(migrate.New(db, migrations.FS)).
		Mount("/api/v1", api.Routes).
		Mount("/healthz", func(r chi.Router) { r.Get("/", api.Health) })
	return srv, nil
}
