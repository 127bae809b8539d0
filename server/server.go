// Package server builds an HTTP server whose lifecycle is extended by
// attachable fairings.
//
//	srv := server.Build(cfg).
//		Attach(pool.New("my_database")).
//		Mount("/api/v1", routes)
//	err := srv.Launch(ctx)
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mickamy/elucify/config"
)

// Fairing hooks into the server lifecycle.
type Fairing interface {
	// Name identifies the fairing in logs and errors.
	Name() string
	// OnIgnite runs before the server accepts requests. Fairings may
	// install middleware with Server.Use here.
	OnIgnite(ctx context.Context, s *Server) error
	// OnShutdown runs after the server stopped accepting requests.
	OnShutdown(ctx context.Context) error
}

type mount struct {
	pattern string
	fn      func(r chi.Router)
}

// Server is an HTTP server under construction. The router is assembled
// from the recorded middleware and mounts when Handler is called, so
// fairings can add middleware after routes were mounted.
type Server struct {
	cfg *config.Config

	mu          sync.Mutex
	fairings    []Fairing
	ignited     []Fairing
	middlewares []func(http.Handler) http.Handler
	mounts      []mount
}

// Build creates a server listening on cfg.Addr().
func Build(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// Config returns the configuration the server was built with.
func (s *Server) Config() *config.Config { return s.cfg }

// Attach registers a fairing. Fairings ignite in attach order.
func (s *Server) Attach(f Fairing) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fairings = append(s.fairings, f)
	return s
}

// Mount registers routes under pattern.
func (s *Server) Mount(pattern string, fn func(r chi.Router)) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounts = append(s.mounts, mount{pattern: pattern, fn: fn})
	return s
}

// Use adds middleware running after the built-in stack, in call order.
func (s *Server) Use(mw ...func(http.Handler) http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middlewares = append(s.middlewares, mw...)
}

// Ignite runs OnIgnite of every attached fairing in attach order. When a
// fairing fails, the fairings ignited before it are shut down in reverse
// order and the error is returned.
func (s *Server) Ignite(ctx context.Context) error {
	s.mu.Lock()
	var pending []Fairing
	for _, f := range s.fairings {
		if !slices.Contains(s.ignited, f) {
			pending = append(pending, f)
		}
	}
	s.mu.Unlock()

	for _, f := range pending {
		if err := f.OnIgnite(ctx, s); err != nil {
			err = fmt.Errorf("server: ignite %s: %w", f.Name(), err)
			if serr := s.Shutdown(context.WithoutCancel(ctx)); serr != nil {
				err = errors.Join(err, serr)
			}
			return err
		}
		log.Info().Str("fairing", f.Name()).Msg("ignited")
		s.mu.Lock()
		s.ignited = append(s.ignited, f)
		s.mu.Unlock()
	}
	return nil
}

// Shutdown runs OnShutdown of every ignited fairing in reverse order.
// Every fairing is shut down even when an earlier one fails.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ignited := s.ignited
	s.ignited = nil
	s.mu.Unlock()

	var errs []error
	for i := len(ignited) - 1; i >= 0; i-- {
		f := ignited[i]
		if err := f.OnShutdown(ctx); err != nil {
			log.Error().Err(err).Str("fairing", f.Name()).Msg("shutdown failed")
			errs = append(errs, fmt.Errorf("server: shutdown %s: %w", f.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Handler assembles the router: request id, real ip, request logging,
// panic recovery and CORS, then fairing middleware, then mounted routes.
func (s *Server) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))
	r.Use(s.middlewares...)

	for _, m := range s.mounts {
		r.Route(m.pattern, m.fn)
	}
	return r
}

// Launch ignites the fairings and serves HTTP on the configured address
// until ctx is cancelled.
func (s *Server) Launch(ctx context.Context) error {
	if err := s.Ignite(ctx); err != nil {
		return err
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr())
	if err != nil {
		return errors.Join(fmt.Errorf("server: listen: %w", err), s.Shutdown(context.WithoutCancel(ctx)))
	}
	return s.Serve(ctx, ln)
}

// Serve ignites any fairing not yet ignited and serves HTTP on ln until
// ctx is cancelled. The HTTP server is then shut down gracefully within the
// configured shutdown timeout, followed by the fairings in reverse order.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.Ignite(ctx); err != nil {
		_ = ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           otelhttp.NewHandler(s.Handler(), "elucify"),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("server starting")
		errCh <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server: serve: %w", err)
		}
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	errs = append(errs, serveErr)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server: shutdown: %w", err))
	}
	errs = append(errs, s.Shutdown(shutdownCtx))
	return errors.Join(errs...)
}
